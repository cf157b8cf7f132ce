package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
)

// CookieName is the cookie carrying the signed profile token.
const CookieName = "profile"

type contextKey string

const profileIDKey contextKey = "profileID"

// Profile is a middleware that attaches a browser profile to every request.
//
// It reads the signed "profile" cookie. When the cookie is missing or fails
// validation, a fresh profile id is minted and a new cookie is set on the
// response, the same way a new browser starts with empty local storage.
// The request is never rejected.
func Profile(tokens *TokenService, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profileID, err := extractProfileID(r, tokens)
			if err != nil {
				if profileID, err = mintProfile(w, tokens, secure); err != nil {
					logger.Error("signing profile token", "error", err)
					http.Error(w, "internal server error", http.StatusInternalServerError)
					return
				}
				logger.Debug("minted browser profile", "profile", profileID)
			}

			next.ServeHTTP(w, r.WithContext(WithProfileID(r.Context(), profileID)))
		})
	}
}

// WithProfileID returns a copy of ctx carrying profileID.
// Handler tests use it to skip the cookie round trip.
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileIDKey, profileID)
}

// ProfileIDFromContext returns the profile id set by the Profile middleware.
// Returns ("", false) when the request did not pass through it.
func ProfileIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileIDKey).(string)
	return id, ok && id != ""
}

// extractProfileID fails with http.ErrNoCookie for a browser seen for the
// first time, or with the validation error for a bad cookie.
func extractProfileID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}

// mintProfile creates a profile id and sets its cookie on w.
func mintProfile(w http.ResponseWriter, tokens *TokenService, secure bool) (string, error) {
	profileID := xid.New().String()
	token, err := tokens.Generate(profileID)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ProfileLifetime.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return profileID, nil
}
