// Package auth: password storage and checking.
//
// TWO STORED FORMS:
// The browser version stored passwords exactly as typed, and existing
// directories (imported dumps) still contain them that way. New passwords
// are stored as typed too, unless hashing is switched on, in which case they
// are stored as bcrypt hashes. Matches accepts both forms, so switching the
// option on or off never locks anybody out.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor (~250ms on a modern server).
const defaultCost = 12

// MaxHashedLength is the bcrypt input limit.
const MaxHashedLength = 72

// ErrPasswordTooLong is returned by Protect when hashing is on and the password
// exceeds MaxHashedLength bytes.
var ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")

// PasswordService stores and checks account passwords.
type PasswordService struct {
	cost    int
	hashing bool
}

// NewPasswordService creates a PasswordService. hashing selects whether
// Protect stores bcrypt hashes or the password as typed.
func NewPasswordService(hashing bool) *PasswordService {
	return &PasswordService{cost: defaultCost, hashing: hashing}
}

// NewPasswordServiceForTest creates a PasswordService with a custom bcrypt cost.
// Do NOT use in production with cost 4, it is far too weak.
func NewPasswordServiceForTest(cost int, hashing bool) *PasswordService {
	return &PasswordService{cost: cost, hashing: hashing}
}

// Hashing reports whether new passwords are stored hashed.
func (p *PasswordService) Hashing() bool {
	return p.hashing
}

// Protect returns the form of plaintext to persist.
func (p *PasswordService) Protect(plaintext string) (string, error) {
	if !p.hashing {
		return plaintext, nil
	}
	return p.Hash(plaintext)
}

// Hash returns the bcrypt hash of plaintext, refusing input bcrypt would truncate.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxHashedLength {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches the bcrypt hash.
func (p *PasswordService) Verify(hash, plaintext string) error {
	switch err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return errors.New("auth: password does not match")
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}

// Matches reports whether plaintext is the password stored as stored,
// whichever of the two forms stored is in.
func (p *PasswordService) Matches(stored, plaintext string) bool {
	if IsBcryptHash(stored) {
		return p.Verify(stored, plaintext) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plaintext)) == 1
}

// IsBcryptHash reports whether s looks like a bcrypt hash.
func IsBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
