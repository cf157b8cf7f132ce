package render

import (
	"fmt"
	"html/template"
	"net/url"

	"github.com/sakif/prompt-cards/internal/model"
)

// ActionKind identifies a card button.
type ActionKind string

const (
	ActionSave             ActionKind = "save"
	ActionCopy             ActionKind = "copy"
	ActionEdit             ActionKind = "edit"
	ActionDelete           ActionKind = "delete"
	ActionToggleVisibility ActionKind = "toggle-visibility"
	ActionShare            ActionKind = "share"
)

// CardAction is one button on a card.
type CardAction struct {
	Kind  ActionKind
	Icon  string
	Label string
	// URL is the endpoint the button targets. Method is GET or POST.
	URL    string
	Method string
}

// Card is the display form of one record.
type Card struct {
	ID           string
	QuotedPrompt string
	AILabel      string
	Created      string
	// Badge is "Public" or "Private", empty when no badge is shown.
	Badge   string
	Public  bool
	Result  template.HTML
	Delay   string
	Actions []CardAction
}

// Context is who is looking at the cards and from where.
type Context struct {
	SessionActive bool
	View          model.ViewMode
	// ShareLink is true on the public share page. SharedUserID is the
	// user id from the link, used to build that page's download and copy URLs.
	ShareLink    bool
	SharedUserID string
	// OwnerID is the active user; share URLs point at it.
	OwnerID string
	BaseURL string
}

// OwnerViewer reports whether the viewer may edit: no share link, and either
// no session or a session in owner view.
func (c Context) OwnerViewer() bool {
	return !c.ShareLink && (!c.SessionActive || c.View != model.ViewPublic)
}

// Cards projects records to display cards, most recently added first.
//
// ACTIONS PER CARD:
//   - always:                        save, copy
//   - owner viewer:                  edit, delete
//   - owner viewer with a session:   make public / make private
//   - public record with a session, outside a share link: share
func Cards(records []model.PromptRecord, ctx Context) []Card {
	cards := make([]Card, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		cards = append(cards, card(records[i], i, ctx))
	}
	return cards
}

func card(r model.PromptRecord, index int, ctx Context) Card {
	c := Card{
		ID:           r.ID,
		QuotedPrompt: `"` + r.Prompt + `"`,
		AILabel:      fmt.Sprintf("AI: %s | Model: %s", r.AIName, r.ModelName),
		Created:      "Created: " + r.Timestamp,
		Public:       r.IsPublic,
		Result:       SafeHTML(r.Result),
		// same stagger as insertion order, so the newest card lands last
		Delay: fmt.Sprintf("%gs", float64(index)/10),
	}

	if ctx.SessionActive && !ctx.ShareLink {
		c.Badge = "Private"
		if r.IsPublic {
			c.Badge = "Public"
		}
	}

	id := url.PathEscape(r.ID)
	if ctx.ShareLink {
		q := "?user=" + url.QueryEscape(ctx.SharedUserID)
		c.Actions = append(c.Actions,
			CardAction{Kind: ActionSave, Icon: "💾", Label: "Save", Method: "GET", URL: "/public/prompts/" + id + "/export" + q},
			CardAction{Kind: ActionCopy, Icon: "📋", Label: "Copy", Method: "GET", URL: "/api/public/prompts/" + id + "/clipboard" + q},
		)
	} else {
		c.Actions = append(c.Actions,
			CardAction{Kind: ActionSave, Icon: "💾", Label: "Save", Method: "GET", URL: "/prompts/" + id + "/export"},
			CardAction{Kind: ActionCopy, Icon: "📋", Label: "Copy", Method: "GET", URL: "/api/prompts/" + id + "/clipboard"},
		)
	}

	if ctx.OwnerViewer() {
		c.Actions = append(c.Actions,
			CardAction{Kind: ActionEdit, Icon: "✏️", Label: "Edit", Method: "POST", URL: "/prompts/" + id + "/edit"},
			CardAction{Kind: ActionDelete, Icon: "🗑️", Label: "Delete", Method: "POST", URL: "/prompts/" + id + "/delete"},
		)
		if ctx.SessionActive {
			toggle := CardAction{Kind: ActionToggleVisibility, Icon: "🌐", Label: "Make Public", Method: "POST", URL: "/prompts/" + id + "/visibility"}
			if r.IsPublic {
				toggle.Icon, toggle.Label = "🔒", "Make Private"
			}
			c.Actions = append(c.Actions, toggle)
		}
	}

	if r.IsPublic && ctx.SessionActive && !ctx.ShareLink {
		c.Actions = append(c.Actions, CardAction{
			Kind:   ActionShare,
			Icon:   "🔗",
			Label:  "Share",
			Method: "GET",
			URL:    ShareURL(ctx.BaseURL, ctx.OwnerID),
		})
	}

	return c
}

// ShareURL is the link to ownerID's public page.
func ShareURL(baseURL, ownerID string) string {
	return baseURL + "/public?user=" + url.QueryEscape(ownerID)
}

// HasAction reports whether c offers kind.
func (c Card) HasAction(kind ActionKind) bool {
	for _, a := range c.Actions {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
