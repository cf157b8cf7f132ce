package service

import "github.com/sakif/prompt-cards/internal/model"

// ViewContext is everything the visibility filter looks at.
type ViewContext struct {
	// ShareLink is true on the public share page; SharedPrompts then holds
	// the shared user's records.
	ShareLink     bool
	SharedPrompts []model.PromptRecord

	SessionActive bool
	View          model.ViewMode
	Scoped        []model.PromptRecord
}

// FilterVisible returns the records to render, in collection order.
//
//   - share link:                 shared records with isPublic
//   - session active, public view: scoped records with isPublic
//   - otherwise:                  the full scoped collection
//
// It is used for rendering only. Mutations always address the full scoped
// collection by id.
func FilterVisible(vc ViewContext) []model.PromptRecord {
	switch {
	case vc.ShareLink:
		return publicOnly(vc.SharedPrompts)
	case vc.SessionActive && vc.View == model.ViewPublic:
		return publicOnly(vc.Scoped)
	default:
		return cloneRecords(vc.Scoped)
	}
}

func publicOnly(records []model.PromptRecord) []model.PromptRecord {
	out := make([]model.PromptRecord, 0, len(records))
	for _, r := range records {
		if r.IsPublic {
			out = append(out, r)
		}
	}
	return out
}
