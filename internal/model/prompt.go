package model

// TimestampLayout is the display format stamped onto new records.
// It matches the en-US locale string the browser version produced, e.g.
// "3/14/2025, 9:26:53 AM".
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// PromptRecord is one saved prompt and the AI result it produced.
//
// Result holds rich content (sanitized HTML). Timestamp is a display string,
// not a parseable time: it is rendered as-is.
//
// A record belongs to exactly one collection: a user's Prompts, or the
// unscoped legacy collection used when nobody is logged in.
type PromptRecord struct {
	ID        string `json:"id"`
	Prompt    string `json:"prompt"`
	AIName    string `json:"aiName"`
	ModelName string `json:"modelName"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
	IsPublic  bool   `json:"isPublic"`
}

// ViewMode selects which subset of a logged-in user's prompts is shown.
type ViewMode string

const (
	ViewOwner  ViewMode = "owner"
	ViewPublic ViewMode = "public"
)

// ParseViewMode maps a raw value to a ViewMode. Anything unknown is owner.
func ParseViewMode(s string) ViewMode {
	if ViewMode(s) == ViewPublic {
		return ViewPublic
	}
	return ViewOwner
}

// Draft is the unsaved content of the add-prompt form.
// The field names are the input element ids the browser version keyed them by.
type Draft struct {
	Prompt    string `json:"promptInput,omitempty"`
	AIName    string `json:"aiNameInput,omitempty"`
	ModelName string `json:"modelNameInput,omitempty"`
	Result    string `json:"resultInput,omitempty"`
}

// IsEmpty reports whether no field of the draft holds text.
func (d Draft) IsEmpty() bool {
	return d.Prompt == "" && d.AIName == "" && d.ModelName == "" && d.Result == ""
}
