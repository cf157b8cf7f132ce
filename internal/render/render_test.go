package render

import (
	"strings"
	"testing"
	"time"

	"github.com/sakif/prompt-cards/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, public bool) model.PromptRecord {
	return model.PromptRecord{
		ID:        id,
		Prompt:    "Prompt " + id,
		AIName:    "X",
		ModelName: "Y",
		Result:    "<p>Result " + id + "</p>",
		Timestamp: "3/14/2025, 9:26:53 AM",
		IsPublic:  public,
	}
}

func kinds(c Card) []ActionKind {
	out := make([]ActionKind, 0, len(c.Actions))
	for _, a := range c.Actions {
		out = append(out, a.Kind)
	}
	return out
}

// =========================================================================
// CARDS TESTS
// =========================================================================

func TestCards_ReverseOrderAndFields(t *testing.T) {
	records := []model.PromptRecord{record("a", false), record("b", false), record("c", false)}

	cards := Cards(records, Context{})

	require.Len(t, cards, 3)
	assert.Equal(t, "c", cards[0].ID)
	assert.Equal(t, "a", cards[2].ID)

	c := cards[2]
	assert.Equal(t, `"Prompt a"`, c.QuotedPrompt)
	assert.Equal(t, "AI: X | Model: Y", c.AILabel)
	assert.Equal(t, "Created: 3/14/2025, 9:26:53 AM", c.Created)
	assert.Equal(t, "0s", c.Delay)
	assert.Equal(t, "0.2s", cards[0].Delay)
}

func TestCards_ActionsByContext(t *testing.T) {
	tests := []struct {
		name  string
		rec   model.PromptRecord
		ctx   Context
		want  []ActionKind
		badge string
	}{
		{
			name: "legacy mode",
			rec:  record("a", false),
			ctx:  Context{},
			want: []ActionKind{ActionSave, ActionCopy, ActionEdit, ActionDelete},
		},
		{
			name:  "owner view private",
			rec:   record("a", false),
			ctx:   Context{SessionActive: true, View: model.ViewOwner, OwnerID: "u1"},
			want:  []ActionKind{ActionSave, ActionCopy, ActionEdit, ActionDelete, ActionToggleVisibility},
			badge: "Private",
		},
		{
			name:  "owner view public",
			rec:   record("a", true),
			ctx:   Context{SessionActive: true, View: model.ViewOwner, OwnerID: "u1"},
			want:  []ActionKind{ActionSave, ActionCopy, ActionEdit, ActionDelete, ActionToggleVisibility, ActionShare},
			badge: "Public",
		},
		{
			name:  "public self-view",
			rec:   record("a", true),
			ctx:   Context{SessionActive: true, View: model.ViewPublic, OwnerID: "u1"},
			want:  []ActionKind{ActionSave, ActionCopy, ActionShare},
			badge: "Public",
		},
		{
			name: "share link",
			rec:  record("a", true),
			ctx:  Context{ShareLink: true, SharedUserID: "u1"},
			want: []ActionKind{ActionSave, ActionCopy},
		},
		{
			name: "share link with a session in this browser",
			rec:  record("a", true),
			ctx:  Context{ShareLink: true, SharedUserID: "u1", SessionActive: true},
			want: []ActionKind{ActionSave, ActionCopy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := Cards([]model.PromptRecord{tt.rec}, tt.ctx)
			require.Len(t, cards, 1)
			assert.Equal(t, tt.want, kinds(cards[0]))
			assert.Equal(t, tt.badge, cards[0].Badge)
		})
	}
}

func TestCards_ToggleLabel(t *testing.T) {
	ctx := Context{SessionActive: true, View: model.ViewOwner, OwnerID: "u1"}

	for _, tc := range []struct {
		public bool
		label  string
	}{{false, "Make Public"}, {true, "Make Private"}} {
		c := Cards([]model.PromptRecord{record("a", tc.public)}, ctx)[0]
		for _, a := range c.Actions {
			if a.Kind == ActionToggleVisibility {
				assert.Equal(t, tc.label, a.Label)
			}
		}
	}
}

func TestCards_ShareURL(t *testing.T) {
	ctx := Context{SessionActive: true, View: model.ViewOwner, OwnerID: "u 1", BaseURL: "https://p.example"}

	c := Cards([]model.PromptRecord{record("a", true)}, ctx)[0]
	share := c.Actions[len(c.Actions)-1]

	assert.Equal(t, ActionShare, share.Kind)
	assert.Equal(t, "https://p.example/public?user=u+1", share.URL)
}

func TestCards_ShareLinkURLsCarryUser(t *testing.T) {
	c := Cards([]model.PromptRecord{record("sample1", true)}, Context{ShareLink: true, SharedUserID: "nobody"})[0]

	assert.Equal(t, "/public/prompts/sample1/export?user=nobody", c.Actions[0].URL)
	assert.Equal(t, "/api/public/prompts/sample1/clipboard?user=nobody", c.Actions[1].URL)
}

func TestCards_ResultIsSanitized(t *testing.T) {
	r := record("a", false)
	r.Result = `<b>bold</b><script>alert(1)</script><img src=x onerror="alert(2)">`

	c := Cards([]model.PromptRecord{r}, Context{})[0]

	assert.Contains(t, string(c.Result), "<b>bold</b>")
	assert.NotContains(t, string(c.Result), "<script")
	assert.NotContains(t, string(c.Result), "onerror")
}

// =========================================================================
// CONTENT TESTS
// =========================================================================

func TestSanitize_KeepsInlineFormatting(t *testing.T) {
	got := Sanitize(`<span style="color: red">hot</span><a href="javascript:alert(1)">x</a>`)

	assert.Contains(t, got, `style="color: red"`)
	assert.NotContains(t, got, "javascript:")
}

func TestLineBreaks(t *testing.T) {
	assert.Equal(t, "a<br>b<br>c", LineBreaks("a\r\nb\nc"))
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Z", "Z"},
		{"br", "a<br>b<br/>c", "a\nb\nc"},
		{"paragraphs", "<p>one</p><p>two</p>", "one\n\ntwo"},
		{"list", "<ul><li>x</li><li>y</li></ul>", "x\ny"},
		{"entities", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"source whitespace", "<p>\n  spaced\n  out\n</p>", "spaced out"},
		{"inline tags", "<strong>Vision:</strong> see", "Vision: see"},
		{"script dropped", "a<script>bad()</script>b", "ab"},
		{"pre kept", "<pre>x\n  y</pre>", "x\n  y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlainText(tt.in))
		})
	}
}

func TestAddThenEditRoundTrip(t *testing.T) {
	// What Add stores, Edit turns back into what was typed.
	typed := "line one\nline two"
	stored := Sanitize(LineBreaks(typed))

	assert.Equal(t, typed, PlainText(stored))
}

// =========================================================================
// EXPORT / CLIPBOARD TESTS
// =========================================================================

func TestExportDocument(t *testing.T) {
	r := record("a", false)
	r.Prompt = `Why <b>?`
	r.Result = `<p>ok</p><script>x()</script>`

	doc, err := ExportDocument(r)
	require.NoError(t, err)
	s := string(doc)

	assert.True(t, strings.HasPrefix(s, "<!DOCTYPE html>"))
	assert.Contains(t, s, "Why &lt;b&gt;?", "prompt is escaped")
	assert.Contains(t, s, "<strong>AI:</strong> X | <strong>Model:</strong> Y")
	assert.Contains(t, s, "<p>ok</p>")
	assert.NotContains(t, s, "<script>")
}

func TestExportFilename(t *testing.T) {
	now := time.UnixMilli(1710408413123)
	assert.Equal(t, "prompt_1710408413123.html", ExportFilename(now))
}

func TestClipboardPayload(t *testing.T) {
	r := record("a", false)
	r.Result = "first<br>second"

	p := ClipboardPayload(r)

	assert.Contains(t, p.HTML, "<strong>Prompt:</strong> Prompt a<br>")
	assert.Contains(t, p.HTML, "first<br>second")
	assert.Equal(t, "Prompt: Prompt a\nAI: X\nModel: Y\nCreated: 3/14/2025, 9:26:53 AM\n\nResult:\nfirst\nsecond", p.Text)
}
