package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"time"

	"github.com/sakif/prompt-cards/internal/model"
)

var exportTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Saved Prompt</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 20px; }
    .prompt-info { margin-bottom: 20px; }
    .result { border: 1px solid #ccc; padding: 15px; }
  </style>
</head>
<body>
  <div class="prompt-info">
    <h2>"{{.Prompt}}"</h2>
    <p><strong>AI:</strong> {{.AIName}} | <strong>Model:</strong> {{.ModelName}}</p>
    <p><strong>Created:</strong> {{.Timestamp}}</p>
  </div>
  <div class="result">{{.Result}}</div>
</body>
</html>
`))

// ExportDocument builds the standalone HTML document offered as a download.
func ExportDocument(r model.PromptRecord) ([]byte, error) {
	var buf bytes.Buffer
	err := exportTemplate.Execute(&buf, struct {
		model.PromptRecord
		Result template.HTML
	}{PromptRecord: r, Result: SafeHTML(r.Result)})
	if err != nil {
		return nil, fmt.Errorf("render: export document: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename names a download by its creation time.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("prompt_%d.html", now.UnixMilli())
}

// Clipboard is the dual-format content written by a copy.
type Clipboard struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// ClipboardPayload builds the rich and plain clipboard forms of a record.
func ClipboardPayload(r model.PromptRecord) Clipboard {
	e := html.EscapeString
	rich := fmt.Sprintf("<div><strong>Prompt:</strong> %s<br>\n"+
		"<strong>AI:</strong> %s | <strong>Model:</strong> %s<br>\n"+
		"<strong>Created:</strong> %s<br><br>\n"+
		"<strong>Result:</strong><br>%s</div>",
		e(r.Prompt), e(r.AIName), e(r.ModelName), e(r.Timestamp), Sanitize(r.Result))

	plain := fmt.Sprintf("Prompt: %s\nAI: %s\nModel: %s\nCreated: %s\n\nResult:\n%s",
		r.Prompt, r.AIName, r.ModelName, r.Timestamp, PlainText(r.Result))

	return Clipboard{HTML: rich, Text: plain}
}
