// Package render turns prompt records into what the pages, downloads and
// clipboard receive. Everything here is a pure function of its input.
package render

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// policy is the allowlist applied to result content. A bluemonday policy is
// safe for concurrent use once built.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// Pasted AI output keeps its light inline formatting.
	p.AllowStyles(
		"color", "background-color",
		"font-weight", "font-style", "font-size", "font-family",
		"text-decoration", "text-align",
	).Globally()
	return p
}

// Sanitize restricts rich result content to user-generated-content markup.
// Scripts, event handlers and javascript: URLs are removed; formatting stays.
func Sanitize(content string) string {
	return policy.Sanitize(content)
}

// SafeHTML sanitizes content and marks it safe for html/template.
func SafeHTML(content string) template.HTML {
	return template.HTML(Sanitize(content))
}

// LineBreaks converts CRLF and LF line breaks to <br>.
func LineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// blockElements end a line when they open or close.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "dl": true, "dt": true, "dd": true, "figure": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"ol": true, "section": true, "table": true, "tr": true, "ul": true,
}

// PlainText approximates the rendered text of rich content, the way a
// browser's innerText would: <br> and block boundaries become newlines,
// paragraphs are separated by a blank line, entities are decoded and
// runs of source whitespace collapse to one space outside <pre>.
func PlainText(content string) string {
	var (
		b      strings.Builder
		inPre  int
		skip   int
		tokens = html.NewTokenizer(strings.NewReader(content))
	)

	for {
		tt := tokens.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF, or a malformed tail: either way keep what was read
			return strings.Trim(b.String(), "\n ")

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(tokens.Text())
			if inPre == 0 {
				text = collapseSpace(text)
				if endsWithNewline(&b) || b.Len() == 0 {
					text = strings.TrimLeft(text, " ")
				}
			}
			b.WriteString(text)

		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokens.TagName()
			tag := string(name)
			opening := tt != html.EndTagToken

			switch {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			case tag == "br":
				if opening {
					trimTrailingSpace(&b)
					b.WriteByte('\n')
				}
			case tag == "p":
				ensureBreaks(&b, 2)
			case tag == "pre":
				ensureBreaks(&b, 1)
				if tt == html.StartTagToken {
					inPre++
				} else if tt == html.EndTagToken && inPre > 0 {
					inPre--
				}
			case tag == "td" || tag == "th":
				if !opening {
					b.WriteByte('\t')
				}
			case blockElements[tag]:
				ensureBreaks(&b, 1)
			}
		}
	}
}

// collapseSpace folds whitespace runs to one space, keeping a single
// leading or trailing space so adjacent text nodes don't run together.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f'
}

func endsWithNewline(b *strings.Builder) bool {
	s := b.String()
	return s != "" && s[len(s)-1] == '\n'
}

func trimTrailingSpace(b *strings.Builder) {
	s := b.String()
	trimmed := strings.TrimRight(s, " ")
	if len(trimmed) != len(s) {
		b.Reset()
		b.WriteString(trimmed)
	}
}

// ensureBreaks makes the text end in at least n newlines, unless it is empty.
func ensureBreaks(b *strings.Builder, n int) {
	if b.Len() == 0 {
		return
	}
	trimTrailingSpace(b)
	s := b.String()
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for ; have < n; have++ {
		b.WriteByte('\n')
	}
}
