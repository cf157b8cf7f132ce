package model

import (
	"fmt"
	"slices"
	"strings"
)

// Style preference bounds and defaults.
const (
	MinFontSize       = 8
	MaxFontSize       = 72
	DefaultFontSize   = 16
	MinCardWidth      = 200
	MaxCardWidth      = 1200
	DefaultCardWidth  = 500
	DefaultFontFamily = "'Segoe UI', Tahoma, Geneva, Verdana, sans-serif"
)

// FontFamilies are the choices offered by the style picker.
var FontFamilies = []string{
	DefaultFontFamily,
	"Georgia, 'Times New Roman', serif",
	"'Courier New', Courier, monospace",
	"Arial, Helvetica, sans-serif",
	"system-ui, -apple-system, sans-serif",
}

// StylePreferences are the display settings shared by every page of a profile.
// They do not belong to any user; a User only keeps a snapshot taken at signup.
type StylePreferences struct {
	FontSize   int    `json:"fontSize"`
	CardWidth  int    `json:"cardWidth"`
	FontFamily string `json:"fontFamily"`
}

// DefaultStylePreferences returns the preferences used when nothing is stored.
func DefaultStylePreferences() StylePreferences {
	return StylePreferences{
		FontSize:   DefaultFontSize,
		CardWidth:  DefaultCardWidth,
		FontFamily: DefaultFontFamily,
	}
}

// Normalized fills zero fields with defaults, clamps numbers into range and
// replaces a font family that is not one of FontFamilies with the default.
// The family ends up inside a style attribute, so imported values are never
// trusted.
func (p StylePreferences) Normalized() StylePreferences {
	if p.FontSize == 0 {
		p.FontSize = DefaultFontSize
	}
	if p.CardWidth == 0 {
		p.CardWidth = DefaultCardWidth
	}
	if p.FontFamily = strings.TrimSpace(p.FontFamily); !slices.Contains(FontFamilies, p.FontFamily) {
		p.FontFamily = DefaultFontFamily
	}
	p.FontSize = clamp(p.FontSize, MinFontSize, MaxFontSize)
	p.CardWidth = clamp(p.CardWidth, MinCardWidth, MaxCardWidth)
	return p
}

// CSSVariable is one presentation variable consumed by the page stylesheet.
type CSSVariable struct {
	Name  string
	Value string
}

// CSSVariables returns the custom properties the templates set on :root.
func (p StylePreferences) CSSVariables() []CSSVariable {
	return []CSSVariable{
		{Name: "--font-size", Value: fmt.Sprintf("%dpx", p.FontSize)},
		{Name: "--card-width", Value: fmt.Sprintf("%dpx", p.CardWidth)},
		{Name: "--font-family", Value: p.FontFamily},
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
