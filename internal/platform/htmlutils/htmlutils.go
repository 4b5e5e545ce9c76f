// Package htmlutils provides text and HTML helpers for article rendering.
//
// The package handles:
//   - UTF-16 offsets (the unit used by the evaluation result files)
//   - Line break normalisation for rendered text
//   - Tag stripping for titles shown outside markup
//   - Link target sanitisation
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
)

// UTF16Len returns the number of UTF-16 code units needed to encode the string.
// Characters outside the BMP (emoji, etc.) require surrogate pairs (2 code units).
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// Text is an article text addressed by UTF-16 code units.
type Text []uint16

// NewText encodes s.
func NewText(s string) Text {
	return utf16.Encode([]rune(s))
}

// Len returns the length in code units.
func (t Text) Len() int {
	return len(t)
}

// Slice returns the substring [start, end). Bounds are clamped to the text,
// an inverted range yields "".
func (t Text) Slice(start, end int) string {
	start = max(0, min(start, len(t)))
	end = max(start, min(end, len(t)))

	return string(utf16.Decode(t[start:end]))
}

func (t Text) String() string {
	return string(utf16.Decode(t))
}

const lineBreak = "<br>"

var lineBreakReplacer = strings.NewReplacer("\r\n", lineBreak, "\r", lineBreak, "\n", lineBreak)

// LineBreaks replaces every line break in already escaped text with <br>.
func LineBreaks(s string) string {
	return lineBreakReplacer.Replace(s)
}

// EscapeText escapes s for HTML and converts its line breaks.
func EscapeText(s string) string {
	return LineBreaks(html.EscapeString(s))
}

var tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)

// StripHTMLTags removes all HTML tags from text, keeping only the content.
func StripHTMLTags(text string) string {
	result := tagRegex.ReplaceAllString(text, "")
	result = html.UnescapeString(result)

	return strings.TrimSpace(result)
}

// dangerousProtocols lists URL protocols that should be stripped
var dangerousProtocols = []string{
	"javascript:",
	"vbscript:",
	"data:",
}

// SafeHref returns target unless it uses a dangerous protocol, in which case
// it returns "".
func SafeHref(target string) string {
	lower := strings.ToLower(strings.TrimSpace(target))

	for _, p := range dangerousProtocols {
		if strings.HasPrefix(lower, p) {
			return ""
		}
	}

	return strings.TrimSpace(target)
}
