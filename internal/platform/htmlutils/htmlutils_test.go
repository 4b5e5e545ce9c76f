package htmlutils

import "testing"

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"abc", 3},
		{"Zürich", 6},
		{"😀", 2},
		{"a😀b", 4},
	}

	for _, tt := range tests {
		if got := UTF16Len(tt.input); got != tt.expected {
			t.Errorf("UTF16Len(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestText_Slice(t *testing.T) {
	text := NewText("😀 Barack Obama")

	tests := []struct {
		name       string
		start, end int
		expected   string
	}{
		{"after surrogate pair", 3, 9, "Barack"},
		{"surrogate pair", 0, 2, "😀"},
		{"clamped end", 10, 100, "Obama"},
		{"negative start", -5, 2, "😀"},
		{"inverted", 5, 3, ""},
		{"past end", 50, 60, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := text.Slice(tt.start, tt.end); got != tt.expected {
				t.Errorf("Slice(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.expected)
			}
		})
	}

	if text.Len() != 15 {
		t.Errorf("Len() = %d, want 15", text.Len())
	}

	if text.String() != "😀 Barack Obama" {
		t.Errorf("String() = %q", text.String())
	}
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"a < b & c", "a &lt; b &amp; c"},
		{"line1\nline2", "line1<br>line2"},
		{"windows\r\nbreak", "windows<br>break"},
		{"old\rmac", "old<br>mac"},
		{"<b>\n</b>", "&lt;b&gt;<br>&lt;/b&gt;"},
	}

	for _, tt := range tests {
		if got := EscapeText(tt.input); got != tt.expected {
			t.Errorf("EscapeText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestStripHTMLTags(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"<b>Bold</b> title", "Bold title"},
		{"  Tom &amp; Jerry ", "Tom & Jerry"},
		{"no tags", "no tags"},
	}

	for _, tt := range tests {
		if got := StripHTMLTags(tt.input); got != tt.expected {
			t.Errorf("StripHTMLTags(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSafeHref(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://en.wikipedia.org/wiki/Barack_Obama", "https://en.wikipedia.org/wiki/Barack_Obama"},
		{" JavaScript:alert(1)", ""},
		{"data:text/html,x", ""},
		{"Barack_Obama", "Barack_Obama"},
	}

	for _, tt := range tests {
		if got := SafeHref(tt.input); got != tt.expected {
			t.Errorf("SafeHref(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
