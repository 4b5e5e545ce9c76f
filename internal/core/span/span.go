// Package span models half-open text intervals over an article.
//
// Offsets are UTF-16 code units into the article text, matching the offsets
// written by the evaluation tooling that produces the result files.
package span

import "fmt"

// Span is the half-open interval [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// New returns the span [start, end).
func New(start, end int) Span {
	return Span{Start: start, End: end}
}

// FromPair converts the [start, end] pair used in the JSON result files.
func FromPair(pair [2]int) Span {
	return Span{Start: pair[0], End: pair[1]}
}

// Len returns the number of code units covered by the span.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}

	return s.End - s.Start
}

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool {
	return s.Len() == 0
}

// Valid reports whether the span is well formed.
func (s Span) Valid() bool {
	return s.Start >= 0 && s.Start <= s.End
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Overlaps reports whether a and b share at least one code unit. An empty
// span overlaps nothing.
func Overlaps(a, b Span) bool {
	if a.Empty() || b.Empty() {
		return false
	}

	return a.Start < b.End && b.Start < a.End
}

// Precedes reports whether a ends at or before the start of b.
func Precedes(a, b Span) bool {
	return a.End <= b.Start
}

// Clip restricts s to bound. The second return value is false when s is
// empty or lies fully outside bound. Clip never extends a span.
func Clip(s, bound Span) (Span, bool) {
	if !Overlaps(s, bound) {
		return Span{}, false
	}

	clipped := s
	if clipped.Start < bound.Start {
		clipped.Start = bound.Start
	}

	if clipped.End > bound.End {
		clipped.End = bound.End
	}

	return clipped, true
}

// Less orders spans by start, then by end.
func Less(a, b Span) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}

	return a.End < b.End
}
