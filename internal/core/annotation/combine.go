package annotation

import "github.com/lueurxax/linking-dashboard/internal/core/span"

// Combine merges two lists that are each sorted by start and internally
// non-overlapping into one sorted, non-overlapping list covering the union.
//
// Overlapping regions are split. The part of an item before the other list's
// next item is emitted on its own, the remainder continues with
// Beginning=false. A shared region is emitted once: a copy of the first-list
// item with the second-list item nested as its innermost level. First-list
// items are always the outer shell.
func Combine(first, second []Annotation) []Annotation {
	out := make([]Annotation, 0, len(first)+len(second))

	i, j := 0, 0

	var a, b Annotation

	haveA, haveB := false, false

	for {
		if !haveA && i < len(first) {
			a, haveA = first[i], true
			i++
		}

		if !haveB && j < len(second) {
			b, haveB = second[j], true
			j++
		}

		if !haveA || !haveB {
			break
		}

		switch {
		case a.Span.Start < b.Span.Start:
			a, haveA, out = emitUntil(a, b.Span.Start, out)
		case b.Span.Start < a.Span.Start:
			b, haveB, out = emitUntil(b, a.Span.Start, out)
		default:
			end := min(a.Span.End, b.Span.End)
			shared := span.New(a.Span.Start, end)

			out = append(out, a.WithSpan(shared).Nest(b.WithSpan(shared)))

			a, haveA = remainder(a, end)
			b, haveB = remainder(b, end)
		}
	}

	if haveA {
		out = append(out, a)
	}

	if haveB {
		out = append(out, b)
	}

	out = append(out, first[i:]...)
	out = append(out, second[j:]...)

	return out
}

// emitUntil emits item up to limit. If the item ends at or before limit it is
// emitted whole and consumed; otherwise the head is emitted and the tail kept.
func emitUntil(item Annotation, limit int, out []Annotation) (Annotation, bool, []Annotation) {
	if item.Span.End <= limit {
		return Annotation{}, false, append(out, item)
	}

	out = append(out, item.WithSpan(span.New(item.Span.Start, limit)))
	rest, ok := remainder(item, limit)

	return rest, ok, out
}

// remainder returns the part of item starting at from, marked as a continuation.
func remainder(item Annotation, from int) (Annotation, bool) {
	if item.Span.End <= from {
		return Annotation{}, false
	}

	return item.WithSpan(span.New(from, item.Span.End)).Continuation(), true
}

// CombineAll merges the three per-kind lists in the order required for valid
// markup: ground-truth-only with everything else first, hyperlinks last so
// they always end up innermost.
func CombineAll(groundTruthOnly, others, hyperlinks []Annotation) []Annotation {
	return Combine(Combine(groundTruthOnly, others), hyperlinks)
}
