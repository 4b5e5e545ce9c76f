package annotation

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/lueurxax/linking-dashboard/internal/core/results"
	"github.com/lueurxax/linking-dashboard/internal/core/span"
)

// ArticleInput is everything the registry needs for one article in one column.
type ArticleInput struct {
	// Column is the position of the compared system on screen.
	Column int
	// Index is the position of the article in its benchmark.
	Index     int
	Benchmark string
	Linker    string
	Article   results.Article
	// TextLen is the article text length in UTF-16 code units.
	TextLen    int
	Cases      []results.Case
	Linked     *results.LinkedArticle
	Hyperlinks bool
}

// Lists are the per-kind annotation lists of one article. Each list is sorted
// by start and internally non-overlapping.
type Lists struct {
	GroundTruthOnly []Annotation
	Others          []Annotation
	Hyperlinks      []Annotation
}

// Combined merges the lists into one nested, non-overlapping list.
func (l Lists) Combined() []Annotation {
	return CombineAll(l.GroundTruthOnly, l.Others, l.Hyperlinks)
}

// PartialEvaluation decides whether a benchmark scores only part of each article.
type PartialEvaluation func(benchmark string) bool

// Registry builds annotation lists from evaluation cases.
type Registry struct {
	partial PartialEvaluation
}

// NewRegistry returns a registry. A nil predicate never shows
// out-of-evaluation predictions.
func NewRegistry(partial PartialEvaluation) *Registry {
	if partial == nil {
		partial = func(string) bool { return false }
	}

	return &Registry{partial: partial}
}

// articleBuild holds the per-article lookup state.
type articleBuild struct {
	in      ArticleInput
	byLabel map[int]*results.Case
	// groundTruths bounds parent walks.
	groundTruths int
	next         int
}

func (b *articleBuild) nextID() string {
	id := fmt.Sprintf("%d-%d-%d", b.in.Column, b.in.Index, b.next)
	b.next++

	return id
}

// Build constructs the annotation lists of one article. Child ground-truth
// mentions are never added on their own; they are attached to their root as
// alternatives.
func (r *Registry) Build(in ArticleInput) Lists {
	b := &articleBuild{in: in, byLabel: labelIndex(in.Cases), groundTruths: countGroundTruths(in.Cases)}

	var lists Lists

	for i := range in.Cases {
		c := &in.Cases[i]

		s := c.Span.Span()
		if !s.Valid() || s.Empty() {
			continue
		}

		switch {
		case c.PredictedEntity != nil:
			lists.Others = append(lists.Others, b.caseAnnotation(c, s))
		case c.TrueEntity != nil && !c.TrueEntity.IsChild():
			lists.GroundTruthOnly = append(lists.GroundTruthOnly, b.caseAnnotation(c, s))
		}
	}

	if in.Linked != nil && r.partial(in.Benchmark) {
		lists.Others = append(lists.Others, b.outsidePredictions()...)
	}

	if in.Hyperlinks {
		for _, h := range in.Article.Hyperlinks {
			s := h.Span.Span()
			if !s.Valid() || s.Empty() {
				continue
			}

			lists.Hyperlinks = append(lists.Hyperlinks, NewBuilder(s).Hyperlink(h.Target).ID(b.nextID()).Build())
		}
	}

	lists.GroundTruthOnly = Deduplicate(lists.GroundTruthOnly)
	lists.Others = Deduplicate(lists.Others)
	lists.Hyperlinks = Deduplicate(lists.Hyperlinks)

	return lists
}

func (b *articleBuild) caseAnnotation(c *results.Case, s span.Span) Annotation {
	builder := NewBuilder(s)

	if gt := c.TrueEntity; gt != nil {
		root := gt
		if gt.IsChild() {
			if rc, ok := b.root(c); ok {
				root = rc.TrueEntity
			}
		}

		builder.GroundTruth(b.groundTruth(root))
	}

	if pe := c.PredictedEntity; pe != nil {
		source := pe.Source
		if source == "" {
			source = b.in.Linker
		}

		builder.Prediction(Prediction{
			EntityID:   pe.ID,
			EntityName: pe.Name,
			Types:      pe.Types,
			Source:     source,
			Evaluated:  true,
		})
	}

	return builder.
		ID(b.nextID()).
		MentionType(MentionType(c.MentionType)).
		Tags(c.Tags).
		Build()
}

func (b *articleBuild) groundTruth(e *results.GroundTruthEntity) GroundTruth {
	gt := GroundTruth{
		EntityID:   e.ID,
		EntityName: e.Name,
		Types:      e.Types,
		Optional:   e.Optional,
		Unknown:    e.Unknown,
	}

	if e.LabelID != nil {
		gt.LabelID = strconv.Itoa(*e.LabelID)
	}

	if e.Parent != nil {
		gt.ParentID = strconv.Itoa(*e.Parent)
	}

	for _, child := range e.Children {
		cc, ok := b.byLabel[child]
		if !ok {
			continue
		}

		gt.Alternatives = append(gt.Alternatives, Alternative{
			Span:       cc.Span.Span(),
			Text:       cc.Text,
			EntityID:   cc.TrueEntity.ID,
			EntityName: cc.TrueEntity.Name,
		})
	}

	return gt
}

// root follows parent pointers from c to the root ground truth. The walk is
// bounded by the number of ground-truth cases, so a cycle yields false.
func (b *articleBuild) root(c *results.Case) (*results.Case, bool) {
	cur := c

	for range b.groundTruths {
		if !cur.TrueEntity.IsChild() {
			return cur, true
		}

		next, ok := b.byLabel[*cur.TrueEntity.Parent]
		if !ok {
			return nil, false
		}

		cur = next
	}

	return nil, false
}

// outsidePredictions turns linker output outside the evaluation span into
// unevaluated prediction annotations.
func (b *articleBuild) outsidePredictions() []Annotation {
	evaluated := b.in.Article.Evaluated(b.in.TextLen)

	var out []Annotation

	for _, m := range b.in.Linked.Mentions {
		s := m.Span.Span()
		if !s.Valid() || s.Empty() || span.Overlaps(s, evaluated) {
			continue
		}

		source := m.LinkedBy
		if source == "" {
			source = b.in.Linker
		}

		out = append(out, NewBuilder(s).
			Prediction(Prediction{
				EntityID:   m.EntityID,
				EntityName: m.Name,
				Types:      m.Types,
				Source:     source,
			}).
			ID(b.nextID()).
			Build())
	}

	return out
}

// labelIndex maps label ids to the first ground-truth case carrying them.
// Cases without a label id cannot be referenced and are left out.
func labelIndex(cases []results.Case) map[int]*results.Case {
	byLabel := make(map[int]*results.Case)

	for i := range cases {
		c := &cases[i]
		if c.TrueEntity == nil || c.TrueEntity.LabelID == nil {
			continue
		}

		if _, seen := byLabel[*c.TrueEntity.LabelID]; !seen {
			byLabel[*c.TrueEntity.LabelID] = c
		}
	}

	return byLabel
}

func countGroundTruths(cases []results.Case) int {
	n := 0

	for i := range cases {
		if cases[i].TrueEntity != nil {
			n++
		}
	}

	return n
}

// Deduplicate sorts list by start and collapses overlapping annotations.
// The longer span wins; on equal length the one carrying ground truth wins,
// otherwise the earlier one is kept.
func Deduplicate(list []Annotation) []Annotation {
	if len(list) == 0 {
		return list
	}

	sorted := append([]Annotation(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool { return span.Less(sorted[i].Span, sorted[j].Span) })

	out := sorted[:1]

	for _, cur := range sorted[1:] {
		last := &out[len(out)-1]
		if !span.Overlaps(last.Span, cur.Span) {
			out = append(out, cur)

			continue
		}

		if replaces(*last, cur) {
			*last = cur
		}
	}

	return out
}

func replaces(prev, cur Annotation) bool {
	if cur.Span.Len() != prev.Span.Len() {
		return cur.Span.Len() > prev.Span.Len()
	}

	return cur.HasGroundTruth() && !prev.HasGroundTruth()
}
