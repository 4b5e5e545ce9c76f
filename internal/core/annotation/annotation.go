// Package annotation turns evaluation cases into renderable annotations.
//
// It holds the annotation model, the combiner that merges independently
// spanned annotation lists into one nested, non-overlapping list, the
// classifier that decides how an annotation is styled for the current
// selection, and the registry that builds the per-article lists.
package annotation

import (
	"strings"

	"github.com/lueurxax/linking-dashboard/internal/core/span"
)

// Kind is the source an annotation comes from.
type Kind int

const (
	KindGroundTruth Kind = iota
	KindPrediction
	KindHyperlink
)

func (k Kind) String() string {
	switch k {
	case KindGroundTruth:
		return "ground_truth"
	case KindPrediction:
		return "prediction"
	case KindHyperlink:
		return "hyperlink"
	}

	return "unknown"
}

// Class is the visual classification of an annotation.
type Class int

const (
	Normal Class = iota
	TruePositive
	FalsePositive
	FalseNegative
	Unknown
	Optional
	Unevaluated
)

func (c Class) String() string {
	switch c {
	case TruePositive:
		return "tp"
	case FalsePositive:
		return "fp"
	case FalseNegative:
		return "fn"
	case Unknown:
		return "unknown"
	case Optional:
		return "optional"
	case Unevaluated:
		return "unevaluated"
	case Normal:
		return "normal"
	}

	return "normal"
}

// IsError reports whether the class counts as an error.
func (c Class) IsError() bool {
	return c == FalsePositive || c == FalseNegative
}

// MentionType is the coarse category of a mention.
type MentionType string

const (
	MentionNamed      MentionType = "named"
	MentionNonNamed   MentionType = "nonnamed"
	MentionUnknown    MentionType = "unknown"
	MentionNominal    MentionType = "nominal"
	MentionPronominal MentionType = "pronominal"
)

// Label returns the human readable mention type.
func (m MentionType) Label() string {
	switch m {
	case MentionNamed:
		return "named entity"
	case MentionNonNamed:
		return "non-named entity"
	case MentionUnknown:
		return "unknown entity"
	case MentionNominal:
		return "nominal coreference"
	case MentionPronominal:
		return "pronominal coreference"
	}

	return string(m)
}

// IsUnknownEntity reports whether id is a marker for an entity outside the
// knowledge base.
func IsUnknownEntity(id string) bool {
	switch id {
	case "<NIL>", "NIL", "nil":
		return true
	}

	return strings.HasPrefix(id, "Unknown")
}

// Alternative is a child mention carried by its root ground truth.
type Alternative struct {
	Span       span.Span
	Text       string
	EntityID   string
	EntityName string
}

// GroundTruth is the ground-truth side of an annotation.
type GroundTruth struct {
	EntityID     string
	EntityName   string
	Types        []string
	LabelID      string
	ParentID     string
	Optional     bool
	Unknown      bool
	Alternatives []Alternative
}

// Prediction is the predicted side of an annotation.
type Prediction struct {
	EntityID   string
	EntityName string
	Types      []string
	Source     string
	Evaluated  bool
}

// Unknown reports whether the predicted entity is an unknown marker.
func (p *Prediction) Unknown() bool {
	return IsUnknownEntity(p.EntityID)
}

// Hyperlink is a link in the article text.
type Hyperlink struct {
	Target string
}

// Annotation is one renderable span. It may carry a ground-truth side, a
// prediction side or both; hyperlink annotations carry only the link.
// An annotation exclusively owns at most one inner annotation.
type Annotation struct {
	Span        span.Span
	Kind        Kind
	ID          string
	Beginning   bool
	MentionType MentionType
	Tags        []string
	GroundTruth *GroundTruth
	Prediction  *Prediction
	Hyperlink   *Hyperlink
	Inner       *Annotation
}

// WithSpan returns a copy of the annotation chain with every level set to s.
// Sides are shared; they are never mutated after construction.
func (a Annotation) WithSpan(s span.Span) Annotation {
	out := a
	out.Span = s

	if a.Inner != nil {
		inner := a.Inner.WithSpan(s)
		out.Inner = &inner
	}

	return out
}

// Continuation returns a copy of the chain with Beginning cleared on every
// level. All levels of a chain share one span, so a fragment that does not
// start the outer annotation does not start any inner one either.
func (a Annotation) Continuation() Annotation {
	out := a
	out.Beginning = false

	if a.Inner != nil {
		inner := a.Inner.Continuation()
		out.Inner = &inner
	}

	return out
}

// Nest returns a copy of the chain with inner appended as its innermost level.
func (a Annotation) Nest(inner Annotation) Annotation {
	out := a

	if a.Inner == nil {
		in := inner
		out.Inner = &in

		return out
	}

	nested := a.Inner.Nest(inner)
	out.Inner = &nested

	return out
}

// Chain returns the annotation levels from outermost to innermost.
func (a Annotation) Chain() []Annotation {
	chain := []Annotation{a}

	for cur := a.Inner; cur != nil; cur = cur.Inner {
		chain = append(chain, *cur)
	}

	return chain
}

// HasGroundTruth reports whether the annotation carries a ground-truth side.
func (a Annotation) HasGroundTruth() bool { return a.GroundTruth != nil }

// HasPrediction reports whether the annotation carries a prediction side.
func (a Annotation) HasPrediction() bool { return a.Prediction != nil }

// Builder constructs one immutable Annotation per logical mention. Ground
// truth fields are filled first, then prediction fields, then shared fields.
type Builder struct {
	ann Annotation
	gt  *GroundTruth
	pr  *Prediction
}

// NewBuilder starts an annotation over s.
func NewBuilder(s span.Span) *Builder {
	return &Builder{ann: Annotation{Span: s, Beginning: true}}
}

// GroundTruth sets the ground-truth side.
func (b *Builder) GroundTruth(gt GroundTruth) *Builder {
	if IsUnknownEntity(gt.EntityID) {
		gt.Unknown = true
	}

	b.gt = &gt

	return b
}

// Prediction sets the prediction side.
func (b *Builder) Prediction(p Prediction) *Builder {
	b.pr = &p

	return b
}

// Hyperlink makes the annotation a hyperlink decoration.
func (b *Builder) Hyperlink(target string) *Builder {
	b.ann.Hyperlink = &Hyperlink{Target: target}

	return b
}

// ID sets the identifier shared by all fragments of the annotation.
func (b *Builder) ID(id string) *Builder {
	b.ann.ID = id

	return b
}

// MentionType sets the mention type.
func (b *Builder) MentionType(m MentionType) *Builder {
	b.ann.MentionType = m

	return b
}

// Tags sets the fine-grained error tags of the underlying case.
func (b *Builder) Tags(tags []string) *Builder {
	b.ann.Tags = append([]string(nil), tags...)

	return b
}

// Build returns the annotation.
func (b *Builder) Build() Annotation {
	out := b.ann
	out.GroundTruth = b.gt
	out.Prediction = b.pr

	switch {
	case out.Hyperlink != nil:
		out.Kind = KindHyperlink
	case b.pr != nil:
		out.Kind = KindPrediction
	default:
		out.Kind = KindGroundTruth
	}

	return out
}
