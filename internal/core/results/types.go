// Package results reads precomputed benchmark evaluation files.
//
// Nothing here scores anything: counts, cases and tags are produced upstream
// and only loaded and reshaped for display.
package results

import (
	"fmt"
	"strings"

	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
	"github.com/lueurxax/linking-dashboard/internal/core/span"
)

// Pair is a [start, end) offset pair as stored in the result files.
type Pair [2]int

// Span converts the pair into a span.
func (p Pair) Span() span.Span {
	return span.FromPair(p)
}

// Experiment identifies one linker run on one benchmark.
type Experiment struct {
	Linker    string `json:"linker"`
	Benchmark string `json:"benchmark"`
}

// Key is the cache and URL key of the experiment.
func (e Experiment) Key() string {
	return e.Linker + "/" + e.Benchmark
}

func (e Experiment) String() string {
	return fmt.Sprintf("%s on %s", e.Linker, e.Benchmark)
}

// Validate checks that both names can be used as file name parts.
func (e Experiment) Validate() error {
	if !ValidName(e.Linker) || !ValidName(e.Benchmark) {
		return fmt.Errorf("experiment %q: %w", e.Key(), apperrors.ErrInvalidInput)
	}

	return nil
}

// ValidName reports whether a linker or benchmark name stays inside its
// directory when joined into a path.
func ValidName(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}

	return !strings.ContainsAny(name, "/\\\x00")
}

// Article is one benchmark article.
type Article struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Text           string      `json:"text"`
	EvaluationSpan *Pair       `json:"evaluation_span,omitempty"`
	Hyperlinks     []Hyperlink `json:"hyperlinks"`
}

// Evaluated returns the scored region, the whole text when not set.
func (a Article) Evaluated(textLen int) span.Span {
	if a.EvaluationSpan == nil {
		return span.New(0, textLen)
	}

	return a.EvaluationSpan.Span()
}

// Hyperlink is a link present in the article text.
type Hyperlink struct {
	Span   Pair   `json:"span"`
	Target string `json:"target"`
}

// GroundTruthEntity is the ground-truth side of an evaluation case.
type GroundTruthEntity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Types    []string `json:"types"`
	LabelID  *int     `json:"label_id,omitempty"`
	Parent   *int     `json:"parent,omitempty"`
	Children []int    `json:"children,omitempty"`
	Optional bool     `json:"optional,omitempty"`
	Unknown  bool     `json:"unknown,omitempty"`
}

// IsChild reports whether the entity points at a parent mention.
func (g *GroundTruthEntity) IsChild() bool {
	return g != nil && g.Parent != nil
}

// PredictedEntity is the prediction side of an evaluation case.
type PredictedEntity struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Types  []string `json:"types"`
	Source string   `json:"source,omitempty"`
}

// Case is one evaluation case: a ground-truth mention, a prediction or a
// pair of both over the same span.
type Case struct {
	Span            Pair               `json:"span"`
	Text            string             `json:"text"`
	MentionType     string             `json:"mention_type"`
	Tags            []string           `json:"error_labels"`
	TrueEntity      *GroundTruthEntity `json:"true_entity,omitempty"`
	PredictedEntity *PredictedEntity   `json:"predicted_entity,omitempty"`
}

// LinkedArticle is the raw linker output for one article.
type LinkedArticle struct {
	ID       string    `json:"id"`
	Mentions []Mention `json:"entity_mentions"`
}

// Mention is one raw linker prediction.
type Mention struct {
	Span     Pair     `json:"span"`
	EntityID string   `json:"id"`
	Name     string   `json:"name"`
	Types    []string `json:"types"`
	LinkedBy string   `json:"linked_by,omitempty"`
}
