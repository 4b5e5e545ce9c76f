// Package render overlays annotations on article text and produces HTML.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	"github.com/lueurxax/linking-dashboard/internal/core/span"
	"github.com/lueurxax/linking-dashboard/internal/platform/htmlutils"
)

//go:embed templates/*.html
var templateFS embed.FS

// ArticleSeparator separates articles when several are rendered at once.
const ArticleSeparator = `<hr class="article-separator">`

// Renderer turns combined annotation lists into HTML. It keeps no state
// between calls besides the parsed templates.
type Renderer struct {
	tmpl   *template.Template
	logger *zerolog.Logger
}

// NewRenderer creates a new renderer.
func NewRenderer(logger *zerolog.Logger) (*Renderer, error) {
	tmpl, err := template.New("annotation.html").ParseFS(templateFS, "templates/annotation.html")
	if err != nil {
		return nil, fmt.Errorf("parse annotation template: %w", err)
	}

	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// Document is the text an annotation list refers to.
type Document struct {
	Text string
	// EvaluationSpan is the scored region; a zero span means the whole text.
	EvaluationSpan span.Span
}

// Options control classification and markup of one render.
type Options struct {
	Selection annotation.Selection
	Mode      annotation.EvaluationMode
	// ShowContext renders the whole text instead of only the evaluation span.
	ShowContext      bool
	TypeLabels       map[string]string
	EntityBaseURL    string
	HyperlinkBaseURL string
}

// Output is a rendered HTML fragment plus the element ids of emphasised
// annotation starts in document order, for next/previous navigation.
type Output struct {
	HTML       template.HTML
	Navigation []string
}

// bounds returns the [begin, end) region to render, clamped to the text.
func (d Document) bounds(textLen int, showContext bool) span.Span {
	b := d.EvaluationSpan
	if showContext || (b.Start == 0 && b.End == 0) {
		b = span.New(0, textLen)
	}

	b.Start = max(0, min(b.Start, textLen))
	b.End = max(b.Start, min(b.End, textLen))

	return b
}

// Render substitutes every annotation inside the render bounds with its
// markup. anns must be sorted by start and non-overlapping.
//
// Annotations are processed from the last to the first so that offsets of
// annotations still to be processed stay valid. Annotations starting before
// the bound end processing; those reaching past it are clipped. Render never
// fails: markup that cannot be produced falls back to the escaped text.
func (r *Renderer) Render(doc Document, anns []annotation.Annotation, opts Options) Output {
	text := htmlutils.NewText(doc.Text)
	bound := doc.bounds(text.Len(), opts.ShowContext)

	pieces := make([]string, 0, 2*len(anns)+1)
	navGroups := make([][]string, 0, len(anns))
	cursor := bound.End

	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		if a.Span.Start < bound.Start {
			break
		}

		if !a.Span.Valid() {
			continue
		}

		s, ok := span.Clip(a.Span, span.New(bound.Start, cursor))
		if !ok {
			continue
		}

		markup, nav := r.annotation(a, text.Slice(s.Start, s.End), opts)

		pieces = append(pieces, htmlutils.EscapeText(text.Slice(s.End, cursor)), markup)
		navGroups = append(navGroups, nav)
		cursor = s.Start
	}

	pieces = append(pieces, htmlutils.EscapeText(text.Slice(bound.Start, cursor)))
	slices.Reverse(pieces)
	slices.Reverse(navGroups)

	return Output{
		HTML:       template.HTML(strings.Join(pieces, "")), //nolint:gosec // pieces are escaped text and template output
		Navigation: slices.Concat(navGroups...),
	}
}

// annotation renders one annotation chain, innermost level first.
func (r *Renderer) annotation(a annotation.Annotation, text string, opts Options) (string, []string) {
	content := template.HTML(htmlutils.EscapeText(text)) //nolint:gosec // escaped above

	chain := a.Chain()

	var nav []string

	for i := len(chain) - 1; i >= 0; i-- {
		level := chain[i]

		var (
			buf bytes.Buffer
			err error
		)

		if level.Hyperlink != nil {
			err = r.tmpl.ExecuteTemplate(&buf, "hyperlink", hyperlinkView{
				Href:    hyperlinkHref(level.Hyperlink.Target, opts),
				Content: content,
			})
		} else {
			res := annotation.Classify(level, opts.Selection, opts.Mode)
			view := r.annotationView(level, res, content, opts)

			if view.DOMID != "" && !res.Lowlight && res.Class != annotation.Normal {
				nav = append(nav, view.DOMID)
			}

			err = r.tmpl.ExecuteTemplate(&buf, "annotation", view)
		}

		if err != nil {
			r.logger.Warn().Err(err).Str("annotation_id", level.ID).Msg("annotation markup failed, rendering plain text")

			continue
		}

		content = template.HTML(buf.String()) //nolint:gosec // template output
	}

	slices.Reverse(nav)

	return string(content), nav
}

// Article is one document with its combined annotations.
type Article struct {
	Document    Document
	Annotations []annotation.Annotation
}

// RenderAll renders several articles separated by ArticleSeparator.
func (r *Renderer) RenderAll(articles []Article, opts Options) Output {
	parts := make([]string, 0, len(articles))

	var out Output

	for _, art := range articles {
		o := r.Render(art.Document, art.Annotations, opts)
		parts = append(parts, string(o.HTML))
		out.Navigation = append(out.Navigation, o.Navigation...)
	}

	out.HTML = template.HTML(strings.Join(parts, ArticleSeparator)) //nolint:gosec // rendered fragments

	return out
}
