// Package viewer serves rendered articles for the dashboard.
//
// It owns the per-user view state, the ordering of concurrent render
// requests, the experiment cache and the background loading of result files.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/rs/zerolog"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
	"github.com/lueurxax/linking-dashboard/internal/platform/htmlutils"
	"github.com/lueurxax/linking-dashboard/internal/render"
)

// AllArticles requests every article of the benchmark at once.
const AllArticles = -1

// Messages shown in place of a column that cannot be rendered.
const (
	MessageNoData     = "No data available for this experiment yet. Try again in a moment."
	MessageLoadFailed = "Loading the result files of this experiment failed."
	MessageNoArticle  = "This experiment has no such article."
	MessageBenchmark  = "This experiment was run on a different benchmark."
)

// Column is one compared system's rendering of the requested article.
type Column struct {
	Experiment results.Experiment
	HTML       template.HTML
	Navigation []string
	// Error is a displayable message replacing HTML when rendering failed.
	Error string
}

// Page is a rendered article request.
type Page struct {
	Benchmark string
	Article   int
	Title     string
	Articles  int
	Columns   []Column
}

// Options are render settings that do not depend on the view.
type Options struct {
	TypeLabels       map[string]string
	EntityBaseURL    string
	HyperlinkBaseURL string
}

// Viewer renders articles for sessions.
type Viewer struct {
	store    *Store
	registry *annotation.Registry
	renderer *render.Renderer
	opts     Options
	logger   *zerolog.Logger
}

// New creates a viewer.
func New(store *Store, registry *annotation.Registry, renderer *render.Renderer, opts Options, logger *zerolog.Logger) *Viewer {
	return &Viewer{
		store:    store,
		registry: registry,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
}

// Render renders the current article of the session's view. ts is the client
// timestamp of the request. It returns ErrStale when a newer request of the
// same session arrived while this one was waiting for data.
func (v *Viewer) Render(ctx context.Context, sess *Session, ts int64) (*Page, error) {
	ticket := sess.Guard.Begin(ts)
	view := sess.View()

	if len(view.Experiments) == 0 {
		return nil, fmt.Errorf("no experiment selected: %w", apperrors.ErrInvalidInput)
	}

	page := &Page{
		Benchmark: view.Experiments[0].Benchmark,
		Article:   view.Article,
	}

	for i, exp := range view.Experiments {
		col := Column{Experiment: exp}

		data, err := v.store.Wait(ctx, exp)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			col.Error = v.message(exp, err)
			page.Columns = append(page.Columns, col)

			continue
		}

		if i == 0 {
			page.Articles = len(data.Articles)
			page.Title = title(data, view.Article)
		}

		v.renderColumn(&col, i, data, view, page.Benchmark)
		page.Columns = append(page.Columns, col)
	}

	if !sess.Guard.Current(ticket) {
		staleTotal.Inc()

		return nil, apperrors.ErrStale
	}

	return page, nil
}

func (v *Viewer) message(exp results.Experiment, err error) string {
	if errors.Is(err, apperrors.ErrLoadFailed) {
		v.logger.Warn().Err(err).Str("experiment", exp.Key()).Msg("experiment data failed to load")

		return MessageLoadFailed
	}

	v.logger.Debug().Err(err).Str("experiment", exp.Key()).Msg("experiment data not ready")

	return MessageNoData
}

func title(data *ExperimentData, article int) string {
	if article == AllArticles {
		return "All articles"
	}

	if article < 0 || article >= len(data.Articles) {
		return ""
	}

	a := data.Articles[article]
	if t := htmlutils.StripHTMLTags(a.Title); t != "" {
		return t
	}

	return a.ID
}

func (v *Viewer) renderColumn(col *Column, column int, data *ExperimentData, view View, benchmark string) {
	if data.Experiment.Benchmark != benchmark {
		col.Error = MessageBenchmark

		return
	}

	opts := render.Options{
		Selection:        view.Selection,
		Mode:             view.Mode,
		ShowContext:      view.ShowContext,
		TypeLabels:       v.opts.TypeLabels,
		EntityBaseURL:    v.opts.EntityBaseURL,
		HyperlinkBaseURL: v.opts.HyperlinkBaseURL,
	}

	if view.Article == AllArticles {
		articles := make([]render.Article, 0, len(data.Articles))
		for idx := range data.Articles {
			articles = append(articles, v.article(column, idx, data, view))
		}

		out := v.renderer.RenderAll(articles, opts)
		col.HTML, col.Navigation = out.HTML, out.Navigation

		return
	}

	if view.Article < 0 || view.Article >= len(data.Articles) {
		col.Error = MessageNoArticle

		return
	}

	art := v.article(column, view.Article, data, view)
	out := v.renderer.Render(art.Document, art.Annotations, opts)
	col.HTML, col.Navigation = out.HTML, out.Navigation
}

// article builds the combined annotation list of one article.
func (v *Viewer) article(column, idx int, data *ExperimentData, view View) render.Article {
	a := data.Articles[idx]
	textLen := htmlutils.UTF16Len(a.Text)

	lists := v.registry.Build(annotation.ArticleInput{
		Column:     column,
		Index:      idx,
		Benchmark:  data.Experiment.Benchmark,
		Linker:     data.Experiment.Linker,
		Article:    a,
		TextLen:    textLen,
		Cases:      data.Cases[idx],
		Linked:     data.Linked[a.ID],
		Hyperlinks: view.Hyperlinks,
	})

	return render.Article{
		Document: render.Document{
			Text:           a.Text,
			EvaluationSpan: a.Evaluated(textLen),
		},
		Annotations: lists.Combined(),
	}
}
