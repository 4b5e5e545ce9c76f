package dashboard

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
	"github.com/lueurxax/linking-dashboard/internal/viewer"
)

// Query parameters of the article view.
const (
	paramExperiment = "exp"
	paramArticle    = "article"
	paramFilter     = "filter"
	paramHighlight  = "highlight"
	paramMode       = "mode"
	paramHyperlinks = "hyperlinks"
	paramContext    = "context"
	paramTimestamp  = "ts"
	paramFormat     = "format"
	paramBy         = "by"

	articleAll = "all"
)

// ParseExperiment parses "linker/benchmark".
func ParseExperiment(s string) (results.Experiment, error) {
	linker, benchmark, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return results.Experiment{}, fmt.Errorf("experiment %q: %w", s, apperrors.ErrInvalidInput)
	}

	exp := results.Experiment{Linker: linker, Benchmark: benchmark}
	if err := exp.Validate(); err != nil {
		return results.Experiment{}, err
	}

	return exp, nil
}

// viewUpdate is the parsed set of parameters present in a request. Absent
// parameters keep the session's current value.
type viewUpdate struct {
	experiments []results.Experiment
	article     *int
	filter      *string
	highlight   *annotation.HighlightMode
	mode        *annotation.EvaluationMode
	hyperlinks  *bool
	showContext *bool
}

func parseViewUpdate(q url.Values) (viewUpdate, error) {
	var u viewUpdate

	for _, raw := range q[paramExperiment] {
		exp, err := ParseExperiment(raw)
		if err != nil {
			return u, err
		}

		u.experiments = append(u.experiments, exp)
	}

	if q.Has(paramArticle) {
		article, err := parseArticle(q.Get(paramArticle))
		if err != nil {
			return u, err
		}

		u.article = &article
	}

	if q.Has(paramFilter) {
		f := q.Get(paramFilter)
		u.filter = &f
	}

	if q.Has(paramHighlight) {
		h := annotation.ParseHighlightMode(q.Get(paramHighlight))
		u.highlight = &h
	}

	if q.Has(paramMode) {
		m := annotation.ParseEvaluationMode(q.Get(paramMode))
		u.mode = &m
	}

	var err error

	if u.hyperlinks, err = parseFlag(q, paramHyperlinks); err != nil {
		return u, err
	}

	if u.showContext, err = parseFlag(q, paramContext); err != nil {
		return u, err
	}

	return u, nil
}

func parseArticle(s string) (int, error) {
	if s == articleAll {
		return viewer.AllArticles, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("article %q: %w", s, apperrors.ErrInvalidInput)
	}

	return n, nil
}

func parseFlag(q url.Values, key string) (*bool, error) {
	if !q.Has(key) {
		return nil, nil //nolint:nilnil // absent flag keeps the current value
	}

	raw := q.Get(key)
	if raw == "" || raw == "on" {
		v := true
		return &v, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", key, raw, apperrors.ErrInvalidInput)
	}

	return &v, nil
}

// apply merges the update into v. When the compared experiments change and
// the request does not say otherwise, context outside the evaluation span is
// shown for partially evaluated benchmarks.
func (u viewUpdate) apply(v *viewer.View, families results.BenchmarkFamilies) {
	if len(u.experiments) > 0 {
		changed := !sameExperiments(v.Experiments, u.experiments)
		v.Experiments = u.experiments

		if changed {
			v.ShowContext = families.PartialEvaluation(u.experiments[0].Benchmark)
		}
	}

	if u.article != nil {
		v.Article = *u.article
	}

	if u.highlight != nil {
		v.Selection.Highlight = *u.highlight
	}

	if u.filter != nil {
		v.Selection = annotation.ParseSelection(*u.filter, v.Selection.Highlight)
	}

	if u.mode != nil {
		v.Mode = *u.mode
	}

	if u.hyperlinks != nil {
		v.Hyperlinks = *u.hyperlinks
	}

	if u.showContext != nil {
		v.ShowContext = *u.showContext
	}
}

func sameExperiments(a, b []results.Experiment) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// articleQuery renders a view back into article view parameters.
func articleQuery(v viewer.View, article int) url.Values {
	q := url.Values{}

	for _, exp := range v.Experiments {
		q.Add(paramExperiment, exp.Key())
	}

	if article == viewer.AllArticles {
		q.Set(paramArticle, articleAll)
	} else {
		q.Set(paramArticle, strconv.Itoa(article))
	}

	if f := v.Selection.String(); f != "" {
		q.Set(paramFilter, f)
	}

	q.Set(paramHighlight, v.Selection.Highlight.String())
	q.Set(paramMode, v.Mode.String())
	q.Set(paramHyperlinks, strconv.FormatBool(v.Hyperlinks))
	q.Set(paramContext, strconv.FormatBool(v.ShowContext))

	return q
}

func articleURL(v viewer.View, article int) string {
	return "/article?" + articleQuery(v, article).Encode()
}

func parseTimestamp(q url.Values) int64 {
	ts, err := strconv.ParseInt(q.Get(paramTimestamp), 10, 64)
	if err != nil || ts < 0 {
		return 0
	}

	return ts
}
