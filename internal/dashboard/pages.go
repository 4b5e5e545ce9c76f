package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
	"github.com/lueurxax/linking-dashboard/internal/viewer"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// Page template names.
const (
	pageIndex      = "index.html"
	pageExperiment = "experiment.html"
	pageArticle    = "article.html"
	pageError      = "error.html"
)

// Pages renders the dashboard's HTML pages.
type Pages struct {
	tmpl *template.Template
}

// NewPages parses the embedded page templates.
func NewPages() (*Pages, error) {
	tmpl, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}

	return &Pages{tmpl: tmpl}, nil
}

func (p *Pages) execute(w io.Writer, name string, data any) error {
	if err := p.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	return nil
}

// OverviewRow is one experiment of the overview table.
type OverviewRow struct {
	Experiment    results.Experiment `json:"experiment"`
	Counts        results.Counts     `json:"counts"`
	Precision     string             `json:"precision"`
	Recall        string             `json:"recall"`
	F1            string             `json:"f1"`
	ExperimentURL string             `json:"-"`
	ArticleURL    string             `json:"-"`
	ChartURL      string             `json:"-"`
}

// IndexData is the overview page.
type IndexData struct {
	Rows   []OverviewRow `json:"experiments"`
	Failed []string      `json:"failed,omitempty"`
}

// TableRow is one category of a breakdown table.
type TableRow struct {
	Key       string         `json:"key"`
	Label     string         `json:"label"`
	Counts    results.Counts `json:"counts"`
	Precision string         `json:"precision"`
	Recall    string         `json:"recall"`
	F1        string         `json:"f1"`
	FilterURL string         `json:"-"`
}

// Table is a titled breakdown table.
type Table struct {
	Title string     `json:"title"`
	Rows  []TableRow `json:"rows"`
}

// ErrorTableRow is one error tag with its rate.
type ErrorTableRow struct {
	Group     string `json:"group"`
	Tag       string `json:"tag"`
	Label     string `json:"label"`
	Errors    int    `json:"errors"`
	Total     int    `json:"total"`
	Rate      string `json:"rate"`
	FilterURL string `json:"-"`
}

// ExperimentData is the breakdown page of one experiment.
type ExperimentData struct {
	Title           string          `json:"title"`
	Overview        OverviewRow     `json:"overview"`
	ErrorCategories []ErrorTableRow `json:"error_categories"`
	Tables          []Table         `json:"tables"`
	ReloadURL       string          `json:"-"`
}

// Link is a labelled URL.
type Link struct {
	Label  string
	URL    string
	Active bool
}

// ArticleData is the article viewer page.
type ArticleData struct {
	Heading        string
	Page           *viewer.Page
	Filter         string
	Mode           string
	Hyperlinks     bool
	ShowContext    bool
	PrevURL        string
	NextURL        string
	AllURL         string
	ModeURL        string
	HyperlinksURL  string
	ContextURL     string
	ClearFilterURL string
	HighlightLinks []Link
}

// ErrorData is an error page.
type ErrorData struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"error"`
}

func experimentPath(prefix string, exp results.Experiment) string {
	return prefix + url.PathEscape(exp.Linker) + "/" + url.PathEscape(exp.Benchmark)
}

func overviewRow(exp results.Experiment, c results.Counts) OverviewRow {
	return OverviewRow{
		Experiment:    exp,
		Counts:        c,
		Precision:     Percent(c.Precision()),
		Recall:        Percent(c.Recall()),
		F1:            Percent(c.F1()),
		ExperimentURL: experimentPath("/experiment/", exp),
		ArticleURL:    filterURL(exp, annotation.NoSelection),
		ChartURL:      experimentPath("/chart/", exp),
	}
}

// filterURL opens the first article of exp with sel applied.
func filterURL(exp results.Experiment, sel annotation.Selection) string {
	q := url.Values{}
	q.Set(paramExperiment, exp.Key())
	q.Set(paramArticle, "0")

	if f := sel.String(); f != "" {
		q.Set(paramFilter, f)
	}

	return "/article?" + q.Encode()
}

func newExperimentData(res *results.Results, typeLabels map[string]string) *ExperimentData {
	exp := res.Experiment
	data := &ExperimentData{
		Title:     exp.String(),
		Overview:  overviewRow(exp, res.All),
		ReloadURL: experimentPath("/experiment/", exp) + "/reload",
	}

	for _, e := range res.ErrorCategories {
		sel := annotation.Selection{Category: annotation.FilterErrorCategory, Value: e.Group, Subcategory: e.Tag}
		data.ErrorCategories = append(data.ErrorCategories, ErrorTableRow{
			Group:     Label(e.Group),
			Tag:       e.Tag,
			Label:     Label(e.Tag),
			Errors:    e.Rate.Errors,
			Total:     e.Rate.Total,
			Rate:      Percent(e.Rate.Rate()),
			FilterURL: filterURL(exp, sel),
		})
	}

	data.Tables = []Table{
		breakdown("Entity types", exp, annotation.FilterEntityType, res.EntityTypes, func(k string) string {
			return TypeLabel(k, typeLabels)
		}),
		breakdown("Mention types", exp, annotation.FilterMentionType, res.MentionTypes, Label),
	}

	return data
}

func breakdown(title string, exp results.Experiment, cat annotation.FilterCategory, rows []results.Row, label func(string) string) Table {
	t := Table{Title: title}

	for _, r := range rows {
		sel := annotation.Selection{Category: cat, Value: r.Key}
		t.Rows = append(t.Rows, TableRow{
			Key:       r.Key,
			Label:     label(r.Key),
			Counts:    r.Counts,
			Precision: Percent(r.Counts.Precision()),
			Recall:    Percent(r.Counts.Recall()),
			F1:        Percent(r.Counts.F1()),
			FilterURL: filterURL(exp, sel),
		})
	}

	return t
}

var highlightModes = []annotation.HighlightMode{
	annotation.HighlightAll,
	annotation.HighlightAvoided,
	annotation.HighlightErrors,
}

func newArticleData(page *viewer.Page, view viewer.View) *ArticleData {
	data := &ArticleData{
		Heading:     articleHeading(page),
		Page:        page,
		Filter:      view.Selection.String(),
		Mode:        view.Mode.String(),
		Hyperlinks:  view.Hyperlinks,
		ShowContext: view.ShowContext,
		AllURL:      articleURL(view, viewer.AllArticles),
	}

	if page.Article > 0 {
		data.PrevURL = articleURL(view, page.Article-1)
	}

	if page.Article >= 0 && page.Article+1 < page.Articles {
		data.NextURL = articleURL(view, page.Article+1)
	}

	toggled := view
	if view.Mode == annotation.ModeIgnored {
		toggled.Mode = annotation.ModeRequired
	} else {
		toggled.Mode = annotation.ModeIgnored
	}

	data.ModeURL = articleURL(toggled, page.Article)

	toggled = view
	toggled.Hyperlinks = !view.Hyperlinks
	data.HyperlinksURL = articleURL(toggled, page.Article)

	toggled = view
	toggled.ShowContext = !view.ShowContext
	data.ContextURL = articleURL(toggled, page.Article)

	toggled = view
	toggled.Selection = annotation.Selection{Highlight: view.Selection.Highlight}
	data.ClearFilterURL = articleURL(toggled, page.Article)

	for _, h := range highlightModes {
		toggled = view
		toggled.Selection.Highlight = h
		data.HighlightLinks = append(data.HighlightLinks, Link{
			Label:  h.String(),
			URL:    articleURL(toggled, page.Article),
			Active: h == view.Selection.Highlight,
		})
	}

	return data
}

func articleHeading(page *viewer.Page) string {
	if page.Article == viewer.AllArticles {
		return page.Benchmark + ": all articles"
	}

	heading := page.Benchmark + " #" + strconv.Itoa(page.Article+1)
	if page.Title != "" {
		heading += ": " + page.Title
	}

	return heading
}
