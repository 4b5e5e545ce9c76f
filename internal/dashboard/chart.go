package dashboard

import (
	"bytes"
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
)

const (
	chartWidth  = "100%"
	chartHeight = "560px"
)

func round1(v float64) float64 {
	return math.Round(1000*v) / 10
}

// BreakdownChart builds a bar chart of one breakdown of res. by is a base
// category name: entity and mention types plot precision, recall and F1,
// error categories plot the error rate of each tag.
func BreakdownChart(res *results.Results, by string, typeLabels map[string]string) (*charts.Bar, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: res.Experiment.String(), Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: res.Experiment.String(), Subtitle: Label(by)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Max: 100}),
	)

	switch annotation.ParseFilterCategory(by) {
	case annotation.FilterEntityType:
		countsSeries(bar, res.EntityTypes, func(k string) string { return TypeLabel(k, typeLabels) })
	case annotation.FilterMentionType:
		countsSeries(bar, res.MentionTypes, Label)
	case annotation.FilterErrorCategory:
		errorSeries(bar, res.ErrorCategories)
	case annotation.FilterNone:
		return nil, fmt.Errorf("chart breakdown %q: %w", by, apperrors.ErrInvalidInput)
	}

	return bar, nil
}

func countsSeries(bar *charts.Bar, rows []results.Row, label func(string) string) {
	x := make([]string, 0, len(rows))
	p := make([]opts.BarData, 0, len(rows))
	r := make([]opts.BarData, 0, len(rows))
	f := make([]opts.BarData, 0, len(rows))

	for _, row := range rows {
		x = append(x, label(row.Key))
		p = append(p, opts.BarData{Value: round1(row.Counts.Precision())})
		r = append(r, opts.BarData{Value: round1(row.Counts.Recall())})
		f = append(f, opts.BarData{Value: round1(row.Counts.F1())})
	}

	bar.SetXAxis(x).
		AddSeries("Precision", p).
		AddSeries("Recall", r).
		AddSeries("F1", f, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
}

func errorSeries(bar *charts.Bar, rows []results.ErrorRow) {
	x := make([]string, 0, len(rows))
	y := make([]opts.BarData, 0, len(rows))

	for _, row := range rows {
		x = append(x, Label(row.Tag))
		y = append(y, opts.BarData{Value: round1(row.Rate.Rate())})
	}

	bar.SetXAxis(x).
		AddSeries("Error rate", y, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
}

// RenderChart writes bar as a standalone HTML page.
func RenderChart(bar *charts.Bar) ([]byte, error) {
	page := components.NewPage()
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	return buf.Bytes(), nil
}
