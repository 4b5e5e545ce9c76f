package results

import (
	"fmt"
	"sort"

	"github.com/tidwall/gjson"

	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
)

// Counts are the precomputed outcome counts of one category.
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// Precision returns TP / (TP + FP), zero when undefined.
func (c Counts) Precision() float64 {
	return ratio(c.TP, c.TP+c.FP)
}

// Recall returns TP / (TP + FN), zero when undefined.
func (c Counts) Recall() float64 {
	return ratio(c.TP, c.TP+c.FN)
}

// F1 returns the harmonic mean of precision and recall.
func (c Counts) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}

	return 2 * p * r / (p + r)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}

	return float64(num) / float64(den)
}

// ErrorRate is the share of cases of an error category that were errors.
type ErrorRate struct {
	Errors int `json:"errors"`
	Total  int `json:"total"`
}

// Rate returns Errors / Total, zero when undefined.
func (e ErrorRate) Rate() float64 {
	return ratio(e.Errors, e.Total)
}

// Row is one named line of a results table.
type Row struct {
	Key    string
	Counts Counts
}

// ErrorRow is one error tag of an error category group.
type ErrorRow struct {
	Group string
	Tag   string
	Rate  ErrorRate
}

// Results holds the contents of one eval_results.json file.
type Results struct {
	Experiment      Experiment
	All             Counts
	EntityTypes     []Row
	MentionTypes    []Row
	ErrorCategories []ErrorRow
}

// ParseResults decodes an eval_results.json document.
//
// Layout:
//
//	{"all": {"tp":..,"fp":..,"fn":..},
//	 "entity_types": {"Q5:person": {"tp":..}, ...},
//	 "mention_types": {"named": {"tp":..}, ...},
//	 "error_categories": {"ner_fn": {"undetected_lowercase": {"errors":..,"total":..}}}}
func ParseResults(exp Experiment, data []byte) (*Results, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: %w", exp, apperrors.ErrMalformedResults)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%s: %w", exp, apperrors.ErrMalformedResults)
	}

	res := &Results{
		Experiment:   exp,
		All:          countsOf(doc.Get("all")),
		EntityTypes:  rowsOf(doc.Get("entity_types")),
		MentionTypes: rowsOf(doc.Get("mention_types")),
	}

	doc.Get("error_categories").ForEach(func(group, tags gjson.Result) bool {
		tags.ForEach(func(tag, value gjson.Result) bool {
			res.ErrorCategories = append(res.ErrorCategories, ErrorRow{
				Group: group.String(),
				Tag:   tag.String(),
				Rate: ErrorRate{
					Errors: int(value.Get("errors").Int()),
					Total:  int(value.Get("total").Int()),
				},
			})

			return true
		})

		return true
	})

	sort.SliceStable(res.ErrorCategories, func(i, j int) bool {
		a, b := res.ErrorCategories[i], res.ErrorCategories[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}

		return a.Tag < b.Tag
	})

	return res, nil
}

func countsOf(v gjson.Result) Counts {
	return Counts{
		TP: int(v.Get("tp").Int()),
		FP: int(v.Get("fp").Int()),
		FN: int(v.Get("fn").Int()),
	}
}

func rowsOf(v gjson.Result) []Row {
	var rows []Row

	v.ForEach(func(key, value gjson.Result) bool {
		rows = append(rows, Row{Key: key.String(), Counts: countsOf(value)})

		return true
	})

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	return rows
}

// Overview is one line of the experiment overview table.
type Overview struct {
	Experiment Experiment
	Counts     Counts
}

// Overview returns the headline row of the results.
func (r *Results) Overview() Overview {
	return Overview{Experiment: r.Experiment, Counts: r.All}
}
