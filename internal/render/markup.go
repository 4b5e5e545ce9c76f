package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/lueurxax/linking-dashboard/internal/core/annotation"
	"github.com/lueurxax/linking-dashboard/internal/platform/htmlutils"
)

// Placeholders for missing data.
const (
	MissingLabel  = "[MISSING LABEL]"
	UnknownEntity = "[Unknown: NIL]"
	NoType        = "[NO TYPE]"
)

const (
	sideGroundTruth = "ground-truth"
	sidePrediction  = "prediction"
	sideBoth        = "both"
)

type headerLine struct {
	Side  string
	Label string
	Name  string
	ID    string
	Href  string
}

type tagChip struct {
	Side    string
	Label   string
	Avoided bool
}

type tooltipView struct {
	Header []headerLine
	Body   []string
	Tags   []tagChip
}

type annotationView struct {
	ID               string
	DOMID            string
	Class            string
	GroundTruthClass string
	PredictionClass  string
	Lowlight         bool
	Beginning        bool
	Content          template.HTML
	Tooltip          *tooltipView
}

type hyperlinkView struct {
	Href    string
	Content template.HTML
}

// DOMID returns the element id of the first fragment of an annotation.
func DOMID(annotationID string) string {
	return "annotation-" + annotationID
}

func (r *Renderer) annotationView(a annotation.Annotation, res annotation.Result, content template.HTML, opts Options) annotationView {
	v := annotationView{
		ID:        a.ID,
		Class:     res.Class.String(),
		Lowlight:  res.Lowlight,
		Beginning: a.Beginning,
		Content:   content,
	}

	if a.Beginning && a.ID != "" {
		v.DOMID = DOMID(a.ID)
	}

	if a.GroundTruth != nil {
		v.GroundTruthClass = res.GroundTruthClass.String()
	}

	if a.Prediction != nil {
		v.PredictionClass = res.PredictionClass.String()
	}

	tt := tooltip(a, res, opts)
	if len(tt.Header) > 0 || len(tt.Body) > 0 {
		v.Tooltip = &tt
	}

	return v
}

func tooltip(a annotation.Annotation, res annotation.Result, opts Options) tooltipView {
	var tt tooltipView

	if gt := a.GroundTruth; gt != nil {
		tt.Header = append(tt.Header, entityLine(sideGroundTruth, "Ground truth", gt.EntityID, gt.EntityName, gt.Unknown, opts))
	}

	if pr := a.Prediction; pr != nil {
		tt.Header = append(tt.Header, entityLine(sidePrediction, "Prediction", pr.EntityID, pr.EntityName, pr.Unknown(), opts))
	}

	tt.Body = body(a, opts)
	tt.Tags = chips(res)

	return tt
}

func entityLine(side, label, id, name string, unknown bool, opts Options) headerLine {
	line := headerLine{Side: side, Label: label, Name: name, ID: id}

	switch {
	case unknown:
		line.Name = UnknownEntity
		line.ID = ""
	case name == "":
		line.Name = MissingLabel
	}

	if !unknown && id != "" && opts.EntityBaseURL != "" {
		line.Href = htmlutils.SafeHref(opts.EntityBaseURL + id)
	}

	return line
}

func body(a annotation.Annotation, opts Options) []string {
	var lines []string

	if gt := a.GroundTruth; gt != nil && !gt.Unknown {
		lines = append(lines, "Ground truth type: "+typeLabels(gt.Types, opts.TypeLabels))
	}

	if pr := a.Prediction; pr != nil && !pr.Unknown() {
		lines = append(lines, "Predicted type: "+typeLabels(pr.Types, opts.TypeLabels))

		if pr.Source != "" {
			lines = append(lines, "Predicted by: "+pr.Source)
		}
	}

	if a.MentionType != "" {
		lines = append(lines, "Mention type: "+a.MentionType.Label())
	}

	if gt := a.GroundTruth; gt != nil {
		for _, alt := range gt.Alternatives {
			name := alt.EntityName
			if name == "" {
				name = MissingLabel
			}

			lines = append(lines, fmt.Sprintf("Alternative: %q at %s (%s)", alt.Text, alt.Span, name))
		}

		if gt.Optional {
			lines = append(lines, "Detection optional")
		}

		if gt.Unknown {
			lines = append(lines, "Entity not in KB")
		}
	}

	if pr := a.Prediction; pr != nil && !pr.Evaluated {
		lines = append(lines, "Outside the evaluation span")
	}

	return lines
}

func typeLabels(types []string, labels map[string]string) string {
	if len(types) == 0 {
		return NoType
	}

	out := make([]string, 0, len(types))

	for _, t := range types {
		if label, ok := labels[t]; ok && label != "" {
			out = append(out, label)

			continue
		}

		// Type ids may carry their label after a colon ("Q5:person").
		if _, label, ok := strings.Cut(t, ":"); ok && label != "" {
			out = append(out, label)

			continue
		}

		out = append(out, t)
	}

	return strings.Join(out, ", ")
}

func chips(res annotation.Result) []tagChip {
	var out []tagChip

	seen := make(map[string]bool)

	add := func(tags []string) {
		for _, tag := range tags {
			if seen[tag] {
				continue
			}

			seen[tag] = true
			info := annotation.LookupTag(tag)

			out = append(out, tagChip{
				Side:    chipSide(info.Side),
				Label:   strings.ReplaceAll(tag, "_", " "),
				Avoided: info.Avoided,
			})
		}
	}

	add(res.GroundTruthTags)
	add(res.PredictionTags)

	return out
}

func chipSide(s annotation.Side) string {
	switch s {
	case annotation.SideGroundTruth:
		return sideGroundTruth
	case annotation.SidePrediction:
		return sidePrediction
	case annotation.SideBoth:
		return sideBoth
	}

	return sideBoth
}

func hyperlinkHref(target string, opts Options) string {
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return htmlutils.SafeHref(target)
	}

	return htmlutils.SafeHref(opts.HyperlinkBaseURL + target)
}
