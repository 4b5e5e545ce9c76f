package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/linking-dashboard/internal/core/span"
)

type caseInput struct {
	gt       *GroundTruth
	pr       *Prediction
	link     bool
	mention  MentionType
	tags     []string
	gtTypes  []string
	prTypes  []string
	required bool
}

func (c caseInput) build() Annotation {
	b := NewBuilder(span.New(0, 5)).MentionType(c.mention).Tags(c.tags)

	if c.gt != nil {
		gt := *c.gt
		gt.Types = c.gtTypes
		b.GroundTruth(gt)
	}

	if c.pr != nil {
		pr := *c.pr
		pr.Types = c.prTypes
		b.Prediction(pr)
	}

	if c.link {
		b.Hyperlink("Some_Page")
	}

	return b.Build()
}

func (c caseInput) mode() EvaluationMode {
	if c.required {
		return ModeRequired
	}

	return ModeIgnored
}

func gtEntity(id string) *GroundTruth { return &GroundTruth{EntityID: id} }

func prEntity(id string) *Prediction { return &Prediction{EntityID: id, Evaluated: true} }

func TestClassify_DecisionTable(t *testing.T) {
	tests := []struct {
		name      string
		c         caseInput
		wantClass Class
		wantGT    Class
		wantPR    Class
	}{
		{"matching entities", caseInput{gt: gtEntity("Q1"), pr: prEntity("Q1")}, TruePositive, TruePositive, TruePositive},
		{"disambiguation error", caseInput{gt: gtEntity("Q1"), pr: prEntity("Q2")}, FalsePositive, FalseNegative, FalsePositive},
		{"missed ground truth", caseInput{gt: gtEntity("Q1")}, FalseNegative, FalseNegative, Normal},
		{"spurious prediction", caseInput{pr: prEntity("Q3")}, FalsePositive, Normal, FalsePositive},
		{"unknown ground truth with prediction", caseInput{gt: gtEntity("<NIL>"), pr: prEntity("Q3")}, Unknown, Unknown, Unknown},
		{"unknown ground truth alone", caseInput{gt: gtEntity("Unknown17")}, Unknown, Unknown, Normal},
		{"unknown prediction alone", caseInput{pr: prEntity("<NIL>")}, Unknown, Normal, Unknown},
		{"unknown prediction on known ground truth", caseInput{gt: gtEntity("Q1"), pr: prEntity("<NIL>")}, Unknown, Unknown, Unknown},
		{"optional ground truth alone", caseInput{gt: &GroundTruth{EntityID: "Q1", Optional: true}}, Optional, Optional, Normal},
		{"optional ground truth wrong prediction", caseInput{gt: &GroundTruth{EntityID: "Q1", Optional: true}, pr: prEntity("Q2")}, Unknown, Optional, Unknown},
		{"optional ground truth matched", caseInput{gt: &GroundTruth{EntityID: "Q1", Optional: true}, pr: prEntity("Q1")}, TruePositive, TruePositive, TruePositive},
		{"unevaluated prediction", caseInput{pr: &Prediction{EntityID: "Q1"}}, Unevaluated, Normal, Unevaluated},
		{"hyperlink", caseInput{link: true}, Normal, Normal, Normal},
		{"required: unknown matched by marker", caseInput{gt: gtEntity("<NIL>"), pr: prEntity("NIL"), required: true}, TruePositive, TruePositive, TruePositive},
		{"required: unknown linked to entity", caseInput{gt: gtEntity("<NIL>"), pr: prEntity("Q3"), required: true}, FalsePositive, FalseNegative, FalsePositive},
		{"required: unknown not detected", caseInput{gt: gtEntity("<NIL>"), required: true}, FalseNegative, FalseNegative, Normal},
		{"required: spurious marker", caseInput{pr: prEntity("<NIL>"), required: true}, FalsePositive, Normal, FalsePositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.c.build(), NoSelection, tt.c.mode())

			assert.Equal(t, tt.wantClass, got.Class, "class")
			assert.Equal(t, tt.wantGT, got.GroundTruthClass, "ground truth class")
			assert.Equal(t, tt.wantPR, got.PredictionClass, "prediction class")
			assert.False(t, got.Lowlight)
		})
	}
}

func TestClassify_TagAttribution(t *testing.T) {
	tags := []string{"wrong_rare"}

	tests := []struct {
		name   string
		c      caseInput
		wantGT []string
		wantPR []string
	}{
		{"pair gets tags on both sides", caseInput{gt: gtEntity("Q1"), pr: prEntity("Q2"), tags: tags}, tags, tags},
		{"optional pair tags prediction only", caseInput{gt: &GroundTruth{EntityID: "Q1", Optional: true}, pr: prEntity("Q2"), tags: tags}, nil, tags},
		{"unknown pair tags prediction only", caseInput{gt: gtEntity("<NIL>"), pr: prEntity("Q2"), tags: tags}, nil, tags},
		{"ground truth only", caseInput{gt: gtEntity("Q1"), tags: tags}, tags, nil},
		{"prediction only", caseInput{pr: prEntity("Q1"), tags: tags}, nil, tags},
		{"no tags", caseInput{gt: gtEntity("Q1"), pr: prEntity("Q2")}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.c.build(), NoSelection, ModeIgnored)

			assert.Equal(t, tt.wantGT, got.GroundTruthTags)
			assert.Equal(t, tt.wantPR, got.PredictionTags)
		})
	}
}

func TestClassify_EntityTypeLowlight(t *testing.T) {
	tp := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q1"), gtTypes: []string{"Q5"}, prTypes: []string{"Q5"}}
	fn := caseInput{gt: gtEntity("Q1"), gtTypes: []string{"Q5"}}
	fp := caseInput{pr: prEntity("Q2"), prTypes: []string{"Q5"}}
	wrong := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q2"), gtTypes: []string{"Q5"}, prTypes: []string{"Q43229"}}
	untyped := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q1")}

	tests := []struct {
		name      string
		c         caseInput
		highlight HighlightMode
		want      bool
	}{
		{"all keeps true positive", tp, HighlightAll, false},
		{"all keeps error", fn, HighlightAll, false},
		{"all dims untyped", untyped, HighlightAll, true},
		{"avoided keeps true positive", tp, HighlightAvoided, false},
		{"avoided dims false negative", fn, HighlightAvoided, true},
		{"errors dims true positive", tp, HighlightErrors, true},
		{"errors keeps false negative", fn, HighlightErrors, false},
		{"errors keeps false positive", fp, HighlightErrors, false},
		{"errors keeps missed side of wrong link", wrong, HighlightErrors, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Selection{Category: FilterEntityType, Value: "Q5", Highlight: tt.highlight}
			got := Classify(tt.c.build(), sel, ModeIgnored)

			assert.Equal(t, tt.want, got.Lowlight)
		})
	}
}

func TestClassify_EntityTypeErrorsRespectSide(t *testing.T) {
	// The selected type is only on the prediction side, which is correct
	// from the ground truth's perspective but still a false positive.
	c := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q2"), gtTypes: []string{"Q43229"}, prTypes: []string{"Q5"}}
	sel := Selection{Category: FilterEntityType, Value: "Q5", Highlight: HighlightErrors}

	assert.False(t, Classify(c.build(), sel, ModeIgnored).Lowlight)

	sel.Value = "Q43229"
	assert.False(t, Classify(c.build(), sel, ModeIgnored).Lowlight)

	sel.Value = "Q515"
	assert.True(t, Classify(c.build(), sel, ModeIgnored).Lowlight)
}

func TestClassify_ErrorCategoryLowlight(t *testing.T) {
	missed := caseInput{gt: gtEntity("Q1"), tags: []string{"undetected_lowercase"}}
	detected := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q1"), tags: []string{"lowercase_detected"}}
	strayTag := caseInput{pr: prEntity("Q1"), tags: []string{"undetected_other"}}
	spurious := caseInput{pr: prEntity("Q2"), tags: []string{"false_detection_abstract"}}
	wrongOptional := caseInput{gt: &GroundTruth{EntityID: "Q1", Optional: true}, pr: prEntity("Q2"), tags: []string{"wrong_rare"}}

	tests := []struct {
		name string
		c    caseInput
		sel  Selection
		want bool
	}{
		{"subcategory error match", missed, Selection{Category: FilterErrorCategory, Value: GroupNERFalseNegative, Subcategory: "undetected_lowercase", Highlight: HighlightErrors}, false},
		{"group match", missed, Selection{Category: FilterErrorCategory, Value: GroupNERFalseNegative, Highlight: HighlightErrors}, false},
		{"other group", missed, Selection{Category: FilterErrorCategory, Value: GroupNERFalsePositive, Highlight: HighlightAll}, true},
		{"avoided counterpart", detected, Selection{Category: FilterErrorCategory, Value: GroupNERFalseNegative, Subcategory: "undetected_lowercase", Highlight: HighlightAvoided}, false},
		{"avoided hides error", missed, Selection{Category: FilterErrorCategory, Value: GroupNERFalseNegative, Subcategory: "undetected_lowercase", Highlight: HighlightAvoided}, true},
		{"errors hides avoided", detected, Selection{Category: FilterErrorCategory, Value: GroupNERFalseNegative, Subcategory: "undetected_lowercase", Highlight: HighlightErrors}, true},
		{"all shows both", detected, Selection{Category: FilterErrorCategory, Value: GroupNERFalseNegative, Highlight: HighlightAll}, false},
		{"false negative tag never on prediction only", strayTag, Selection{Category: FilterErrorCategory, Value: GroupNERFalseNegative, Highlight: HighlightAll}, true},
		{"false positive tag on prediction", spurious, Selection{Category: FilterErrorCategory, Value: GroupNERFalsePositive, Highlight: HighlightErrors}, false},
		{"pair tag through prediction side", wrongOptional, Selection{Category: FilterErrorCategory, Value: GroupDisambiguation, Subcategory: "wrong_rare", Highlight: HighlightErrors}, false},
		{"unknown group", missed, Selection{Category: FilterErrorCategory, Value: "nonexistent", Highlight: HighlightAll}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.c.build(), tt.sel, ModeIgnored)

			assert.Equal(t, tt.want, got.Lowlight)
		})
	}
}

func TestClassify_MentionTypeLowlight(t *testing.T) {
	tp := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q1"), mention: MentionNamed}
	fn := caseInput{gt: gtEntity("Q1"), mention: MentionNamed}
	pronoun := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q1"), mention: MentionPronominal}
	untyped := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q1")}

	tests := []struct {
		name      string
		c         caseInput
		highlight HighlightMode
		want      bool
	}{
		{"all match", tp, HighlightAll, false},
		{"all other type", pronoun, HighlightAll, true},
		{"missing mention type", untyped, HighlightAll, true},
		{"avoided true positive", tp, HighlightAvoided, false},
		{"avoided false negative", fn, HighlightAvoided, true},
		{"errors false negative", fn, HighlightErrors, false},
		{"errors true positive", tp, HighlightErrors, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Selection{Category: FilterMentionType, Value: string(MentionNamed), Highlight: tt.highlight}
			got := Classify(tt.c.build(), sel, ModeIgnored)

			assert.Equal(t, tt.want, got.Lowlight)
		})
	}
}

func TestClassify_IsPure(t *testing.T) {
	c := caseInput{gt: gtEntity("Q1"), pr: prEntity("Q2"), tags: []string{"wrong_rare"}, gtTypes: []string{"Q5"}}
	a := c.build()
	sel := Selection{Category: FilterEntityType, Value: "Q5", Highlight: HighlightErrors}

	assert.Equal(t, Classify(a, sel, ModeIgnored), Classify(a, sel, ModeIgnored))
	assert.Equal(t, []string{"wrong_rare"}, a.Tags)
}
