package annotation

import "slices"

// Result is the styling decision for one annotation level.
type Result struct {
	// Class is the classification used for the wrapping region.
	Class            Class
	GroundTruthClass Class
	PredictionClass  Class
	// GroundTruthTags and PredictionTags hold the error tags attributed to
	// each side after the double-counting rule.
	GroundTruthTags []string
	PredictionTags  []string
	Lowlight        bool
}

// Classify decides the classification, tag attribution and lowlight state of
// a single annotation level. It never fails: missing data counts as "not
// matching" the selection.
func Classify(a Annotation, sel Selection, mode EvaluationMode) Result {
	r := classes(a, mode)
	r.GroundTruthTags, r.PredictionTags = attributeTags(a, r)
	r.Lowlight = lowlight(a, r, sel)

	return r
}

func classes(a Annotation, mode EvaluationMode) Result {
	gt, pr := a.GroundTruth, a.Prediction
	ignoreUnknown := mode == ModeIgnored

	var r Result

	switch {
	case gt == nil && pr == nil:
		return r
	case pr != nil && !pr.Evaluated:
		r.PredictionClass = Unevaluated
		r.Class = Unevaluated
	case gt != nil && pr != nil && entitiesMatch(gt, pr, mode):
		r.GroundTruthClass = TruePositive
		r.PredictionClass = TruePositive
		r.Class = TruePositive
	case pr != nil:
		r.PredictionClass = FalsePositive
		if (ignoreUnknown && pr.Unknown()) || (gt != nil && (gt.Optional || (ignoreUnknown && gt.Unknown))) {
			r.PredictionClass = Unknown
		}

		if gt != nil {
			r.GroundTruthClass = missedClass(gt, pr, ignoreUnknown)
		}

		r.Class = r.PredictionClass
	default:
		r.GroundTruthClass = missedClass(gt, nil, ignoreUnknown)
		r.Class = r.GroundTruthClass
	}

	return r
}

// missedClass classifies a ground truth that has no matching prediction.
func missedClass(gt *GroundTruth, pr *Prediction, ignoreUnknown bool) Class {
	switch {
	case gt.Optional:
		return Optional
	case ignoreUnknown && gt.Unknown:
		return Unknown
	case ignoreUnknown && pr != nil && pr.Unknown():
		return Unknown
	default:
		return FalseNegative
	}
}

func entitiesMatch(gt *GroundTruth, pr *Prediction, mode EvaluationMode) bool {
	if mode == ModeRequired && gt.Unknown && pr.Unknown() {
		return true
	}

	if gt.Unknown || gt.EntityID == "" {
		return false
	}

	return gt.EntityID == pr.EntityID
}

// attributeTags attaches the case tags to the sides. A pair gets the tags on
// both sides unless its ground truth is optional or unknown, in which case
// only the prediction side carries them.
func attributeTags(a Annotation, r Result) (gtTags, prTags []string) {
	if len(a.Tags) == 0 {
		return nil, nil
	}

	switch {
	case a.GroundTruth != nil && a.Prediction != nil:
		if r.GroundTruthClass == Optional || r.GroundTruthClass == Unknown {
			return nil, a.Tags
		}

		return a.Tags, a.Tags
	case a.GroundTruth != nil:
		return a.Tags, nil
	case a.Prediction != nil:
		return nil, a.Tags
	}

	return nil, nil
}

func lowlight(a Annotation, r Result, sel Selection) bool {
	switch sel.Category {
	case FilterNone:
		return false
	case FilterEntityType:
		return !matchesEntityType(a, r, sel)
	case FilterErrorCategory:
		return !matchesErrorCategory(a, r, sel)
	case FilterMentionType:
		return !matchesMentionType(a, r, sel)
	}

	return true
}

func matchesEntityType(a Annotation, r Result, sel Selection) bool {
	if sel.Value == "" {
		return false
	}

	gtHas := a.GroundTruth != nil && slices.Contains(a.GroundTruth.Types, sel.Value)
	prHas := a.Prediction != nil && slices.Contains(a.Prediction.Types, sel.Value)

	switch sel.Highlight {
	case HighlightAvoided:
		return r.Class == TruePositive && (gtHas || prHas)
	case HighlightErrors:
		return (gtHas && r.GroundTruthClass == FalseNegative) || (prHas && r.PredictionClass == FalsePositive)
	case HighlightAll:
		return gtHas || prHas
	}

	return false
}

func matchesMentionType(a Annotation, r Result, sel Selection) bool {
	if sel.Value == "" || string(a.MentionType) != sel.Value {
		return false
	}

	switch sel.Highlight {
	case HighlightAvoided:
		return r.Class == TruePositive
	case HighlightErrors:
		return r.GroundTruthClass == FalseNegative || r.PredictionClass == FalsePositive
	case HighlightAll:
		return true
	}

	return false
}

func matchesErrorCategory(a Annotation, r Result, sel Selection) bool {
	for _, tag := range selectedTags(sel) {
		if hasTag(a, r, tag) {
			return true
		}
	}

	return false
}

// selectedTags expands the selection into the tags that un-lowlight an
// annotation under the current highlight mode.
func selectedTags(sel Selection) []string {
	base := []string{sel.Subcategory}
	if sel.Subcategory == "" {
		base = GroupTags(sel.Value)
	}

	var tags []string

	for _, tag := range base {
		info := LookupTag(tag)

		for _, candidate := range []string{info.Tag, info.Counterpart} {
			if candidate == "" {
				continue
			}

			avoided := IsAvoidedTag(candidate)

			switch sel.Highlight {
			case HighlightAvoided:
				if avoided {
					tags = append(tags, candidate)
				}
			case HighlightErrors:
				if !avoided {
					tags = append(tags, candidate)
				}
			case HighlightAll:
				tags = append(tags, candidate)
			}
		}
	}

	return tags
}

// hasTag checks tag against the side it describes. A false-negative tag never
// matches an annotation without ground truth and a false-positive tag never
// matches one without a prediction.
func hasTag(a Annotation, r Result, tag string) bool {
	switch LookupTag(tag).Side {
	case SideGroundTruth:
		return a.GroundTruth != nil && slices.Contains(r.GroundTruthTags, tag)
	case SidePrediction:
		return a.Prediction != nil && slices.Contains(r.PredictionTags, tag)
	case SideBoth:
		return slices.Contains(r.GroundTruthTags, tag) || slices.Contains(r.PredictionTags, tag)
	}

	return false
}
