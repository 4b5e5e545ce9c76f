package annotation

// Side tells which half of a combined annotation an error tag describes.
type Side int

const (
	// SideBoth tags describe the pair (disambiguation errors).
	SideBoth Side = iota
	// SideGroundTruth tags describe missed ground truth (false negatives).
	SideGroundTruth
	// SidePrediction tags describe spurious predictions (false positives).
	SidePrediction
)

// TagInfo describes one fine-grained error tag.
type TagInfo struct {
	Tag         string
	Group       string
	Side        Side
	Avoided     bool
	Counterpart string
}

// Error category groups.
const (
	GroupNERFalseNegative = "ner_fn"
	GroupNERFalsePositive = "ner_fp"
	GroupDisambiguation   = "disambiguation"
	GroupCoreference      = "coreference"
)

var taxonomy = buildTaxonomy([]TagInfo{
	{Tag: "undetected_lowercase", Group: GroupNERFalseNegative, Side: SideGroundTruth, Counterpart: "lowercase_detected"},
	{Tag: "undetected_partially_included", Group: GroupNERFalseNegative, Side: SideGroundTruth},
	{Tag: "undetected_partial_overlap", Group: GroupNERFalseNegative, Side: SideGroundTruth},
	{Tag: "undetected_other", Group: GroupNERFalseNegative, Side: SideGroundTruth},

	{Tag: "false_detection_abstract", Group: GroupNERFalsePositive, Side: SidePrediction},
	{Tag: "false_detection_unknown", Group: GroupNERFalsePositive, Side: SidePrediction},
	{Tag: "false_detection_lowercase", Group: GroupNERFalsePositive, Side: SidePrediction},
	{Tag: "false_detection_boundary", Group: GroupNERFalsePositive, Side: SidePrediction},
	{Tag: "false_detection_other", Group: GroupNERFalsePositive, Side: SidePrediction},

	{Tag: "wrong_demonym", Group: GroupDisambiguation, Side: SideBoth, Counterpart: "demonym_correct"},
	{Tag: "wrong_metonymy", Group: GroupDisambiguation, Side: SideBoth, Counterpart: "metonymy_correct"},
	{Tag: "wrong_partial_name", Group: GroupDisambiguation, Side: SideBoth, Counterpart: "partial_name_correct"},
	{Tag: "wrong_rare", Group: GroupDisambiguation, Side: SideBoth, Counterpart: "rare_correct"},
	{Tag: "wrong_disambiguation_other", Group: GroupDisambiguation, Side: SideBoth},

	{Tag: "coreference_undetected", Group: GroupCoreference, Side: SideGroundTruth, Counterpart: "coreference_detected"},
	{Tag: "coreference_false_detection", Group: GroupCoreference, Side: SidePrediction},
	{Tag: "coreference_wrong_reference", Group: GroupCoreference, Side: SideBoth, Counterpart: "coreference_correct_reference"},
})

func buildTaxonomy(errorTags []TagInfo) map[string]TagInfo {
	m := make(map[string]TagInfo, 2*len(errorTags))

	for _, info := range errorTags {
		m[info.Tag] = info
		if info.Counterpart == "" {
			continue
		}

		m[info.Counterpart] = TagInfo{
			Tag:         info.Counterpart,
			Group:       info.Group,
			Side:        info.Side,
			Avoided:     true,
			Counterpart: info.Tag,
		}
	}

	return m
}

// LookupTag returns the taxonomy entry for tag. Unknown tags are reported as
// side-agnostic errors without a group.
func LookupTag(tag string) TagInfo {
	if info, ok := taxonomy[tag]; ok {
		return info
	}

	return TagInfo{Tag: tag, Side: SideBoth}
}

// GroupTags returns the error (non-avoided) tags of a group.
func GroupTags(group string) []string {
	var tags []string

	for _, info := range taxonomy {
		if info.Group == group && !info.Avoided {
			tags = append(tags, info.Tag)
		}
	}

	return tags
}

// IsAvoidedTag reports whether tag marks a correctly handled difficult case.
func IsAvoidedTag(tag string) bool {
	return LookupTag(tag).Avoided
}
