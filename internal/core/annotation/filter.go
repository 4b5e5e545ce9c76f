package annotation

import "strings"

// EvaluationMode controls how mentions of entities outside the knowledge base count.
type EvaluationMode int

const (
	// ModeIgnored excludes unknown entities on either side from being errors.
	ModeIgnored EvaluationMode = iota
	// ModeRequired requires an unknown ground truth to be matched with an unknown marker.
	ModeRequired
)

// ParseEvaluationMode parses the URL/config representation. Unrecognised
// values fall back to ModeIgnored.
func ParseEvaluationMode(s string) EvaluationMode {
	if strings.EqualFold(strings.TrimSpace(s), "required") {
		return ModeRequired
	}

	return ModeIgnored
}

func (m EvaluationMode) String() string {
	if m == ModeRequired {
		return "required"
	}

	return "ignored"
}

// HighlightMode selects which annotations of a filtered category stay emphasised.
type HighlightMode int

const (
	// HighlightAll emphasises every annotation of the category regardless of correctness.
	HighlightAll HighlightMode = iota
	// HighlightAvoided emphasises only correctly handled annotations of the category.
	HighlightAvoided
	// HighlightErrors emphasises only errors of the category.
	HighlightErrors
)

// ParseHighlightMode parses the URL representation. Unrecognised values fall
// back to HighlightAll.
func ParseHighlightMode(s string) HighlightMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avoided":
		return HighlightAvoided
	case "errors":
		return HighlightErrors
	default:
		return HighlightAll
	}
}

func (h HighlightMode) String() string {
	switch h {
	case HighlightAvoided:
		return "avoided"
	case HighlightErrors:
		return "errors"
	default:
		return "all"
	}
}

// FilterCategory is the kind of category a user focused on.
type FilterCategory int

const (
	// FilterNone shows everything, nothing is lowlighted.
	FilterNone FilterCategory = iota
	// FilterEntityType focuses on one entity type.
	FilterEntityType
	// FilterErrorCategory focuses on one error tag.
	FilterErrorCategory
	// FilterMentionType focuses on one mention type.
	FilterMentionType
)

// Base category names as they appear in result files and URLs.
const (
	BaseEntityTypes     = "entity_types"
	BaseErrorCategories = "error_categories"
	BaseMentionTypes    = "mention_types"
	BaseAll             = "all"
)

// ParseFilterCategory maps a base category name to a FilterCategory.
func ParseFilterCategory(base string) FilterCategory {
	switch base {
	case BaseEntityTypes:
		return FilterEntityType
	case BaseErrorCategories:
		return FilterErrorCategory
	case BaseMentionTypes:
		return FilterMentionType
	default:
		return FilterNone
	}
}

func (c FilterCategory) String() string {
	switch c {
	case FilterEntityType:
		return BaseEntityTypes
	case FilterErrorCategory:
		return BaseErrorCategories
	case FilterMentionType:
		return BaseMentionTypes
	case FilterNone:
		return BaseAll
	}

	return BaseAll
}

// Selection is the category the user focused on plus the highlight mode.
//
// For entity types Value is the type id. For error categories Value is the
// category group and Subcategory the error tag; a selection without a
// subcategory matches every tag of the group. For mention types Value is the
// mention type.
type Selection struct {
	Category    FilterCategory
	Value       string
	Subcategory string
	Highlight   HighlightMode
}

// NoSelection shows all annotations without lowlighting.
var NoSelection = Selection{}

// ParseSelection parses "base:category[:subcategory]" as used in URLs.
// Entity type ids may contain colons ("Q5:person"), so only error
// categories carry a subcategory.
func ParseSelection(filter string, highlight HighlightMode) Selection {
	base, rest, _ := strings.Cut(filter, ":")

	sel := Selection{
		Category:  ParseFilterCategory(base),
		Highlight: highlight,
		Value:     rest,
	}
	if sel.Category == FilterNone {
		return Selection{Highlight: highlight}
	}

	if sel.Category == FilterErrorCategory {
		sel.Value, sel.Subcategory, _ = strings.Cut(rest, ":")
	}

	return sel
}

// String renders the selection back into its URL form.
func (s Selection) String() string {
	if s.Category == FilterNone {
		return ""
	}

	out := s.Category.String() + ":" + s.Value
	if s.Subcategory != "" {
		out += ":" + s.Subcategory
	}

	return out
}
