package dashboard

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Label turns a result-file key such as "undetected_lowercase" into a
// display label ("Undetected Lowercase").
func Label(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "_", " "))
	if key == "" {
		return ""
	}

	// Casers keep state and are not shared between requests.
	return cases.Title(language.English).String(key)
}

// TypeLabel returns the display name of an entity type key. Keys are either
// bare type ids ("Q5") or id:name pairs ("Q5:person").
func TypeLabel(key string, labels map[string]string) string {
	id, name, found := strings.Cut(key, ":")
	if l, ok := labels[id]; ok && l != "" {
		return Label(l)
	}

	if found && name != "" {
		return Label(name)
	}

	return key
}

// Percent formats a ratio in [0, 1] with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", 100*v)
}
