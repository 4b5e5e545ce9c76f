package results

import "strings"

// DefaultPartialEvaluationPrefixes name the benchmark families whose articles
// are only scored inside an evaluation span.
var DefaultPartialEvaluationPrefixes = []string{"wiki-ex", "newscrawl"}

// BenchmarkFamilies decides which benchmarks evaluate only part of each article.
type BenchmarkFamilies struct {
	prefixes []string
}

// NewBenchmarkFamilies returns a predicate over the given name prefixes.
// Empty prefixes are ignored.
func NewBenchmarkFamilies(prefixes []string) BenchmarkFamilies {
	var clean []string

	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			clean = append(clean, p)
		}
	}

	return BenchmarkFamilies{prefixes: clean}
}

// PartialEvaluation reports whether predictions outside the evaluation span
// should be shown for benchmark.
func (f BenchmarkFamilies) PartialEvaluation(benchmark string) bool {
	name := strings.ToLower(benchmark)

	for _, p := range f.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}

	return false
}
