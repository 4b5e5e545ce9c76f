package results

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
)

const (
	resultsSuffix        = ".eval_results.json"
	casesSuffix          = ".eval_cases.jsonl"
	linkedArticlesSuffix = ".linked_articles.jsonl"
	benchmarkSuffix      = ".benchmark.jsonl"
	typeLabelsFile       = "whitelist_types.tsv"

	maxScannerBufferSize    = 1024
	scannerBufferMultiplier = 64
	maxLineSize             = 64 * maxScannerBufferSize * maxScannerBufferSize
)

// Reader loads result and benchmark files from disk.
type Reader struct {
	resultsDir    string
	benchmarksDir string
}

// NewReader returns a reader over the given directories.
func NewReader(resultsDir, benchmarksDir string) *Reader {
	return &Reader{resultsDir: resultsDir, benchmarksDir: benchmarksDir}
}

func (r *Reader) experimentPath(exp Experiment, suffix string) string {
	return filepath.Join(r.resultsDir, exp.Linker, exp.Linker+"."+exp.Benchmark+suffix)
}

// ListExperiments returns every linker/benchmark pair that has an
// eval_results file, sorted by linker then benchmark.
func (r *Reader) ListExperiments() ([]Experiment, error) {
	entries, err := os.ReadDir(r.resultsDir)
	if err != nil {
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	var out []Experiment

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		linker := entry.Name()

		matches, err := filepath.Glob(filepath.Join(r.resultsDir, linker, linker+".*"+resultsSuffix))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", linker, err)
		}

		for _, m := range matches {
			benchmark := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), linker+"."), resultsSuffix)
			if benchmark == "" {
				continue
			}

			out = append(out, Experiment{Linker: linker, Benchmark: benchmark})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Linker != out[j].Linker {
			return out[i].Linker < out[j].Linker
		}

		return out[i].Benchmark < out[j].Benchmark
	})

	return out, nil
}

// ReadResults loads the eval_results file of exp.
func (r *Reader) ReadResults(exp Experiment) (*Results, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.experimentPath(exp, resultsSuffix))
	if err != nil {
		return nil, wrapMissing(exp, err)
	}

	return ParseResults(exp, data)
}

// ReadArticles loads the articles of a benchmark in file order.
func (r *Reader) ReadArticles(ctx context.Context, benchmark string) ([]Article, error) {
	if !ValidName(benchmark) {
		return nil, fmt.Errorf("benchmark %q: %w", benchmark, apperrors.ErrInvalidInput)
	}

	path := filepath.Join(r.benchmarksDir, benchmark+benchmarkSuffix)

	var articles []Article

	err := readJSONLines(ctx, path, func(line []byte) error {
		var a Article
		if err := json.Unmarshal(line, &a); err != nil {
			return err
		}

		articles = append(articles, a)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", benchmark, err)
	}

	return articles, nil
}

// ReadCases loads the evaluation cases of exp, one slice per article.
func (r *Reader) ReadCases(ctx context.Context, exp Experiment) ([][]Case, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	var cases [][]Case

	err := readJSONLines(ctx, r.experimentPath(exp, casesSuffix), func(line []byte) error {
		var article []Case
		if err := json.Unmarshal(line, &article); err != nil {
			return err
		}

		cases = append(cases, article)

		return nil
	})
	if err != nil {
		return nil, wrapMissing(exp, err)
	}

	return cases, nil
}

// ReadLinkedArticles loads the raw linker output of exp. A missing file is not
// an error; the experiment simply has no out-of-evaluation predictions.
func (r *Reader) ReadLinkedArticles(ctx context.Context, exp Experiment) ([]LinkedArticle, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	var linked []LinkedArticle

	err := readJSONLines(ctx, r.experimentPath(exp, linkedArticlesSuffix), func(line []byte) error {
		var a LinkedArticle
		if err := json.Unmarshal(line, &a); err != nil {
			return err
		}

		linked = append(linked, a)

		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%s linked articles: %w", exp, err)
	}

	return linked, nil
}

// ModifiedAt returns the latest modification time of the files an
// experiment's article view is built from. Missing optional files are skipped.
func (r *Reader) ModifiedAt(exp Experiment) (time.Time, error) {
	if err := exp.Validate(); err != nil {
		return time.Time{}, err
	}

	var latest time.Time

	paths := []string{
		r.experimentPath(exp, casesSuffix),
		r.experimentPath(exp, linkedArticlesSuffix),
		filepath.Join(r.benchmarksDir, exp.Benchmark+benchmarkSuffix),
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return time.Time{}, fmt.Errorf("stat %s: %w", p, err)
		}

		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}

	return latest, nil
}

// ReadTypeLabels loads the type id to label mapping. A missing file yields an
// empty mapping.
func (r *Reader) ReadTypeLabels() (map[string]string, error) {
	f, err := os.Open(filepath.Join(r.resultsDir, typeLabelsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open type labels: %w", err)
	}
	defer f.Close()

	return ParseTypeLabels(f)
}

// ParseTypeLabels parses "type_id<TAB>label" lines.
func ParseTypeLabels(src io.Reader) (map[string]string, error) {
	cr := csv.NewReader(src)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	labels := make(map[string]string)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return labels, nil
		}

		if err != nil {
			return nil, fmt.Errorf("parse type labels: %w", err)
		}

		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			continue
		}

		labels[strings.TrimSpace(record[0])] = strings.TrimSpace(record[1])
	}
}

func readJSONLines(ctx context.Context, path string, fn func([]byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, scannerBufferMultiplier*maxScannerBufferSize), maxLineSize)

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		if err := fn(line); err != nil {
			return fmt.Errorf("line %d: %w: %w", lineNo, apperrors.ErrMalformedResults, err)
		}
	}

	return scanner.Err()
}

func wrapMissing(exp Experiment, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", exp, apperrors.ErrExperimentNotFound)
	}

	return fmt.Errorf("%s: %w", exp, err)
}
