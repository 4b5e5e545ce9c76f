// Package main exports the overview of evaluated experiments as a TSV or
// LaTeX table.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/linking-dashboard/internal/core/results"
	"github.com/lueurxax/linking-dashboard/internal/dashboard"
)

const (
	formatTSV   = "tsv"
	formatLaTeX = "latex"

	defaultResultsDir = "./evaluation-results"
	errFmt            = "%v\n"
)

var (
	errUnknownFormat = errors.New("format must be tsv or latex")
	errNoExperiments = errors.New("no experiments found")
)

type exportConfig struct {
	resultsDir  string
	experiments string
	benchmark   string
	format      string
	outPath     string
}

func main() {
	cfg := parseFlags()

	if err := validateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}

	if err := runExport(cfg); err != nil {
		fmt.Fprintf(os.Stderr, errFmt, err)
		os.Exit(1)
	}
}

func parseFlags() exportConfig {
	cfg := exportConfig{}

	resultsDir := os.Getenv("RESULTS_DIR")
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}

	flag.StringVar(&cfg.resultsDir, "results", resultsDir, "Evaluation results directory")
	flag.StringVar(&cfg.experiments, "exp", "", "Comma separated linker/benchmark pairs (default: all)")
	flag.StringVar(&cfg.benchmark, "benchmark", "", "Only export experiments on this benchmark")
	flag.StringVar(&cfg.format, "format", formatTSV, "Output format: tsv or latex")
	flag.StringVar(&cfg.outPath, "out", "", "Output path (default: stdout)")

	flag.Parse()

	return cfg
}

func validateConfig(cfg exportConfig) error {
	if cfg.format != formatTSV && cfg.format != formatLaTeX {
		return fmt.Errorf("%w: %q", errUnknownFormat, cfg.format)
	}

	return nil
}

func runExport(cfg exportConfig) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	reader := results.NewReader(cfg.resultsDir, "")

	exps, err := selectExperiments(reader, cfg)
	if err != nil {
		return err
	}

	rows := make([]results.Overview, 0, len(exps))

	for _, exp := range exps {
		res, err := reader.ReadResults(exp)
		if err != nil {
			logger.Warn().Err(err).Str("experiment", exp.Key()).Msg("Skipping experiment")

			continue
		}

		rows = append(rows, res.Overview())
	}

	if len(rows) == 0 {
		return errNoExperiments
	}

	out := io.Writer(os.Stdout)

	if cfg.outPath != "" {
		f, err := os.Create(cfg.outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}

		defer func() {
			_ = f.Close()
		}()

		out = f
	}

	if err := writeTable(out, cfg.format, rows); err != nil {
		return err
	}

	logger.Info().Int("count", len(rows)).Str("format", cfg.format).Msg("Exported experiments")

	return nil
}

func selectExperiments(reader *results.Reader, cfg exportConfig) ([]results.Experiment, error) {
	var exps []results.Experiment

	if cfg.experiments != "" {
		for _, raw := range strings.Split(cfg.experiments, ",") {
			exp, err := dashboard.ParseExperiment(raw)
			if err != nil {
				return nil, err
			}

			exps = append(exps, exp)
		}
	} else {
		all, err := reader.ListExperiments()
		if err != nil {
			return nil, fmt.Errorf("failed to list experiments: %w", err)
		}

		exps = all
	}

	if cfg.benchmark == "" {
		return exps, nil
	}

	filtered := exps[:0]

	for _, exp := range exps {
		if exp.Benchmark == cfg.benchmark {
			filtered = append(filtered, exp)
		}
	}

	return filtered, nil
}

func writeTable(w io.Writer, format string, rows []results.Overview) error {
	bw := bufio.NewWriter(w)

	switch format {
	case formatLaTeX:
		writeLaTeX(bw, rows)
	default:
		writeTSV(bw, rows)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	return nil
}

func writeTSV(w *bufio.Writer, rows []results.Overview) {
	fmt.Fprintln(w, "linker\tbenchmark\ttp\tfp\tfn\tprecision\trecall\tf1")

	for _, r := range rows {
		c := r.Counts
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.4f\t%.4f\t%.4f\n",
			r.Experiment.Linker, r.Experiment.Benchmark, c.TP, c.FP, c.FN, c.Precision(), c.Recall(), c.F1())
	}
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"_", `\_`,
	"&", `\&`,
	"%", `\%`,
	"#", `\#`,
	"$", `\$`,
	"{", `\{`,
	"}", `\}`,
)

func writeLaTeX(w *bufio.Writer, rows []results.Overview) {
	fmt.Fprintln(w, `\begin{tabular}{llrrr}`)
	fmt.Fprintln(w, `\toprule`)
	fmt.Fprintln(w, `Linker & Benchmark & Precision & Recall & F1 \\`)
	fmt.Fprintln(w, `\midrule`)

	for _, r := range rows {
		c := r.Counts
		fmt.Fprintf(w, "%s & %s & %s & %s & %s \\\\\n",
			latexEscaper.Replace(dashboard.Label(r.Experiment.Linker)),
			latexEscaper.Replace(r.Experiment.Benchmark),
			latexEscaper.Replace(dashboard.Percent(c.Precision())),
			latexEscaper.Replace(dashboard.Percent(c.Recall())),
			latexEscaper.Replace(dashboard.Percent(c.F1())),
		)
	}

	fmt.Fprintln(w, `\bottomrule`)
	fmt.Fprintln(w, `\end{tabular}`)
}
