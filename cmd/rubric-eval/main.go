// Command rubric-eval grades documents against a JSON rubric using a
// completion backend and reports per-criterion and overall scores.
//
// Usage:
//
//	rubric-eval evaluate -rubric rubric.json [flags] <document>...
//	rubric-eval export -rubric rubric.json
//	rubric-eval show -rubric rubric.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahrav/go-rubric/internal/batch"
	"github.com/ahrav/go-rubric/internal/domain"
	"github.com/ahrav/go-rubric/internal/export"
	"github.com/ahrav/go-rubric/internal/llm"
	"github.com/ahrav/go-rubric/internal/llm/providers"
	"github.com/ahrav/go-rubric/internal/worker"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "evaluate":
		err = runEvaluate(ctx, os.Args[2:], logger)
	case "export":
		err = runExport(os.Args[2:], os.Stdout)
	case "show":
		err = runShow(os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: rubric-eval <command> [flags]

commands:
  evaluate   grade documents against a rubric
  export     print the rubric as prompt markup
  show       print the rubric in human-readable form`)
}

func runEvaluate(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	rubricPath := fs.String("rubric", "", "path to the rubric JSON file (required)")
	provider := fs.String("provider", providers.ProviderMock, "completion backend: mock, openai, anthropic, or google")
	model := fs.String("model", "", "model identifier (required for non-mock providers)")
	concurrency := fs.Int("concurrency", batch.DefaultConcurrency, "maximum simultaneous evaluations")
	jsonlPath := fs.String("jsonl", "", "stream outcomes to this JSONL file as they complete")
	csvPath := fs.String("csv", "", "write the batch as CSV to this file")
	format := fs.String("format", "summary", "stdout format: summary or json")
	reasoning := fs.Bool("reasoning", false, "include reasoning columns in CSV output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "summary" && *format != "json" {
		return fmt.Errorf("unknown format %q", *format)
	}
	if *provider != providers.ProviderMock && *model == "" {
		return fmt.Errorf("-model is required for provider %s", *provider)
	}
	if *model == "" {
		*model = "mock"
	}

	criteria, err := loadRubric(*rubricPath)
	if err != nil {
		return err
	}
	documents, err := loadDocuments(fs.Args())
	if err != nil {
		return err
	}

	evaluator, err := worker.NewEvaluator(ctx, *criteria, llm.DefaultConfig(*provider, *model), logger)
	if err != nil {
		return err
	}

	opts := batch.Options{
		Concurrency: *concurrency,
		Logger:      logger,
		OnProgress: func(completed, total int) {
			logger.Info("progress", "completed", completed, "total", total)
		},
	}
	if *jsonlPath != "" {
		sink, err := batch.NewJSONLFileSink(*jsonlPath)
		if err != nil {
			return err
		}
		defer sink.Close()
		opts.Sink = sink
	}

	orchestrator, err := batch.NewOrchestrator(evaluator, opts)
	if err != nil {
		return err
	}
	result, err := orchestrator.Run(ctx, documents)
	if err != nil {
		return err
	}

	if *csvPath != "" {
		f, err := os.Create(*csvPath)
		if err != nil {
			return fmt.Errorf("creating csv file: %w", err)
		}
		defer f.Close()
		if err := export.WriteBatchCSV(f, *criteria, result, *reasoning); err != nil {
			return err
		}
	}

	if *format == "json" {
		for _, r := range result.SortedResults() {
			if err := export.WriteResultJSON(os.Stdout, r); err != nil {
				return err
			}
		}
		return nil
	}
	return export.RenderSummary(os.Stdout, result)
}

func runExport(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	rubricPath := fs.String("rubric", "", "path to the rubric JSON file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria, err := loadRubric(*rubricPath)
	if err != nil {
		return err
	}
	markup, err := criteria.ToXML()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, markup)
	return err
}

func runShow(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	rubricPath := fs.String("rubric", "", "path to the rubric JSON file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria, err := loadRubric(*rubricPath)
	if err != nil {
		return err
	}
	for i, crit := range criteria.Criteria {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s: %s\n", crit.Name, crit.Description)
		for _, level := range crit.Levels {
			fmt.Fprintf(w, "  %d  %s\n", level.Score, level.Rule)
		}
	}
	return nil
}

func loadRubric(path string) (*domain.Criteria, error) {
	if path == "" {
		return nil, fmt.Errorf("-rubric is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rubric: %w", err)
	}
	criteria, err := domain.ParseCriteria(data)
	if err != nil {
		return nil, fmt.Errorf("loading rubric %s: %w", path, err)
	}
	return criteria, nil
}

// loadDocuments reads the documents to grade. Each argument is a file, a
// directory of files, or "-" for stdin. Document IDs are file names without
// their extension.
func loadDocuments(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no documents given")
	}

	documents := make(map[string]string)
	add := func(id, text string) error {
		if _, dup := documents[id]; dup {
			return fmt.Errorf("duplicate document ID %q", id)
		}
		documents[id] = text
		return nil
	}

	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			if err := add("stdin", string(data)); err != nil {
				return nil, err
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if err := addFile(add, arg); err != nil {
				return nil, err
			}
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if err := addFile(add, filepath.Join(arg, entry.Name())); err != nil {
				return nil, err
			}
		}
	}
	return documents, nil
}

func addFile(add func(id, text string) error, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	return add(id, string(data))
}
