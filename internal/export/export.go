// Package export renders evaluation outcomes for downstream consumption:
// structured JSON records, flattened CSV for spreadsheet analysis, and a
// human-readable run summary.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/ahrav/go-rubric/internal/domain"
)

// WriteResultJSON writes one evaluation result as an indented JSON record.
func WriteResultJSON(w io.Writer, result *domain.EvaluationResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("writing result record: %w", err)
	}
	return nil
}

// WriteBatchCSV writes the batch as a flat table: one row per document, one
// column per rubric criterion, then the overall score. Failed documents get
// a row with the error column set and empty score cells. Rows are ordered
// by document ID. With includeReasoning, a reasoning column follows each
// criterion column.
func WriteBatchCSV(w io.Writer, criteria domain.Criteria, batch *domain.BatchResult, includeReasoning bool) error {
	cw := csv.NewWriter(w)

	header := []string{"document_id"}
	for _, name := range criteria.Names() {
		header = append(header, name)
		if includeReasoning {
			header = append(header, name+"_reasoning")
		}
	}
	header = append(header, "overall_score", "error")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	width := len(header)
	for _, result := range batch.SortedResults() {
		row := make([]string, 0, width)
		row = append(row, result.DocumentID)

		byName := make(map[string]domain.EvaluationScore, len(result.Scores))
		for _, s := range result.Scores {
			byName[s.CriterionName] = s
		}
		for _, name := range criteria.Names() {
			s := byName[name]
			row = append(row, strconv.Itoa(s.Score))
			if includeReasoning {
				row = append(row, s.Reasoning)
			}
		}
		row = append(row, strconv.FormatFloat(result.OverallScore, 'f', -1, 64), "")
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", result.DocumentID, err)
		}
	}

	for _, failure := range batch.SortedFailures() {
		row := make([]string, 0, width)
		row = append(row, failure.DocumentID)
		for range criteria.Names() {
			row = append(row, "")
			if includeReasoning {
				row = append(row, "")
			}
		}
		row = append(row, "", fmt.Sprintf("%s: %s", failure.Kind, failure.Message))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", failure.DocumentID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// RenderSummary writes a human-readable run summary: aggregate counts, the
// mean overall score of successful documents, and one line per failure.
func RenderSummary(w io.Writer, batch *domain.BatchResult) error {
	results := batch.SortedResults()

	meanOverall := "n/a"
	if len(results) > 0 {
		var sum float64
		for _, r := range results {
			sum += r.OverallScore
		}
		meanOverall = strconv.FormatFloat(sum/float64(len(results)), 'f', 2, 64)
	}

	summary := newSummaryTable(w, []string{"Run", "Documents", "Succeeded", "Failed", "Mean Overall"})
	if err := summary.Append([]string{
		batch.RunID,
		strconv.Itoa(batch.Total()),
		strconv.Itoa(len(batch.Results)),
		strconv.Itoa(len(batch.Failures)),
		meanOverall,
	}); err != nil {
		return fmt.Errorf("building summary table: %w", err)
	}
	if err := summary.Render(); err != nil {
		return fmt.Errorf("rendering summary table: %w", err)
	}

	failures := batch.SortedFailures()
	if len(failures) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	table := newSummaryTable(w, []string{"Document", "Kind", "Error"})
	for _, f := range failures {
		if err := table.Append([]string{f.DocumentID, string(f.Kind), f.Message}); err != nil {
			return fmt.Errorf("building failure table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering failure table: %w", err)
	}
	return nil
}

// newSummaryTable builds a markdown-style table with consistent formatting
// for all run reports.
func newSummaryTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
