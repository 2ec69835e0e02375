// Package output writes run results to CSV, XLSX, and the console.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/comps-finder/internal/model"
)

var comparableHeader = []string{
	"name", "url", "exchange", "ticker",
	"business_activity", "customer_segment", "sic_industry",
	"validation_score", "service_similarity", "segment_similarity",
	"is_plausible", "evidence_urls",
}

// WriteResult saves the comparables and provenance log for a run. The
// comparables file extension follows format ("csv" or "xlsx"); provenance
// always goes to a CSV alongside it. The two files are written concurrently.
func WriteResult(result *model.RunResult, outputPath, format string) error {
	if len(result.Comparables) == 0 {
		zap.L().Warn("no comparables to save")
	}

	provPath := provenancePath(outputPath)

	var g errgroup.Group
	g.Go(func() error {
		return writeComparablesFile(result.Comparables, outputPath, format)
	})
	g.Go(func() error {
		return writeProvenanceFile(result.Provenance, provPath)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("results saved",
		zap.String("comparables", outputPath),
		zap.String("provenance", provPath),
		zap.Int("count", len(result.Comparables)),
	)
	return nil
}

func writeComparablesFile(comparables []model.ScoredCandidate, path, format string) error {
	switch format {
	case "xlsx":
		return WriteComparablesXLSX(comparables, path)
	case "csv", "":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "output: create %s", path)
		}
		defer f.Close() //nolint:errcheck
		return WriteComparablesCSV(f, comparables)
	default:
		return eris.Errorf("output: unsupported format %q", format)
	}
}

// WriteComparablesCSV writes the ranked comparables as CSV.
func WriteComparablesCSV(w io.Writer, comparables []model.ScoredCandidate) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(comparableHeader); err != nil {
		return eris.Wrap(err, "output: write CSV header")
	}

	for _, c := range comparables {
		if err := cw.Write(comparableRow(c)); err != nil {
			return eris.Wrapf(err, "output: write CSV row %s", c.Name)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "output: flush CSV")
}

// WriteComparablesXLSX writes the ranked comparables as an XLSX workbook.
func WriteComparablesXLSX(comparables []model.ScoredCandidate, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Comparables")
	if err != nil {
		return eris.Wrap(err, "output: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range comparableHeader {
		header.AddCell().SetString(h)
	}

	for _, c := range comparables {
		row := sheet.AddRow()
		for _, v := range comparableRow(c) {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrapf(f.Save(path), "output: save xlsx %s", path)
}

func comparableRow(c model.ScoredCandidate) []string {
	return []string{
		c.Name,
		c.URL,
		deref(c.Exchange),
		deref(c.Ticker),
		c.BusinessActivity,
		c.CustomerSegment,
		deref(c.SICIndustry),
		fmt.Sprintf("%.3f", c.ValidationScore),
		fmt.Sprintf("%.3f", c.Similarity.Service),
		fmt.Sprintf("%.3f", c.Similarity.Segment),
		string(c.Plausibility),
		strings.Join(c.EvidenceURLs, "; "),
	}
}

func writeProvenanceFile(entries []model.ProvenanceEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "output: create %s", path)
	}
	defer f.Close() //nolint:errcheck
	return WriteProvenanceCSV(f, entries)
}

// WriteProvenanceCSV writes the field-level provenance log as CSV.
func WriteProvenanceCSV(w io.Writer, entries []model.ProvenanceEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"candidate_name", "field", "value", "source_url", "recorded_at"}); err != nil {
		return eris.Wrap(err, "output: write provenance header")
	}

	for _, e := range entries {
		row := []string{e.CandidateName, e.Field, e.Value, e.SourceURL, e.Timestamp.UTC().Format("2006-01-02T15:04:05Z")}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "output: write provenance row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "output: flush provenance CSV")
}

// PrintSummary writes a human-readable run summary.
func PrintSummary(w io.Writer, result *model.RunResult) {
	if len(result.Comparables) == 0 {
		fmt.Fprintln(w, "No comparables found.")
		fmt.Fprintf(w, "Candidates evaluated: %d, dropped: %d\n", result.Evaluated, len(result.Drops))
		return
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(w, "Found %d Comparable Companies\n", len(result.Comparables))
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 80))

	for i, c := range result.Comparables {
		fmt.Fprintf(w, "%d. %s\n", i+1, c.Name)
		switch {
		case c.Ticker != nil && c.Exchange != nil:
			fmt.Fprintf(w, "   Ticker: %s:%s\n", *c.Exchange, *c.Ticker)
		case c.Ticker != nil:
			fmt.Fprintf(w, "   Ticker: %s\n", *c.Ticker)
		default:
			fmt.Fprintln(w, "   Exchange/Ticker: Not available")
		}
		fmt.Fprintf(w, "   Validation Score: %.3f\n", c.ValidationScore)
		fmt.Fprintf(w, "   Service Similarity: %.3f\n", c.Similarity.Service)
		fmt.Fprintf(w, "   Segment Similarity: %.3f\n", c.Similarity.Segment)
		if c.URL != "" {
			fmt.Fprintf(w, "   URL: %s\n", c.URL)
		}
		fmt.Fprintln(w)
	}
}

// provenancePath derives the provenance log path from the comparables path.
func provenancePath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	base := strings.TrimSuffix(outputPath, ext)
	return base + "_provenance.csv"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
