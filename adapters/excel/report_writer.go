// Package excel renders a completed run into a workbook: one sheet with the
// observed cluster table, one with the null-distribution summary. Tabular
// export only; rendering onto brain surfaces is someone else's job.
package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"clusterperm/domain/cluster"
	"clusterperm/internal/errors"
	"clusterperm/ports"
)

// ReportWriter writes cluster-test results to an xlsx file
type ReportWriter struct {
	path string
	// Alpha marks which rows count as significant in the report. Report
	// policy only; the result itself is never filtered.
	Alpha float64
}

// NewReportWriter creates a writer targeting the given path
func NewReportWriter(path string) *ReportWriter {
	return &ReportWriter{path: path, Alpha: 0.05}
}

var _ ports.ResultSink = (*ReportWriter)(nil)

// Consume renders the result and saves the workbook
func (w *ReportWriter) Consume(_ context.Context, res *cluster.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	const clustersSheet = "Clusters"
	if err := f.SetSheetName("Sheet1", clustersSheet); err != nil {
		return errors.Wrap(err, "failed to rename sheet")
	}

	headers := []string{"Rank", "P-value", "Significant", "Summary", "Size", "First time", "Last time", "Vertices"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(clustersSheet, cell, h); err != nil {
			return errors.Wrap(err, "failed to write header")
		}
	}
	for i := range res.Clusters {
		c := &res.Clusters[i]
		first, last := c.TimeSpan()
		pval := 1.0
		if i < len(res.PValues) {
			pval = res.PValues[i]
		}
		row := []interface{}{
			i + 1, pval, pval < w.Alpha, c.Summary, c.Size(), first, last, len(c.Vertices()),
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(clustersSheet, cell, v); err != nil {
				return errors.Wrapf(err, "failed to write cluster row %d", i)
			}
		}
	}

	const nullSheet = "Null distribution"
	if _, err := f.NewSheet(nullSheet); err != nil {
		return errors.Wrap(err, "failed to create null sheet")
	}
	summary := [][2]interface{}{
		{"Permutations", res.Permutations},
		{"Threshold", res.Threshold},
		{"Tail", res.Tail.String()},
		{"Seed", res.Seed},
		{"Min detectable p", res.MinDetectableP},
		{"H0 mean", res.H0Summary.Mean},
		{"H0 stddev", res.H0Summary.StdDev},
		{"H0 min", res.H0Summary.Min},
		{"H0 max", res.H0Summary.Max},
		{"H0 95th percentile", res.H0Summary.Percentile95},
		{"H0 99th percentile", res.H0Summary.Percentile99},
	}
	for r, kv := range summary {
		keyCell, _ := excelize.CoordinatesToCellName(1, r+1)
		valCell, _ := excelize.CoordinatesToCellName(2, r+1)
		if err := f.SetCellValue(nullSheet, keyCell, kv[0]); err != nil {
			return errors.Wrap(err, "failed to write summary key")
		}
		if err := f.SetCellValue(nullSheet, valCell, kv[1]); err != nil {
			return errors.Wrap(err, "failed to write summary value")
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return errors.Wrapf(err, "failed to save report to %s", w.path)
	}
	return nil
}

// Path returns the output location, for logging.
func (w *ReportWriter) Path() string { return w.path }

// String implements fmt.Stringer.
func (w *ReportWriter) String() string { return fmt.Sprintf("excel report at %s", w.path) }
