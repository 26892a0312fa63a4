// Package output writes verification results as a CSV report, a Markdown
// summary and console summaries.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/genomeprivacy/vcf-anony/internal/verify"
)

// ReportBase is the file name stem of the CSV report.
const ReportBase = "VCF_anonymization_verification_report"

// ReportColumns are the CSV report columns in order.
var ReportColumns = []string{
	"filename",
	"anonymization_level",
	"anonymization_rate",
	"verification_result",
	"total_targets",
	"metadata_targets",
	"variant_targets",
	"metadata_masked",
	"variant_masked",
	"unmasked_positions",
}

// NextReportPath creates dir if needed and returns the first free report
// path: <base>.csv, then <base>_2.csv, <base>_3.csv and so on.
func NextReportPath(dir, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	for i := 1; ; i++ {
		name := ReportBase + ext
		if i > 1 {
			name = ReportBase + "_" + strconv.Itoa(i) + ext
		}
		path := filepath.Join(dir, name)
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
}

// CSVReportWriter writes one row per verified file.
type CSVReportWriter struct {
	w *csv.Writer
}

// NewCSVReportWriter creates a report writer over w.
func NewCSVReportWriter(w io.Writer) *CSVReportWriter {
	return &CSVReportWriter{w: csv.NewWriter(w)}
}

// WriteHeader writes the column names.
func (cw *CSVReportWriter) WriteHeader() error {
	return cw.w.Write(ReportColumns)
}

// Write writes the row for one outcome.
func (cw *CSVReportWriter) Write(o verify.Outcome) error {
	return cw.w.Write([]string{
		o.Filename,
		string(o.Level),
		o.RateString(),
		o.Result(),
		strconv.Itoa(o.TotalTargets()),
		strconv.Itoa(o.MetadataTargets),
		strconv.Itoa(o.VariantTargets),
		strconv.Itoa(o.MetadataMasked),
		strconv.Itoa(o.VariantMasked),
		o.UnmaskedString(),
	})
}

// Flush flushes buffered rows and reports any write error.
func (cw *CSVReportWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

// WriteReportFile writes a complete report to path.
func WriteReportFile(path string, outcomes []verify.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	cw := NewCSVReportWriter(f)
	if err := cw.WriteHeader(); err != nil {
		f.Close()
		return fmt.Errorf("write report header: %w", err)
	}
	for _, o := range outcomes {
		if err := cw.Write(o); err != nil {
			f.Close()
			return fmt.Errorf("write report row: %w", err)
		}
	}
	if err := cw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush report: %w", err)
	}
	return f.Close()
}
