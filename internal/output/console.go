package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/genomeprivacy/vcf-anony/internal/anonymize"
	"github.com/genomeprivacy/vcf-anony/internal/duckdb"
	"github.com/genomeprivacy/vcf-anony/internal/verify"
)

const rule = "======================================"

// WriteConsoleSummary prints the end-of-run verification summary followed
// by one line per verified file.
func WriteConsoleSummary(w io.Writer, s verify.Summary, reportPath string) error {
	p := message.NewPrinter(language.English)
	title := cases.Title(language.English)

	p.Fprintf(w, "\n%s\n", rule)
	p.Fprintf(w, "Verified pairs (origin-anony): %d\n", s.Pairs)
	p.Fprintf(w, "Need re-anonymization:        %d\n", s.Failed)
	if s.Errors > 0 {
		p.Fprintf(w, "Could not be verified:        %d\n", s.Errors)
	}
	p.Fprintf(w, "Elapsed:                      %.3f sec\n", s.Elapsed.Seconds())
	p.Fprintf(w, "Report:                       %s\n", reportPath)
	p.Fprintf(w, "%s\n\n", rule)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, o := range s.Outcomes {
		p.Fprintf(tw, "%s\t%s\t%s\t%s\t(meta %d/%d, variant %d/%d)\n",
			o.Filename, title.String(string(o.Level)), o.Result(), o.RateString(),
			o.MetadataMasked, o.MetadataTargets, o.VariantMasked, o.VariantTargets)
	}
	return tw.Flush()
}

// WriteAnonymizeSummary prints the end-of-run anonymization summary.
func WriteAnonymizeSummary(w io.Writer, files, failed int, stats anonymize.Stats, elapsed time.Duration) error {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "\n%s\n", rule)
	p.Fprintf(w, "Processed files: %d\n", files)
	if failed > 0 {
		p.Fprintf(w, "Failed files:    %d\n", failed)
	}
	p.Fprintf(w, "Records:         %d\n", stats.Records)
	p.Fprintf(w, "STR masked:      %d\n", stats.STRMasked)
	p.Fprintf(w, "MAF masked:      %d\n", stats.MAFMasked)
	p.Fprintf(w, "Elapsed:         %.2f seconds\n", elapsed.Seconds())
	_, err := fmt.Fprintf(w, "%s\n", rule)
	return err
}

// WriteHistory prints stored outcomes, one per line.
func WriteHistory(w io.Writer, records []duckdb.OutcomeRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No stored outcomes.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERIFIED\tFILE\tLEVEL\tRESULT\tRATE\tMAF\tUNMASKED")
	for _, r := range records {
		o := r.Outcome
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%g\t%s\n",
			r.VerifiedAt.Local().Format(time.DateTime), o.Filename, o.Level, o.Result(),
			o.RateString(), r.Policy.MAFThreshold, truncateString(o.UnmaskedString(), 40))
	}
	return tw.Flush()
}
