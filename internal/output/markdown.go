package output

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/genomeprivacy/vcf-anony/internal/verify"
)

// MarkdownWriter writes a verification summary in GitHub flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to w.
func NewMarkdownWriter(w io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: w}
}

// Write renders the summary. reportPath is the CSV report it accompanies.
func (w *MarkdownWriter) Write(s verify.Summary, reportPath string) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("VCF Anonymization Verification")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Pairs verified", strconv.Itoa(s.Pairs)},
			{"Need re-anonymization", strconv.Itoa(s.Failed)},
			{"Could not be verified", strconv.Itoa(s.Errors)},
			{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
			{"CSV report", "`" + reportPath + "`"},
		},
	})
	md.PlainText("")

	if s.Pairs > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Verification Results"),
			piechart.WithShowData(true),
		)
		if ok := s.Pairs - s.Failed; ok > 0 {
			chart.LabelAndIntValue("ok", uint64(ok))
		}
		if s.Failed > 0 {
			chart.LabelAndIntValue("fail", uint64(s.Failed))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case s.Failed > 0:
		md.Cautionf("%d anonymized file(s) did not pass verification and must be anonymized again.", s.Failed)
	case s.Errors > 0:
		md.Warningf("%d pair(s) could not be read. See the log for details.", s.Errors)
	case s.Pairs == 0:
		md.Note("No original/anonymized pairs were found.")
	default:
		md.Tip("Every anonymized file passed verification.")
	}
	md.PlainText("")

	md.H2("Files")
	md.PlainText("")
	if len(s.Outcomes) == 0 {
		md.PlainText("No files verified.")
		md.PlainText("")
		return md.Build()
	}

	rows := make([][]string, len(s.Outcomes))
	for i, o := range s.Outcomes {
		rows[i] = []string{
			"`" + o.Filename + "`",
			string(o.Level),
			resultBadge(o),
			o.RateString(),
			strconv.Itoa(o.MetadataMasked) + "/" + strconv.Itoa(o.MetadataTargets),
			strconv.Itoa(o.VariantMasked) + "/" + strconv.Itoa(o.VariantTargets),
			truncateString(o.UnmaskedString(), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"File", "Level", "Result", "Rate", "Metadata", "Variants", "Unmasked"},
		Rows:   rows,
	})
	md.PlainText("")

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by vcf-anony*")

	return md.Build()
}

func resultBadge(o verify.Outcome) string {
	if o.OK() {
		return "✅ ok"
	}
	return "❌ fail"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
