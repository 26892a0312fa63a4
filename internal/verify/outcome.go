package verify

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Verification results as written to the report.
const (
	ResultOK   = "ok"
	ResultFail = "fail"
)

// Outcome is the verification result of one anonymized file.
type Outcome struct {
	Filename string
	Level    mask.Level

	MetadataTargets int
	MetadataMasked  int
	VariantTargets  int
	VariantMasked   int

	// Unmasked lists the variant targets that failed, sorted as chrom:pos strings.
	Unmasked []vcf.Site
	// UnredactedKeys lists header keys whose anonymized lines are not in
	// the expected form.
	UnredactedKeys []string
}

// TotalTargets returns metadata plus variant targets.
func (o Outcome) TotalTargets() int {
	return o.MetadataTargets + o.VariantTargets
}

// TotalMasked returns metadata plus variant targets that passed.
func (o Outcome) TotalMasked() int {
	return o.MetadataMasked + o.VariantMasked
}

// Rate returns the percentage of targets that passed. A file with no
// targets scores 100.
func (o Outcome) Rate() float64 {
	if o.TotalTargets() == 0 {
		return 100
	}
	return float64(o.TotalMasked()) / float64(o.TotalTargets()) * 100
}

// OK reports whether every metadata and variant target passed.
func (o Outcome) OK() bool {
	return o.MetadataMasked == o.MetadataTargets && o.VariantMasked == o.VariantTargets
}

// Result returns "ok" or "fail".
func (o Outcome) Result() string {
	if o.OK() {
		return ResultOK
	}
	return ResultFail
}

// RateString formats the rate as NN.NN%(masked/total).
func (o Outcome) RateString() string {
	return fmt.Sprintf("%.2f%%(%d/%d)", o.Rate(), o.TotalMasked(), o.TotalTargets())
}

// UnmaskedString joins the failed sites with ";", or returns "-".
func (o Outcome) UnmaskedString() string {
	if len(o.Unmasked) == 0 {
		return "-"
	}
	parts := make([]string, len(o.Unmasked))
	for i, s := range o.Unmasked {
		parts[i] = s.String()
	}
	return strings.Join(parts, ";")
}

func sortSites(sites []vcf.Site) {
	slices.SortFunc(sites, func(a, b vcf.Site) int {
		return strings.Compare(a.String(), b.String())
	})
}

// Summary aggregates the outcomes of one verification run.
type Summary struct {
	Pairs    int
	Failed   int
	Errors   int // pairs that could not be verified at all
	Outcomes []Outcome
	Elapsed  time.Duration
}

// Add records one outcome.
func (s *Summary) Add(o Outcome) {
	s.Pairs++
	if !o.OK() {
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}

// AddError records a pair that failed before producing an outcome.
func (s *Summary) AddError() {
	s.Errors++
}
