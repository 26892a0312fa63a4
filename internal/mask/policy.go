package mask

import (
	"fmt"

	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Level selects how much of a file is anonymized.
type Level string

const (
	LevelLow  Level = "low"  // header rules only
	LevelHigh Level = "high" // header rules plus variant masking
)

// ParseLevel parses "low" or "high".
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelLow, LevelHigh:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown anonymization level %q (want low or high)", s)
}

// Kind classifies the masking applied to a record.
type Kind int

const (
	KindUnchanged Kind = iota
	KindSTR
	KindMAF
)

func (k Kind) String() string {
	switch k {
	case KindSTR:
		return "STR"
	case KindMAF:
		return "MAF"
	}
	return "unchanged"
}

// Policy decides how a record's alternate alleles are masked.
type Policy struct {
	STR          STRConfig
	MAFThreshold float64
}

// Decision is the outcome of Policy.Decide for one record.
type Decision struct {
	Kind    Kind
	Alts    []string   // ALT list after masking; equals the input when unchanged
	Matches []STRMatch // one entry per masked allele, STR decisions only
	MAF     MAF        // estimated frequency, MAF decisions only
	Source  Source
}

// Decide applies STR masking to every qualifying alternate allele. If any
// allele was masked the record is STR-masked and frequency is never
// consulted. Otherwise a defined frequency below the threshold replaces
// the whole ALT list with the no-call placeholder. Non-variant records
// are always unchanged. The input variant is not modified.
func (p Policy) Decide(v *vcf.Variant) Decision {
	if v.IsNonVariant() {
		return Decision{Kind: KindUnchanged, Alts: v.Alts}
	}

	var (
		masked  []string
		matches []STRMatch
	)
	for i, alt := range v.Alts {
		m, ok := DetectSTR(alt, p.STR)
		if !ok {
			continue
		}
		if masked == nil {
			masked = make([]string, len(v.Alts))
			copy(masked, v.Alts)
		}
		masked[i] = m.Masked
		matches = append(matches, m)
	}
	if matches != nil {
		return Decision{Kind: KindSTR, Alts: masked, Matches: matches}
	}

	maf, src := EstimateMAF(v)
	if maf.Below(p.MAFThreshold) {
		return Decision{Kind: KindMAF, Alts: []string{vcf.NoCall}, MAF: maf, Source: src}
	}

	return Decision{Kind: KindUnchanged, Alts: v.Alts, MAF: maf, Source: src}
}

// Apply returns the record with the decision's ALT list, or v itself when
// nothing changed.
func (d Decision) Apply(v *vcf.Variant) *vcf.Variant {
	if d.Kind == KindUnchanged {
		return v
	}
	return v.WithAlts(d.Alts)
}
