// Package verify re-derives the masking targets of an original VCF and
// checks that an anonymized counterpart satisfies every one of them.
package verify

import (
	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Target is a site the anonymizer was expected to mask.
type Target struct {
	Site vcf.Site
	Kind mask.Kind // KindSTR or KindMAF
	Alts []string  // ALT list of the original record
}

// ExtractTargets scans the original stream and returns the site of every
// record the policy would mask. When several records at one site are
// targets the last one in stream order wins. Nothing is modified.
func ExtractTargets(src vcf.VariantParser, policy mask.Policy) (map[vcf.Site]Target, error) {
	targets := make(map[vcf.Site]Target)
	for {
		v, err := src.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return targets, nil
		}

		d := policy.Decide(v)
		if d.Kind == mask.KindUnchanged {
			continue
		}
		targets[v.Site()] = Target{Site: v.Site(), Kind: d.Kind, Alts: v.Alts}
	}
}
