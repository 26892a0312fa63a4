// Package vcf provides VCF file parsing and writing functionality.
package vcf

import (
	"slices"
	"strconv"
)

// NoCall is the placeholder allele written in place of a fully masked ALT list.
const NoCall = "."

// Variant represents a single VCF data line.
type Variant struct {
	Chrom         string            // Chromosome name (e.g., "12", "chr12")
	Pos           int64             // 1-based genomic position
	ID            string            // Variant identifier (e.g., rs ID)
	Ref           string            // Reference allele
	Alts          []string          // Alternate alleles in file order
	Qual          string            // Quality column as written
	Filter        string            // Filter status (PASS or filter name)
	Info          map[string]string // INFO key/value pairs; flags map to ""
	RawInfo       string            // INFO column as written, preserved on output
	SampleColumns string            // FORMAT and sample columns, tab-joined
}

// IsNonVariant reports whether the record carries no alternate allele,
// either because ALT is empty or every ALT is the no-call placeholder.
func (v *Variant) IsNonVariant() bool {
	for _, a := range v.Alts {
		if a != NoCall {
			return false
		}
	}
	return true
}

// WithAlts returns a copy of the variant carrying the given ALT list.
// The receiver is left untouched.
func (v *Variant) WithAlts(alts []string) *Variant {
	c := *v
	c.Alts = slices.Clone(alts)
	return &c
}

// Site returns the (chromosome, position) key of the variant.
func (v *Variant) Site() Site {
	return Site{Chrom: v.Chrom, Pos: v.Pos}
}

// Site identifies a genomic location. Several records may share one site.
type Site struct {
	Chrom string
	Pos   int64
}

// String formats the site as chrom:pos.
func (s Site) String() string {
	return s.Chrom + ":" + strconv.FormatInt(s.Pos, 10)
}
