// Package mask implements the masking decisions shared by the anonymizer
// and the verifier: short tandem repeat detection, site-level minor allele
// frequency estimation, header redaction and the per-record policy that
// ties them together. Everything here is pure and safe for concurrent use.
package mask

import (
	"fmt"
	"strings"
)

// MaskChar replaces obscured bases inside a repeat region.
const MaskChar = 'N'

// STRConfig bounds the repeats considered by DetectSTR.
type STRConfig struct {
	MinMotif  int // shortest motif length tried
	MaxMotif  int // longest motif length tried
	MinRepeat int // minimum consecutive copies for a match
}

// Validate checks the bounds.
func (c STRConfig) Validate() error {
	if c.MinMotif < 1 {
		return fmt.Errorf("min motif length must be at least 1, got %d", c.MinMotif)
	}
	if c.MaxMotif < c.MinMotif {
		return fmt.Errorf("max motif length %d is below min motif length %d", c.MaxMotif, c.MinMotif)
	}
	if c.MinRepeat < 2 {
		return fmt.Errorf("min repeat must be at least 2, got %d", c.MinRepeat)
	}
	return nil
}

// STRMatch describes the repeat window selected in an allele.
type STRMatch struct {
	Motif   string
	Repeats int
	Start   int // offset of the first base of the window
	End     int // offset one past the last base of the window
	Masked  string
}

// DetectSTR searches allele for a tandem repeat and returns the masked
// allele. Motif lengths are tried in ascending order and, for each length,
// start offsets left to right; the first window with at least MinRepeat
// copies wins. Only that window is masked.
func DetectSTR(allele string, cfg STRConfig) (STRMatch, bool) {
	for l := cfg.MinMotif; l <= cfg.MaxMotif; l++ {
		if len(allele) < l*cfg.MinRepeat {
			continue
		}
		for start := 0; start+l*cfg.MinRepeat <= len(allele); start++ {
			motif := allele[start : start+l]
			if !isNucleotides(motif) {
				continue
			}
			repeats := countRepeats(allele, start, motif)
			if repeats < cfg.MinRepeat {
				continue
			}
			end := start + repeats*l
			return STRMatch{
				Motif:   motif,
				Repeats: repeats,
				Start:   start,
				End:     end,
				Masked:  allele[:start] + maskWindow(allele[start:end], l) + allele[end:],
			}, true
		}
	}
	return STRMatch{}, false
}

// countRepeats counts consecutive exact copies of motif from start.
func countRepeats(allele string, start int, motif string) int {
	n := 0
	for i := start; i+len(motif) <= len(allele) && allele[i:i+len(motif)] == motif; i += len(motif) {
		n++
	}
	return n
}

// maskWindow masks every base of a mononucleotide run, and for longer motifs
// keeps the first base of each tile.
func maskWindow(window string, motifLen int) string {
	b := []byte(window)
	for i := range b {
		if motifLen == 1 || i%motifLen != 0 {
			b[i] = MaskChar
		}
	}
	return string(b)
}

// isNucleotides reports whether s consists only of A, C, G and T.
func isNucleotides(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// ContainsMask reports whether any allele carries the mask character.
func ContainsMask(alleles []string) bool {
	for _, a := range alleles {
		if strings.ContainsRune(a, MaskChar) {
			return true
		}
	}
	return false
}
