package mask

import "github.com/genomeprivacy/vcf-anony/internal/vcf"

// INFO keys consulted by EstimateMAF, in fallback order.
const (
	InfoMAF = "MAF"
	InfoAF  = "AF"
	InfoAC  = "AC"
	InfoAN  = "AN"
)

// MAF is a site-level minor allele frequency, or undetermined when no
// usable annotation exists.
type MAF struct {
	Value   float64
	Defined bool
}

// Below reports whether the frequency is defined and strictly below threshold.
func (m MAF) Below(threshold float64) bool {
	return m.Defined && m.Value < threshold
}

// Source names the annotation the frequency came from.
type Source string

const (
	SourceNone Source = ""
	SourceMAF  Source = "MAF"
	SourceAF   Source = "AF"
	SourceACAN Source = "AC/AN"
)

// EstimateMAF derives a frequency from INFO annotations. The first usable
// source wins: MAF, then AF, then AC/AN with AN > 0. AF is taken as is,
// without folding around 0.5. For per-allele lists the first element is used.
func EstimateMAF(v *vcf.Variant) (MAF, Source) {
	if f := v.NumericInfo(InfoMAF); f.Kind == vcf.FieldNumeric {
		return MAF{Value: f.Value, Defined: true}, SourceMAF
	}

	if f := v.NumericInfo(InfoAF); f.Kind == vcf.FieldNumeric {
		return MAF{Value: f.Value, Defined: true}, SourceAF
	}

	ac := v.NumericInfo(InfoAC)
	an := v.NumericInfo(InfoAN)
	if ac.Kind == vcf.FieldNumeric && an.Kind == vcf.FieldNumeric && an.Value > 0 {
		return MAF{Value: ac.Value / an.Value, Defined: true}, SourceACAN
	}

	return MAF{}, SourceNone
}
