// Package anonymize rewrites VCF files so they are safer to share: header
// lines that leak provenance are redacted and, at the high level, repeat
// regions and rare alternate alleles are masked.
package anonymize

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Stats counts what a run did to the records of one file.
type Stats struct {
	Records    int
	NonVariant int
	STRMasked  int
	MAFMasked  int
}

// Masked returns the number of records whose ALT list changed.
func (s Stats) Masked() int {
	return s.STRMasked + s.MAFMasked
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Records += o.Records
	s.NonVariant += o.NonVariant
	s.STRMasked += o.STRMasked
	s.MAFMasked += o.MAFMasked
}

// Pipeline transforms one header and record stream.
type Pipeline struct {
	level  mask.Level
	policy mask.Policy
	logger *zap.Logger
}

// NewPipeline creates a pipeline for the given level. The policy is only
// consulted at the high level.
func NewPipeline(level mask.Level, policy mask.Policy) *Pipeline {
	return &Pipeline{
		level:  level,
		policy: policy,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for per-record debug messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Level returns the anonymization level.
func (p *Pipeline) Level() mask.Level {
	return p.level
}

// Header returns the redacted header. Header rules apply at every level.
func (p *Pipeline) Header(h vcf.Header) vcf.Header {
	return mask.RedactHeader(h)
}

// Record returns the anonymized record and the decision behind it. The
// input is never modified.
func (p *Pipeline) Record(v *vcf.Variant) (*vcf.Variant, mask.Decision) {
	if p.level != mask.LevelHigh {
		return v, mask.Decision{Kind: mask.KindUnchanged, Alts: v.Alts}
	}
	d := p.policy.Decide(v)
	return d.Apply(v), d
}

// Run reads every record from src and writes the anonymized stream to dst.
// Records are handled strictly in stream order.
func (p *Pipeline) Run(src vcf.VariantParser, dst vcf.VariantWriter) (Stats, error) {
	var stats Stats

	if err := dst.WriteHeader(p.Header(src.Header())); err != nil {
		return stats, fmt.Errorf("write header: %w", err)
	}

	for {
		v, err := src.Next()
		if err != nil {
			return stats, err
		}
		if v == nil {
			break
		}
		stats.Records++
		if v.IsNonVariant() {
			stats.NonVariant++
		}

		out, d := p.Record(v)
		switch d.Kind {
		case mask.KindSTR:
			stats.STRMasked++
			p.logger.Debug("masked record",
				zap.Stringer("site", v.Site()),
				zap.Stringer("kind", d.Kind),
				zap.Strings("alts", out.Alts))
		case mask.KindMAF:
			stats.MAFMasked++
			p.logger.Debug("masked record",
				zap.Stringer("site", v.Site()),
				zap.Stringer("kind", d.Kind),
				zap.String("source", string(d.Source)),
				zap.Float64("maf", d.MAF.Value))
		}

		if err := dst.Write(out); err != nil {
			return stats, fmt.Errorf("write %s: %w", v.Site(), err)
		}
	}

	if err := dst.Flush(); err != nil {
		return stats, fmt.Errorf("flush: %w", err)
	}
	return stats, nil
}
