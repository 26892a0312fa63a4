package verify

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/genomeprivacy/vcf-anony/internal/index"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Verifier verifies file pairs on disk.
type Verifier struct {
	engine       *Engine
	requireIndex bool
	logger       *zap.Logger
}

// NewVerifier creates a verifier. When requireIndex is set, both files of a
// pair must have a .csi or .tbi companion.
func NewVerifier(e *Engine, requireIndex bool) *Verifier {
	return &Verifier{engine: e, requireIndex: requireIndex, logger: zap.NewNop()}
}

// SetLogger sets the logger for the verifier and its engine.
func (v *Verifier) SetLogger(l *zap.Logger) {
	v.logger = l
	v.engine.SetLogger(l)
}

// Pair verifies one pair and returns its outcome.
func (v *Verifier) Pair(p Pair) (Outcome, error) {
	v.logger.Info("checking",
		zap.String("origin", filepath.Base(p.Original)),
		zap.String("anony", filepath.Base(p.Anonymized)))

	if v.requireIndex {
		for _, path := range []string{p.Original, p.Anonymized} {
			if _, err := index.Find(path); err != nil {
				return Outcome{}, err
			}
		}
	}

	orig, err := vcf.NewParser(p.Original)
	if err != nil {
		return Outcome{}, err
	}
	defer orig.Close()

	anon, err := vcf.NewParser(p.Anonymized)
	if err != nil {
		return Outcome{}, err
	}
	defer anon.Close()

	out, err := v.engine.Verify(orig, anon, p.Level)
	if err != nil {
		return Outcome{}, fmt.Errorf("verify %s: %w", p.Anonymized, err)
	}
	out.Filename = filepath.Base(p.Anonymized)

	v.logger.Debug("verified",
		zap.String("anony", out.Filename),
		zap.String("result", out.Result()),
		zap.String("rate", out.RateString()))
	return out, nil
}
