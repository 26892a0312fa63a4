package verify

import (
	"slices"

	"go.uber.org/zap"

	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Engine judges anonymized files against the targets of their originals.
// It uses the same masking policy as the anonymizer.
type Engine struct {
	policy mask.Policy
	logger *zap.Logger
}

// NewEngine creates an engine for the given policy.
func NewEngine(policy mask.Policy) *Engine {
	return &Engine{policy: policy, logger: zap.NewNop()}
}

// SetLogger sets the logger for per-site debug messages.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Verify checks one original/anonymized pair. Header rules are checked at
// every level; variant targets only at the high level.
func (e *Engine) Verify(orig, anon vcf.VariantParser, level mask.Level) (Outcome, error) {
	out := Outcome{Level: level}
	e.checkMetadata(&out, orig.Header(), anon.Header())

	if level != mask.LevelHigh {
		return out, nil
	}

	targets, err := ExtractTargets(orig, e.policy)
	if err != nil {
		return out, err
	}
	judged, err := e.judgeSites(anon, targets)
	if err != nil {
		return out, err
	}

	out.VariantTargets = len(targets)
	for site, t := range targets {
		ok, seen := judged[site]
		if !seen {
			ok = e.Judge(t, nil)
		}
		if ok {
			out.VariantMasked++
			continue
		}
		out.Unmasked = append(out.Unmasked, site)
	}
	sortSites(out.Unmasked)
	return out, nil
}

// checkMetadata counts one target per header rule whose key appears in the
// original. It passes when the anonymized header carries the key and every
// such line holds a redacted value of an original line.
func (e *Engine) checkMetadata(out *Outcome, orig, anon vcf.Header) {
	for _, rule := range mask.HeaderRules {
		var expected []string
		for _, l := range orig.Lines {
			if l.Key == rule.Key {
				expected = append(expected, rule.Rewrite(l.Value))
			}
		}
		if expected == nil {
			continue
		}
		out.MetadataTargets++

		found, redacted := false, true
		for _, l := range anon.Lines {
			if l.Key != rule.Key {
				continue
			}
			found = true
			if !slices.Contains(expected, l.Value) {
				redacted = false
			}
		}
		if found && redacted {
			out.MetadataMasked++
			continue
		}
		out.UnredactedKeys = append(out.UnredactedKeys, rule.Key)
		e.logger.Debug("header not redacted", zap.String("key", rule.Key))
	}
}

// judgeSites reads the anonymized stream and judges the records found at
// target sites. A site passes when any of its records satisfies the target,
// so a masked record followed by an untouched one at the same position still
// counts. Sites without any record are absent from the result.
func (e *Engine) judgeSites(src vcf.VariantParser, targets map[vcf.Site]Target) (map[vcf.Site]bool, error) {
	judged := make(map[vcf.Site]bool, len(targets))
	for {
		v, err := src.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return judged, nil
		}
		site := v.Site()
		t, ok := targets[site]
		if !ok || judged[site] {
			continue
		}
		judged[site] = e.Judge(t, v)
	}
}

// Judge reports whether the anonymized record rec satisfies target t. A
// missing record fails.
//
// An STR target passes when the ALT list changed and carries the mask
// character. A MAF target passes when the frequency recomputed from rec is
// undetermined or no longer rare, or when it is still rare and the ALT
// list is exactly the no-call placeholder.
func (e *Engine) Judge(t Target, rec *vcf.Variant) bool {
	if rec == nil {
		e.logger.Debug("target site missing", zap.Stringer("site", t.Site))
		return false
	}

	switch t.Kind {
	case mask.KindSTR:
		return !slices.Equal(rec.Alts, t.Alts) && mask.ContainsMask(rec.Alts)
	case mask.KindMAF:
		maf, _ := mask.EstimateMAF(rec)
		if !maf.Below(e.policy.MAFThreshold) {
			return true
		}
		return slices.Equal(rec.Alts, []string{vcf.NoCall})
	}
	return true
}
