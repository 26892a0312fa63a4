package verify

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/genomeprivacy/vcf-anony/internal/anonymize"
	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Reasons a file is left out of a plan.
var (
	ErrNoOriginal   = errors.New("no original file matches")
	ErrNoAnonymized = errors.New("no anonymized file found")
	ErrUnknownLevel = errors.New("level prefix not recognized")
)

// Pair is one original/anonymized file pair to verify.
type Pair struct {
	Original   string
	Anonymized string
	Level      mask.Level
}

// Skipped is a file that was not paired.
type Skipped struct {
	Name string
	Err  error
}

// Plan is the ordered list of pairs for a verification run.
type Plan struct {
	Pairs   []Pair
	Skipped []Skipped
}

// PlanPairs matches the compressed VCF files of originDir with the
// anonymized files of anonDir by the name that follows "anony_". Originals
// are taken in name order; for each, its low-level files come first, then
// its high-level files, each group sorted by name.
func PlanPairs(originDir, anonDir string) (Plan, error) {
	var plan Plan

	originals, err := vcf.ListVariantFiles(originDir)
	if err != nil {
		return plan, err
	}
	anonymized, err := vcf.ListVariantFiles(anonDir)
	if err != nil {
		return plan, err
	}

	type group struct{ low, high []string }
	groups := make(map[string]*group)
	for _, name := range anonymized {
		original, _, ok := anonymize.ParseOutputName(name)
		if !ok {
			plan.Skipped = append(plan.Skipped, Skipped{Name: name, Err: ErrNoOriginal})
			continue
		}
		g := groups[original]
		if g == nil {
			g = &group{}
			groups[original] = g
		}
		switch {
		case hasAnyPrefix(name, "low_", "weak_"):
			g.low = append(g.low, name)
		case hasAnyPrefix(name, "high_", "strong_"):
			g.high = append(g.high, name)
		default:
			plan.Skipped = append(plan.Skipped, Skipped{Name: name, Err: ErrUnknownLevel})
		}
	}

	for _, orig := range originals {
		g, ok := groups[orig]
		delete(groups, orig)
		if !ok || len(g.low)+len(g.high) == 0 {
			plan.Skipped = append(plan.Skipped, Skipped{Name: orig, Err: ErrNoAnonymized})
			continue
		}
		sort.Strings(g.low)
		sort.Strings(g.high)
		for _, name := range g.low {
			plan.Pairs = append(plan.Pairs, newPair(originDir, anonDir, orig, name, mask.LevelLow))
		}
		for _, name := range g.high {
			plan.Pairs = append(plan.Pairs, newPair(originDir, anonDir, orig, name, mask.LevelHigh))
		}
	}

	var orphans []string
	for _, g := range groups {
		orphans = append(orphans, g.low...)
		orphans = append(orphans, g.high...)
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		plan.Skipped = append(plan.Skipped, Skipped{Name: name, Err: ErrNoOriginal})
	}
	return plan, nil
}

func newPair(originDir, anonDir, orig, anon string, level mask.Level) Pair {
	return Pair{
		Original:   filepath.Join(originDir, orig),
		Anonymized: filepath.Join(anonDir, anon),
		Level:      level,
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
