package anonymize

import (
	"strconv"
	"strings"

	"github.com/genomeprivacy/vcf-anony/internal/mask"
)

// Marker separates the level prefix from the original file name.
const Marker = "anony_"

// OutputName returns the anonymized file name for original:
// low_anony_<original> or high_<maf>_anony_<original>.
func OutputName(level mask.Level, maf float64, original string) string {
	if level == mask.LevelHigh {
		return "high_" + strconv.FormatFloat(maf, 'g', -1, 64) + "_" + Marker + original
	}
	return "low_" + Marker + original
}

// ParseOutputName recovers the original file name and the level from an
// anonymized file name. The original is everything after the first
// "anony_". Prefixes high_ and strong_ mean high; anything else is low.
func ParseOutputName(name string) (original string, level mask.Level, ok bool) {
	prefix, original, ok := strings.Cut(name, Marker)
	if !ok || original == "" {
		return "", "", false
	}
	return original, InferLevel(prefix), true
}

// InferLevel maps a file name prefix to a level.
func InferLevel(prefix string) mask.Level {
	if strings.HasPrefix(prefix, "high_") || strings.HasPrefix(prefix, "strong_") {
		return mask.LevelHigh
	}
	return mask.LevelLow
}
