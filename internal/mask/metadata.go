package mask

import (
	"strings"

	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Header keys rewritten by RedactHeader.
const (
	KeyCmdline   = "cmdline"
	KeyReference = "reference"
)

// RedactedCmdline is the value every ##cmdline line is rewritten to.
const RedactedCmdline = "."

// HeaderRule rewrites the value of one header key.
type HeaderRule struct {
	Key     string
	Rewrite func(value string) string
}

// HeaderRules are the fixed metadata rules, applied independently.
var HeaderRules = []HeaderRule{
	{Key: KeyCmdline, Rewrite: func(string) string { return RedactedCmdline }},
	{Key: KeyReference, Rewrite: RedactReference},
}

// RedactHeader returns a new header with every rule applied. Line order is
// preserved and lines without a rule pass through unchanged.
func RedactHeader(h vcf.Header) vcf.Header {
	lines := make([]vcf.HeaderLine, len(h.Lines))
	for i, l := range h.Lines {
		lines[i] = l
		if rule, ok := ruleFor(l.Key); ok {
			lines[i] = vcf.NewHeaderLine(l.Key, rule.Rewrite(l.Value))
		}
	}
	return h.WithLines(lines)
}

func ruleFor(key string) (HeaderRule, bool) {
	if key == "" {
		return HeaderRule{}, false
	}
	for _, r := range HeaderRules {
		if r.Key == key {
			return r, true
		}
	}
	return HeaderRule{}, false
}

// RedactReference strips any scheme:// prefix and directory components,
// keeping the final path segment.
func RedactReference(value string) string {
	v := strings.TrimSpace(value)
	if _, rest, ok := strings.Cut(v, "://"); ok {
		v = rest
	}
	v = strings.TrimRight(v, "/\\")
	if i := strings.LastIndexAny(v, "/\\"); i >= 0 {
		v = v[i+1:]
	}
	return v
}
