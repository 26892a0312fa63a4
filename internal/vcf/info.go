package vcf

import (
	"math"
	"strconv"
	"strings"
)

// FieldKind tags the outcome of a numeric INFO lookup.
type FieldKind int

const (
	FieldAbsent    FieldKind = iota // key not present in INFO
	FieldMalformed                  // key present, value missing or not a finite number
	FieldNumeric                    // key present with a usable number
)

// Field is the result of looking up a numeric INFO value.
// Value is only meaningful when Kind is FieldNumeric.
type Field struct {
	Kind  FieldKind
	Value float64
}

// NumericInfo looks up key in the variant's INFO and parses its first
// comma-separated element as a float. Per-allele lists (Number=A) therefore
// resolve to the value of the first alternate allele.
func (v *Variant) NumericInfo(key string) Field {
	raw, ok := v.Info[key]
	if !ok {
		return Field{Kind: FieldAbsent}
	}
	return parseNumeric(raw)
}

func parseNumeric(raw string) Field {
	first, _, _ := strings.Cut(raw, ",")
	if first == "" || first == "." {
		return Field{Kind: FieldMalformed}
	}
	f, err := strconv.ParseFloat(first, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Field{Kind: FieldMalformed}
	}
	return Field{Kind: FieldNumeric, Value: f}
}

// parseInfo parses the INFO column into a map.
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "" || info == "." {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		if kv == "" {
			continue
		}
		key, value, _ := strings.Cut(kv, "=")
		// Flag-type INFO fields carry no value
		result[key] = value
	}

	return result
}
