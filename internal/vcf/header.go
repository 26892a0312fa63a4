package vcf

import "strings"

// HeaderLine is a single "##" meta-information line.
// Lines of the form ##key=value expose Key and Value; anything else keeps
// only Raw and is passed through untouched.
type HeaderLine struct {
	Key   string
	Value string
	Raw   string // line as read, without the trailing newline
}

// ParseHeaderLine splits a "##key=value" line. Malformed lines yield an
// empty Key and are carried through via Raw.
func ParseHeaderLine(line string) HeaderLine {
	body, ok := strings.CutPrefix(line, "##")
	if !ok {
		return HeaderLine{Raw: line}
	}
	key, value, ok := strings.Cut(body, "=")
	if !ok || key == "" {
		return HeaderLine{Raw: line}
	}
	return HeaderLine{Key: key, Value: value, Raw: line}
}

// NewHeaderLine builds a ##key=value line.
func NewHeaderLine(key, value string) HeaderLine {
	return HeaderLine{Key: key, Value: value, Raw: "##" + key + "=" + value}
}

// String returns the line as it is written to a file.
func (h HeaderLine) String() string {
	return h.Raw
}

// Header holds the meta-information lines and the #CHROM column line.
type Header struct {
	Lines   []HeaderLine
	Columns string // the #CHROM line
}

// Find returns the first line with the given key.
func (h Header) Find(key string) (HeaderLine, bool) {
	for _, l := range h.Lines {
		if l.Key == key {
			return l, true
		}
	}
	return HeaderLine{}, false
}

// Has reports whether a line with the given key exists.
func (h Header) Has(key string) bool {
	_, ok := h.Find(key)
	return ok
}

// SampleNames returns sample names from the #CHROM line.
// Returns nil if no sample columns are present.
func (h Header) SampleNames() []string {
	fields := strings.Split(h.Columns, "\t")
	if len(fields) > 9 {
		return fields[9:]
	}
	return nil
}

// WithLines returns a copy of the header carrying the given lines.
func (h Header) WithLines(lines []HeaderLine) Header {
	return Header{Lines: lines, Columns: h.Columns}
}
