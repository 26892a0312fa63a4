// Package vcf provides VCF file parsing and writing functionality.
package vcf

// VariantParser is the interface for parsers that read variants.
type VariantParser interface {
	// Header returns the meta-information and column lines.
	Header() Header

	// Next reads the next variant.
	// Returns nil, nil when there are no more variants.
	Next() (*Variant, error)

	// Close closes the parser and releases resources.
	Close() error
}

// VariantWriter is the interface for sinks that accept a header followed
// by a stream of variants.
type VariantWriter interface {
	WriteHeader(h Header) error
	Write(v *Variant) error
	Flush() error
}
