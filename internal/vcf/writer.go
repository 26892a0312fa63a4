package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
)

// Writer writes a header and variants in VCF text format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a VCF writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the meta-information lines followed by the #CHROM line.
func (vw *Writer) WriteHeader(h Header) error {
	for _, line := range h.Lines {
		if _, err := vw.w.WriteString(line.String() + "\n"); err != nil {
			return err
		}
	}
	if h.Columns != "" {
		if _, err := vw.w.WriteString(h.Columns + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes a single variant line.
func (vw *Writer) Write(v *Variant) error {
	var lb strings.Builder
	lb.Grow(128)

	lb.WriteString(v.Chrom)
	lb.WriteByte('\t')
	lb.WriteString(strconv.FormatInt(v.Pos, 10))
	lb.WriteByte('\t')
	lb.WriteString(orDot(v.ID))
	lb.WriteByte('\t')
	lb.WriteString(orDot(v.Ref))
	lb.WriteByte('\t')
	lb.WriteString(orDot(strings.Join(v.Alts, ",")))
	lb.WriteByte('\t')
	lb.WriteString(orDot(v.Qual))
	lb.WriteByte('\t')
	lb.WriteString(orDot(v.Filter))
	lb.WriteByte('\t')
	lb.WriteString(orDot(v.RawInfo))

	if v.SampleColumns != "" {
		lb.WriteByte('\t')
		lb.WriteString(v.SampleColumns)
	}

	lb.WriteByte('\n')
	_, err := vw.w.WriteString(lb.String())
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (vw *Writer) Flush() error {
	return vw.w.Flush()
}

func orDot(s string) string {
	if s == "" {
		return "."
	}
	return s
}

// FileWriter writes a BGZF-compressed VCF file.
type FileWriter struct {
	*Writer
	file *os.File
	bgzf *bgzf.Writer
}

// CreateFile creates a BGZF-compressed VCF file at path.
func CreateFile(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create vcf file: %w", err)
	}
	bw := bgzf.NewWriter(f, 1)
	return &FileWriter{
		Writer: NewWriter(bw),
		file:   f,
		bgzf:   bw,
	}, nil
}

// Close flushes buffered lines, terminates the BGZF stream and closes the file.
func (fw *FileWriter) Close() error {
	if err := fw.Flush(); err != nil {
		fw.bgzf.Close()
		fw.file.Close()
		return fmt.Errorf("flush vcf file: %w", err)
	}
	if err := fw.bgzf.Close(); err != nil {
		fw.file.Close()
		return fmt.Errorf("close bgzf stream: %w", err)
	}
	return fw.file.Close()
}

// SliceParser serves a fixed header and variant list through VariantParser.
type SliceParser struct {
	header   Header
	variants []*Variant
	next     int
}

// NewSliceParser creates a parser over in-memory variants.
func NewSliceParser(h Header, variants []*Variant) *SliceParser {
	return &SliceParser{header: h, variants: variants}
}

// Header returns the header.
func (s *SliceParser) Header() Header { return s.header }

// Next returns the next variant, or nil, nil when exhausted.
func (s *SliceParser) Next() (*Variant, error) {
	if s.next >= len(s.variants) {
		return nil, nil
	}
	v := s.variants[s.next]
	s.next++
	return v, nil
}

// Close is a no-op.
func (s *SliceParser) Close() error { return nil }
