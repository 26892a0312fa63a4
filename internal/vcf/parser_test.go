package vcf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleVCF = "##fileformat=VCFv4.2\n" +
	"##cmdline=caller --input /data/sample1.bam\n" +
	"##reference=file:///data/refs/hg38.fa\n" +
	"##INFO=<ID=AF,Number=A,Type=Float,Description=\"Allele Frequency\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n" +
	"1\t100\trs1\tA\tG\t50\tPASS\tAF=0.2\tGT\t0/1\n" +
	"1\t200\t.\tA\tATATATATATATAT,C\t.\tPASS\tAC=1;AN=1000;DB\tGT\t1/2\n" +
	"\n" +
	"2\t300\t.\tC\t.\t.\t.\t.\tGT\t0/0\n"

func writeSample(t *testing.T, compress bool) string {
	t.Helper()

	dir := t.TempDir()
	if !compress {
		path := filepath.Join(dir, "sample.vcf")
		if err := os.WriteFile(path, []byte(sampleVCF), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	p, err := NewParserFromReader(strings.NewReader(sampleVCF))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "sample.vcf.gz")
	fw, err := CreateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := fw.WriteHeader(p.Header()); err != nil {
		t.Fatal(err)
	}
	for {
		v, err := p.Next()
		if err != nil {
			t.Fatal(err)
		}
		if v == nil {
			break
		}
		if err := fw.Write(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParser_Plain(t *testing.T) {
	parser, err := NewParser(writeSample(t, false))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil {
		t.Fatal("Expected a variant, got nil")
	}
	if v.Chrom != "1" || v.Pos != 100 || v.Ref != "A" {
		t.Errorf("unexpected variant %+v", v)
	}
	if len(v.Alts) != 1 || v.Alts[0] != "G" {
		t.Errorf("Alts = %v, want [G]", v.Alts)
	}
	if v.SampleColumns != "GT\t0/1" {
		t.Errorf("SampleColumns = %q", v.SampleColumns)
	}
}

func TestParser_BGZF(t *testing.T) {
	path := writeSample(t, true)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	magic := make([]byte, 18)
	if _, err := f.Read(magic); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if !IsBGZF(magic) {
		t.Fatal("written file is not BGZF")
	}

	parser, err := NewParser(path)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	count := 0
	var last *Variant
	for {
		v, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading variant: %v", err)
		}
		if v == nil {
			break
		}
		count++
		last = v
	}

	if count != 3 {
		t.Errorf("Expected 3 variants, got %d", count)
	}
	if !last.IsNonVariant() {
		t.Errorf("last record should be non-variant, ALT=%v", last.Alts)
	}
}

func TestParser_Header(t *testing.T) {
	parser, err := NewParser(writeSample(t, true))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	h := parser.Header()
	if len(h.Lines) != 4 {
		t.Fatalf("Expected 4 meta lines, got %d", len(h.Lines))
	}

	ref, ok := h.Find("reference")
	if !ok {
		t.Fatal("Missing ##reference line")
	}
	if ref.Value != "file:///data/refs/hg38.fa" {
		t.Errorf("reference value = %q", ref.Value)
	}
	if !h.Has("cmdline") {
		t.Error("Missing ##cmdline line")
	}
	if got := h.SampleNames(); len(got) != 1 || got[0] != "S1" {
		t.Errorf("SampleNames() = %v, want [S1]", got)
	}
}

func TestParser_MultiAllelicAndFlags(t *testing.T) {
	parser, err := NewParser(writeSample(t, false))
	if err != nil {
		t.Fatal(err)
	}
	defer parser.Close()

	if _, err := parser.Next(); err != nil {
		t.Fatal(err)
	}
	v, err := parser.Next()
	if err != nil {
		t.Fatal(err)
	}

	if len(v.Alts) != 2 || v.Alts[1] != "C" {
		t.Errorf("Alts = %v", v.Alts)
	}
	if _, ok := v.Info["DB"]; !ok {
		t.Error("flag DB missing from INFO")
	}
	if v.RawInfo != "AC=1;AN=1000;DB" {
		t.Errorf("RawInfo = %q", v.RawInfo)
	}
}

func TestParser_MissingChromLine(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("##fileformat=VCFv4.2\n1\t100\t.\tA\tG\t.\t.\t.\n"))
	if err == nil {
		t.Fatal("expected error for missing #CHROM line")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("expected *ParseError, got %T", err)
	}
}

func TestParser_ShortLine(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t100\t.\tA\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error for short data line")
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(sampleVCF))
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	w := NewWriter(&sb)
	if err := w.WriteHeader(p.Header()); err != nil {
		t.Fatal(err)
	}
	for {
		v, err := p.Next()
		if err != nil {
			t.Fatal(err)
		}
		if v == nil {
			break
		}
		if err := w.Write(v); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	// The blank line is dropped; everything else is byte-identical.
	want := strings.Replace(sampleVCF, "\n\n", "\n", 1)
	if sb.String() != want {
		t.Errorf("round trip mismatch:\n got: %q\nwant: %q", sb.String(), want)
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 8 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 8 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

func TestListVariantFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.vcf.gz", "a.vcf.bgz", "c.vcf", "d.vcf.gz.tbi"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.vcf.gz"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ListVariantFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(got, ",") != "a.vcf.bgz,b.vcf.gz" {
		t.Errorf("ListVariantFiles() = %v", got)
	}
}
