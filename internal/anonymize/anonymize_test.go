package anonymize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/genomeprivacy/vcf-anony/internal/index"
	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

const testVCF = "##fileformat=VCFv4.2\n" +
	"##cmdline=caller --input /data/patient42.bam\n" +
	"##reference=file:///data/refs/hg38.fa\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n" +
	"1\t100\trs1\tA\tG\t50\tPASS\tAF=0.2\tGT\t0/1\n" +
	"1\t200\t.\tA\tATATATATATATAT,C\t.\tPASS\tAC=1;AN=1000\tGT\t1/2\n" +
	"1\t300\t.\tG\tT\t.\tPASS\tAC=1;AN=1000\tGT\t0/1\n" +
	"1\t400\t.\tC\t.\t.\t.\tAC=1;AN=1000\tGT\t0/0\n" +
	"2\t500\t.\tT\tC\t.\tPASS\tDP=12\tGT\t0/1\n"

var testPolicy = mask.Policy{
	STR:          mask.STRConfig{MinMotif: 1, MaxMotif: 6, MinRepeat: 7},
	MAFThreshold: 0.01,
}

func parse(t *testing.T, text string) *vcf.Parser {
	t.Helper()
	p, err := vcf.NewParserFromReader(strings.NewReader(text))
	require.NoError(t, err)
	return p
}

func readAll(t *testing.T, p vcf.VariantParser) []*vcf.Variant {
	t.Helper()
	var out []*vcf.Variant
	for {
		v, err := p.Next()
		require.NoError(t, err)
		if v == nil {
			return out
		}
		out = append(out, v)
	}
}

// writeIndexed writes text as an indexed BGZF VCF in dir.
func writeIndexed(t *testing.T, dir, name, text string) string {
	t.Helper()
	p := parse(t, text)
	path := filepath.Join(dir, name)
	fw, err := vcf.CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, fw.WriteHeader(p.Header()))
	for _, v := range readAll(t, p) {
		require.NoError(t, fw.Write(v))
	}
	require.NoError(t, fw.Close())
	_, err = index.Build(path)
	require.NoError(t, err)
	return path
}

func runPipeline(t *testing.T, level mask.Level) (Stats, *vcf.Parser) {
	t.Helper()
	var buf bytes.Buffer
	stats, err := NewPipeline(level, testPolicy).Run(parse(t, testVCF), vcf.NewWriter(&buf))
	require.NoError(t, err)
	return stats, parse(t, buf.String())
}

func TestPipeline_Low(t *testing.T) {
	stats, out := runPipeline(t, mask.LevelLow)

	cmd, ok := out.Header().Find(mask.KeyCmdline)
	require.True(t, ok)
	assert.Equal(t, "##cmdline=.", cmd.String())
	ref, _ := out.Header().Find(mask.KeyReference)
	assert.Equal(t, "hg38.fa", ref.Value)

	want := readAll(t, parse(t, testVCF))
	got := readAll(t, out)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Alts, got[i].Alts, "record %d", i)
	}
	assert.Equal(t, Stats{Records: 5, NonVariant: 1}, stats)
}

func TestPipeline_High(t *testing.T) {
	stats, out := runPipeline(t, mask.LevelHigh)
	got := readAll(t, out)
	require.Len(t, got, 5)

	assert.Equal(t, []string{"G"}, got[0].Alts, "common variant unchanged")
	assert.Equal(t, []string{"ANANANANANANAN", "C"}, got[1].Alts, "STR masked, MAF skipped")
	assert.Equal(t, []string{vcf.NoCall}, got[2].Alts, "rare variant masked")
	assert.Equal(t, []string{vcf.NoCall}, got[3].Alts, "non-variant passed through")
	assert.Equal(t, []string{"C"}, got[4].Alts, "undetermined frequency unchanged")

	// INFO and sample columns are preserved
	assert.Equal(t, "AC=1;AN=1000", got[2].RawInfo)
	assert.Equal(t, "GT\t0/1", got[2].SampleColumns)
	assert.Equal(t, []string{"S1"}, out.Header().SampleNames())

	assert.Equal(t, Stats{Records: 5, NonVariant: 1, STRMasked: 1, MAFMasked: 1}, stats)
	assert.Equal(t, 2, stats.Masked())
}

func TestPipeline_LogsDecisions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPipeline(mask.LevelHigh, testPolicy)
	p.SetLogger(zap.New(core))

	var buf bytes.Buffer
	_, err := p.Run(parse(t, testVCF), vcf.NewWriter(&buf))
	require.NoError(t, err)

	entries := logs.FilterMessage("masked record").All()
	require.Len(t, entries, 2)

	str := entries[0].ContextMap()
	assert.Equal(t, "1:200", str["site"])
	assert.Equal(t, "STR", str["kind"])
	assert.NotContains(t, str, "maf")

	rare := entries[1].ContextMap()
	assert.Equal(t, "1:300", rare["site"])
	assert.Equal(t, "AC/AN", rare["source"])
	assert.InDelta(t, 0.001, rare["maf"], 1e-12)
}

func TestPipeline_DoesNotMutateInput(t *testing.T) {
	p := parse(t, testVCF)
	h := p.Header()
	in := readAll(t, p)
	before := make([][]string, len(in))
	for i, v := range in {
		before[i] = append([]string(nil), v.Alts...)
	}

	var buf bytes.Buffer
	_, err := NewPipeline(mask.LevelHigh, testPolicy).Run(vcf.NewSliceParser(h, in), vcf.NewWriter(&buf))
	require.NoError(t, err)

	for i, v := range in {
		assert.Equal(t, before[i], v.Alts)
	}
	assert.Equal(t, "##cmdline=caller --input /data/patient42.bam", h.Lines[1].String())
}

func TestStats_Add(t *testing.T) {
	s := Stats{Records: 2, STRMasked: 1}
	s.Add(Stats{Records: 3, MAFMasked: 2, NonVariant: 1})
	assert.Equal(t, Stats{Records: 5, NonVariant: 1, STRMasked: 1, MAFMasked: 2}, s)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "low_anony_s1.vcf.gz", OutputName(mask.LevelLow, 0.01, "s1.vcf.gz"))
	assert.Equal(t, "high_0.01_anony_s1.vcf.gz", OutputName(mask.LevelHigh, 0.01, "s1.vcf.gz"))
	assert.Equal(t, "high_0.05_anony_s1.vcf.bgz", OutputName(mask.LevelHigh, 0.05, "s1.vcf.bgz"))
	assert.Equal(t, "high_1e-05_anony_a.vcf.gz", OutputName(mask.LevelHigh, 0.00001, "a.vcf.gz"))
}

func TestParseOutputName(t *testing.T) {
	tests := []struct {
		name     string
		original string
		level    mask.Level
		ok       bool
	}{
		{"low_anony_s1.vcf.gz", "s1.vcf.gz", mask.LevelLow, true},
		{"high_0.01_anony_s1.vcf.gz", "s1.vcf.gz", mask.LevelHigh, true},
		{"strong_anony_s1.vcf.gz", "s1.vcf.gz", mask.LevelHigh, true},
		{"weak_anony_s1.vcf.gz", "s1.vcf.gz", mask.LevelLow, true},
		{"custom_anony_s1.vcf.gz", "s1.vcf.gz", mask.LevelLow, true},
		{"low_anony_anony_x.vcf.gz", "anony_x.vcf.gz", mask.LevelLow, true},
		{"s1.vcf.gz", "", "", false},
		{"low_anony_", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig, level, ok := ParseOutputName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.original, orig)
			assert.Equal(t, tt.level, level)
		})
	}

	// round trip
	orig, level, ok := ParseOutputName(OutputName(mask.LevelHigh, 0.02, "x.vcf.gz"))
	require.True(t, ok)
	assert.Equal(t, "x.vcf.gz", orig)
	assert.Equal(t, mask.LevelHigh, level)
}

func TestPlan(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	for _, name := range []string{"b.vcf.gz", "a.vcf.bgz", "notes.txt", "a.vcf.gz.tbi"} {
		require.NoError(t, os.WriteFile(filepath.Join(in, name), nil, 0644))
	}

	jobs, err := Plan(in, out, mask.LevelHigh, 0.01)
	require.NoError(t, err)
	assert.Equal(t, []Job{
		{Input: filepath.Join(in, "a.vcf.bgz"), Output: filepath.Join(out, "high_0.01_anony_a.vcf.bgz")},
		{Input: filepath.Join(in, "b.vcf.gz"), Output: filepath.Join(out, "high_0.01_anony_b.vcf.gz")},
	}, jobs)
}

func TestAnonymizer_File(t *testing.T) {
	in, outDir := t.TempDir(), t.TempDir()
	input := writeIndexed(t, in, "s1.vcf.gz", testVCF)
	job := Job{Input: input, Output: filepath.Join(outDir, OutputName(mask.LevelHigh, 0.01, "s1.vcf.gz"))}

	a := NewAnonymizer(NewPipeline(mask.LevelHigh, testPolicy), true)
	res, err := a.File(job)
	require.NoError(t, err)

	assert.Equal(t, job.Output+".csi", res.Index)
	assert.Equal(t, 1, res.Stats.STRMasked)
	assert.FileExists(t, res.Index)

	found, err := index.Find(job.Output)
	require.NoError(t, err)
	assert.Equal(t, res.Index, found)

	p, err := vcf.NewParser(job.Output)
	require.NoError(t, err)
	defer p.Close()
	got := readAll(t, p)
	require.Len(t, got, 5)
	assert.Equal(t, []string{vcf.NoCall}, got[2].Alts)
}

func TestAnonymizer_File_MissingIndex(t *testing.T) {
	in, outDir := t.TempDir(), t.TempDir()
	input := writeIndexed(t, in, "s1.vcf.gz", testVCF)
	require.NoError(t, os.Remove(input+".csi"))
	job := Job{Input: input, Output: filepath.Join(outDir, "low_anony_s1.vcf.gz")}

	_, err := NewAnonymizer(NewPipeline(mask.LevelLow, testPolicy), true).File(job)
	assert.ErrorIs(t, err, index.ErrIndexMissing)
	assert.NoFileExists(t, job.Output)

	// index optional
	res, err := NewAnonymizer(NewPipeline(mask.LevelLow, testPolicy), false).File(job)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Stats.Records)
}

func TestAnonymizer_File_Malformed(t *testing.T) {
	in, outDir := t.TempDir(), t.TempDir()
	input := filepath.Join(in, "bad.vcf.gz")
	text := testVCF + "3\tnot-a-position\t.\tA\tG\t.\t.\t.\n"
	require.NoError(t, os.WriteFile(input, []byte(text), 0644))
	job := Job{Input: input, Output: filepath.Join(outDir, "low_anony_bad.vcf.gz")}

	_, err := NewAnonymizer(NewPipeline(mask.LevelLow, testPolicy), false).File(job)
	require.Error(t, err)
	var pe *vcf.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.NoFileExists(t, job.Output)
}
