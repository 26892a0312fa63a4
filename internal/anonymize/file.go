package anonymize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/genomeprivacy/vcf-anony/internal/index"
	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
)

// Job names one input file and where its anonymized copy goes.
type Job struct {
	Input  string
	Output string
}

// Plan lists the compressed VCF files in inputDir and pairs each with its
// output path in outputDir.
func Plan(inputDir, outputDir string, level mask.Level, maf float64) ([]Job, error) {
	names, err := vcf.ListVariantFiles(inputDir)
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		jobs = append(jobs, Job{
			Input:  filepath.Join(inputDir, name),
			Output: filepath.Join(outputDir, OutputName(level, maf, name)),
		})
	}
	return jobs, nil
}

// FileResult describes one anonymized file.
type FileResult struct {
	Job
	Index   string
	Stats   Stats
	Elapsed time.Duration
}

// Anonymizer runs the pipeline over files on disk.
type Anonymizer struct {
	pipeline     *Pipeline
	requireIndex bool
	logger       *zap.Logger
}

// NewAnonymizer creates a file anonymizer. When requireIndex is set, inputs
// without a .csi or .tbi companion are rejected with index.ErrIndexMissing.
func NewAnonymizer(p *Pipeline, requireIndex bool) *Anonymizer {
	return &Anonymizer{pipeline: p, requireIndex: requireIndex, logger: zap.NewNop()}
}

// SetLogger sets the logger for the anonymizer and its pipeline.
func (a *Anonymizer) SetLogger(l *zap.Logger) {
	a.logger = l
	a.pipeline.SetLogger(l)
}

// File anonymizes job.Input into job.Output as BGZF and writes a CSI
// index next to it. A partially written output is removed on failure.
func (a *Anonymizer) File(job Job) (FileResult, error) {
	start := time.Now()
	res := FileResult{Job: job}

	if a.requireIndex {
		if _, err := index.Find(job.Input); err != nil {
			return res, err
		}
	}

	a.logger.Info("processing",
		zap.String("file", filepath.Base(job.Input)),
		zap.String("level", string(a.pipeline.Level())))

	parser, err := vcf.NewParser(job.Input)
	if err != nil {
		return res, err
	}
	defer parser.Close()

	fw, err := vcf.CreateFile(job.Output)
	if err != nil {
		return res, err
	}

	stats, runErr := a.pipeline.Run(parser, fw)
	closeErr := fw.Close()
	if err := errors.Join(runErr, closeErr); err != nil {
		os.Remove(job.Output)
		return res, fmt.Errorf("anonymize %s: %w", job.Input, err)
	}
	res.Stats = stats
	a.logger.Info("written",
		zap.String("output", job.Output),
		zap.Int("lines", parser.LineNumber()),
		zap.Int("records", stats.Records),
		zap.Int("str_masked", stats.STRMasked),
		zap.Int("maf_masked", stats.MAFMasked))

	idx, err := index.Build(job.Output)
	if err != nil {
		return res, err
	}
	res.Index = idx
	res.Elapsed = time.Since(start)
	a.logger.Info("index created", zap.String("index", idx), zap.Duration("elapsed", res.Elapsed))

	return res, nil
}
