package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/genomeprivacy/vcf-anony/internal/mask"
	"github.com/genomeprivacy/vcf-anony/internal/vcf"
	"github.com/genomeprivacy/vcf-anony/internal/verify"
)

// OutcomeRecord is one stored verification outcome together with the
// identity of the files and the policy it was computed from.
type OutcomeRecord struct {
	Outcome    verify.Outcome
	Original   FileFingerprint
	Anonymized FileFingerprint
	Policy     mask.Policy
	VerifiedAt time.Time
}

const outcomeColumns = `filename, anonymization_level, verification_result, anonymization_rate,
	metadata_targets, variant_targets, metadata_masked, variant_masked, unmasked_positions,
	original_path, original_size, original_mtime,
	anonymized_path, anonymized_size, anonymized_mtime,
	maf_threshold, min_motif, max_motif, min_repeat, verified_at`

// WriteOutcomes batch-inserts records using the Appender API.
func (s *Store) WriteOutcomes(records []OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "verification_results")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range records {
		o := r.Outcome
		if err := appender.AppendRow(
			o.Filename, string(o.Level), o.Result(), o.Rate(),
			int64(o.MetadataTargets), int64(o.VariantTargets),
			int64(o.MetadataMasked), int64(o.VariantMasked), o.UnmaskedString(),
			r.Original.Path, r.Original.Size, r.Original.ModTime.UnixNano(),
			r.Anonymized.Path, r.Anonymized.Size, r.Anonymized.ModTime.UnixNano(),
			r.Policy.MAFThreshold,
			int32(r.Policy.STR.MinMotif), int32(r.Policy.STR.MaxMotif), int32(r.Policy.STR.MinRepeat),
			r.VerifiedAt.UTC(),
		); err != nil {
			return fmt.Errorf("append outcome: %w", err)
		}
	}

	return appender.Flush()
}

// LookupOutcomes returns every stored outcome for an anonymized file name,
// oldest first.
func (s *Store) LookupOutcomes(filename string) ([]OutcomeRecord, error) {
	rows, err := s.db.Query(`SELECT `+outcomeColumns+`
		FROM verification_results
		WHERE filename=?
		ORDER BY verified_at`, filename)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// FailedOutcomes returns the latest outcome of every file whose most recent
// verification failed, ordered by file name.
func (s *Store) FailedOutcomes() ([]OutcomeRecord, error) {
	rows, err := s.db.Query(`SELECT ` + outcomeColumns + `
		FROM verification_results
		QUALIFY row_number() OVER (PARTITION BY filename ORDER BY verified_at DESC) = 1
			AND verification_result = 'fail'
		ORDER BY filename`)
	if err != nil {
		return nil, fmt.Errorf("query failed outcomes: %w", err)
	}
	defer rows.Close()

	return scanOutcomes(rows)
}

// LatestOutcome returns the most recent outcome stored for this pair of
// paths under policy, provided neither file changed since. A changed file
// or a different policy yields ok == false.
func (s *Store) LatestOutcome(orig, anon FileFingerprint, policy mask.Policy) (OutcomeRecord, bool, error) {
	rows, err := s.db.Query(`SELECT `+outcomeColumns+`
		FROM verification_results
		WHERE original_path=? AND anonymized_path=?
			AND maf_threshold=? AND min_motif=? AND max_motif=? AND min_repeat=?
		ORDER BY verified_at DESC
		LIMIT 1`,
		orig.Path, anon.Path,
		policy.MAFThreshold, policy.STR.MinMotif, policy.STR.MaxMotif, policy.STR.MinRepeat)
	if err != nil {
		return OutcomeRecord{}, false, fmt.Errorf("query latest outcome: %w", err)
	}
	defer rows.Close()

	records, err := scanOutcomes(rows)
	if err != nil || len(records) == 0 {
		return OutcomeRecord{}, false, err
	}
	r := records[0]
	if !r.Original.Same(orig) || !r.Anonymized.Same(anon) {
		return OutcomeRecord{}, false, nil
	}
	return r, true, nil
}

// ClearOutcomes removes all stored outcomes.
func (s *Store) ClearOutcomes() error {
	_, err := s.db.Exec("DELETE FROM verification_results")
	return err
}

func scanOutcomes(rows *sql.Rows) ([]OutcomeRecord, error) {
	var records []OutcomeRecord
	for rows.Next() {
		var (
			r                    OutcomeRecord
			level, result        string
			rate                 float64
			metaT, varT          int64
			metaM, varM          int64
			unmasked             string
			origMtime, anonMtime int64
			minMotif, maxMotif   int32
			minRepeat            int32
		)
		if err := rows.Scan(
			&r.Outcome.Filename, &level, &result, &rate,
			&metaT, &varT, &metaM, &varM, &unmasked,
			&r.Original.Path, &r.Original.Size, &origMtime,
			&r.Anonymized.Path, &r.Anonymized.Size, &anonMtime,
			&r.Policy.MAFThreshold, &minMotif, &maxMotif, &minRepeat, &r.VerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}

		r.Outcome.Level = mask.Level(level)
		r.Outcome.MetadataTargets = int(metaT)
		r.Outcome.VariantTargets = int(varT)
		r.Outcome.MetadataMasked = int(metaM)
		r.Outcome.VariantMasked = int(varM)
		r.Outcome.Unmasked = parseSites(unmasked)
		r.Policy.STR = mask.STRConfig{MinMotif: int(minMotif), MaxMotif: int(maxMotif), MinRepeat: int(minRepeat)}
		r.Original.ModTime = time.Unix(0, origMtime)
		r.Anonymized.ModTime = time.Unix(0, anonMtime)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return records, nil
}

// parseSites reverses Outcome.UnmaskedString.
func parseSites(s string) []vcf.Site {
	if s == "" || s == "-" {
		return nil
	}
	var sites []vcf.Site
	for _, part := range strings.Split(s, ";") {
		i := strings.LastIndexByte(part, ':')
		if i < 0 {
			continue
		}
		pos, err := strconv.ParseInt(part[i+1:], 10, 64)
		if err != nil {
			continue
		}
		sites = append(sites, vcf.Site{Chrom: part[:i], Pos: pos})
	}
	return sites
}
