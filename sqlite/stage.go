package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/estate"
)

// Compile-time interface verification.
var _ estate.StageService = (*StageService)(nil)

// StageService implements estate.StageService using the process_stage table.
type StageService struct {
	db *DB
}

// NewStageService creates a new StageService.
func NewStageService(db *DB) *StageService {
	return &StageService{db: db}
}

// CreateStageRecord inserts a record with sequence one past the highest
// for (site, date).
func (s *StageService) CreateStageRecord(ctx context.Context, site estate.Site, date string) (*estate.StageRecord, error) {
	if site == "" {
		return nil, estate.Errorf(estate.EINVALID, "site required")
	}
	if _, err := time.Parse(estate.DateLayout, date); err != nil {
		return nil, estate.Errorf(estate.EINVALID, "invalid run date %q", date)
	}

	r := &estate.StageRecord{
		Site:      site,
		Date:      date,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(sequence), 0) + 1 FROM process_stage WHERE site = ? AND run_date = ?
		`, string(site), date).Scan(&r.Sequence); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO process_stage (site, run_date, sequence, scraping_offers, scraping_details, created_at)
			VALUES (?, ?, ?, 'F', 'F', ?)
		`, string(site), date, r.Sequence, r.CreatedAt.Format(time.RFC3339))
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindStageRecords retrieves records newest first.
func (s *StageService) FindStageRecords(ctx context.Context, filter estate.StageRecordFilter) ([]*estate.StageRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT site, run_date, sequence, scraping_offers, scraping_details, created_at FROM process_stage WHERE 1=1")
	if filter.Site != nil {
		query.WriteString(" AND site = ?")
		args = append(args, string(*filter.Site))
	}
	if filter.Date != nil {
		query.WriteString(" AND run_date = ?")
		args = append(args, *filter.Date)
	}
	query.WriteString(" ORDER BY run_date DESC, sequence DESC")
	appendPagination(&query, &args, filter.Limit, 0)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*estate.StageRecord{}
	for rows.Next() {
		var r estate.StageRecord
		var site, offers, details, createdAt string
		if err := rows.Scan(&site, &r.Date, &r.Sequence, &offers, &details, &createdAt); err != nil {
			return nil, err
		}
		r.Site = estate.Site(site)
		r.DiscoveryComplete = offers == "T"
		r.DetailsComplete = details == "T"
		if r.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// MarkStage sets the flag of stage. Setting a flag that is already set
// succeeds without change.
func (s *StageService) MarkStage(ctx context.Context, site estate.Site, date string, sequence int, stage estate.Stage) error {
	var column string
	switch stage {
	case estate.StageDiscovery:
		column = "scraping_offers"
	case estate.StageDetails:
		column = "scraping_details"
	default:
		return estate.Errorf(estate.EINVALID, "unknown stage %q", stage)
	}

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var offers string
		err := tx.QueryRowContext(ctx, `
			SELECT scraping_offers FROM process_stage WHERE site = ? AND run_date = ? AND sequence = ?
		`, string(site), date, sequence).Scan(&offers)
		if err == sql.ErrNoRows {
			return estate.Errorf(estate.ENOTFOUND, "run %s#%d for %s not found", date, sequence, site)
		}
		if err != nil {
			return err
		}
		if stage == estate.StageDetails && offers != trueFalse(true) {
			return estate.Errorf(estate.EINVALID, "cannot complete details before discovery for %s run %s#%d", site, date, sequence)
		}

		_, err = tx.ExecContext(ctx, `UPDATE process_stage SET `+column+` = 'T'
			WHERE site = ? AND run_date = ? AND sequence = ?`, string(site), date, sequence)
		return err
	})
}
