package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/estate"
	"github.com/jackc/pgx/v5"
)

var _ estate.StageService = (*StageService)(nil)

// StageService implements estate.StageService using the process_stage table.
type StageService struct {
	db *DB
}

// NewStageService creates a new StageService.
func NewStageService(db *DB) *StageService {
	return &StageService{db: db}
}

// CreateStageRecord inserts a record with sequence one past the highest for
// (site, date). The table lock serializes concurrent runs of the same site.
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
	err := s.db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE process_stage IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			INSERT INTO process_stage (site, run_date, sequence, created_at)
			SELECT $1, $2, COALESCE(MAX(sequence), 0) + 1, $3
			FROM process_stage WHERE site = $1 AND run_date = $2
			RETURNING sequence
		`, string(site), date, r.CreatedAt).Scan(&r.Sequence)
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
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	query.WriteString("SELECT site, run_date, sequence, scraping_offers, scraping_details, created_at FROM process_stage WHERE true")
	if filter.Site != nil {
		query.WriteString(" AND site = " + arg(string(*filter.Site)))
	}
	if filter.Date != nil {
		query.WriteString(" AND run_date = " + arg(*filter.Date))
	}
	query.WriteString(" ORDER BY run_date DESC, sequence DESC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT " + arg(filter.Limit))
	}

	rows, err := s.db.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*estate.StageRecord, error) {
		var r estate.StageRecord
		var site, offers, details string
		var seq int32
		if err := row.Scan(&site, &r.Date, &seq, &offers, &details, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Site = estate.Site(site)
		r.Sequence = int(seq)
		r.DiscoveryComplete = offers == "T"
		r.DetailsComplete = details == "T"
		r.CreatedAt = r.CreatedAt.UTC()
		return &r, nil
	})
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

	return s.db.withTx(ctx, func(tx pgx.Tx) error {
		var offers string
		err := tx.QueryRow(ctx, `
			SELECT scraping_offers FROM process_stage
			WHERE site = $1 AND run_date = $2 AND sequence = $3
			FOR UPDATE
		`, string(site), date, int32(sequence)).Scan(&offers)
		if errors.Is(err, pgx.ErrNoRows) {
			return estate.Errorf(estate.ENOTFOUND, "run %s#%d for %s not found", date, sequence, site)
		}
		if err != nil {
			return err
		}
		if stage == estate.StageDetails && offers != "T" {
			return estate.Errorf(estate.EINVALID, "cannot complete details before discovery for %s run %s#%d", site, date, sequence)
		}
		_, err = tx.Exec(ctx, `UPDATE process_stage SET `+column+` = 'T'
			WHERE site = $1 AND run_date = $2 AND sequence = $3`, string(site), date, int32(sequence))
		return err
	})
}
