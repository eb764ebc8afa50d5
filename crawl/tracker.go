package crawl

import (
	"context"
	"sync"

	"github.com/fwojciec/estate"
)

// Tracker holds the stage record of the current run for each site and
// date. The first GetOrCreate for a pair starts a new record; later calls
// in the same run return that record instead of starting another.
type Tracker struct {
	stages estate.StageService

	mu      sync.Mutex
	records map[runKey]*estate.StageRecord
	current map[estate.Site]*estate.StageRecord
}

type runKey struct {
	site estate.Site
	date string
}

// NewTracker creates a Tracker persisting through stages.
func NewTracker(stages estate.StageService) *Tracker {
	return &Tracker{
		stages:  stages,
		records: make(map[runKey]*estate.StageRecord),
		current: make(map[estate.Site]*estate.StageRecord),
	}
}

// GetOrCreate returns the run's record for site, creating it on date with
// the next free sequence number on the first call.
func (t *Tracker) GetOrCreate(ctx context.Context, site estate.Site, date string) (*estate.StageRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := runKey{site: site, date: date}
	if r, ok := t.records[key]; ok {
		t.current[site] = r
		return r, nil
	}
	r, err := t.stages.CreateStageRecord(ctx, site, date)
	if err != nil {
		return nil, err
	}
	t.records[key] = r
	t.current[site] = r
	return r, nil
}

// Resume adopts the latest record for site on date as the run's record,
// so an unfinished run can be completed. Returns ENOTFOUND if site has no
// record on date.
func (t *Tracker) Resume(ctx context.Context, site estate.Site, date string) (*estate.StageRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.stages.FindStageRecords(ctx, estate.StageRecordFilter{Site: &site, Date: &date, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, estate.Errorf(estate.ENOTFOUND, "no run recorded for %s on %s", site, date)
	}
	t.records[runKey{site: site, date: date}] = records[0]
	t.current[site] = records[0]
	return records[0], nil
}

// Mark records that stage completed for the record site last touched.
// Marking a completed stage again is a no-op.
func (t *Tracker) Mark(ctx context.Context, site estate.Site, stage estate.Stage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.current[site]
	if !ok {
		return estate.Errorf(estate.EINVALID, "no run started for %s", site)
	}

	next := *r
	if err := next.Mark(stage); err != nil {
		return err
	}
	if next == *r {
		return nil
	}
	if err := t.stages.MarkStage(ctx, r.Site, r.Date, r.Sequence, stage); err != nil {
		return err
	}
	*r = next
	return nil
}
