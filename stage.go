package estate

import (
	"context"
	"time"
)

// DateLayout is the calendar-date format used for run dates.
const DateLayout = "2006-01-02"

// Date returns the calendar date of t in DateLayout.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Stage is a pipeline stage whose completion is recorded per run.
type Stage string

const (
	StageDiscovery Stage = "discovery"
	StageDetails   Stage = "details"
)

// StageState is the progress of a run through its stages.
type StageState int

const (
	StageStart StageState = iota
	StageDiscoveryDone
	StageDetailsDone
)

// String returns a readable state name.
func (s StageState) String() string {
	switch s {
	case StageDiscoveryDone:
		return "discovery-done"
	case StageDetailsDone:
		return "details-done"
	default:
		return "start"
	}
}

// StageRecord tracks one run of the pipeline for a site on a date. The
// first run of a date has Sequence 1 and each later run on that date takes
// the next number.
type StageRecord struct {
	Site              Site      `json:"site"`
	Date              string    `json:"date"`
	Sequence          int       `json:"sequence"`
	DiscoveryComplete bool      `json:"discoveryComplete"`
	DetailsComplete   bool      `json:"detailsComplete"`
	CreatedAt         time.Time `json:"createdAt"`
}

// State returns how far the run has progressed.
func (r *StageRecord) State() StageState {
	switch {
	case r.DetailsComplete:
		return StageDetailsDone
	case r.DiscoveryComplete:
		return StageDiscoveryDone
	default:
		return StageStart
	}
}

// Mark sets the completion flag of stage. Marking a stage twice is a no-op.
// Details cannot complete before discovery.
func (r *StageRecord) Mark(stage Stage) error {
	switch stage {
	case StageDiscovery:
		r.DiscoveryComplete = true
	case StageDetails:
		if !r.DiscoveryComplete {
			return Errorf(EINVALID, "cannot complete details before discovery for %s run %s#%d", r.Site, r.Date, r.Sequence)
		}
		r.DetailsComplete = true
	default:
		return Errorf(EINVALID, "unknown stage %q", stage)
	}
	return nil
}

// StageService represents a service for persisting run stage records.
type StageService interface {
	// CreateStageRecord starts a new run for site on date with the next free
	// sequence number and both flags unset.
	CreateStageRecord(ctx context.Context, site Site, date string) (*StageRecord, error)

	// FindStageRecords retrieves records matching the filter, newest
	// sequence first.
	FindStageRecords(ctx context.Context, filter StageRecordFilter) ([]*StageRecord, error)

	// MarkStage sets a completion flag. It is idempotent.
	// Returns ENOTFOUND if the record does not exist and EINVALID when
	// details are marked before discovery.
	MarkStage(ctx context.Context, site Site, date string, sequence int, stage Stage) error
}

// StageRecordFilter represents a filter for FindStageRecords.
type StageRecordFilter struct {
	Site *Site   `json:"site"`
	Date *string `json:"date"`

	Limit int `json:"limit"`
}
