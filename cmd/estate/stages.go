package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/estate"
)

// Run executes the stages command.
func (c *StagesCmd) Run(deps *Dependencies) error {
	filter := estate.StageRecordFilter{Limit: c.Limit}
	if c.Site != "" {
		site := estate.Site(c.Site)
		filter.Site = &site
	}
	if c.Date != "" {
		if _, err := time.Parse(estate.DateLayout, c.Date); err != nil {
			err = estate.Errorf(estate.EINVALID, "invalid date %q, want YYYY-MM-DD", c.Date)
			fmt.Fprintf(deps.Stderr, "error: %s\n", estate.ErrorMessage(err))
			return err
		}
		filter.Date = &c.Date
	}

	records, err := deps.Gateway.FindStageRecords(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", estate.ErrorMessage(err))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'estate run' to start one.")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(deps.Stdout, "%s  %s#%d  %s  %s\n",
			r.Site, r.Date, r.Sequence, r.State(), r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
