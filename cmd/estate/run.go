package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/crawl"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	return harvest(deps, c.Sites, deps.Harvester.Run)
}

// Run executes the discover command.
func (c *DiscoverCmd) Run(deps *Dependencies) error {
	return harvest(deps, c.Sites, deps.Harvester.Discover)
}

// Run executes the details command. Sites without a run today are
// skipped.
func (c *DetailsCmd) Run(deps *Dependencies) error {
	return harvest(deps, c.Sites, func(ctx context.Context, ex estate.Extractor) (*crawl.Report, error) {
		rep, err := deps.Harvester.Details(ctx, ex)
		if estate.ErrorCode(err) == estate.ENOTFOUND {
			fmt.Fprintf(deps.Stdout, "%s: no run today, skipping\n", ex.Site())
			return nil, nil
		}
		return rep, err
	})
}

type harvestFunc func(ctx context.Context, ex estate.Extractor) (*crawl.Report, error)

// harvest runs fn for each named site, or every registered site when none
// are named. A failing site does not stop the others, except when the
// context is cancelled.
func harvest(deps *Dependencies, names []string, fn harvestFunc) error {
	sites, err := selectSites(deps.Registry, names)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", estate.ErrorMessage(err))
		return err
	}

	var errs []error
	for _, site := range sites {
		ex, err := deps.Registry.Get(site)
		if err != nil {
			return err
		}
		rep, err := fn(deps.Ctx, ex)
		if rep != nil {
			printReport(deps, rep)
		}
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s: %v\n", site, err)
			errs = append(errs, fmt.Errorf("%s: %w", site, err))
			if deps.Ctx.Err() != nil {
				break
			}
		}
	}
	return errors.Join(errs...)
}

// selectSites validates names against the registry.
func selectSites(registry estate.ExtractorRegistry, names []string) ([]estate.Site, error) {
	if len(names) == 0 {
		return registry.List(), nil
	}
	sites := make([]estate.Site, 0, len(names))
	for _, n := range names {
		site := estate.Site(n)
		if _, err := registry.Get(site); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func printReport(deps *Dependencies, rep *crawl.Report) {
	fmt.Fprintf(deps.Stdout, "%s %s#%d %s: pages=%d snapshot=%d added=%d removed=%d queued=%d offers=%d gone=%d unresolved=%d\n",
		rep.Site, rep.Date, rep.Sequence, rep.State,
		rep.Pages, rep.Snapshot, rep.Added, rep.Removed, rep.Queued,
		rep.Offers, rep.Gone, rep.Unresolved(),
	)
	if rep.InventoryWiped {
		fmt.Fprintf(deps.Stderr, "warning: %s: no listings found, every stored link was removed\n", rep.Site)
	}
}
