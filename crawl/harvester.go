// Package crawl provides the harvesting engine: batch splitting, bounded
// concurrent fetching, round-based retries, run stage tracking, and the
// Harvester that drives a site from discovery to persisted offers.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/estate"
)

// Default batch sizes.
const (
	DefaultBatchSize     = 500
	DefaultPageBatchSize = 100
)

// Harvester runs the pipeline for one site at a time: discover result
// pages and listing links, reconcile them against the stored inventory,
// queue new links, then fetch and append their offers. It assumes it is
// the only writer for the site.
type Harvester struct {
	Gateway  estate.Gateway
	Fetcher  estate.Fetcher
	Sitemaps estate.SitemapService
	Logger   *slog.Logger

	// MaxWorkers bounds concurrent fetches within a batch.
	MaxWorkers int
	// BatchSize is the number of queued links fetched per detail batch.
	BatchSize int
	// PageBatchSize is the number of result pages fetched per batch.
	PageBatchSize int
	// MaxRetries is the number of retry rounds per batch.
	MaxRetries int
	// RetryDelays are the pauses before retry rounds.
	RetryDelays []time.Duration
	// NewPool opens the worker pool of each round.
	NewPool PoolFactory

	// Now returns the current time. Run dates derive from it.
	Now func() time.Time
}

// NewHarvester returns a Harvester with default settings.
func NewHarvester(gateway estate.Gateway, fetcher estate.Fetcher, logger *slog.Logger) *Harvester {
	return &Harvester{
		Gateway:       gateway,
		Fetcher:       fetcher,
		Logger:        logger,
		MaxWorkers:    DefaultMaxWorkers,
		BatchSize:     DefaultBatchSize,
		PageBatchSize: DefaultPageBatchSize,
		MaxRetries:    DefaultMaxRetries,
		RetryDelays:   DefaultRetryDelays(),
		NewPool:       NewErrgroupPool,
		Now:           time.Now,
	}
}

// Report summarizes a harvest of one site.
type Report struct {
	Site     estate.Site
	Date     string
	Sequence int
	State    estate.StageState

	Pages    int
	Snapshot int
	Added    int
	Removed  int
	Queued   int
	Offers   int
	Gone     int

	UnresolvedPages    int
	UnresolvedListings int
	UnresolvedDetails  int

	// InventoryWiped is set when the crawl saw no listings at all while
	// the inventory was not empty, so every stored link was removed. This
	// usually means the crawl failed rather than the site emptied.
	InventoryWiped bool
}

// Unresolved returns the total number of links lost to retry exhaustion.
func (r *Report) Unresolved() int {
	return r.UnresolvedPages + r.UnresolvedListings + r.UnresolvedDetails
}

// Run starts a new run for ex's site and executes discovery followed by
// the detail stage. Gateway errors abort the run before the stage they
// occur in is marked complete.
func (h *Harvester) Run(ctx context.Context, ex estate.Extractor) (*Report, error) {
	tracker := NewTracker(h.Gateway)
	rep, rec, err := h.start(ctx, tracker, ex.Site())
	if err != nil {
		return nil, err
	}
	if err := h.discover(ctx, tracker, ex, rep); err != nil {
		rep.State = rec.State()
		return rep, err
	}
	if err := h.details(ctx, tracker, ex, rep); err != nil {
		rep.State = rec.State()
		return rep, err
	}
	rep.State = rec.State()
	return rep, nil
}

// Discover starts a new run for ex's site and executes discovery only.
// Queued links wait for a later Details call.
func (h *Harvester) Discover(ctx context.Context, ex estate.Extractor) (*Report, error) {
	tracker := NewTracker(h.Gateway)
	rep, rec, err := h.start(ctx, tracker, ex.Site())
	if err != nil {
		return nil, err
	}
	err = h.discover(ctx, tracker, ex, rep)
	rep.State = rec.State()
	return rep, err
}

// Details completes the latest run of today for ex's site by fetching the
// queued links. Returns ENOTFOUND when the site has no run today and
// EINVALID when that run has not finished discovery.
func (h *Harvester) Details(ctx context.Context, ex estate.Extractor) (*Report, error) {
	site := ex.Site()
	tracker := NewTracker(h.Gateway)
	rec, err := tracker.Resume(ctx, site, estate.Date(h.now()))
	if err != nil {
		return nil, err
	}
	rep := &Report{Site: site, Date: rec.Date, Sequence: rec.Sequence, State: rec.State()}

	switch rec.State() {
	case estate.StageStart:
		return rep, estate.Errorf(estate.EINVALID, "run %s#%d for %s has not finished discovery", rec.Date, rec.Sequence, site)
	case estate.StageDetailsDone:
		h.logger().Info("details already complete", "site", site, "date", rec.Date, "sequence", rec.Sequence)
		return rep, nil
	}

	err = h.details(ctx, tracker, ex, rep)
	rep.State = rec.State()
	return rep, err
}

func (h *Harvester) start(ctx context.Context, tracker *Tracker, site estate.Site) (*Report, *estate.StageRecord, error) {
	rec, err := tracker.GetOrCreate(ctx, site, estate.Date(h.now()))
	if err != nil {
		return nil, nil, fmt.Errorf("start run: %w", err)
	}
	h.logger().Info("run started", "site", site, "date", rec.Date, "sequence", rec.Sequence)
	return &Report{Site: site, Date: rec.Date, Sequence: rec.Sequence}, rec, nil
}

// discover crawls seeds into result pages and pages into listing links,
// then applies the reconciled diff and queues new links.
func (h *Harvester) discover(ctx context.Context, tracker *Tracker, ex estate.Extractor, rep *Report) error {
	site := ex.Site()
	logger := h.logger().With("site", site, "stage", estate.StageDiscovery)

	seeds := make([]estate.Link, 0, len(ex.Seeds()))
	for _, s := range ex.Seeds() {
		seeds = append(seeds, estate.NewLink(site, s))
	}
	seedRes := Resolve(ctx, estate.UniqueLinks(seeds), h.pageLinks(ex), h.resolveOptions(logger))
	pages := estate.UniqueLinks(Concat(seedRes.Values()))
	rep.Pages = len(pages)
	rep.UnresolvedPages = len(seedRes.Unresolved)
	logger.Info("pages discovered", "seeds", len(seeds), "pages", len(pages), "unresolved", len(seedRes.Unresolved))

	var found [][]estate.Link
	var unresolvedPages []estate.Link
	batches := Split(len(pages), h.pageBatchSize())
	for i, r := range batches {
		res := Resolve(ctx, Slice(pages, r), h.offerLinks(ex), h.resolveOptions(logger))
		found = append(found, Concat(res.Values()))
		unresolvedPages = append(unresolvedPages, res.Unresolved...)
		logger.Info("page batch done",
			"batch", i+1,
			"batches", len(batches),
			"pages", r.Len(),
			"unresolved", len(res.Unresolved),
		)
	}
	rep.UnresolvedListings = len(unresolvedPages)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("discovery interrupted: %w", err)
	}

	found = append(found, h.sitemapLinks(ctx, ex, logger))
	snapshot := estate.UniqueLinks(Concat(found))
	rep.Snapshot = len(snapshot)

	inventory, err := h.Gateway.ActiveLinks(ctx, site)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	diff := estate.Reconcile(snapshot, inventory)
	rep.Added, rep.Removed = len(diff.ToAdd), len(diff.ToRemove)
	if len(snapshot) == 0 && len(inventory) > 0 {
		rep.InventoryWiped = true
		logger.Warn("empty snapshot removes whole inventory", "inventory", len(inventory))
	}

	if err := h.recordMissing(ctx, site, estate.MissingPage, seedRes.Unresolved, rep.Date); err != nil {
		return err
	}
	if err := h.recordMissing(ctx, site, estate.MissingOffer, unresolvedPages, rep.Date); err != nil {
		return err
	}
	if err := h.Gateway.ApplyLinkDiff(ctx, site, diff, rep.Date); err != nil {
		return fmt.Errorf("apply link diff: %w", err)
	}
	if len(diff.ToAdd) > 0 {
		if err := h.Gateway.EnqueueLinks(ctx, site, diff.ToAdd); err != nil {
			return fmt.Errorf("queue new links: %w", err)
		}
	}
	rep.Queued = len(diff.ToAdd)

	if err := tracker.Mark(ctx, site, estate.StageDiscovery); err != nil {
		return fmt.Errorf("mark discovery: %w", err)
	}
	logger.Info("discovery complete",
		"snapshot", rep.Snapshot,
		"added", rep.Added,
		"removed", rep.Removed,
	)
	return nil
}

// details fetches every queued link in batches and appends the offers.
// Links that stay unresolved remain queued for a later run.
func (h *Harvester) details(ctx context.Context, tracker *Tracker, ex estate.Extractor, rep *Report) error {
	site := ex.Site()
	logger := h.logger().With("site", site, "stage", estate.StageDetails)

	queued, err := h.Gateway.QueuedLinks(ctx, site)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}

	batches := Split(len(queued), h.batchSize())
	for i, r := range batches {
		res := Resolve(ctx, Slice(queued, r), h.offer(ex, rep.Date), h.resolveOptions(logger))

		if offers := res.Values(); len(offers) > 0 {
			if err := h.Gateway.AppendOffers(ctx, site, offers); err != nil {
				return fmt.Errorf("append offers: %w", err)
			}
		}
		if len(res.Gone) > 0 {
			if err := h.Gateway.DequeueLinks(ctx, site, res.Gone); err != nil {
				return fmt.Errorf("dequeue gone links: %w", err)
			}
		}
		if err := h.recordMissing(ctx, site, estate.MissingDetail, res.Unresolved, rep.Date); err != nil {
			return err
		}

		rep.Offers += len(res.Succeeded)
		rep.Gone += len(res.Gone)
		rep.UnresolvedDetails += len(res.Unresolved)
		logger.Info("detail batch done",
			"batch", i+1,
			"batches", len(batches),
			"offers", len(res.Succeeded),
			"gone", len(res.Gone),
			"unresolved", len(res.Unresolved),
		)

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("details interrupted: %w", err)
		}
	}

	if err := tracker.Mark(ctx, site, estate.StageDetails); err != nil {
		return fmt.Errorf("mark details: %w", err)
	}
	logger.Info("details complete", "offers", rep.Offers, "unresolved", rep.UnresolvedDetails)
	return nil
}

func (h *Harvester) pageLinks(ex estate.Extractor) FetchFunc[[]estate.Link] {
	return func(ctx context.Context, seed estate.Link) ([]estate.Link, error) {
		html, err := h.Fetcher.Fetch(ctx, seed.URL)
		if err != nil {
			return nil, err
		}
		return ex.PageLinks(html, seed)
	}
}

func (h *Harvester) offerLinks(ex estate.Extractor) FetchFunc[[]estate.Link] {
	return func(ctx context.Context, page estate.Link) ([]estate.Link, error) {
		html, err := h.Fetcher.Fetch(ctx, page.URL)
		if err != nil {
			return nil, err
		}
		return ex.OfferLinks(html, page)
	}
}

func (h *Harvester) offer(ex estate.Extractor, date string) FetchFunc[*estate.Offer] {
	return func(ctx context.Context, link estate.Link) (*estate.Offer, error) {
		html, err := h.Fetcher.Fetch(ctx, link.URL)
		if err != nil {
			return nil, err
		}
		o, err := ex.Offer(html, link)
		if err != nil {
			return nil, err
		}
		o.Site, o.URL = link.Site, link.URL
		o.Active = true
		o.ScrapeDate = date
		o.InactiveDate = ""
		o.Finalize()
		// Refetching yields the same page, so an unusable record is final.
		if err := o.Validate(); err != nil {
			return nil, estate.Errorf(estate.EGONE, "unusable offer: %s", estate.ErrorMessage(err))
		}
		return o, nil
	}
}

// sitemapLinks returns listing links published in the site's sitemap when
// both a SitemapService and a SitemapSource extractor are present. Sitemap
// failures only cost the supplement, so they are logged and ignored.
func (h *Harvester) sitemapLinks(ctx context.Context, ex estate.Extractor, logger *slog.Logger) []estate.Link {
	src, ok := ex.(estate.SitemapSource)
	if h.Sitemaps == nil || !ok {
		return nil
	}
	baseURL, filter := src.Sitemap()
	urls, err := h.Sitemaps.DiscoverURLs(ctx, baseURL, filter)
	if err != nil {
		logger.Warn("sitemap discovery failed", "url", baseURL, "err", err)
		return nil
	}
	links := make([]estate.Link, 0, len(urls))
	for _, u := range urls {
		links = append(links, estate.NewLink(ex.Site(), u))
	}
	return links
}

func (h *Harvester) recordMissing(ctx context.Context, site estate.Site, kind estate.MissingKind, links []estate.Link, date string) error {
	if len(links) == 0 {
		return nil
	}
	if err := h.Gateway.RecordMissing(ctx, site, kind, links, date); err != nil {
		return fmt.Errorf("record missing %s links: %w", kind, err)
	}
	return nil
}

func (h *Harvester) resolveOptions(logger *slog.Logger) ResolveOptions {
	return ResolveOptions{
		MaxWorkers:  h.MaxWorkers,
		MaxRetries:  h.MaxRetries,
		RoundDelays: h.RetryDelays,
		NewPool:     h.NewPool,
		Logger:      logger,
	}
}

func (h *Harvester) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.Logger
}

func (h *Harvester) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Harvester) batchSize() int {
	if h.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return h.BatchSize
}

func (h *Harvester) pageBatchSize() int {
	if h.PageBatchSize <= 0 {
		return DefaultPageBatchSize
	}
	return h.PageBatchSize
}
