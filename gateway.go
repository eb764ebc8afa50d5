package estate

import "context"

// LinkService represents the stored inventory of live listing links.
type LinkService interface {
	// ActiveLinks returns every link currently in the inventory for site.
	ActiveLinks(ctx context.Context, site Site) ([]Link, error)

	// ApplyLinkDiff removes diff.ToRemove from the inventory and inserts
	// diff.ToAdd, all or nothing. Offers of removed links are marked
	// inactive as of date and removed links leave the detail queue.
	ApplyLinkDiff(ctx context.Context, site Site, diff LinkDiff, date string) error
}

// QueueService represents the queue of links waiting for the detail stage.
// The queue outlives a run so an interrupted detail stage can resume.
type QueueService interface {
	// EnqueueLinks adds links to the queue. Links already queued are kept.
	EnqueueLinks(ctx context.Context, site Site, links []Link) error

	// QueuedLinks returns the queued links for site in queue order.
	QueuedLinks(ctx context.Context, site Site) ([]Link, error)

	// DequeueLinks removes links from the queue.
	DequeueLinks(ctx context.Context, site Site, links []Link) error
}

// MissingKind names the stage at which a link could not be fetched.
type MissingKind string

const (
	MissingPage   MissingKind = "page"
	MissingOffer  MissingKind = "offer"
	MissingDetail MissingKind = "detail"
)

// MissingService records links that stayed unresolved after every retry.
type MissingService interface {
	RecordMissing(ctx context.Context, site Site, kind MissingKind, links []Link, date string) error

	// MissingLinks returns the links recorded as kind for site on date.
	MissingLinks(ctx context.Context, site Site, kind MissingKind, date string) ([]Link, error)
}

// Gateway is the persistence boundary of the harvester. Each method is
// atomic on its own; the harvester orders the calls so that a stage flag
// is only set after the writes it covers have succeeded.
type Gateway interface {
	LinkService
	OfferService
	QueueService
	MissingService
	StageService
}
