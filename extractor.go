package estate

// Extractor knows the page structure of one site. Every method is a pure
// function of the HTML it is given.
type Extractor interface {
	// Site returns the site the extractor handles.
	Site() Site

	// Seeds returns the entry URLs of the site, one per region or category.
	Seeds() []string

	// PageLinks expands a fetched seed into the result pages it paginates to.
	PageLinks(html string, seed Link) ([]Link, error)

	// OfferLinks returns the listing links found on a result page.
	OfferLinks(html string, page Link) ([]Link, error)

	// Offer builds the detail record of a listing page.
	// Returns EGONE when the page says the listing no longer exists.
	Offer(html string, link Link) (*Offer, error)
}

// SitemapSource is implemented by extractors whose site publishes listing
// URLs in a sitemap. Discovered URLs supplement the crawled snapshot.
type SitemapSource interface {
	// Sitemap returns the site root to resolve sitemaps from and the filter
	// that keeps only listing URLs.
	Sitemap() (baseURL string, filter *URLFilter)
}

// ExtractorRegistry holds the extractor of each supported site.
type ExtractorRegistry interface {
	// Get returns the extractor for site or ENOTFOUND.
	Get(site Site) (Extractor, error)

	// Register adds an extractor, replacing any for the same site.
	Register(ex Extractor)

	// List returns the registered sites in sorted order.
	List() []Site
}
