package slog

import (
	"log/slog"

	"github.com/fwojciec/estate"
)

var _ estate.ExtractorRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps an ExtractorRegistry so that every extractor it
// returns logs its work.
type LoggingRegistry struct {
	next   estate.ExtractorRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next estate.ExtractorRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

func (r *LoggingRegistry) Get(site estate.Site) (estate.Extractor, error) {
	ex, err := r.next.Get(site)
	if err != nil {
		return nil, err
	}
	logged := NewLoggingExtractor(ex, r.logger)
	if src, ok := ex.(estate.SitemapSource); ok {
		return &sitemapExtractor{LoggingExtractor: logged, src: src}, nil
	}
	return logged, nil
}

// sitemapExtractor keeps the SitemapSource of a wrapped extractor visible.
type sitemapExtractor struct {
	*LoggingExtractor
	src estate.SitemapSource
}

func (e *sitemapExtractor) Sitemap() (string, *estate.URLFilter) {
	return e.src.Sitemap()
}

func (r *LoggingRegistry) Register(ex estate.Extractor) {
	r.next.Register(ex)
}

func (r *LoggingRegistry) List() []estate.Site {
	return r.next.List()
}

var _ estate.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with debug logging. Extraction
// failures other than removed listings are logged as warnings since they
// usually mean the site changed its markup.
type LoggingExtractor struct {
	next   estate.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next estate.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger.With("site", next.Site())}
}

func (e *LoggingExtractor) Site() estate.Site { return e.next.Site() }

func (e *LoggingExtractor) Seeds() []string { return e.next.Seeds() }

func (e *LoggingExtractor) PageLinks(html string, seed estate.Link) (pages []estate.Link, err error) {
	defer func() { e.log("page links", seed, len(pages), err) }()
	return e.next.PageLinks(html, seed)
}

func (e *LoggingExtractor) OfferLinks(html string, page estate.Link) (links []estate.Link, err error) {
	defer func() { e.log("offer links", page, len(links), err) }()
	return e.next.OfferLinks(html, page)
}

func (e *LoggingExtractor) Offer(html string, link estate.Link) (o *estate.Offer, err error) {
	defer func() {
		n := 0
		if o != nil {
			n = 1
		}
		e.log("offer", link, n, err)
	}()
	return e.next.Offer(html, link)
}

func (e *LoggingExtractor) log(msg string, link estate.Link, count int, err error) {
	if err != nil && !estate.IsPermanent(err) {
		e.logger.Warn("extract "+msg, "url", link.URL, "err", err)
		return
	}
	e.logger.Debug("extract "+msg, "url", link.URL, "count", count, "err", err)
}
