package mock

import "github.com/fwojciec/estate"

var _ estate.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of estate.Extractor.
type Extractor struct {
	SiteFn       func() estate.Site
	SeedsFn      func() []string
	PageLinksFn  func(html string, seed estate.Link) ([]estate.Link, error)
	OfferLinksFn func(html string, page estate.Link) ([]estate.Link, error)
	OfferFn      func(html string, link estate.Link) (*estate.Offer, error)
}

func (e *Extractor) Site() estate.Site {
	return e.SiteFn()
}

func (e *Extractor) Seeds() []string {
	return e.SeedsFn()
}

func (e *Extractor) PageLinks(html string, seed estate.Link) ([]estate.Link, error) {
	return e.PageLinksFn(html, seed)
}

func (e *Extractor) OfferLinks(html string, page estate.Link) ([]estate.Link, error) {
	return e.OfferLinksFn(html, page)
}

func (e *Extractor) Offer(html string, link estate.Link) (*estate.Offer, error) {
	return e.OfferFn(html, link)
}

var _ estate.ExtractorRegistry = (*ExtractorRegistry)(nil)

// ExtractorRegistry is a mock implementation of estate.ExtractorRegistry.
type ExtractorRegistry struct {
	GetFn      func(site estate.Site) (estate.Extractor, error)
	RegisterFn func(ex estate.Extractor)
	ListFn     func() []estate.Site
}

func (r *ExtractorRegistry) Get(site estate.Site) (estate.Extractor, error) {
	return r.GetFn(site)
}

func (r *ExtractorRegistry) Register(ex estate.Extractor) {
	r.RegisterFn(ex)
}

func (r *ExtractorRegistry) List() []estate.Site {
	return r.ListFn()
}
