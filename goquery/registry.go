package goquery

import (
	"slices"
	"sync"

	"github.com/fwojciec/estate"
)

var _ estate.ExtractorRegistry = (*Registry)(nil)

// Registry holds the extractor of each site. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	extractors map[estate.Site]estate.Extractor
}

// NewRegistry creates a Registry holding exs.
func NewRegistry(exs ...estate.Extractor) *Registry {
	r := &Registry{extractors: make(map[estate.Site]estate.Extractor)}
	for _, ex := range exs {
		r.Register(ex)
	}
	return r
}

// NewDefaultRegistry returns a Registry with the otodom, gratka and
// morizon extractors, converting descriptions with conv.
func NewDefaultRegistry(conv estate.Converter) *Registry {
	return NewRegistry(
		NewOtodomExtractor(conv),
		NewGratkaExtractor(conv),
		NewMorizonExtractor(conv),
	)
}

// Get returns the extractor for site. Returns ENOTFOUND for an unknown site.
func (r *Registry) Get(site estate.Site) (estate.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.extractors[site]
	if !ok {
		return nil, estate.Errorf(estate.ENOTFOUND, "unknown site %q", site)
	}
	return ex, nil
}

// Register adds ex, replacing any extractor for the same site.
func (r *Registry) Register(ex estate.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[ex.Site()] = ex
}

// List returns the registered sites in sorted order.
func (r *Registry) List() []estate.Site {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sites := make([]estate.Site, 0, len(r.extractors))
	for s := range r.extractors {
		sites = append(sites, s)
	}
	slices.Sort(sites)
	return sites
}
