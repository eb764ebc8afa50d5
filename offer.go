package estate

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/mmcloughlin/geohash"
)

// Offer is the detail record of one listing as seen on a given scrape date.
// Offers are append-only: a later scrape of the same link adds a new row
// and a listing leaving the site only flips Active off.
type Offer struct {
	ID    string `json:"id"`
	Site  Site   `json:"site"`
	URL   string `json:"url"`
	Title string `json:"title"`

	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Area     float64 `json:"area"`
	Rooms    int     `json:"rooms"`
	Floor    string  `json:"floor"`

	City        string  `json:"city"`
	District    string  `json:"district"`
	Voivodeship string  `json:"voivodeship"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Geohash     string  `json:"geohash"`

	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
	ContentHash string            `json:"contentHash"`

	Active       bool   `json:"active"`
	ScrapeDate   string `json:"scrapeDate"`
	InactiveDate string `json:"inactiveDate"`
}

// Link returns the listing link the offer was scraped from.
func (o *Offer) Link() Link {
	return Link{Site: o.Site, URL: o.URL}
}

// Validate returns an error if the offer contains invalid fields.
func (o *Offer) Validate() error {
	if o.Site == "" {
		return Errorf(EINVALID, "offer site required")
	}
	if o.URL == "" {
		return Errorf(EINVALID, "offer URL required")
	}
	if o.Latitude < -90 || o.Latitude > 90 || o.Longitude < -180 || o.Longitude > 180 {
		return Errorf(EINVALID, "offer coordinates out of range: %v,%v", o.Latitude, o.Longitude)
	}
	return nil
}

// HasLocation reports whether the offer carries coordinates.
func (o *Offer) HasLocation() bool {
	return o.Latitude != 0 || o.Longitude != 0
}

// Finalize fills the derived fields: Geohash from the coordinates and
// ContentHash from the listing content.
func (o *Offer) Finalize() {
	if o.HasLocation() {
		o.Geohash = geohash.Encode(o.Latitude, o.Longitude)
	}
	o.ContentHash = o.computeHash()
}

// computeHash digests the fields that describe the listing itself. Dates,
// IDs and the active flag are left out so that an unchanged listing hashes
// the same on every scrape.
func (o *Offer) computeHash() string {
	d := xxhash.New()
	write := func(s string) {
		_, _ = d.WriteString(s)
		_, _ = d.WriteString("\x00")
	}
	write(string(o.Site))
	write(o.URL)
	write(o.Title)
	write(strconv.FormatFloat(o.Price, 'f', -1, 64))
	write(o.Currency)
	write(strconv.FormatFloat(o.Area, 'f', -1, 64))
	write(strconv.Itoa(o.Rooms))
	write(o.Floor)
	write(o.City)
	write(o.District)
	write(o.Voivodeship)
	write(o.Address)
	write(strconv.FormatFloat(o.Latitude, 'f', -1, 64))
	write(strconv.FormatFloat(o.Longitude, 'f', -1, 64))
	write(o.Description)

	keys := make([]string, 0, len(o.Attributes))
	for k := range o.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		write(k)
		write(o.Attributes[k])
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// OfferService represents a service for the append-only offers store.
type OfferService interface {
	// AppendOffers persists fresh offers as active and removes their links
	// from the detail queue. Offers already stored are never rewritten.
	AppendOffers(ctx context.Context, site Site, offers []*Offer) error

	// FindOffers retrieves offers matching the filter.
	FindOffers(ctx context.Context, filter OfferFilter) ([]*Offer, error)
}

// OfferFilter represents a filter for FindOffers.
type OfferFilter struct {
	Site   *Site   `json:"site"`
	URL    *string `json:"url"`
	Active *bool   `json:"active"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
