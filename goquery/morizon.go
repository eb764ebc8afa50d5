package goquery

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/estate"
)

// Morizon is the site name of morizon.pl.
const Morizon estate.Site = "morizon"

const (
	morizonRoot = "https://www.morizon.pl"
	morizonBase = morizonRoot + "/do-wynajecia/mieszkania/najnowsze/"
)

// morizonCities are the city slugs searched on morizon.pl.
var morizonCities = []string{
	"warszawa", "krakow", "lodz", "wroclaw", "poznan", "gdansk",
	"szczecin", "bydgoszcz", "lublin", "bialystok", "katowice", "gdynia",
}

var morizonListings = estate.MustURLFilter([]string{`/oferta/`}, nil)

var (
	_ estate.Extractor     = (*MorizonExtractor)(nil)
	_ estate.SitemapSource = (*MorizonExtractor)(nil)
)

// MorizonExtractor reads morizon.pl rentals. Morizon also publishes its
// listings in a sitemap, which supplements the crawl.
type MorizonExtractor struct {
	conv estate.Converter
}

// NewMorizonExtractor returns an extractor converting descriptions with conv.
func NewMorizonExtractor(conv estate.Converter) *MorizonExtractor {
	return &MorizonExtractor{conv: conv}
}

func (e *MorizonExtractor) Site() estate.Site { return Morizon }

// Seeds returns the newest-first search URL of each city.
func (e *MorizonExtractor) Seeds() []string {
	seeds := make([]string, len(morizonCities))
	for i, c := range morizonCities {
		seeds[i] = morizonBase + c
	}
	return seeds
}

func (e *MorizonExtractor) Sitemap() (string, *estate.URLFilter) {
	return morizonRoot, morizonListings
}

func (e *MorizonExtractor) PageLinks(html string, seed estate.Link) ([]estate.Link, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	return pagerRange(doc, ".mz-pagination-number a", seed)
}

func (e *MorizonExtractor) OfferLinks(html string, page estate.Link) ([]estate.Link, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	found, err := links(doc, "a.property_link[href]", "href", Morizon, page.URL)
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, l := range found {
		if morizonListings.Match(l.URL) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Offer reads the summary header, the parameter icons and table, and the
// map coordinates.
func (e *MorizonExtractor) Offer(html string, link estate.Link) (*estate.Offer, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	if doc.Find(".propertyArchived, .offer-inactive").Length() > 0 {
		return nil, estate.Errorf(estate.EGONE, "%s: listing %s archived", Morizon, link.URL)
	}

	var parts []string
	doc.Find("div.summaryLocation span").Each(func(_ int, s *goquery.Selection) {
		if t := strings.Trim(text(s), " ,"); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return nil, missing(link, "summary location")
	}

	o := &estate.Offer{
		Title:      strings.Join(parts, ", "),
		City:       parts[0],
		Currency:   "PLN",
		Attributes: map[string]string{},
	}
	if len(parts) > 1 {
		o.District = parts[1]
	}
	if len(parts) > 2 {
		o.Address = strings.Join(parts[2:], ", ")
	}
	if crumbs := doc.Find("nav.breadcrumbs span"); crumbs.Length() > 1 {
		o.Voivodeship = text(crumbs.Eq(1))
	}

	o.Price, _ = parseNumber(text(doc.Find("li.paramIconPrice em")))
	o.Area, _ = parseNumber(text(doc.Find("li.paramIconLivingArea em")))
	o.Rooms = parseInt(text(doc.Find("li.paramIconNumberOfRooms em")))
	if perM2 := text(doc.Find("li.paramIconPriceM2 em")); perM2 != "" {
		o.Attributes["price_per_m2"] = perM2
	}

	doc.Find(".propertyParams table tr").Each(func(_ int, tr *goquery.Selection) {
		label := strings.TrimSuffix(text(tr.Find("th").First()), ":")
		value := text(tr.Find("td").First())
		if label == "" || value == "" {
			return
		}
		if strings.EqualFold(label, "piętro") {
			o.Floor = value
			return
		}
		o.Attributes[label] = value
	})

	if o.Description, err = description(e.conv, doc.Find("div.description").First()); err != nil {
		return nil, err
	}

	if m := doc.Find("div.GoogleMap").First(); m.Length() > 0 {
		o.Latitude = attrFloat(m, "data-lat")
		o.Longitude = attrFloat(m, "data-lng")
	}
	return o, nil
}

func attrFloat(sel *goquery.Selection, name string) float64 {
	v, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
