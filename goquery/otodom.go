package goquery

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/estate"
)

// Otodom is the site name of otodom.pl.
const Otodom estate.Site = "otodom"

const otodomBase = "https://www.otodom.pl/wynajem/mieszkanie/"

// voivodeships are the region slugs shared by otodom and gratka URLs.
var voivodeships = []string{
	"dolnoslaskie", "kujawsko-pomorskie", "lodzkie", "lubelskie",
	"lubuskie", "malopolskie", "mazowieckie", "opolskie",
	"podkarpackie", "podlaskie", "pomorskie", "slaskie",
	"swietokrzyskie", "warminsko-mazurskie", "wielkopolskie", "zachodniopomorskie",
}

// otodomFeatures maps listing target keys to attribute names.
var otodomFeatures = map[string]string{
	"Build_year":          "build_year",
	"Building_floors_num": "building_floors",
	"Building_material":   "building_material",
	"Building_type":       "building_type",
	"Construction_status": "construction_status",
	"Deposit":             "deposit",
	"Heating":             "heating",
	"Rent":                "rent",
}

var _ estate.Extractor = (*OtodomExtractor)(nil)

// OtodomExtractor reads otodom.pl rentals. Result pages list listings as
// article[data-url]; listing pages embed the offer in the __NEXT_DATA__
// JSON document.
type OtodomExtractor struct {
	conv estate.Converter
}

// NewOtodomExtractor returns an extractor converting descriptions with conv.
func NewOtodomExtractor(conv estate.Converter) *OtodomExtractor {
	return &OtodomExtractor{conv: conv}
}

func (e *OtodomExtractor) Site() estate.Site { return Otodom }

// Seeds returns one search URL per voivodeship.
func (e *OtodomExtractor) Seeds() []string {
	seeds := make([]string, len(voivodeships))
	for i, v := range voivodeships {
		seeds[i] = otodomBase + v
	}
	return seeds
}

func (e *OtodomExtractor) PageLinks(html string, seed estate.Link) ([]estate.Link, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	return pagerRange(doc, ".pager a, nav[data-cy=pagination] a", seed)
}

// OfferLinks returns listing links with the ".html" suffix removed, since
// otodom serves the same listing under both forms.
func (e *OtodomExtractor) OfferLinks(html string, page estate.Link) ([]estate.Link, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	found, err := links(doc, "article[data-url]", "data-url", Otodom, page.URL)
	if err != nil {
		return nil, err
	}
	for i, l := range found {
		found[i] = estate.NewLink(Otodom, trimHTMLSuffix(l.URL))
	}
	return estate.UniqueLinks(found), nil
}

func trimHTMLSuffix(u string) string {
	if i := strings.Index(u, ".html"); i >= 0 {
		return u[:i]
	}
	return u
}

type otodomNextData struct {
	Props struct {
		PageProps struct {
			Ad *otodomAd `json:"ad"`
		} `json:"pageProps"`
	} `json:"props"`
}

type otodomAd struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    struct {
		Coordinates struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
		Address []struct {
			Value string `json:"value"`
		} `json:"address"`
		GeoLevels []struct {
			Type  string `json:"type"`
			Label string `json:"label"`
		} `json:"geoLevels"`
	} `json:"location"`
	Target map[string]json.RawMessage `json:"target"`
}

// Offer reads the __NEXT_DATA__ document, falling back to the largest
// inline script. A document without an ad means the listing was removed.
func (e *OtodomExtractor) Offer(html string, link estate.Link) (*estate.Offer, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}

	raw := nextData(doc)
	if raw == "" {
		return nil, missing(link, "listing data")
	}
	var data otodomNextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, missing(link, "valid listing data")
	}
	ad := data.Props.PageProps.Ad
	if ad == nil {
		return nil, estate.Errorf(estate.EGONE, "%s: listing %s removed", Otodom, link.URL)
	}

	o := &estate.Offer{
		Title:      ad.Title,
		Currency:   "PLN",
		Latitude:   ad.Location.Coordinates.Latitude,
		Longitude:  ad.Location.Coordinates.Longitude,
		Attributes: map[string]string{},
	}
	if o.Title == "" {
		o.Title = text(doc.Find("h1").First())
	}
	if len(ad.Location.Address) > 0 {
		o.Address = ad.Location.Address[0].Value
	}
	for _, g := range ad.Location.GeoLevels {
		switch g.Type {
		case "region":
			o.Voivodeship = g.Label
		case "city":
			o.City = g.Label
		case "district":
			o.District = g.Label
		}
	}

	for key, value := range ad.Target {
		v := targetValue(value)
		if v == "" {
			continue
		}
		switch key {
		case "Price":
			o.Price, _ = parseNumber(v)
		case "Area":
			o.Area, _ = parseNumber(v)
		case "Rooms_num":
			o.Rooms = parseInt(v)
		case "Floor_no":
			o.Floor = otodomFloor(v)
		default:
			if name, ok := otodomFeatures[key]; ok {
				o.Attributes[name] = v
			}
		}
	}

	if ad.Description != "" {
		if o.Description, err = convertHTML(e.conv, ad.Description); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// nextData returns the Next.js data script, or the largest inline script
// on pages that do not label it.
func nextData(doc *goquery.Document) string {
	if s := doc.Find("script#__NEXT_DATA__"); s.Length() > 0 {
		return s.First().Text()
	}
	var largest string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if t := s.Text(); len(t) > len(largest) && strings.HasPrefix(strings.TrimSpace(t), "{") {
			largest = t
		}
	})
	return largest
}

// targetValue flattens a target entry, which is a string, a number or a
// list of strings, into one comma-separated string.
func targetValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ",")
	}
	return ""
}

// otodomFloor turns "floor_3" into "3" and "ground_floor" into "0".
func otodomFloor(v string) string {
	switch {
	case v == "ground_floor":
		return "0"
	case strings.HasPrefix(v, "floor_"):
		n := strings.TrimPrefix(v, "floor_")
		if _, err := strconv.Atoi(n); err == nil {
			return n
		}
	}
	return v
}
