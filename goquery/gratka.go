package goquery

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/estate"
)

// Gratka is the site name of gratka.pl.
const Gratka estate.Site = "gratka"

const gratkaBase = "https://gratka.pl/nieruchomosci/mieszkania/"

// locationParams captures the object assigned to locationParams in the
// listing page's inline tracking script.
var locationParams = regexp.MustCompile(`locationParams["']?\s*[:=]\s*(\{[^{}]*\})`)

var _ estate.Extractor = (*GratkaExtractor)(nil)

// GratkaExtractor reads gratka.pl listings.
type GratkaExtractor struct {
	conv estate.Converter
}

// NewGratkaExtractor returns an extractor converting descriptions with conv.
func NewGratkaExtractor(conv estate.Converter) *GratkaExtractor {
	return &GratkaExtractor{conv: conv}
}

func (e *GratkaExtractor) Site() estate.Site { return Gratka }

// Seeds returns one search URL per voivodeship.
func (e *GratkaExtractor) Seeds() []string {
	seeds := make([]string, len(voivodeships))
	for i, v := range voivodeships {
		seeds[i] = gratkaBase + v
	}
	return seeds
}

func (e *GratkaExtractor) PageLinks(html string, seed estate.Link) ([]estate.Link, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	return pagerRange(doc, ".pagination a, .pagination__page", seed)
}

func (e *GratkaExtractor) OfferLinks(html string, page estate.Link) ([]estate.Link, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	return links(doc, "article[data-href]", "data-href", Gratka, page.URL)
}

type gratkaLocation struct {
	Latitude    json.Number `json:"szerokosc-geograficzna-y"`
	Longitude   json.Number `json:"dlugosc-geograficzna-x"`
	City        string      `json:"miejscowosc"`
	District    string      `json:"dzielnica"`
	Voivodeship string      `json:"wojewodztwo"`
	Street      string      `json:"ulica"`
}

// Offer reads the sticker header, the rolled parameter list and the
// location object of the tracking script.
func (e *GratkaExtractor) Offer(html string, link estate.Link) (*estate.Offer, error) {
	doc, err := parse(html)
	if err != nil {
		return nil, err
	}
	if doc.Find(".offerClosed, .sticker--archived").Length() > 0 {
		return nil, estate.Errorf(estate.EGONE, "%s: listing %s closed", Gratka, link.URL)
	}

	title := text(doc.Find("h1.sticker__title").First())
	if title == "" {
		return nil, missing(link, "title")
	}
	o := &estate.Offer{
		Title:      title,
		Attributes: map[string]string{},
	}

	price := doc.Find("span.priceInfo__value").First()
	o.Currency = text(price.Find(".priceInfo__currency"))
	price.Find(".priceInfo__currency").Remove()
	o.Price, _ = parseNumber(text(price))
	if o.Currency == "" && o.Price > 0 {
		o.Currency = "PLN"
	}

	doc.Find("ul.parameters__rolled li").Each(func(_ int, li *goquery.Selection) {
		label := strings.TrimSuffix(text(li.Find("span").First()), ":")
		value := text(li.Find("b").First())
		if label == "" || value == "" {
			return
		}
		switch strings.ToLower(label) {
		case "powierzchnia w m2", "powierzchnia":
			o.Area, _ = parseNumber(value)
		case "liczba pokoi":
			o.Rooms = parseInt(value)
		case "piętro":
			o.Floor = value
		default:
			o.Attributes[label] = value
		}
	})

	if o.Description, err = description(e.conv, doc.Find("div.description__rolled").First()); err != nil {
		return nil, err
	}

	if loc, ok := gratkaLocationParams(doc); ok {
		o.City, o.District, o.Voivodeship, o.Address = loc.City, loc.District, loc.Voivodeship, loc.Street
		o.Latitude, _ = parseNumber(loc.Latitude.String())
		o.Longitude, _ = parseNumber(loc.Longitude.String())
	}
	return o, nil
}

func gratkaLocationParams(doc *goquery.Document) (gratkaLocation, bool) {
	var loc gratkaLocation
	found := false
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := locationParams.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		found = json.Unmarshal([]byte(m[1]), &loc) == nil
		return !found
	})
	return loc, found
}
