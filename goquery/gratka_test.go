package goquery_test

import (
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gratkaListing = `<!DOCTYPE html>
<html><body>
<h1 class="sticker__title">
  Mieszkanie 3-pokojowe, Wrocław Krzyki
</h1>
<span class="priceInfo__value">2 800<span class="priceInfo__currency">zł/miesiąc</span></span>
<ul class="parameters__rolled">
  <li><span>Powierzchnia w m2:</span><b>62,4 m2</b></li>
  <li><span>Liczba pokoi</span><b>3</b></li>
  <li><span>Piętro</span><b>parter</b></li>
  <li><span>Forma własności</span><b>pełna własność</b></li>
  <li><span>Balkon</span><b></b></li>
</ul>
<div class="description__rolled ql-container"><p>Do wynajęcia od zaraz.</p></div>
<script>
  window.dataLayer = window.dataLayer || [];
  dataLayer.push({"locationParams":{"szerokosc-geograficzna-y":51.0761,"dlugosc-geograficzna-x":"17.0355","miejscowosc":"Wrocław","dzielnica":"Krzyki","wojewodztwo":"dolnośląskie","ulica":"Powstańców Śląskich"}});
</script>
</body></html>`

func TestGratkaExtractor_OfferLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<article class="teaserUnified" data-href="https://gratka.pl/nieruchomosci/mieszkanie-wroclaw/ob/12345"></article>
<article class="teaserUnified" data-href="/nieruchomosci/mieszkanie-wroclaw/ob/67890"></article>
<article class="teaserUnified" data-href="javascript:void(0)"></article>
</body></html>`
	page := estate.NewLink(goquery.Gratka, "https://gratka.pl/nieruchomosci/mieszkania/dolnoslaskie?page=2")

	links, err := goquery.NewGratkaExtractor(nil).OfferLinks(html, page)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://gratka.pl/nieruchomosci/mieszkanie-wroclaw/ob/12345",
		"https://gratka.pl/nieruchomosci/mieszkanie-wroclaw/ob/67890",
	}, urls(links))
}

func TestGratkaExtractor_Offer(t *testing.T) {
	t.Parallel()

	link := estate.NewLink(goquery.Gratka, "https://gratka.pl/nieruchomosci/mieszkanie-wroclaw/ob/12345")

	t.Run("reads listing page", func(t *testing.T) {
		t.Parallel()

		o, err := goquery.NewGratkaExtractor(nil).Offer(gratkaListing, link)
		require.NoError(t, err)

		assert.Equal(t, "Mieszkanie 3-pokojowe, Wrocław Krzyki", o.Title)
		assert.Equal(t, 2800.0, o.Price)
		assert.Equal(t, "zł/miesiąc", o.Currency)
		assert.Equal(t, 62.4, o.Area)
		assert.Equal(t, 3, o.Rooms)
		assert.Equal(t, "parter", o.Floor)
		assert.Equal(t, map[string]string{"Forma własności": "pełna własność"}, o.Attributes)
		assert.Equal(t, "Do wynajęcia od zaraz.", o.Description)
		assert.Equal(t, "Wrocław", o.City)
		assert.Equal(t, "Krzyki", o.District)
		assert.Equal(t, "dolnośląskie", o.Voivodeship)
		assert.Equal(t, "Powstańców Śląskich", o.Address)
		assert.Equal(t, 51.0761, o.Latitude)
		assert.Equal(t, 17.0355, o.Longitude)
	})

	t.Run("reports closed listing as gone", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div class="offerClosed">Ogłoszenie nieaktualne</div></body></html>`

		_, err := goquery.NewGratkaExtractor(nil).Offer(html, link)
		assert.Equal(t, estate.EGONE, estate.ErrorCode(err))
	})

	t.Run("treats page without title as transient", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewGratkaExtractor(nil).Offer(`<html><body></body></html>`, link)
		require.Error(t, err)
		assert.False(t, estate.IsPermanent(err))
	})
}
