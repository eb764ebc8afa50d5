package goquery_test

import (
	"testing"

	"github.com/fwojciec/estate"
	"github.com/fwojciec/estate/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urls(links []estate.Link) []string {
	return estate.URLs(links)
}

func TestPageLinks(t *testing.T) {
	t.Parallel()

	t.Run("expands pager into page range", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<ul class="pager"><li><a href="?page=1">1</a></li><li><a href="?page=2">2</a></li><li><a>…</a></li><li><a href="?page=4">4</a></li><li><a href="?page=2">następna</a></li></ul>
</body></html>`
		seed := estate.NewLink(goquery.Otodom, "https://www.otodom.pl/wynajem/mieszkanie/opolskie")

		pages, err := goquery.NewOtodomExtractor(nil).PageLinks(html, seed)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://www.otodom.pl/wynajem/mieszkanie/opolskie?page=1",
			"https://www.otodom.pl/wynajem/mieszkanie/opolskie?page=2",
			"https://www.otodom.pl/wynajem/mieszkanie/opolskie?page=3",
			"https://www.otodom.pl/wynajem/mieszkanie/opolskie?page=4",
		}, urls(pages))
	})

	t.Run("returns single page without pager", func(t *testing.T) {
		t.Parallel()

		seed := estate.NewLink(goquery.Gratka, "https://gratka.pl/nieruchomosci/mieszkania/lubuskie")

		pages, err := goquery.NewGratkaExtractor(nil).PageLinks(`<html><body><p>Brak wyników</p></body></html>`, seed)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://gratka.pl/nieruchomosci/mieszkania/lubuskie?page=1"}, urls(pages))
	})

	t.Run("clamps bogus pager entries", func(t *testing.T) {
		t.Parallel()

		html := `<ul class="pager"><li><a>1</a></li><li><a>2000000000</a></li></ul>`
		seed := estate.NewLink(goquery.Otodom, "https://www.otodom.pl/wynajem/mieszkanie/opolskie")

		pages, err := goquery.NewOtodomExtractor(nil).PageLinks(html, seed)
		require.NoError(t, err)
		require.Len(t, pages, goquery.MaxPages)
		assert.Equal(t, "https://www.otodom.pl/wynajem/mieszkanie/opolskie?page=1000", pages[len(pages)-1].URL)
	})

	t.Run("keeps existing query parameters", func(t *testing.T) {
		t.Parallel()

		html := `<div class="mz-pagination-number"><a>1</a><a>2</a></div>`
		seed := estate.NewLink(goquery.Morizon, "https://www.morizon.pl/do-wynajecia/mieszkania/najnowsze/lodz?ps%5Bliving_area_from%5D=30")

		pages, err := goquery.NewMorizonExtractor(nil).PageLinks(html, seed)
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Contains(t, pages[1].URL, "page=2")
		assert.Contains(t, pages[1].URL, "living_area_from")
	})
}

func TestSeeds(t *testing.T) {
	t.Parallel()

	for _, ex := range []estate.Extractor{
		goquery.NewOtodomExtractor(nil),
		goquery.NewGratkaExtractor(nil),
		goquery.NewMorizonExtractor(nil),
	} {
		seeds := ex.Seeds()
		assert.NotEmpty(t, seeds, ex.Site())
		for _, s := range seeds {
			assert.Equal(t, s, estate.NormalizeURL(s), "seed of %s should be normalized", ex.Site())
		}
	}
}
