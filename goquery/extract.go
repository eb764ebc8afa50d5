// Package goquery provides the site extractors, which turn listing site HTML
// into links and offers using goquery.
package goquery

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/estate"
)

// parse builds a document from html.
func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, estate.Errorf(estate.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}

// links collects attr of every element matching selector as links of site,
// resolved against base. Links to other hosts and non-HTTP links are
// skipped, and the first occurrence of a URL wins.
func links(doc *goquery.Document, selector, attr string, site estate.Site, base string) ([]estate.Link, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, estate.Errorf(estate.EINVALID, "invalid base URL: %v", err)
	}

	var out []estate.Link
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr(attr)
		if !ok || isNonHTTPLink(href) {
			return
		}
		resolved := resolveURL(baseURL, href)
		if resolved == nil || resolved.Host != baseURL.Host {
			return
		}
		out = append(out, estate.NewLink(site, resolved.String()))
	})
	return estate.UniqueLinks(out), nil
}

// resolveURL resolves href against base. Returns nil when href is blank or
// does not parse.
func resolveURL(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	return base.ResolveReference(ref)
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}

// MaxPages caps the result pages expanded from one seed. The sites stop
// serving results well before it, so a larger pager entry is bogus.
const MaxPages = 1000

// pagerRange expands seed into result pages 1..last, where last is the
// highest page number among the pager entries matching selector, clamped
// to MaxPages. A page without a pager has one result page.
func pagerRange(doc *goquery.Document, selector string, seed estate.Link) ([]estate.Link, error) {
	last := 1
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(sel.Text())); err == nil && n > last {
			last = n
		}
	})
	last = min(last, MaxPages)

	u, err := url.Parse(seed.URL)
	if err != nil {
		return nil, estate.Errorf(estate.EINVALID, "invalid seed URL: %v", err)
	}
	pages := make([]estate.Link, 0, last)
	for p := 1; p <= last; p++ {
		q := u.Query()
		q.Set("page", strconv.Itoa(p))
		page := *u
		page.RawQuery = q.Encode()
		pages = append(pages, estate.NewLink(seed.Site, page.String()))
	}
	return pages, nil
}

var (
	spaces = regexp.MustCompile(`\s+`)
	number = regexp.MustCompile(`-?\d[\d\s\x{00a0}]*(?:[.,]\d+)?`)
)

// text returns the whitespace-collapsed text of sel.
func text(sel *goquery.Selection) string {
	return strings.TrimSpace(spaces.ReplaceAllString(sel.Text(), " "))
}

// parseNumber reads the first number in s, accepting space thousands
// separators and a comma decimal point, as in "1 250 000,50 zł".
func parseNumber(s string) (float64, bool) {
	m := number.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t', '\n':
			return -1
		case ',':
			return '.'
		}
		return r
	}, m)
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseInt reads the first number in s as an integer.
func parseInt(s string) int {
	v, ok := parseNumber(s)
	if !ok {
		return 0
	}
	return int(v)
}

// missing reports a page that lacks the structure an extractor needs. The
// error is transient: such pages are usually truncated or rate-limit
// interstitials and parse fine on a later attempt.
func missing(link estate.Link, what string) error {
	return estate.Errorf(estate.EINTERNAL, "%s: %s not found on %s", link.Site, what, link.URL)
}

// description converts the HTML of sel with conv.
func description(conv estate.Converter, sel *goquery.Selection) (string, error) {
	if sel.Length() == 0 {
		return "", nil
	}
	html, err := sel.Html()
	if err != nil {
		return "", err
	}
	return convertHTML(conv, html)
}

// convertHTML converts a description fragment with conv, falling back to
// its plain text when no converter is set.
func convertHTML(conv estate.Converter, html string) (string, error) {
	if conv != nil {
		return conv.Convert(html)
	}
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	return text(doc.Selection), nil
}
