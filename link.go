package estate

import (
	"net/url"
	"sort"
	"strings"
)

// Site identifies a listing source such as "otodom" or "gratka".
type Site string

// Link is a listing or result-page URL on a site. Two links are the same
// listing when both fields are equal after NewLink normalization; links on
// different sites are never merged.
type Link struct {
	Site Site   `json:"site"`
	URL  string `json:"url"`
}

// NewLink returns a link with a normalized URL.
func NewLink(site Site, rawURL string) Link {
	return Link{Site: site, URL: NormalizeURL(rawURL)}
}

// String returns the URL.
func (l Link) String() string {
	return l.URL
}

// NormalizeURL trims whitespace, lowercases the scheme and host, drops the
// fragment and strips trailing slashes from non-root paths. Query strings
// are kept as-is since result pages are addressed by them.
func NormalizeURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return s
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		if u.Path == "" {
			u.Path = "/"
		}
		u.RawPath = ""
	}
	return u.String()
}

// UniqueLinks returns links with duplicates removed, keeping the first
// occurrence of each.
func UniqueLinks(links []Link) []Link {
	seen := make(map[Link]struct{}, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// SortLinks sorts links by site, then URL.
func SortLinks(links []Link) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].Site != links[j].Site {
			return links[i].Site < links[j].Site
		}
		return links[i].URL < links[j].URL
	})
}

// URLs returns the URL of every link.
func URLs(links []Link) []string {
	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}
	return urls
}
