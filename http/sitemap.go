package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/estate"
)

// maxSitemapDepth bounds nested sitemap indexes.
const maxSitemapDepth = 4

var _ estate.SitemapService = (*SitemapService)(nil)

// SitemapService lists listing URLs published in a site's sitemaps.
type SitemapService struct {
	fetcher *Fetcher
}

// NewSitemapService creates a SitemapService. Options configure the
// underlying Fetcher.
func NewSitemapService(opts ...Option) *SitemapService {
	return &SitemapService{fetcher: NewFetcher(opts...)}
}

// DiscoverURLs reads the Sitemap directives of robots.txt, falling back to
// /sitemap.xml, and walks every sitemap and index they point to. Gzipped
// sitemaps are decompressed. URLs are unique and in document order. A site
// without sitemaps returns an empty slice.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *estate.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, estate.Errorf(estate.EINVALID, "invalid base URL %q", baseURL)
	}
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}

	roots, err := s.robotsSitemaps(ctx, root.ResolveReference(&url.URL{Path: "/robots.txt"}).String())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		roots = nil
	}
	fallback := len(roots) == 0
	if fallback {
		roots = []string{root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}
	}

	w := &sitemapWalk{
		svc:     s,
		filter:  filter,
		visited: make(map[string]bool),
		seen:    make(map[string]bool),
		urls:    []string{},
	}
	for _, loc := range roots {
		if err := w.visit(ctx, loc, 0); err != nil {
			if fallback && estate.ErrorCode(err) == estate.EGONE {
				return []string{}, nil
			}
			return nil, err
		}
	}
	return w.urls, nil
}

// robotsSitemaps returns the Sitemap directives of robots.txt.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	resp, err := s.fetcher.get(ctx, robotsURL, "text/plain")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var locs []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if loc := strings.TrimSpace(value); loc != "" {
			locs = append(locs, loc)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	return locs, nil
}

type sitemapWalk struct {
	svc     *SitemapService
	filter  *estate.URLFilter
	visited map[string]bool
	seen    map[string]bool
	urls    []string
}

func (w *sitemapWalk) visit(ctx context.Context, loc string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[loc] || depth > maxSitemapDepth {
		return nil
	}
	w.visited[loc] = true

	doc, err := w.svc.document(ctx, loc)
	if err != nil {
		return err
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("empty sitemap %s", loc)
	}

	switch root.Tag {
	case "sitemapindex":
		for _, child := range locs(root, "sitemap") {
			if err := w.visit(ctx, child, depth+1); err != nil {
				return err
			}
		}
	case "urlset":
		for _, u := range locs(root, "url") {
			if w.seen[u] || !w.filter.Match(u) {
				continue
			}
			w.seen[u] = true
			w.urls = append(w.urls, u)
		}
	default:
		return fmt.Errorf("unexpected sitemap root <%s> in %s", root.Tag, loc)
	}
	return nil
}

// document fetches and parses one sitemap.
func (s *SitemapService) document(ctx context.Context, loc string) (*etree.Document, error) {
	resp, err := s.fetcher.get(ctx, loc, "application/xml,text/xml")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := maybeGunzip(bufio.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", loc, err)
	}
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", loc, err)
	}
	return doc, nil
}

// maybeGunzip unwraps r when it starts with the gzip magic number.
func maybeGunzip(r *bufio.Reader) (io.Reader, error) {
	magic, err := r.Peek(2)
	if err != nil || magic[0] != 0x1f || magic[1] != 0x8b {
		return r, nil
	}
	return gzip.NewReader(r)
}

// locs returns the trimmed <loc> text of every child element named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			out = append(out, u)
		}
	}
	return out
}
