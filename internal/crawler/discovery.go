package crawler

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/news-impact-pipeline/internal/platform/observability"
)

const (
	maxFeedEntries    = 100
	maxSitemapURLs    = 200
	maxBodySize       = 10 * 1024 * 1024 // 10MB
	headerUserAgent   = "User-Agent"
	wrapCreateRequest = "create request: %w"
	wrapHTTPStatusFmt = "%w: status %d"
	sitemapPath       = "/sitemap.xml"
	fieldSource       = "source"
	fieldFeed         = "feed"
	fieldSitemap      = "sitemap"
)

var errDiscoveryHTTPError = errors.New("HTTP error")

// Discovery collects candidate article URLs from news sources: links on the
// listing page, entries of the feeds the page advertises and the site's
// sitemap.
type Discovery struct {
	httpClient *http.Client
	feedParser *gofeed.Parser
	limiter    *rate.Limiter
	filter     *URLFilter
	userAgent  string
	logger     *zerolog.Logger
}

// NewDiscovery creates a new Discovery instance.
func NewDiscovery(cfg Config, filter *URLFilter, logger *zerolog.Logger) *Discovery {
	cfg = cfg.withDefaults()

	return &Discovery{
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		feedParser: gofeed.NewParser(),
		limiter:    rate.NewLimiter(rate.Limit(cfg.DiscoveryRPS), 1),
		filter:     filter,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// Discover returns the filtered candidate URLs of all sources, first-seen
// order, without duplicates. A failing source is logged and skipped.
func (d *Discovery) Discover(ctx context.Context, sources []string) []string {
	seen := make(map[string]struct{})

	var out []string

	for _, source := range sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}

		candidates, err := d.discoverSource(ctx, source)
		if err != nil {
			if ctx.Err() != nil {
				return out
			}

			d.logger.Warn().Err(err).Str(fieldSource, source).Msg("Source discovery failed")

			continue
		}

		var kept int

		for _, u := range candidates {
			if _, dup := seen[u]; dup {
				continue
			}

			seen[u] = struct{}{}

			if reason := d.filter.RejectReason(u); reason != "" {
				observability.URLsRejected.WithLabelValues(reason).Inc()
				d.logger.Debug().Str(fieldURL, u).Str("reason", reason).Msg("URL rejected")

				continue
			}

			out = append(out, u)
			kept++
		}

		observability.URLsDiscovered.WithLabelValues(source).Add(float64(kept))
		d.logger.Info().Str(fieldSource, source).Int(fieldCount, kept).Msg("Discovered article URLs")
	}

	return out
}

// discoverSource reads one source: listing links first, then feed entries,
// then sitemap entries.
func (d *Discovery) discoverSource(ctx context.Context, source string) ([]string, error) {
	base, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse source URL: %w", err)
	}

	body, err := d.get(ctx, source)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	urls := ListingLinks(doc, base)

	for _, feedURL := range FeedLinks(doc, base) {
		entries, err := d.FetchFeed(ctx, feedURL)
		if err != nil {
			d.logger.Debug().Err(err).Str(fieldFeed, feedURL).Msg("Failed to fetch feed")
			continue
		}

		urls = append(urls, entries...)
	}

	sitemapURL := base.Scheme + "://" + base.Host + sitemapPath

	entries, err := d.FetchSitemap(ctx, sitemapURL)
	if err != nil {
		d.logger.Debug().Err(err).Str(fieldSitemap, sitemapURL).Msg("Failed to fetch sitemap")
	}

	return append(urls, entries...), nil
}

// ListingLinks returns the same-site links of a listing page, resolved
// against base, without fragments.
func ListingLinks(doc *goquery.Document, base *url.URL) []string {
	domain := normalizeDomain(base.Host)

	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		link := resolveLink(href, base)
		if link == "" || extractDomain(link) != domain {
			return
		}

		links = append(links, link)
	})

	return links
}

// FeedLinks returns the RSS/Atom feeds a page advertises through
// <link rel="alternate">.
func FeedLinks(doc *goquery.Document, base *url.URL) []string {
	var feeds []string

	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		typ := strings.ToLower(s.AttrOr("type", ""))
		if !strings.Contains(typ, "rss") && !strings.Contains(typ, "atom") {
			return
		}

		if link := resolveLink(s.AttrOr("href", ""), base); link != "" {
			feeds = append(feeds, link)
		}
	})

	return feeds
}

func resolveLink(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	return resolved.String()
}

// extractDomain extracts the domain from a URL, normalizing www prefix.
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return normalizeDomain(parsed.Host)
}

// normalizeDomain removes www. prefix for consistent comparison.
func normalizeDomain(domain string) string {
	return strings.TrimPrefix(strings.ToLower(domain), "www.")
}

// FetchFeed fetches and parses an RSS/Atom feed, returning entry URLs.
func (d *Discovery) FetchFeed(ctx context.Context, feedURL string) ([]string, error) {
	body, err := d.get(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := d.feedParser.Parse(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var urls []string

	for i, item := range feed.Items {
		if i >= maxFeedEntries {
			break
		}

		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}

	return urls, nil
}

// FetchSitemap fetches and parses a sitemap, returning URLs. A sitemap
// index is followed one level.
func (d *Discovery) FetchSitemap(ctx context.Context, sitemapURL string) ([]string, error) {
	body, err := d.fetchBody(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var index SitemapIndex
	if err := xml.Unmarshal(body, &index); err == nil && len(index.Sitemaps) > 0 {
		return d.fetchSitemapIndex(ctx, index), nil
	}

	return parseSitemapURLs(body)
}

func (d *Discovery) fetchSitemapIndex(ctx context.Context, index SitemapIndex) []string {
	var all []string

	for _, sm := range index.Sitemaps {
		if len(all) >= maxSitemapURLs {
			break
		}

		body, err := d.fetchBody(ctx, sm.Loc)
		if err != nil {
			d.logger.Debug().Err(err).Str(fieldSitemap, sm.Loc).Msg("Failed to fetch sitemap from index")
			continue
		}

		urls, err := parseSitemapURLs(body)
		if err != nil {
			d.logger.Debug().Err(err).Str(fieldSitemap, sm.Loc).Msg("Failed to parse sitemap from index")
			continue
		}

		if remaining := maxSitemapURLs - len(all); len(urls) > remaining {
			urls = urls[:remaining]
		}

		all = append(all, urls...)
	}

	return all
}

func parseSitemapURLs(body []byte) ([]string, error) {
	var sitemap Sitemap
	if err := xml.Unmarshal(body, &sitemap); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	var urls []string

	for i, u := range sitemap.URLs {
		if i >= maxSitemapURLs {
			break
		}

		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}

	return urls, nil
}

func (d *Discovery) fetchBody(ctx context.Context, rawURL string) ([]byte, error) {
	body, err := d.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return data, nil
}

// get performs a rate-limited GET and returns the body of a 200 response.
func (d *Discovery) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf(wrapCreateRequest, err)
	}

	req.Header.Set(headerUserAgent, d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf(wrapHTTPStatusFmt, errDiscoveryHTTPError, resp.StatusCode)
	}

	return resp.Body, nil
}

// Sitemap represents a sitemap XML structure.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapURL represents a URL entry in a sitemap.
type SitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// SitemapIndex represents a sitemap index XML structure.
type SitemapIndex struct {
	XMLName  xml.Name            `xml:"sitemapindex"`
	Sitemaps []SitemapIndexEntry `xml:"sitemap"`
}

// SitemapIndexEntry represents a sitemap entry in a sitemap index.
type SitemapIndexEntry struct {
	Loc string `xml:"loc"`
}
