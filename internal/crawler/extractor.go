package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
	"github.com/lueurxax/news-impact-pipeline/internal/process/keywords"
)

const maxRedirects = 10

var (
	errTooManyRedirects = errors.New("too many redirects")
	errHTTPError        = errors.New("HTTP error")
)

// FetchResult is the outcome of downloading one URL. Err wraps ErrFetch when
// the article could not be used, together with ErrEmptyArticle when the page
// had no body text.
type FetchResult struct {
	URL     string
	Article domain.Article
	Err     error
}

// ArticleFetcher downloads and parses one article.
type ArticleFetcher interface {
	Fetch(ctx context.Context, rawURL string) FetchResult
}

// Fetcher downloads article pages and extracts title, body, publish date
// and keywords.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	logger     *zerolog.Logger
}

// NewFetcher creates a new Fetcher.
func NewFetcher(cfg Config, logger *zerolog.Logger) *Fetcher {
	cfg = cfg.withDefaults()

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}

				return nil
			},
		},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Fetch downloads rawURL once. No retries are attempted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) FetchResult {
	article, err := f.fetch(ctx, rawURL)
	if err != nil {
		return FetchResult{URL: rawURL, Err: err}
	}

	return FetchResult{URL: rawURL, Article: article}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (domain.Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: parse URL: %w", pipelineerrors.ErrFetch, err)
	}

	body, err := f.fetchPage(ctx, rawURL)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: %w", pipelineerrors.ErrFetch, err)
	}

	if !hasBodyText(body) {
		return domain.Article{}, emptyArticleError(rawURL)
	}

	parsedArticle, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: readability extraction: %w", pipelineerrors.ErrFetch, err)
	}

	text := strings.TrimSpace(parsedArticle.TextContent)
	if text == "" {
		return domain.Article{}, emptyArticleError(rawURL)
	}

	meta := extractMetaTags(body)
	title := strings.TrimSpace(coalesce(parsedArticle.Title, meta.OGTitle, meta.Title))

	if title == "" {
		f.logger.Debug().Str(fieldURL, rawURL).Msg("No title found, keeping article untitled")
	}

	published := coalesce(meta.PublishedTime, meta.PubDate)
	date := parseDate(published)

	if date == nil {
		f.logger.Debug().Str(fieldURL, rawURL).Str("raw_date", published).Msg("No usable publish date, recording None")
	}

	return domain.Article{
		URL:      rawURL,
		Title:    title,
		Date:     date,
		Source:   parsed.Scheme + "://" + parsed.Host,
		Text:     text,
		Keywords: keywords.FromArticle(title, text),
		Language: meta.Language,
	}, nil
}

func emptyArticleError(rawURL string) error {
	return fmt.Errorf("%w: %w: %s", pipelineerrors.ErrFetch, pipelineerrors.ErrEmptyArticle, rawURL)
}

// hasBodyText reports whether the page body carries any text. Pages that
// fail to parse are left to readability.
func hasBodyText(page []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return true
	}

	return strings.TrimSpace(doc.Find("body").Text()) != ""
}

func (f *Fetcher) fetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf(wrapCreateRequest, err)
	}

	req.Header.Set(headerUserAgent, f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errHTTPError, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// metaTags holds the page metadata used alongside readability output.
type metaTags struct {
	Title         string
	OGTitle       string
	PublishedTime string
	PubDate       string
	Language      string
}

func extractMetaTags(htmlBytes []byte) metaTags {
	var meta metaTags

	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return meta
	}

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				meta.Language = attr(n, "lang")
			case "title":
				if meta.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getMetaAttrs(n)
				switch strings.ToLower(name) {
				case "og:title":
					meta.OGTitle = content
				case "article:published_time":
					meta.PublishedTime = content
				case "pubdate", "date", "datepublished":
					meta.PubDate = content
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return meta
}

func getMetaAttrs(n *html.Node) (string, string) {
	var name, content string

	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "name", "property", "itemprop":
			name = a.Val
		case "content":
			content = a.Val
		}
	}

	return name, content
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}

	return ""
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

// parseDate returns nil when s is empty or unparseable.
func parseDate(s string) *time.Time {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}

	return &t
}
