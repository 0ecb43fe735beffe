package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
	"github.com/lueurxax/news-impact-pipeline/internal/process/filters"
	"github.com/lueurxax/news-impact-pipeline/internal/storage/ledger"
)

const articlePage = `<html lang="en"><head>
<title>Hurricane Melissa | News</title>
<meta property="og:title" content="Hurricane Melissa slams Jamaica">
<meta property="article:published_time" content="2025-10-28T14:30:00Z">
</head><body><article>
<h1>Hurricane Melissa slams Jamaica</h1>
<p>Hurricane Melissa made landfall in Jamaica on Tuesday with winds of 185 mph, the strongest storm
to hit the island in recorded history. Officials said at least 19 people died and thousands were
left without power as the hurricane moved across the country.</p>
<p>Damage estimates from the hurricane have already reached $7 billion, according to the government of
Jamaica, and the number is expected to rise as roads reopen and crews reach remote communities.</p>
<p>Melissa weakened as it crossed the mountains but remained a dangerous hurricane when it moved
toward Cuba, where authorities evacuated more than half a million people.</p>
</article></body></html>`

func TestFetcherExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = fmt.Fprint(w, articlePage)
	}))
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	f := NewFetcher(Config{UserAgent: "test-agent"}, &logger)

	res := f.Fetch(context.Background(), srv.URL+"/2025/10/28/hurricane")
	require.NoError(t, res.Err)

	a := res.Article
	assert.Equal(t, srv.URL+"/2025/10/28/hurricane", a.URL)
	assert.Contains(t, a.Title, "Hurricane Melissa")
	assert.Equal(t, srv.URL, a.Source)
	assert.Contains(t, a.Text, "185 mph")
	require.NotNil(t, a.Date)
	assert.Equal(t, time.Date(2025, 10, 28, 14, 30, 0, 0, time.UTC), a.Date.UTC())
	assert.Contains(t, a.Keywords, "hurricane")
	assert.Contains(t, a.Keywords, "melissa")
	assert.Contains(t, a.Keywords, "jamaica")
	assert.Equal(t, "en", a.Language)
}

func TestFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			_, _ = fmt.Fprint(w, "<html><head><title>Nothing</title></head><body></body></html>")
			return
		}

		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	f := NewFetcher(Config{}, &logger)

	res := f.Fetch(context.Background(), srv.URL+"/blocked")
	assert.ErrorIs(t, res.Err, pipelineerrors.ErrFetch)
	assert.ErrorIs(t, res.Err, errHTTPError)

	res = f.Fetch(context.Background(), srv.URL+"/empty")
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, pipelineerrors.ErrFetch)
	assert.ErrorIs(t, res.Err, pipelineerrors.ErrEmptyArticle)
}

func TestFetcherLogsMissingDate(t *testing.T) {
	page := strings.Replace(articlePage,
		`<meta property="article:published_time" content="2025-10-28T14:30:00Z">`, "", 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, page)
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer

	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	f := NewFetcher(Config{}, &logger)

	res := f.Fetch(context.Background(), srv.URL+"/2025/10/28/hurricane")
	require.NoError(t, res.Err)
	assert.Nil(t, res.Article.Date)
	assert.Equal(t, domain.DateMissing, res.Article.DateString())
	assert.Contains(t, buf.String(), "No usable publish date")
	assert.Contains(t, buf.String(), srv.URL+"/2025/10/28/hurricane")
}

func TestParseDate(t *testing.T) {
	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("not a date"))

	got := parseDate("2025-10-28 09:15:00")
	require.NotNil(t, got)
	assert.Equal(t, 28, got.Day())
}

// stubFetcher serves articles from a map; unknown URLs fail, "panic" URLs panic.
type stubFetcher struct {
	articles map[string]domain.Article
	calls    []string
}

func (s *stubFetcher) Fetch(_ context.Context, u string) FetchResult {
	s.calls = append(s.calls, u)

	if strings.Contains(u, "panic") {
		panic("malformed page")
	}

	a, ok := s.articles[u]
	if !ok {
		return FetchResult{URL: u, Err: fmt.Errorf("%w: status 404", pipelineerrors.ErrFetch)}
	}

	return FetchResult{URL: u, Article: a}
}

func relevantArticle(title string) domain.Article {
	return domain.Article{
		Title:    title,
		Source:   "https://news.example",
		Text:     title + " body",
		Keywords: []string{"hurricane", "melissa", "jamaica"},
	}
}

func newTestIngestor(t *testing.T, cfg Config, fetcher ArticleFetcher, clock clockwork.Clock) *Ingestor {
	t.Helper()

	logger := zerolog.Nop()
	urls, err := ledger.OpenFile(filepath.Join(t.TempDir(), "urls.csv"))
	require.NoError(t, err)

	return NewIngestor(cfg, newTestDiscovery(), fetcher,
		filters.NewRelevance([]string{"hurricane", "melissa"}, filters.ModeSubset), urls, clock, &logger)
}

func TestIngestorSkipsFailuresAndStopsAtLimit(t *testing.T) {
	fetcher := &stubFetcher{articles: map[string]domain.Article{
		"u1": relevantArticle("One"),
		"u3": {Title: "Sport", Text: "match", Keywords: []string{"football"}},
		"u4": relevantArticle("Four"),
		"u5": relevantArticle("Five"),
	}}

	in := newTestIngestor(t, Config{Limit: 2}, fetcher, nil)

	got, stats, err := in.Run(context.Background(), []string{"u1", "u2", "u-panic", "u3", "u4", "u5"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "One", got[0].Title)
	assert.Equal(t, "Four", got[1].Title)
	assert.Equal(t, Stats{Attempted: 5, Failed: 2, Irrelevant: 1, Accepted: 2}, stats)
	assert.NotContains(t, fetcher.calls, "u5", "no fetch after the limit is reached")
}

func TestIngestorLiveSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	fetcher := &stubFetcher{articles: map[string]domain.Article{
		"u1": relevantArticle("One"),
		"u2": relevantArticle("Two"),
	}}

	in := newTestIngestor(t, Config{Limit: 5, LiveSave: true, RawPath: path}, fetcher, nil)

	_, _, err := in.Run(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"title,date,source,article_text\nOne,None,https://news.example,One body\nTwo,None,https://news.example,Two body\n",
		string(data))
}

func TestIngestorPolitenessDelay(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fetcher := &stubFetcher{articles: map[string]domain.Article{
		"u1": relevantArticle("One"),
		"u2": relevantArticle("Two"),
	}}

	in := newTestIngestor(t, Config{Limit: 5, PolitenessDelay: time.Second}, fetcher, clock)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		articles []domain.Article
		err      error
	}

	done := make(chan result, 1)

	go func() {
		got, _, err := in.Run(ctx, []string{"u1", "u2"})
		done <- result{got, err}
	}()

	for range 2 {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(time.Second)
	}

	res := <-done
	require.NoError(t, res.err)
	assert.Len(t, res.articles, 2)
}

func TestIngestorStopsOnCancel(t *testing.T) {
	fetcher := &stubFetcher{articles: map[string]domain.Article{"u1": relevantArticle("One")}}
	in := newTestIngestor(t, Config{Limit: 5}, fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, stats, err := in.Run(ctx, []string{"u1"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, stats.Attempted)
}

func TestDiscoverNewIsIdempotent(t *testing.T) {
	srv := newNewsSite(t)
	in := newTestIngestor(t, Config{}, &stubFetcher{}, nil)
	sources := []string{srv.URL + "/world"}

	first, err := in.DiscoverNew(context.Background(), sources)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := in.DiscoverNew(context.Background(), sources)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.csv")
	date := time.Date(2025, 10, 28, 14, 30, 0, 0, time.UTC)

	require.NoError(t, SaveRaw(path, []domain.Article{
		{Title: "A", Date: &date, Source: "https://s.example", Text: "body"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "title,date,source,article_text\nA,2025-10-28 14:30:00+00:00,https://s.example,body\n", string(data))
}
