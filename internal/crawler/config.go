package crawler

import (
	"time"
)

// DefaultSources are the news front pages crawled when none are configured.
var DefaultSources = []string{
	"https://edition.cnn.com/world",
	"https://www.aljazeera.com/news",
	"https://www.bbc.com/news",
	"https://www.cbsnews.com/",
}

const (
	defaultDiscoveryRPS    = 2
	defaultFetchTimeout    = 30 * time.Second
	defaultPolitenessDelay = time.Second
	defaultUserAgent       = "Mozilla/5.0 (compatible; NewsImpactPipeline/1.0)"
)

// Config holds ingestion settings.
type Config struct {
	UserAgent    string
	FetchTimeout time.Duration
	DiscoveryRPS float64

	// Limit is the number of accepted articles after which ingestion stops.
	Limit int
	// PolitenessDelay is slept after every successful download.
	PolitenessDelay time.Duration

	// LiveSave appends each accepted article to RawPath as soon as it is accepted.
	LiveSave bool
	RawPath  string
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}

	if c.DiscoveryRPS <= 0 {
		c.DiscoveryRPS = defaultDiscoveryRPS
	}

	if c.PolitenessDelay < 0 {
		c.PolitenessDelay = defaultPolitenessDelay
	}

	return c
}
