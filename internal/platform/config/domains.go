package config

import "time"

// CrawlerConfig holds ingestion settings.
type CrawlerConfig struct {
	Sources         []string
	Denylist        []string
	UserAgent       string
	FetchTimeout    time.Duration
	DiscoveryRPS    float64
	Limit           int
	PolitenessDelay time.Duration
	LiveSave        bool
}

// RelevanceConfig holds the query used to accept articles.
type RelevanceConfig struct {
	Keywords []string
	Mode     string
}

// LedgerConfig selects and configures the URL ledger backend.
type LedgerConfig struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Key           string
}

// ScoringConfig holds impact scoring and analysis settings.
type ScoringConfig struct {
	SortKey          string
	DamageCap        int
	KeywordTopN      int
	MSTTRWindow      int
	LanguageDetector string
}

// DatasetPaths lists every dataset file a full run touches.
type DatasetPaths struct {
	Raw      string
	Ledger   string
	Filtered string
	Cleaned  string
	Scored   string
	Metrics  string
	Keywords string
}

// CrawlerCfg returns the ingestion configuration.
func (c *Config) CrawlerCfg() CrawlerConfig {
	return CrawlerConfig{
		Sources:         c.Sources,
		Denylist:        c.URLDenylist,
		UserAgent:       c.UserAgent,
		FetchTimeout:    c.FetchTimeout,
		DiscoveryRPS:    c.DiscoveryRPS,
		Limit:           c.ArticleLimit,
		PolitenessDelay: c.PolitenessDelay,
		LiveSave:        c.LiveSave,
	}
}

// RelevanceCfg returns the relevance query configuration.
func (c *Config) RelevanceCfg() RelevanceConfig {
	return RelevanceConfig{
		Keywords: c.QueryKeywords,
		Mode:     c.RelevanceMode,
	}
}

// LedgerCfg returns the URL ledger configuration.
func (c *Config) LedgerCfg() LedgerConfig {
	return LedgerConfig{
		Backend:       c.LedgerBackend,
		Path:          c.LedgerPath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		Key:           c.LedgerKey,
	}
}

// ScoringCfg returns the scoring configuration.
func (c *Config) ScoringCfg() ScoringConfig {
	return ScoringConfig{
		SortKey:          c.ScoreSortKey,
		DamageCap:        c.DamageCap,
		KeywordTopN:      c.KeywordTopN,
		MSTTRWindow:      c.MSTTRWindow,
		LanguageDetector: c.LanguageDetector,
	}
}

// Paths returns the resolved dataset paths.
func (c *Config) Paths() DatasetPaths {
	return DatasetPaths{
		Raw:      c.RawPath,
		Ledger:   c.LedgerPath,
		Filtered: c.FilteredPath,
		Cleaned:  c.CleanedPath,
		Scored:   c.ScoredPath,
		Metrics:  c.MetricsPath,
		Keywords: c.KeywordsPath,
	}
}
