package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
)

// Ledger backends.
const (
	LedgerBackendFile  = "file"
	LedgerBackendRedis = "redis"
)

// Language detectors.
const (
	LanguageDetectorLingua    = "lingua"
	LanguageDetectorHeuristic = "heuristic"
)

// Default dataset file names, resolved against DataDir.
const (
	defaultRawFile      = "articles.csv"
	defaultLedgerFile   = "urls.csv"
	defaultFilteredFile = "filtered_articles.csv"
	defaultCleanedFile  = "cleaned_data.csv"
	defaultScoredFile   = "scored_articles.csv"
	defaultMetricsFile  = "article_metrics.csv"
	defaultKeywordsFile = "articles_top_keywords.csv"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Datasets
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	RawPath      string `env:"RAW_PATH"`
	LedgerPath   string `env:"LEDGER_PATH"`
	FilteredPath string `env:"FILTERED_PATH"`
	CleanedPath  string `env:"CLEANED_PATH"`
	ScoredPath   string `env:"SCORED_PATH"`
	MetricsPath  string `env:"METRICS_PATH"`
	KeywordsPath string `env:"KEYWORDS_PATH"`

	// Ingestion
	Sources         []string      `env:"SOURCES" envSeparator:","`
	QueryKeywords   []string      `env:"QUERY_KEYWORDS" envSeparator:"," envDefault:"hurricane,melissa"`
	RelevanceMode   string        `env:"RELEVANCE_MODE" envDefault:"subset"`
	ArticleLimit    int           `env:"ARTICLE_LIMIT" envDefault:"30"`
	LiveSave        bool          `env:"LIVE_SAVE" envDefault:"false"`
	PolitenessDelay time.Duration `env:"POLITENESS_DELAY" envDefault:"1s"`
	DiscoveryRPS    float64       `env:"DISCOVERY_RPS" envDefault:"2"`
	FetchTimeout    time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	UserAgent       string        `env:"USER_AGENT"`
	URLDenylist     []string      `env:"URL_DENYLIST" envSeparator:","`

	// URL ledger
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"file"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	LedgerKey     string `env:"LEDGER_KEY" envDefault:"impact:urls"`

	// Empty disables the Postgres sink.
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Scoring and analysis
	ScoreSortKey string `env:"SCORE_SORT_KEY" envDefault:"impact_score"`
	DamageCap    int    `env:"DAMAGE_CAP" envDefault:"20"`
	KeywordTopN  int    `env:"KEYWORD_TOP_N" envDefault:"5"`
	MSTTRWindow  int    `env:"MSTTR_WINDOW" envDefault:"100"`

	// heuristic skips loading the lingua models.
	LanguageDetector string `env:"LANGUAGE_DETECTOR" envDefault:"lingua"`

	HealthPort       int           `env:"HEALTH_PORT" envDefault:"0"`
	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" envDefault:"1h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	cfg.resolvePaths()
	cfg.Sources = trimList(cfg.Sources)
	cfg.QueryKeywords = trimList(cfg.QueryKeywords)
	cfg.URLDenylist = trimList(cfg.URLDenylist)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolvePaths fills empty dataset paths with their default file under DataDir.
func (c *Config) resolvePaths() {
	for _, p := range []struct {
		target *string
		file   string
	}{
		{&c.RawPath, defaultRawFile},
		{&c.LedgerPath, defaultLedgerFile},
		{&c.FilteredPath, defaultFilteredFile},
		{&c.CleanedPath, defaultCleanedFile},
		{&c.ScoredPath, defaultScoredFile},
		{&c.MetricsPath, defaultMetricsFile},
		{&c.KeywordsPath, defaultKeywordsFile},
	} {
		if *p.target == "" {
			*p.target = filepath.Join(c.DataDir, p.file)
		}
	}
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))

	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.LedgerBackend {
	case LedgerBackendFile, LedgerBackendRedis:
	default:
		return fmt.Errorf("%w: %q", pipelineerrors.ErrUnknownBackend, c.LedgerBackend)
	}

	switch c.LanguageDetector {
	case LanguageDetectorLingua, LanguageDetectorHeuristic:
	default:
		return fmt.Errorf("%w: LANGUAGE_DETECTOR %q", pipelineerrors.ErrInvalidInput, c.LanguageDetector)
	}

	if c.ArticleLimit <= 0 {
		return fmt.Errorf("%w: ARTICLE_LIMIT must be positive, got %d", pipelineerrors.ErrInvalidInput, c.ArticleLimit)
	}

	if c.DamageCap <= 0 {
		return fmt.Errorf("%w: DAMAGE_CAP must be positive, got %d", pipelineerrors.ErrInvalidInput, c.DamageCap)
	}

	if c.MSTTRWindow <= 0 {
		return fmt.Errorf("%w: MSTTR_WINDOW must be positive, got %d", pipelineerrors.ErrInvalidInput, c.MSTTRWindow)
	}

	if c.ScheduleInterval <= 0 {
		return fmt.Errorf("%w: SCHEDULE_INTERVAL must be positive", pipelineerrors.ErrInvalidInput)
	}

	return nil
}

// IsLocal reports whether the process runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}
