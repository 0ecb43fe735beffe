package filters

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
	"github.com/lueurxax/news-impact-pipeline/internal/platform/observability"
)

// Document is the part of a dataset row the filter looks at.
type Document struct {
	Title string
	Body  string
}

// Report summarizes one filter run.
type Report struct {
	Total            int
	Retained         int
	NonEnglish       int
	Missing          int
	DuplicateRemoved int
	MeanWordCount    float64
}

// LanguageFilter keeps English, complete, first-seen articles.
type LanguageFilter struct {
	ident  nlp.LanguageIdentifier
	logger *zerolog.Logger
}

func NewLanguageFilter(ident nlp.LanguageIdentifier, logger *zerolog.Logger) *LanguageFilter {
	return &LanguageFilter{ident: ident, logger: logger}
}

type docKey struct {
	title string
	body  string
}

// Apply returns the indices of docs to keep, in input order.
//
// A row is dropped when its body is not English (detection errors count as
// non-English), when title or body is empty, or when an earlier row had the
// same title and body.
func (f *LanguageFilter) Apply(docs []Document) ([]int, Report) {
	report := Report{Total: len(docs)}
	seen := make(map[docKey]struct{}, len(docs))
	kept := make([]int, 0, len(docs))

	var words int

	for i, d := range docs {
		if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Body) == "" {
			report.Missing++
			observability.FilterDropped.WithLabelValues(observability.DropMissing).Inc()

			continue
		}

		if !f.isEnglish(d.Body) {
			report.NonEnglish++
			observability.FilterDropped.WithLabelValues(observability.DropNonEnglish).Inc()

			continue
		}

		key := docKey{title: d.Title, body: d.Body}
		if _, dup := seen[key]; dup {
			report.DuplicateRemoved++
			observability.FilterDropped.WithLabelValues(observability.DropDuplicate).Inc()

			continue
		}

		seen[key] = struct{}{}
		kept = append(kept, i)
		words += len(strings.Fields(d.Body))
	}

	report.Retained = len(kept)
	if report.Retained > 0 {
		report.MeanWordCount = float64(words) / float64(report.Retained)
	}

	return kept, report
}

func (f *LanguageFilter) isEnglish(body string) bool {
	lang, err := f.ident.Detect(body)
	if err != nil {
		f.logger.Debug().Err(err).Msg("Language detection failed, treating as non-English")
		return false
	}

	return lang == nlp.LangEnglish
}

// Log writes the report at info level.
func (r Report) Log(logger *zerolog.Logger) {
	logger.Info().
		Int("total", r.Total).
		Int("retained", r.Retained).
		Int("non_english", r.NonEnglish).
		Int("missing", r.Missing).
		Int("duplicates_removed", r.DuplicateRemoved).
		Float64("mean_word_count", r.MeanWordCount).
		Msg("Filter report")
}
