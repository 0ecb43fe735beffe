// Package dataset persists pipeline stages as CSV files with fixed headers.
//
// Two write modes exist:
//   - Append: one row per call, header written when the file is missing or empty
//   - Rewrite: the whole table, written to a temp file and renamed into place
//
// Reads validate that the columns a stage needs are present.
package dataset

// Column names shared across stages.
const (
	ColTitle       = "title"
	ColDate        = "date"
	ColSource      = "source"
	ColArticleText = "article_text"
	ColCleanText   = "clean_text"
	ColIsEnglish   = "is_english"
	ColURL         = "url"

	ColArticleTitle    = "article_title"
	ColNegIntensity    = "neg_emo_intensity"
	ColNeuIntensity    = "neu_emo_intensity"
	ColPosIntensity    = "pos_emo_intensity"
	ColPolarity        = "sentiment_polarity"
	ColDamageFrequency = "damage_frequency"
	ColImpactScore     = "impact_score"
	ColSentimentLabel  = "sentiment_label"
)

// Schema is an ordered list of column names.
type Schema []string

// With returns a new schema with extra columns appended.
func (s Schema) With(cols ...string) Schema {
	out := make(Schema, 0, len(s)+len(cols))
	out = append(out, s...)

	return append(out, cols...)
}

// Equal reports whether header matches the schema exactly.
func (s Schema) Equal(header []string) bool {
	if len(s) != len(header) {
		return false
	}

	for i := range s {
		if s[i] != header[i] {
			return false
		}
	}

	return true
}

// Stage schemas.
var (
	RawSchema      = Schema{ColTitle, ColDate, ColSource, ColArticleText}
	LedgerSchema   = Schema{ColURL}
	CleanedSchema  = RawSchema.With(ColCleanText)
	FilteredSuffix = ColIsEnglish
	ScoredSchema   = Schema{
		ColArticleTitle, ColSource, ColNegIntensity, ColNeuIntensity, ColPosIntensity,
		ColPolarity, ColDamageFrequency, ColImpactScore,
	}
	MetricsSchema = Schema{
		ColTitle, "ttr", "msttr", "lexical_density", "word_count", "sentence_count", "avg_sentence_length",
		ColSentimentLabel,
	}
	KeywordsSchema = Schema{ColTitle, "top_keywords"}
)
