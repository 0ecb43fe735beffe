package nlp

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pemistahl/lingua-go"

	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
)

const (
	// LangEnglish is the ISO 639-1 code the filter keeps.
	LangEnglish = "en"

	langRussian = "ru"
	langGreek   = "el"
	langArabic  = "ar"
	langChinese = "zh"

	// Language detection thresholds
	cyrillicThreshold = 0.3 // If >30% Cyrillic, consider Cyrillic language
	latinThreshold    = 0.5 // If >50% Latin, consider Latin-based language
	greekThreshold    = 0.2 // If >20% Greek, consider Greek
	arabicThreshold   = 0.3
	hanThreshold      = 0.3

	englishStopwordMin   = 1
	englishStopwordRatio = 0.08

	minDetectableLetters = 3
)

// Languages the lingua detector distinguishes between. The set covers the
// locales that show up on the default news sources.
var linguaLanguages = []lingua.Language{
	lingua.English, lingua.French, lingua.German, lingua.Spanish,
	lingua.Arabic, lingua.Chinese, lingua.Finnish, lingua.Russian,
	lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Turkish,
}

// LinguaIdentifier detects language with lingua's n-gram models.
type LinguaIdentifier struct {
	detector lingua.LanguageDetector
}

// NewLinguaIdentifier builds a detector over the supported languages.
func NewLinguaIdentifier() *LinguaIdentifier {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(linguaLanguages...).
		Build()

	return &LinguaIdentifier{detector: detector}
}

// Detect returns the ISO 639-1 code of text.
func (l *LinguaIdentifier) Detect(text string) (string, error) {
	if countLetters(text) < minDetectableLetters {
		return "", fmt.Errorf("%w: too few letters", pipelineerrors.ErrLanguageDetection)
	}

	language, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return "", fmt.Errorf("%w: no reliable language", pipelineerrors.ErrLanguageDetection)
	}

	return strings.ToLower(language.IsoCode639_1().String()), nil
}

// HeuristicIdentifier detects language from script ratios and English
// stopword density. It needs no models and only separates English from
// a few scripts; Latin text that is not English is reported as undetected.
type HeuristicIdentifier struct{}

var heuristicStopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "is": {}, "for": {}, "on": {}, "with": {},
	"as": {}, "by": {}, "from": {}, "at": {}, "that": {}, "this": {}, "be": {}, "are": {}, "was": {},
	"were": {}, "has": {}, "have": {}, "will": {}, "its": {}, "it": {},
}

// Detect returns "en", "ru", "el", "ar" or "zh", or ErrLanguageDetection.
func (HeuristicIdentifier) Detect(text string) (string, error) {
	counts := countScripts(text)
	if counts.total < minDetectableLetters {
		return "", fmt.Errorf("%w: too few letters", pipelineerrors.ErrLanguageDetection)
	}

	total := float64(counts.total)

	switch {
	case float64(counts.cyrillic)/total >= cyrillicThreshold:
		return langRussian, nil
	case float64(counts.greek)/total >= greekThreshold:
		return langGreek, nil
	case float64(counts.arabic)/total >= arabicThreshold:
		return langArabic, nil
	case float64(counts.han)/total >= hanThreshold:
		return langChinese, nil
	case float64(counts.latin)/total >= latinThreshold && isLikelyEnglish(text):
		return LangEnglish, nil
	}

	return "", fmt.Errorf("%w: unrecognized script mix", pipelineerrors.ErrLanguageDetection)
}

type scriptCounts struct {
	latin, cyrillic, greek, arabic, han, total int
}

func countScripts(text string) scriptCounts {
	var c scriptCounts

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}

		c.total++

		switch {
		case unicode.Is(unicode.Cyrillic, r):
			c.cyrillic++
		case unicode.Is(unicode.Greek, r):
			c.greek++
		case unicode.Is(unicode.Arabic, r):
			c.arabic++
		case unicode.Is(unicode.Han, r):
			c.han++
		case unicode.Is(unicode.Latin, r):
			c.latin++
		}
	}

	return c
}

func countLetters(text string) int {
	n := 0

	for _, r := range text {
		if unicode.IsLetter(r) {
			n++
		}
	}

	return n
}

func isLikelyEnglish(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	if len(words) == 0 {
		return false
	}

	matches := 0

	for _, w := range words {
		if _, ok := heuristicStopwords[w]; ok {
			matches++
		}
	}

	if matches < englishStopwordMin {
		return false
	}

	return float64(matches)/float64(len(words)) >= englishStopwordRatio
}
