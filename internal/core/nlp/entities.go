package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
)

// LabelQuantity marks numbers followed by a non-distance unit (weight, volume, area).
const LabelQuantity domain.EntityLabel = "QUANTITY"

const tagCardinal = "CD"

var (
	numberPattern = regexp.MustCompile(`^[+-]?\d[\d,]*(\.\d+)?$`)
	// A number glued to a distance or speed unit, e.g. "160mph" or "5km".
	gluedUnitPattern = regexp.MustCompile(`(?i)^\d[\d,.]*(km/h|mph|m/s|km|cm|m|miles?|meters?|kilometers?|feet|foot|inch(es)?|yards?)$`)
	yearPattern      = regexp.MustCompile(`^(1[89]|20)\d{2}$`)
	clockPattern     = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	dayPattern       = regexp.MustCompile(`^([1-9]|[12]\d|3[01])(st|nd|rd|th)?$`)
)

var numberWords = setOf(
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen",
	"nineteen", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
	"dozens", "hundreds", "thousands", "millions", "billions",
)

var scaleWords = setOf("hundred", "thousand", "million", "billion", "trillion", "bn")

var currencySymbols = setOf("$", "£", "€", "¥", "us$")

var currencyWords = setOf(
	"dollar", "dollars", "usd", "euro", "euros", "eur", "pound", "pounds", "gbp",
	"yen", "yuan", "rupees", "pesos",
)

var percentWords = setOf("%", "percent", "per cent")

// Units kept inside a CARDINAL span so the damage filter can see them.
var distanceUnits = setOf(
	"km/h", "mph", "m/s", "km", "cm", "m", "mile", "miles", "meter", "meters",
	"metre", "metres", "kilometer", "kilometers", "kilometre", "kilometres",
	"foot", "feet", "inch", "inches", "centimeter", "centimeters", "yard", "yards",
	"miles per hour", "kilometers per hour",
)

var quantityUnits = setOf(
	"kg", "kilograms", "tons", "tonnes", "litres", "liters", "gallons",
	"acres", "hectares", "degrees", "mm",
)

var datePrepositions = setOf("in", "since", "until", "by", "year", "during", "from")

var monthNames = setOf(
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
)

var weekdayNames = setOf(
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"mon", "tue", "tues", "wed", "thu", "thur", "thurs", "fri", "sat", "sun",
)

// Meridiem markers with the dots removed, so "p.m.", "p.m" and "pm" all match.
var meridiemWords = setOf("am", "pm")

// NumericRecognizer labels numeric spans in each sentence as CARDINAL, MONEY,
// PERCENT, QUANTITY, DATE or TIME using Penn tags and surrounding tokens.
type NumericRecognizer struct {
	splitter SentenceSplitter
	tagger   Tagger
}

// NewNumericRecognizer creates a recognizer over the given splitter and tagger.
func NewNumericRecognizer(splitter SentenceSplitter, tagger Tagger) *NumericRecognizer {
	return &NumericRecognizer{splitter: splitter, tagger: tagger}
}

// Entities returns numeric entities in text order with their owning sentence.
func (r *NumericRecognizer) Entities(text string) []domain.Entity {
	var out []domain.Entity

	for _, sentence := range r.splitter.Sentences(text) {
		out = append(out, RecognizeNumeric(r.tagger.Tag(sentence), sentence)...)
	}

	return out
}

// RecognizeNumeric labels numeric spans within one tagged sentence.
func RecognizeNumeric(tokens []TaggedToken, sentence string) []domain.Entity {
	var out []domain.Entity

	for i := 0; i < len(tokens); {
		if !isNumberToken(tokens[i]) {
			i++
			continue
		}

		start := i
		for i < len(tokens) && (isNumberToken(tokens[i]) || isScaleWord(tokens[i].Text)) {
			i++
		}

		span := tokenTexts(tokens[start:i])
		label := domain.LabelCardinal
		temporal, temporalText, temporalEnd := temporalSpan(tokens, start, i)

		switch {
		case start > 0 && currencySymbols[strings.ToLower(tokens[start-1].Text)]:
			label = domain.LabelMoney
			span[0] = tokens[start-1].Text + span[0]
		case temporal != domain.LabelCardinal:
			label = temporal
			span = []string{temporalText}
			i = temporalEnd
		case i < len(tokens) && currencyWords[strings.ToLower(tokens[i].Text)]:
			label = domain.LabelMoney
			span = append(span, tokens[i].Text)
			i++
		case i < len(tokens) && percentWords[strings.ToLower(tokens[i].Text)]:
			label = domain.LabelPercent
			span = append(span, tokens[i].Text)
			i++
		case gluedUnitPattern.MatchString(span[len(span)-1]):
			// already carries its unit
		default:
			if unit, n := unitAt(tokens, i, distanceUnits); n > 0 {
				span = append(span, unit)
				i += n
			} else if unit, n := unitAt(tokens, i, quantityUnits); n > 0 {
				label = LabelQuantity
				span = append(span, unit)
				i += n
			}
		}

		out = append(out, domain.Entity{Label: label, Text: strings.Join(span, " "), Sentence: sentence})
	}

	return out
}

// unitAt matches a unit starting at tokens[i]. Multi-token units such as
// "km / h" or "miles per hour" are tried before single tokens.
func unitAt(tokens []TaggedToken, i int, units map[string]bool) (string, int) {
	if i >= len(tokens) {
		return "", 0
	}

	if i+2 < len(tokens) {
		three := tokenTexts(tokens[i : i+3])

		glued := strings.ToLower(strings.Join(three, ""))
		if units[glued] {
			return strings.Join(three, ""), 3
		}

		spaced := strings.ToLower(strings.Join(three, " "))
		if units[spaced] {
			return strings.Join(three, " "), 3
		}
	}

	if units[strings.ToLower(tokens[i].Text)] {
		return tokens[i].Text, 1
	}

	return "", 0
}

// temporalSpan labels tokens[start:end] as DATE or TIME and returns the full
// surface text, which absorbs an adjacent month, year or meridiem marker, and
// the index after it. Other spans come back as CARDINAL with end unchanged.
func temporalSpan(tokens []TaggedToken, start, end int) (domain.EntityLabel, string, int) {
	first := tokens[start].Text
	prev := lowerAt(tokens, start-1)

	if end-start == 2 {
		// "October 28 2025"
		if isMonthToken(tokens, start-1) && dayPattern.MatchString(first) &&
			yearPattern.MatchString(tokens[start+1].Text) {
			return domain.LabelDate, tokens[start-1].Text + " " + first + " " + tokens[start+1].Text, end
		}

		return domain.LabelCardinal, "", end
	}

	if end-start != 1 {
		return domain.LabelCardinal, "", end
	}

	if isMeridiem(tokens, end) && (clockPattern.MatchString(first) || dayPattern.MatchString(first)) {
		return domain.LabelTime, first + " " + tokens[end].Text, end + 1
	}

	if clockPattern.MatchString(first) {
		return domain.LabelTime, first, end
	}

	day := dayPattern.MatchString(strings.ToLower(first))

	switch {
	case day && isMonthToken(tokens, start-1):
		// "October 28" with an optional ", 2025"
		text := tokens[start-1].Text + " " + first
		if lowerAt(tokens, end) == "," && end+1 < len(tokens) && yearPattern.MatchString(tokens[end+1].Text) {
			return domain.LabelDate, text + ", " + tokens[end+1].Text, end + 2
		}

		return domain.LabelDate, text, end
	case day && isMonthToken(tokens, end):
		// "28 October" with an optional "2025"
		text := first + " " + tokens[end].Text
		if end+1 < len(tokens) && yearPattern.MatchString(tokens[end+1].Text) {
			return domain.LabelDate, text + " " + tokens[end+1].Text, end + 2
		}

		return domain.LabelDate, text, end + 1
	case day && weekdayNames[strings.TrimSuffix(prev, ".")]:
		return domain.LabelDate, tokens[start-1].Text + " " + first, end
	case yearPattern.MatchString(first) && (datePrepositions[prev] || isMonthToken(tokens, start-1)):
		return domain.LabelDate, first, end
	}

	return domain.LabelCardinal, "", end
}

// isMonthToken reports whether tokens[i] names a month. "May" and "march"
// only count when capitalized.
func isMonthToken(tokens []TaggedToken, i int) bool {
	if i < 0 || i >= len(tokens) {
		return false
	}

	text := tokens[i].Text
	if text == "" || !unicode.IsUpper([]rune(text)[0]) {
		return false
	}

	return monthNames[strings.TrimSuffix(strings.ToLower(text), ".")]
}

// isMeridiem reports whether tokens[i] is "a.m.", "p.m." or a tokenizer
// variant of them such as "p.m" or "pm".
func isMeridiem(tokens []TaggedToken, i int) bool {
	return meridiemWords[strings.ReplaceAll(lowerAt(tokens, i), ".", "")]
}

func lowerAt(tokens []TaggedToken, i int) string {
	if i < 0 || i >= len(tokens) {
		return ""
	}

	return strings.ToLower(tokens[i].Text)
}

func isNumberToken(tok TaggedToken) bool {
	text := strings.ToLower(tok.Text)

	if numberPattern.MatchString(text) || numberWords[text] || gluedUnitPattern.MatchString(text) {
		return true
	}

	// prose tags some symbols and list markers as CD; require a digit or number word.
	return tok.Tag == tagCardinal && strings.ContainsAny(text, "0123456789")
}

func isScaleWord(text string) bool {
	return scaleWords[strings.ToLower(text)]
}

func tokenTexts(tokens []TaggedToken) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}

	return out
}

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}

	return set
}
