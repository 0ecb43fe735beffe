// Package damage counts the sentences of an article that report damage
// figures: counts and money amounts, excluding physical measurements such
// as wind speeds and distances.
package damage

import (
	"regexp"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	"github.com/lueurxax/news-impact-pipeline/internal/core/nlp"
)

// measurementPattern matches a number followed by a distance or speed unit.
// The unit has to end at a word boundary so "5 million" does not match "m".
var measurementPattern = regexp.MustCompile(`(?i)\d[\d,.]*[\s-]?(` +
	`miles per hour|kilometers per hour|km/h|mph|m/s|` +
	`kilometers|kilometer|kilometres|kilometre|km|` +
	`centimeters|centimeter|cm|meters|meter|metres|metre|m|` +
	`miles|mile|feet|foot|inches|inch|yards|yard` +
	`)\b`)

// IsMeasurement reports whether text contains a number with a distance or
// speed unit.
func IsMeasurement(text string) bool {
	return measurementPattern.MatchString(text)
}

// Result is the damage analysis of one article.
type Result struct {
	// Entities holds every recognized entity grouped by label.
	Entities domain.EntitySet
	// Damage lists CARDINAL and MONEY entities with their measurement flag.
	Damage []domain.DamageEntity
	// Sentences are the distinct sentences owning a qualifying entity, first-seen order.
	Sentences []string
	// Frequency is len(Sentences).
	Frequency int
}

// Detector finds damage-indicating entities.
type Detector struct {
	recognizer nlp.EntityRecognizer
}

func NewDetector(recognizer nlp.EntityRecognizer) *Detector {
	return &Detector{recognizer: recognizer}
}

// Detect runs entity recognition over text. An entity qualifies when it is
// CARDINAL or MONEY and not a measurement; each owning sentence counts once.
func (d *Detector) Detect(text string) Result {
	var res Result

	seen := make(map[string]struct{})

	for _, ent := range d.recognizer.Entities(text) {
		res.Entities.Add(ent.Label, ent.Text)

		if ent.Label != domain.LabelCardinal && ent.Label != domain.LabelMoney {
			continue
		}

		de := domain.DamageEntity{Entity: ent, IsMeasurement: IsMeasurement(ent.Text)}
		res.Damage = append(res.Damage, de)

		if de.IsMeasurement {
			continue
		}

		if _, ok := seen[ent.Sentence]; ok {
			continue
		}

		seen[ent.Sentence] = struct{}{}
		res.Sentences = append(res.Sentences, ent.Sentence)
	}

	res.Frequency = len(res.Sentences)

	return res
}

// Qualifying returns the damage entities that count toward the frequency.
func (r Result) Qualifying() []domain.DamageEntity {
	var out []domain.DamageEntity

	for _, de := range r.Damage {
		if !de.IsMeasurement {
			out = append(out, de)
		}
	}

	return out
}
