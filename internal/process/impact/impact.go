// Package impact fuses sentiment and damage signals into one bounded score
// per article and ranks articles by it.
package impact

import (
	"fmt"
	"sort"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
	pipelineerrors "github.com/lueurxax/news-impact-pipeline/internal/core/errors"
)

// DefaultDamageCap is the damage frequency at which the damage term saturates.
const DefaultDamageCap = 20

// Scorer computes impact scores.
type Scorer struct {
	DamageCap int
}

func NewScorer(damageCap int) *Scorer {
	if damageCap <= 0 {
		damageCap = DefaultDamageCap
	}

	return &Scorer{DamageCap: damageCap}
}

// Score combines the sentiment profile and damage frequency of an article:
//
//	normPol = (polarity + 1) / 2
//	normDam = min(freq, cap) / cap
//	score   = (normPol + normDam + negative) / 3
//
// Inputs are clamped to their ranges first, so the score is always in [0, 1].
func (s *Scorer) Score(title, source string, profile domain.SentimentProfile, damageFrequency int) domain.ImpactScore {
	damageCap := s.DamageCap
	if damageCap <= 0 {
		damageCap = DefaultDamageCap
	}

	normPol := (clamp(profile.Polarity, -1, 1) + 1) / 2
	normDam := float64(min(max(damageFrequency, 0), damageCap)) / float64(damageCap)
	neg := clamp(profile.Negative, 0, 1)

	return domain.ImpactScore{
		Title:              title,
		Source:             source,
		Negative:           profile.Negative,
		Neutral:            profile.Neutral,
		Positive:           profile.Positive,
		Polarity:           profile.Polarity,
		DamageFrequency:    damageFrequency,
		NormalizedPolarity: normPol,
		NormalizedDamage:   normDam,
		Score:              (normPol + normDam + neg) / 3,
	}
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// SortKey selects the ranking column.
type SortKey string

const (
	SortImpact   SortKey = "impact_score"
	SortPolarity SortKey = "sentiment_polarity"
)

// ParseSortKey validates a sort key name. Empty means SortImpact.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortImpact, "":
		return SortImpact, nil
	case SortPolarity:
		return SortPolarity, nil
	default:
		return "", fmt.Errorf("%w: sort key %q", pipelineerrors.ErrInvalidInput, s)
	}
}

// Rank returns a copy of scores sorted ascending by key. Equal keys keep
// their input order.
func Rank(scores []domain.ImpactScore, key SortKey) []domain.ImpactScore {
	out := make([]domain.ImpactScore, len(scores))
	copy(out, scores)

	value := func(s domain.ImpactScore) float64 { return s.Score }
	if key == SortPolarity {
		value = func(s domain.ImpactScore) float64 { return s.Polarity }
	}

	sort.SliceStable(out, func(i, j int) bool {
		return value(out[i]) < value(out[j])
	})

	return out
}
