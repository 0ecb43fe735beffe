package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/news-impact-pipeline/internal/core/domain"
)

const insertScoredArticle = `
INSERT INTO scored_articles (
	run_id, rank, article_title, source,
	neg_emo_intensity, neu_emo_intensity, pos_emo_intensity,
	sentiment_polarity, damage_frequency, impact_score
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// SaveScores inserts ranked scores of one run in a single batch. rank is the
// 1-based position in the ranking.
func (db *DB) SaveScores(ctx context.Context, runID string, scores []domain.ImpactScore) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("parse run id %q: %w", runID, err)
	}

	batch := &pgx.Batch{}
	for i, s := range scores {
		batch.Queue(insertScoredArticle,
			id, i+1, s.Title, s.Source,
			s.Negative, s.Neutral, s.Positive,
			s.Polarity, s.DamageFrequency, s.Score,
		)
	}

	if err := db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert scored articles: %w", err)
	}

	db.Logger.Debug().Str("run_id", runID).Int("count", len(scores)).Msg("Saved scores to database")

	return nil
}

