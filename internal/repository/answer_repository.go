package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// AnswerRepository handles graded answer records. One row per
// (attempt, question); saves are upserts with last-write-wins semantics.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert writes an answer record, replacing any prior answer and grade for
// the same question. No history is retained.
func (r *AnswerRepository) Upsert(ctx context.Context, rec *model.AnswerRecord) error {
	answerRaw, err := json.Marshal(rec.Answer)
	if err != nil {
		return fmt.Errorf("encode answer: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO answer_records (attempt_id, question_id, answer, is_correct, points_earned, time_spent_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (attempt_id, question_id) DO UPDATE
		 SET answer = EXCLUDED.answer,
		     is_correct = EXCLUDED.is_correct,
		     points_earned = EXCLUDED.points_earned,
		     time_spent_seconds = EXCLUDED.time_spent_seconds,
		     updated_at = NOW()`,
		rec.AttemptID, rec.QuestionID, answerRaw, rec.IsCorrect, rec.PointsEarned, rec.TimeSpentSeconds)
	return err
}

// ListByAttempt retrieves every answer record for an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_id, question_id, answer, is_correct, points_earned, time_spent_seconds, updated_at
		 FROM answer_records WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		var rec model.AnswerRecord
		var answerRaw []byte
		if err := rows.Scan(&rec.AttemptID, &rec.QuestionID, &answerRaw, &rec.IsCorrect,
			&rec.PointsEarned, &rec.TimeSpentSeconds, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answerRaw, &rec.Answer); err != nil {
			return nil, fmt.Errorf("decode answer for question %s: %w", rec.QuestionID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
