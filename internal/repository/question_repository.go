package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// QuestionRepository reads the question bank. The bank is immutable while
// attempts reference it; this service never writes questions.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row interface{ Scan(...any) error }) (*model.Question, error) {
	q := &model.Question{}
	var correctRaw []byte
	err := row.Scan(&q.ID, &q.QuestionText, &q.QuestionType, &q.Options, &correctRaw, &q.Points, &q.Difficulty)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(correctRaw, &q.CorrectAnswer); err != nil {
		return nil, fmt.Errorf("decode correct answer for question %s: %w", q.ID, err)
	}
	return q, nil
}

// ListByExam retrieves an exam's question pool in authoring order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.question_text, q.question_type, q.options, q.correct_answer, q.points, q.difficulty
		 FROM exam_questions eq
		 JOIN questions q ON q.id = eq.question_id
		 WHERE eq.exam_id = $1
		 ORDER BY eq.position`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// GetByIDs retrieves questions keyed by ID. Callers preserve their own
// ordering from the attempt's frozen list.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, question_text, question_type, options, correct_answer, points, difficulty
		 FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make(map[uuid.UUID]model.Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions[q.ID] = *q
	}
	return questions, rows.Err()
}
