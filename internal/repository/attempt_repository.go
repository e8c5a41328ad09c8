package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// AttemptResult joins attempt data with candidate identity for proctor
// result listings.
type AttemptResult struct {
	UserID        uuid.UUID           `json:"user_id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	AttemptNumber int                 `json:"attempt_number"`
	Status        model.AttemptStatus `json:"status"`
	Score         *float64            `json:"score"`
	Percentage    *float64            `json:"percentage"`
	StartTime     time.Time           `json:"start_time"`
	SubmittedAt   *time.Time          `json:"submitted_at"`
}

// AttemptRepository handles exam attempt data access. All state
// transitions are conditional writes so concurrent callers cannot race an
// attempt out of its invariants.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, user_id, exam_id, attempt_number, status, start_time, end_time,
	submitted_at, score, percentage, time_spent_minutes, question_ids, shuffle_seed,
	violations, violation_count`

func scanAttempt(row interface{ Scan(...any) error }) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	var questionsRaw, violationsRaw []byte
	err := row.Scan(&a.ID, &a.UserID, &a.ExamID, &a.AttemptNumber, &a.Status, &a.StartTime, &a.EndTime,
		&a.SubmittedAt, &a.Score, &a.Percentage, &a.TimeSpentMinutes, &questionsRaw, &a.ShuffleSeed,
		&violationsRaw, &a.ViolationCount)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionsRaw, &a.QuestionIDs); err != nil {
		return nil, fmt.Errorf("decode question ids: %w", err)
	}
	if err := json.Unmarshal(violationsRaw, &a.Violations); err != nil {
		return nil, fmt.Errorf("decode violations: %w", err)
	}
	return a, nil
}

// GetByID retrieves an attempt.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1`, id))
}

// GetInProgress retrieves the single IN_PROGRESS attempt for a
// (user, exam) pair, if one exists.
func (r *AttemptRepository) GetInProgress(ctx context.Context, userID, examID uuid.UUID) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE user_id = $1 AND exam_id = $2 AND status = $3`,
		userID, examID, model.AttemptStatusInProgress))
}

// CountByStatus counts a candidate's attempts at an exam with the given status.
func (r *AttemptRepository) CountByStatus(ctx context.Context, userID, examID uuid.UUID, status model.AttemptStatus) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts
		 WHERE user_id = $1 AND exam_id = $2 AND status = $3`,
		userID, examID, status).Scan(&n)
	return n, err
}

// CountAll counts every attempt a candidate has made at an exam.
func (r *AttemptRepository) CountAll(ctx context.Context, userID, examID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE user_id = $1 AND exam_id = $2`,
		userID, examID).Scan(&n)
	return n, err
}

// Create inserts a new IN_PROGRESS attempt. A partial unique index on
// (user_id, exam_id) WHERE status = 'IN_PROGRESS' backs the conflict
// target, so of two concurrent creates exactly one row wins; the loser
// receives pgx.ErrNoRows and should fetch the winner's row.
func (r *AttemptRepository) Create(ctx context.Context, a *model.ExamAttempt) error {
	questionsRaw, err := json.Marshal(a.QuestionIDs)
	if err != nil {
		return fmt.Errorf("encode question ids: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_attempts
		   (user_id, exam_id, attempt_number, status, question_ids, shuffle_seed, violations, violation_count)
		 VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb, 0)
		 ON CONFLICT (user_id, exam_id) WHERE status = 'IN_PROGRESS' DO NOTHING
		 RETURNING id, start_time`,
		a.UserID, a.ExamID, a.AttemptNumber, model.AttemptStatusInProgress, questionsRaw, a.ShuffleSeed,
	).Scan(&a.ID, &a.StartTime)
}

// RecordViolation appends one violation and increments the counter in a
// single statement. When the incremented count reaches threshold the same
// statement cancels the attempt with zeroed score, so bursts of
// near-simultaneous reports can neither under-count nor double-cancel.
// Returns pgx.ErrNoRows when the attempt is not IN_PROGRESS.
func (r *AttemptRepository) RecordViolation(ctx context.Context, attemptID uuid.UUID, v model.Violation, threshold int) (int, model.AttemptStatus, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, "", fmt.Errorf("encode violation: %w", err)
	}

	var count int
	var status model.AttemptStatus
	err = r.pool.QueryRow(ctx,
		`UPDATE exam_attempts
		 SET violations = violations || $2::jsonb,
		     violation_count = violation_count + 1,
		     status = CASE WHEN violation_count + 1 >= $3 THEN 'CANCELLED' ELSE status END,
		     score = CASE WHEN violation_count + 1 >= $3 THEN 0 ELSE score END,
		     percentage = CASE WHEN violation_count + 1 >= $3 THEN 0 ELSE percentage END,
		     submitted_at = CASE WHEN violation_count + 1 >= $3 THEN NOW() ELSE submitted_at END,
		     end_time = CASE WHEN violation_count + 1 >= $3 THEN NOW() ELSE end_time END
		 WHERE id = $1 AND status = 'IN_PROGRESS'
		 RETURNING violation_count, status`,
		attemptID, raw, threshold,
	).Scan(&count, &status)
	if err != nil {
		return 0, "", err
	}
	return count, status, nil
}

// Complete transitions an IN_PROGRESS attempt to COMPLETED with its final
// score. The status guard makes the terminal transition happen at most
// once regardless of how many submit paths (candidate, deadline sweep)
// race for it. Returns pgx.ErrNoRows if the attempt was not IN_PROGRESS.
func (r *AttemptRepository) Complete(ctx context.Context, attemptID uuid.UUID, score, percentage float64, timeSpentMinutes int) (*model.ExamAttempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`UPDATE exam_attempts
		 SET status = $2, score = $3, percentage = $4, time_spent_minutes = $5,
		     submitted_at = NOW(), end_time = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS'
		 RETURNING `+attemptColumns,
		attemptID, model.AttemptStatusCompleted, score, percentage, timeSpentMinutes))
}

// ListExpiredIDs returns IN_PROGRESS attempts whose time limit has elapsed
// as of now. The deadline worker finalizes these through the scoring path.
func (r *AttemptRepository) ListExpiredIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id
		 FROM exam_attempts a
		 JOIN exams e ON e.id = a.exam_id
		 WHERE a.status = $1
		   AND a.start_time + make_interval(mins => e.duration_minutes) <= $2`,
		model.AttemptStatusInProgress, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByExam retrieves attempt results for an exam with pagination, most
// recent first.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]AttemptResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1`, examID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.user_id, u.name, u.email, a.attempt_number, a.status,
		        a.score, a.percentage, a.start_time, a.submitted_at
		 FROM exam_attempts a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.exam_id = $1
		 ORDER BY a.start_time DESC
		 LIMIT $2 OFFSET $3`, examID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptResult
	for rows.Next() {
		var res AttemptResult
		if err := rows.Scan(&res.UserID, &res.Name, &res.Email, &res.AttemptNumber, &res.Status,
			&res.Score, &res.Percentage, &res.StartTime, &res.SubmittedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}
