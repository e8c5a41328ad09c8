package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

const examColumns = `id, title, duration_minutes, total_questions, questions_per_student,
	shuffle_questions, passing_score, max_attempts, status, scheduled_start, expiration_date,
	show_correct_answers, show_detailed_feedback, auto_publish_results, results_published,
	course_id, class_ids, require_min_attendance, min_attendance_pct, created_at, updated_at`

// ExamRepository reads exam definitions. Authoring CRUD lives in another
// service; the only writes here are the result-publication flags.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row interface{ Scan(...any) error }) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.TotalQuestions, &e.QuestionsPerStudent,
		&e.ShuffleQuestions, &e.PassingScore, &e.MaxAttempts, &e.Status, &e.ScheduledStart, &e.ExpirationDate,
		&e.ShowCorrectAnswers, &e.ShowDetailedFeedback, &e.AutoPublishResults, &e.ResultsPublished,
		&e.CourseID, &e.ClassIDs, &e.RequireMinimumAttendance, &e.MinimumAttendancePercentage,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
}

// ListPublished returns all exams with PUBLISHED status, newest first.
// Used for the candidate catalog and for cache prewarming at startup.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams WHERE status = $1
		 ORDER BY created_at DESC`, model.ExamStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

// PublishResults flips show_correct_answers exactly once. Returns false if
// results were already published, so the flip never repeats per exam.
func (r *ExamRepository) PublishResults(ctx context.Context, examID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET show_correct_answers = TRUE, results_published = TRUE, updated_at = NOW()
		 WHERE id = $1 AND results_published = FALSE`, examID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListAutoPublishDue returns exams whose results should be auto-published:
// auto_publish_results set, not yet published, and past their expiration.
func (r *ExamRepository) ListAutoPublishDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM exams
		 WHERE auto_publish_results = TRUE
		   AND results_published = FALSE
		   AND expiration_date IS NOT NULL
		   AND expiration_date <= $1`, now)
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
