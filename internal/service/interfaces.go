package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// Narrow store interfaces consumed by the services. The pgx repositories
// satisfy them in production; tests substitute in-memory fakes.

// ExamStore provides exam definition access.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListPublished(ctx context.Context) ([]model.Exam, error)
	PublishResults(ctx context.Context, examID uuid.UUID) (bool, error)
	ListAutoPublishDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// QuestionStore provides question bank access.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Question, error)
}

// AttemptStore provides exam attempt access with conditional-write
// transition semantics (see repository.AttemptRepository).
type AttemptStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamAttempt, error)
	GetInProgress(ctx context.Context, userID, examID uuid.UUID) (*model.ExamAttempt, error)
	CountByStatus(ctx context.Context, userID, examID uuid.UUID, status model.AttemptStatus) (int, error)
	CountAll(ctx context.Context, userID, examID uuid.UUID) (int, error)
	Create(ctx context.Context, a *model.ExamAttempt) error
	RecordViolation(ctx context.Context, attemptID uuid.UUID, v model.Violation, threshold int) (int, model.AttemptStatus, error)
	Complete(ctx context.Context, attemptID uuid.UUID, score, percentage float64, timeSpentMinutes int) (*model.ExamAttempt, error)
	ListExpiredIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error)
}

// AnswerStore provides graded answer record access.
type AnswerStore interface {
	Upsert(ctx context.Context, rec *model.AnswerRecord) error
	ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.AnswerRecord, error)
}

// EnrollmentStore provides eligibility inputs owned by the enrollment
// service.
type EnrollmentStore interface {
	HasActiveEnrollment(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID, classIDs []uuid.UUID) (bool, error)
	HasAnyActiveEnrollment(ctx context.Context, userID uuid.UUID) (bool, error)
	ListEnrolledClassIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// AttendanceStore provides attendance aggregates owned by the attendance
// service.
type AttendanceStore interface {
	Summarize(ctx context.Context, userID uuid.UUID, classIDs []uuid.UUID) (model.AttendanceSummary, error)
}
