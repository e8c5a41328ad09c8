package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// ScoringService finalizes attempts: it totals the graded answers, writes
// the score through a compare-and-set completion, and triggers result
// publication when the exam auto-publishes.
type ScoringService struct {
	attempts  AttemptStore
	answers   AnswerStore
	exams     ExamStore
	questions QuestionStore
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewScoringService creates a new ScoringService.
func NewScoringService(
	attempts AttemptStore,
	answers AnswerStore,
	exams ExamStore,
	questions QuestionStore,
	rdb *redis.Client,
	log zerolog.Logger,
) *ScoringService {
	return &ScoringService{
		attempts:  attempts,
		answers:   answers,
		exams:     exams,
		questions: questions,
		rdb:       rdb,
		log:       log.With().Str("component", "scoring_service").Logger(),
	}
}

// Submit finalizes the candidate's own attempt. Submitting an attempt that
// has already reached a terminal state is rejected; the recorded outcome
// never changes after the first transition.
func (s *ScoringService) Submit(ctx context.Context, attemptID, userID uuid.UUID) (*model.AttemptSummary, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, ErrNotAttemptOwner
	}
	if attempt.Status.Terminal() {
		return nil, ErrAttemptNotInProgress
	}
	return s.finalize(ctx, attempt)
}

// FinalizeExpired closes an attempt whose deadline passed without a
// submission. The saved answers up to that point are scored as-is. Called
// from the deadline sweep and from the on-interaction expiry checks; losing
// the completion race to another finalizer is not an error.
func (s *ScoringService) FinalizeExpired(ctx context.Context, attemptID uuid.UUID) error {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status.Terminal() {
		return nil
	}
	if _, err := s.finalize(ctx, attempt); err != nil {
		if errors.Is(err, ErrAttemptNotInProgress) {
			return nil
		}
		return err
	}
	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Msg("Expired attempt finalized")
	return nil
}

// finalize totals the attempt's answers and completes it. The completion is
// a conditional UPDATE on IN_PROGRESS, so exactly one finalizer wins when a
// submit races with the deadline sweep.
func (s *ScoringService) finalize(ctx context.Context, attempt *model.ExamAttempt) (*model.AttemptSummary, error) {
	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	answers, err := s.answers.ListByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	bank, err := s.questions.GetByIDs(ctx, attempt.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load assigned questions: %w", err)
	}

	var score, maxPoints float64
	for _, id := range attempt.QuestionIDs {
		if q, ok := bank[id]; ok {
			maxPoints += q.Points
		}
	}
	for _, a := range answers {
		if a.IsCorrect {
			score += a.PointsEarned
		}
	}

	percentage := 0.0
	if maxPoints > 0 {
		percentage = 100 * score / maxPoints
	}
	timeSpent := int(math.Round(time.Since(attempt.StartTime).Minutes()))
	if deadline := attempt.Deadline(exam.DurationMinutes); time.Now().After(deadline) {
		timeSpent = exam.DurationMinutes
	}

	completed, err := s.attempts.Complete(ctx, attempt.ID, score, percentage, timeSpent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotInProgress
		}
		return nil, fmt.Errorf("complete attempt: %w", err)
	}

	if exam.AutoPublishResults {
		if _, err := s.exams.PublishResults(ctx, exam.ID); err != nil {
			s.log.Error().Err(err).
				Str("exam_id", exam.ID.String()).
				Msg("Auto-publish after completion failed")
		}
	}

	publishMonitorEvent(ctx, s.rdb, s.log, MonitorEvent{
		Kind:      MonitorEventSubmitted,
		ExamID:    exam.ID,
		AttemptID: completed.ID,
		UserID:    completed.UserID,
		Score:     completed.Score,
		Timestamp: time.Now().UTC(),
	})

	summary := completed.Summary()
	return &summary, nil
}
