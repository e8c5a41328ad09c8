package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/grading"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// AnswerService grades and persists candidate answers. Saving is
// last-write-wins per (attempt, question): resubmitting a question
// replaces the previous answer and its grade.
type AnswerService struct {
	answers   AnswerStore
	attempts  AttemptStore
	exams     ExamStore
	questions QuestionStore
	scoring   *ScoringService
	log       zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(
	answers AnswerStore,
	attempts AttemptStore,
	exams ExamStore,
	questions QuestionStore,
	scoring *ScoringService,
	log zerolog.Logger,
) *AnswerService {
	return &AnswerService{
		answers:   answers,
		attempts:  attempts,
		exams:     exams,
		questions: questions,
		scoring:   scoring,
		log:       log.With().Str("component", "answer_service").Logger(),
	}
}

// Save grades and stores a single answer for a live attempt.
func (s *AnswerService) Save(ctx context.Context, attemptID, userID uuid.UUID, req *model.SaveAnswerRequest) (*model.SavedAnswer, error) {
	attempt, exam, err := s.loadLiveAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	return s.saveOne(ctx, attempt, exam, req)
}

// SaveBulk grades and stores a batch of answers against one attempt. The
// attempt-level guards run once; per-item failures are reported in the
// result slice without aborting the rest of the batch.
func (s *AnswerService) SaveBulk(ctx context.Context, attemptID, userID uuid.UUID, req *model.BulkSaveAnswersRequest) ([]model.BulkSaveItemResult, error) {
	attempt, exam, err := s.loadLiveAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}

	results := make([]model.BulkSaveItemResult, 0, len(req.Answers))
	for i := range req.Answers {
		item := &req.Answers[i]
		saved, err := s.saveOne(ctx, attempt, exam, item)
		if err != nil {
			results = append(results, model.BulkSaveItemResult{
				QuestionID: item.QuestionID,
				Saved:      false,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, model.BulkSaveItemResult{
			QuestionID: item.QuestionID,
			Saved:      true,
			Result:     saved,
		})
	}
	return results, nil
}

// saveOne grades one answer and upserts its record. The attempt must
// already have passed the live-attempt guards.
func (s *AnswerService) saveOne(ctx context.Context, attempt *model.ExamAttempt, exam *model.Exam, req *model.SaveAnswerRequest) (*model.SavedAnswer, error) {
	if !assigned(attempt, req.QuestionID) {
		return nil, ErrQuestionNotAssigned
	}

	bank, err := s.questions.GetByIDs(ctx, []uuid.UUID{req.QuestionID})
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	question, ok := bank[req.QuestionID]
	if !ok {
		return nil, ErrQuestionNotAssigned
	}

	graded, err := grading.Grade(&question, req.Answer)
	if err != nil {
		return nil, fmt.Errorf("grade answer: %w", err)
	}

	rec := &model.AnswerRecord{
		AttemptID:    attempt.ID,
		QuestionID:   req.QuestionID,
		Answer:       req.Answer,
		IsCorrect:    graded.IsCorrect,
		PointsEarned: graded.PointsEarned,
	}
	if req.TimeSpentSeconds != nil {
		rec.TimeSpentSeconds = *req.TimeSpentSeconds
	}
	if err := s.answers.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("save answer: %w", err)
	}

	saved := &model.SavedAnswer{
		QuestionID:   req.QuestionID,
		Answer:       req.Answer,
		IsCorrect:    graded.IsCorrect,
		PointsEarned: graded.PointsEarned,
	}
	if exam.ShowCorrectAnswers {
		correct := question.CorrectAnswer
		saved.CorrectAnswer = &correct
	}
	return saved, nil
}

// loadLiveAttempt fetches an attempt and enforces the shared write guards:
// ownership, IN_PROGRESS status, and the server-side deadline. An expired
// attempt is finalized before the expiry error is returned.
func (s *AnswerService) loadLiveAttempt(ctx context.Context, attemptID, userID uuid.UUID) (*model.ExamAttempt, *model.Exam, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, nil, ErrNotAttemptOwner
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, nil, ErrAttemptNotInProgress
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}
	if attempt.RemainingSeconds(exam.DurationMinutes, time.Now()) == 0 {
		if err := s.scoring.FinalizeExpired(ctx, attempt.ID); err != nil {
			s.log.Error().Err(err).
				Str("attempt_id", attempt.ID.String()).
				Msg("Failed to finalize expired attempt")
		}
		return nil, nil, ErrAttemptExpired
	}
	return attempt, exam, nil
}

func assigned(attempt *model.ExamAttempt, questionID uuid.UUID) bool {
	for _, id := range attempt.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}
