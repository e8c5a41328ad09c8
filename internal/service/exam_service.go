package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// ExamService covers the exam-definition side of the session engine: the
// candidate catalog, the cached candidate-facing paper, result listings
// and the publish-results command.
type ExamService struct {
	exams       ExamStore
	questions   QuestionStore
	attempts    AttemptStore
	eligibility *EligibilityService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	exams ExamStore,
	questions QuestionStore,
	attempts AttemptStore,
	eligibility *EligibilityService,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		exams:       exams,
		questions:   questions,
		attempts:    attempts,
		eligibility: eligibility,
		rdb:         rdb,
		log:         log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam definition.
func (s *ExamService) GetByID(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// ListAvailable returns published exams annotated with the candidate's
// eligibility state: whether a new attempt can start, attempts remaining
// and any resumable IN_PROGRESS attempt.
func (s *ExamService) ListAvailable(ctx context.Context, userID uuid.UUID) ([]model.AvailableExam, error) {
	exams, err := s.exams.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published exams: %w", err)
	}

	available := make([]model.AvailableExam, 0, len(exams))
	for i := range exams {
		exam := exams[i]
		elig, err := s.eligibility.Check(ctx, &exam, userID)
		if err != nil {
			return nil, fmt.Errorf("check eligibility for exam %s: %w", exam.ID, err)
		}

		entry := model.AvailableExam{
			Exam:                exam,
			CanStart:            elig.Eligible,
			AttemptsRemaining:   elig.AttemptsRemaining,
			InProgressAttemptID: elig.InProgressAttemptID,
		}
		if elig.Reason != nil {
			entry.Reason = elig.Reason.Error()
		}
		available = append(available, entry)
	}
	return available, nil
}

// PaperQuestions returns the sanitized question pool for an exam, in
// authoring order, through a Redis cache with DB fallback and self-heal.
// Correct answers never enter this payload.
func (s *ExamService) PaperQuestions(ctx context.Context, examID uuid.UUID) ([]model.QuestionForCandidate, error) {
	key := config.CacheKey.ExamPaperKey(examID.String())

	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			var questions []model.QuestionForCandidate
			if err := json.Unmarshal([]byte(cached), &questions); err == nil {
				return questions, nil
			}
			// Corrupt cache entry: fall through and rebuild.
			s.log.Warn().Str("key", key).Msg("Discarding unreadable paper cache entry")
		} else if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("read paper cache: %w", err)
		}
	}

	bank, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}

	questions := make([]model.QuestionForCandidate, 0, len(bank))
	for i := range bank {
		questions = append(questions, bank[i].Sanitize())
	}

	if s.rdb != nil {
		payload, _ := json.Marshal(questions)
		if err := s.rdb.Set(ctx, key, payload, 0).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Paper cache write failed")
		}
	}
	return questions, nil
}

// PrewarmAllCaches loads the paper payload of every published exam into
// Redis before the server accepts traffic, avoiding a thundering herd of
// lazy loads when an exam opens.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.exams.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}
	for i := range exams {
		if _, err := s.PaperQuestions(ctx, exams[i].ID); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exams[i].ID.String()).Msg("Prewarm failed for exam")
			continue
		}
	}
	s.log.Info().Int("exams", len(exams)).Msg("Paper caches prewarmed")
	return nil
}

// PublishResults flips the exam's result visibility exactly once. Returns
// ErrResultsAlreadyPublished when a prior publication (manual or
// automatic) already happened.
func (s *ExamService) PublishResults(ctx context.Context, examID uuid.UUID) error {
	if _, err := s.GetByID(ctx, examID); err != nil {
		return err
	}
	published, err := s.exams.PublishResults(ctx, examID)
	if err != nil {
		return fmt.Errorf("publish results: %w", err)
	}
	if !published {
		return ErrResultsAlreadyPublished
	}
	s.log.Info().Str("exam_id", examID.String()).Msg("Exam results published")
	return nil
}

// Results retrieves paginated attempt results for an exam.
func (s *ExamService) Results(ctx context.Context, examID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error) {
	if _, err := s.GetByID(ctx, examID); err != nil {
		return nil, 0, err
	}
	return s.attempts.ListByExam(ctx, examID, page, perPage)
}
