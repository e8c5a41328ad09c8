package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// PaperSource supplies the candidate-safe question set for an exam.
// ExamService implements it on top of the Redis paper cache.
type PaperSource interface {
	PaperQuestions(ctx context.Context, examID uuid.UUID) ([]model.QuestionForCandidate, error)
}

// SessionService is the attempt state machine: it creates and resumes
// attempts and freezes each candidate's question assignment.
type SessionService struct {
	attempts    AttemptStore
	exams       ExamStore
	questions   QuestionStore
	papers      PaperSource
	eligibility *EligibilityService
	scoring     *ScoringService
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	attempts AttemptStore,
	exams ExamStore,
	questions QuestionStore,
	papers PaperSource,
	eligibility *EligibilityService,
	scoring *ScoringService,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		attempts:    attempts,
		exams:       exams,
		questions:   questions,
		papers:      papers,
		eligibility: eligibility,
		scoring:     scoring,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// StartOrResume returns the candidate's live attempt for an exam,
// creating one if none exists. The call is idempotent: an existing
// IN_PROGRESS attempt is returned unchanged with its frozen question
// list; no re-randomization ever happens on resume.
func (s *SessionService) StartOrResume(ctx context.Context, examID, userID uuid.UUID) (*model.ExamPaper, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	existing, err := s.attempts.GetInProgress(ctx, userID, examID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find in-progress attempt: %w", err)
	}
	if existing != nil {
		// Deadline check on interaction: a stale attempt is finalized
		// through the scoring path before anything else happens.
		if existing.RemainingSeconds(exam.DurationMinutes, time.Now()) == 0 {
			if err := s.scoring.FinalizeExpired(ctx, existing.ID); err != nil {
				return nil, fmt.Errorf("finalize expired attempt: %w", err)
			}
		} else {
			return s.buildPaper(ctx, exam, existing)
		}
	}

	elig, err := s.eligibility.Check(ctx, exam, userID)
	if err != nil {
		return nil, err
	}
	if !elig.Eligible {
		return nil, elig.Reason
	}

	bank, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list exam questions: %w", err)
	}
	if len(bank) == 0 {
		return nil, ErrNoQuestions
	}

	total, err := s.attempts.CountAll(ctx, userID, examID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}

	seed := time.Now().UnixNano()
	attempt := &model.ExamAttempt{
		UserID:        userID,
		ExamID:        examID,
		AttemptNumber: total + 1,
		Status:        model.AttemptStatusInProgress,
		QuestionIDs:   assignQuestions(exam, bank, seed),
		ShuffleSeed:   seed,
		Violations:    []model.Violation{},
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent start won the conditional insert. Return its
			// attempt so both callers observe the same assignment.
			winner, fetchErr := s.attempts.GetInProgress(ctx, userID, examID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent start detected, fetch failed: %w", fetchErr)
			}
			return s.buildPaper(ctx, exam, winner)
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("user_id", userID.String()).
		Int("attempt_number", attempt.AttemptNumber).
		Int("questions", len(attempt.QuestionIDs)).
		Msg("Attempt started")

	return s.buildPaper(ctx, exam, attempt)
}

// GetAttempt returns the summary of an attempt. Candidates may only read
// their own attempts.
func (s *SessionService) GetAttempt(ctx context.Context, attemptID, userID uuid.UUID) (*model.AttemptSummary, error) {
	attempt, err := s.loadOwnedAttempt(ctx, attemptID, userID)
	if err != nil {
		return nil, err
	}
	summary := attempt.Summary()
	return &summary, nil
}

// loadOwnedAttempt fetches an attempt and enforces ownership.
func (s *SessionService) loadOwnedAttempt(ctx context.Context, attemptID, userID uuid.UUID) (*model.ExamAttempt, error) {
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
	return attempt, nil
}

// assignQuestions freezes the candidate's question assignment:
//   - a random subset of questionsPerStudent when that is a strict subset
//     of the pool;
//   - a full-pool permutation when the exam shuffles;
//   - authoring order otherwise.
//
// Randomization is a seeded Fisher-Yates permutation so the recorded seed
// reproduces the assignment exactly.
func assignQuestions(exam *model.Exam, bank []model.Question, seed int64) []uuid.UUID {
	ids := make([]uuid.UUID, len(bank))
	for i := range bank {
		ids[i] = bank[i].ID
	}

	subset := exam.QuestionsPerStudent > 0 && exam.QuestionsPerStudent < len(ids)
	if !subset && !exam.ShuffleQuestions {
		return ids
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>32))
	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	if subset {
		return ids[:exam.QuestionsPerStudent]
	}
	return ids
}

// buildPaper renders the attempt for the candidate: the frozen question
// list in order, stripped of correct answers, plus derived remaining time.
// Questions come from the cached paper set; anything removed from the pool
// after the freeze is backfilled straight from the bank so the assignment
// stays renderable.
func (s *SessionService) buildPaper(ctx context.Context, exam *model.Exam, attempt *model.ExamAttempt) (*model.ExamPaper, error) {
	cached, err := s.papers.PaperQuestions(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("load paper questions: %w", err)
	}
	byID := make(map[uuid.UUID]model.QuestionForCandidate, len(cached))
	for _, q := range cached {
		byID[q.ID] = q
	}

	var missing []uuid.UUID
	for _, qid := range attempt.QuestionIDs {
		if _, ok := byID[qid]; !ok {
			missing = append(missing, qid)
		}
	}
	if len(missing) > 0 {
		bank, err := s.questions.GetByIDs(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("load assigned questions: %w", err)
		}
		for id, q := range bank {
			byID[id] = q.Sanitize()
		}
	}

	questions := make([]model.QuestionForCandidate, 0, len(attempt.QuestionIDs))
	for _, qid := range attempt.QuestionIDs {
		q, ok := byID[qid]
		if !ok {
			return nil, fmt.Errorf("assigned question %s missing from bank", qid)
		}
		questions = append(questions, q)
	}

	return &model.ExamPaper{
		AttemptID:        attempt.ID,
		ExamID:           exam.ID,
		Title:            exam.Title,
		DurationMinutes:  exam.DurationMinutes,
		AttemptNumber:    attempt.AttemptNumber,
		StartTime:        attempt.StartTime,
		RemainingSeconds: attempt.RemainingSeconds(exam.DurationMinutes, time.Now()),
		Questions:        questions,
	}, nil
}
