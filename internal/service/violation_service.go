package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// ViolationAutoFailThreshold is the violation count at which an attempt is
// cancelled with a zero score.
const ViolationAutoFailThreshold = 5

// ViolationService records proctoring integrity events against live
// attempts. Counting and the auto-fail transition happen in a single
// conditional UPDATE, so concurrent reports from the same candidate never
// lose increments or cancel twice.
type ViolationService struct {
	attempts AttemptStore
	exams    ExamStore
	scoring  *ScoringService
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewViolationService creates a new ViolationService.
func NewViolationService(
	attempts AttemptStore,
	exams ExamStore,
	scoring *ScoringService,
	rdb *redis.Client,
	log zerolog.Logger,
) *ViolationService {
	return &ViolationService{
		attempts: attempts,
		exams:    exams,
		scoring:  scoring,
		rdb:      rdb,
		log:      log.With().Str("component", "violation_service").Logger(),
	}
}

// Record appends an integrity event to the attempt's violation log and
// returns the updated count. Reaching the threshold cancels the attempt
// with score zero in the same statement.
func (s *ViolationService) Record(ctx context.Context, attemptID, userID uuid.UUID, vtype string) (*model.ViolationOutcome, error) {
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
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, ErrAttemptNotInProgress
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if attempt.RemainingSeconds(exam.DurationMinutes, time.Now()) == 0 {
		if err := s.scoring.FinalizeExpired(ctx, attempt.ID); err != nil {
			s.log.Error().Err(err).
				Str("attempt_id", attempt.ID.String()).
				Msg("Failed to finalize expired attempt")
		}
		return nil, ErrAttemptExpired
	}

	violation := model.Violation{Type: vtype, Timestamp: time.Now().UTC()}
	count, status, err := s.attempts.RecordViolation(ctx, attemptID, violation, ViolationAutoFailThreshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The attempt left IN_PROGRESS between our read and the write.
			return nil, ErrAttemptNotInProgress
		}
		return nil, fmt.Errorf("record violation: %w", err)
	}

	outcome := &model.ViolationOutcome{
		ViolationCount: count,
		AutoFailed:     status == model.AttemptStatusCancelled,
	}

	kind := MonitorEventViolation
	if outcome.AutoFailed {
		kind = MonitorEventAutoFail
		s.log.Warn().
			Str("attempt_id", attemptID.String()).
			Str("user_id", userID.String()).
			Int("violation_count", count).
			Msg("Attempt auto-failed on violation threshold")
	}
	publishMonitorEvent(ctx, s.rdb, s.log, MonitorEvent{
		Kind:           kind,
		ExamID:         attempt.ExamID,
		AttemptID:      attemptID,
		UserID:         userID,
		ViolationType:  vtype,
		ViolationCount: count,
		Timestamp:      violation.Timestamp,
	})

	return outcome, nil
}
