package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/service"
)

// DeadlineWorker sweeps for attempts whose time limit elapsed without a
// submission and finalizes them server-side, so walking away from the
// browser never leaves an attempt open. It also flips exams onto
// published results once their schedule window closes, for exams that
// auto-publish.
type DeadlineWorker struct {
	attempts service.AttemptStore
	exams    service.ExamStore
	scoring  *service.ScoringService
	interval time.Duration
	log      zerolog.Logger
}

// NewDeadlineWorker creates a DeadlineWorker sweeping at the given interval.
func NewDeadlineWorker(
	attempts service.AttemptStore,
	exams service.ExamStore,
	scoring *service.ScoringService,
	interval time.Duration,
	log zerolog.Logger,
) *DeadlineWorker {
	return &DeadlineWorker{
		attempts: attempts,
		exams:    exams,
		scoring:  scoring,
		interval: interval,
		log:      log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start runs the sweep loop until the context is cancelled.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("DeadlineWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("DeadlineWorker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DeadlineWorker) sweep(ctx context.Context) {
	now := time.Now()

	expired, err := w.attempts.ListExpiredIDs(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("List expired attempts failed")
	} else {
		for _, id := range expired {
			if err := w.scoring.FinalizeExpired(ctx, id); err != nil {
				w.log.Error().Err(err).
					Str("attempt_id", id.String()).
					Msg("Finalize expired attempt failed")
			}
		}
		if len(expired) > 0 {
			w.log.Info().Int("count", len(expired)).Msg("Expired attempts finalized")
		}
	}

	due, err := w.exams.ListAutoPublishDue(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("List auto-publish exams failed")
		return
	}
	for _, examID := range due {
		published, err := w.exams.PublishResults(ctx, examID)
		if err != nil {
			w.log.Error().Err(err).
				Str("exam_id", examID.String()).
				Msg("Auto-publish results failed")
			continue
		}
		if published {
			w.log.Info().Str("exam_id", examID.String()).Msg("Exam results auto-published")
		}
	}
}
