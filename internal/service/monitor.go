package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/config"
)

// Monitor event kinds published on the exam monitor channel.
const (
	MonitorEventViolation = "violation"
	MonitorEventSubmitted = "submitted"
	MonitorEventAutoFail  = "auto_fail"
)

// MonitorEvent is a live proctoring event relayed to monitor streams via
// Redis PubSub. Delivery is best effort; the system of record stays in
// PostgreSQL.
type MonitorEvent struct {
	Kind           string    `json:"kind"`
	ExamID         uuid.UUID `json:"exam_id"`
	AttemptID      uuid.UUID `json:"attempt_id"`
	UserID         uuid.UUID `json:"user_id"`
	ViolationType  string    `json:"violation_type,omitempty"`
	ViolationCount int       `json:"violation_count,omitempty"`
	Score          *float64  `json:"score,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// publishMonitorEvent fans a proctoring event out to subscribers. A nil
// client (unit tests) or a publish failure never fails the caller.
func publishMonitorEvent(ctx context.Context, rdb *redis.Client, log zerolog.Logger, ev MonitorEvent) {
	if rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Marshal monitor event")
		return
	}
	channel := config.CacheKey.ExamMonitorChannel(ev.ExamID.String())
	if err := rdb.Publish(ctx, channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("Publish monitor event failed")
	}
}
