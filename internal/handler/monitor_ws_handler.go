package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/service"
	ws "github.com/traindesk/traindesk-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorWSHandler streams live proctoring events for one exam to a
// connected proctor. Events arrive over Redis PubSub from wherever the
// attempt mutation happened, so any server instance can serve the stream.
type MonitorWSHandler struct {
	rdb         *redis.Client
	examService *service.ExamService
	attempts    service.AttemptStore
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewMonitorWSHandler creates a new MonitorWSHandler.
func NewMonitorWSHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	attempts service.AttemptStore,
	log zerolog.Logger,
	allowedOrigins []string,
) *MonitorWSHandler {
	return &MonitorWSHandler{
		rdb:         rdb,
		examService: examService,
		attempts:    attempts,
		log:         log.With().Str("component", "monitor_ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// MonitorExamStream godoc
// WS /ws/v1/proctor/exams/:exam_id/monitor
// Upgrades to WebSocket and relays violation, submission, and auto-fail
// events for the exam as they happen.
func (h *MonitorWSHandler) MonitorExamStream(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}
	if _, err := h.examService.GetByID(c.Request.Context(), examID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("exam_id", examID.String()).Logger()
	wsLog.Info().Msg("Proctor connected")

	if err := h.sendSnapshot(c.Request.Context(), conn, examID); err != nil {
		wsLog.Warn().Err(err).Msg("Snapshot failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
	defer sub.Close()

	// Reader goroutine: answers pings and detects the client going away.
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Proctor disconnected")
			return
		case raw, ok := <-sub.Channel():
			if !ok {
				return
			}
			var ev service.MonitorEvent
			if err := json.Unmarshal([]byte(raw.Payload), &ev); err != nil {
				wsLog.Error().Err(err).Msg("Invalid monitor payload")
				continue
			}
			if err := ws.WriteTyped(conn, toMonitorResponse(ev)); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing stream")
				return
			}
		}
	}
}

// sendSnapshot pushes the current attempt counts so the dashboard renders
// before the first live event.
func (h *MonitorWSHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn, examID uuid.UUID) error {
	results, _, err := h.attempts.ListByExam(ctx, examID, 1, 500)
	if err != nil {
		return err
	}
	snap := ws.SnapshotResponse{Event: ws.EventSnapshot}
	for _, r := range results {
		switch r.Status {
		case model.AttemptStatusInProgress:
			snap.InProgress++
		case model.AttemptStatusCompleted:
			snap.Completed++
		case model.AttemptStatusCancelled:
			snap.Cancelled++
		}
	}
	return ws.WriteTyped(conn, snap)
}

func toMonitorResponse(ev service.MonitorEvent) ws.MonitorResponse {
	event := ws.EventViolation
	switch ev.Kind {
	case service.MonitorEventSubmitted:
		event = ws.EventSubmitted
	case service.MonitorEventAutoFail:
		event = ws.EventAutoFail
	}
	return ws.MonitorResponse{
		Event:          event,
		AttemptID:      ev.AttemptID.String(),
		UserID:         ev.UserID.String(),
		ViolationType:  ev.ViolationType,
		ViolationCount: ev.ViolationCount,
		Score:          ev.Score,
		Timestamp:      ev.Timestamp.Format(time.RFC3339),
	}
}
