package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────
//
// The monitor stream is read-mostly: proctors receive events, the only
// client-initiated traffic is keepalive.

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSnapshot  Event = "snapshot"
	EventViolation Event = "violation"
	EventSubmitted Event = "submitted"
	EventAutoFail  Event = "auto_fail"
	EventPong      Event = "pong"
)

// SnapshotResponse is sent once on connect with the current attempt counts
// so the proctor dashboard can render before live events arrive.
type SnapshotResponse struct {
	Event      Event `json:"event"`
	InProgress int   `json:"in_progress"`
	Completed  int   `json:"completed"`
	Cancelled  int   `json:"cancelled"`
}

// MonitorResponse relays one live proctoring event.
type MonitorResponse struct {
	Event          Event    `json:"event"`
	AttemptID      string   `json:"attempt_id"`
	UserID         string   `json:"user_id"`
	ViolationType  string   `json:"violation_type,omitempty"`
	ViolationCount int      `json:"violation_count,omitempty"`
	Score          *float64 `json:"score,omitempty"`
	Timestamp      string   `json:"timestamp"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
