package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates exam attempt states. NOT_STARTED exists only
// transiently; persisted attempts begin life IN_PROGRESS.
type AttemptStatus string

const (
	AttemptStatusNotStarted AttemptStatus = "NOT_STARTED"
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusCancelled  AttemptStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusCompleted || s == AttemptStatusCancelled
}

// Violation is a single recorded integrity event.
type Violation struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// ExamAttempt is one candidate's run through an exam. The question list is
// frozen at start and never changes, even if the exam's pool is edited
// afterwards.
type ExamAttempt struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	ExamID        uuid.UUID     `json:"exam_id"`
	AttemptNumber int           `json:"attempt_number"`
	Status        AttemptStatus `json:"status"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       *time.Time    `json:"end_time,omitempty"`
	SubmittedAt   *time.Time    `json:"submitted_at,omitempty"`

	Score            *float64 `json:"score,omitempty"`
	Percentage       *float64 `json:"percentage,omitempty"`
	TimeSpentMinutes *int     `json:"time_spent_minutes,omitempty"`

	// QuestionIDs is the frozen ordered assignment. ShuffleSeed records the
	// randomization seed so the assignment is auditable.
	QuestionIDs []uuid.UUID `json:"question_ids"`
	ShuffleSeed int64       `json:"shuffle_seed"`

	Violations     []Violation `json:"violations"`
	ViolationCount int         `json:"violation_count"`
}

// Deadline returns the instant at which the attempt's time limit elapses.
func (a *ExamAttempt) Deadline(durationMinutes int) time.Time {
	return a.StartTime.Add(time.Duration(durationMinutes) * time.Minute)
}

// RemainingSeconds derives the time left from the persisted start time, so
// a reconnecting client always recomputes the same deadline.
func (a *ExamAttempt) RemainingSeconds(durationMinutes int, now time.Time) int64 {
	remaining := int64(a.Deadline(durationMinutes).Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordViolationRequest is the payload for reporting an integrity event.
type RecordViolationRequest struct {
	Type string `json:"type" binding:"required,min=1,max=64"`
}

// ViolationOutcome is the response to a recorded violation.
type ViolationOutcome struct {
	ViolationCount int  `json:"violation_count"`
	AutoFailed     bool `json:"auto_failed"`
}

// AttemptSummary is the candidate-facing view of an attempt's state.
type AttemptSummary struct {
	ID               uuid.UUID     `json:"id"`
	ExamID           uuid.UUID     `json:"exam_id"`
	AttemptNumber    int           `json:"attempt_number"`
	Status           AttemptStatus `json:"status"`
	StartTime        time.Time     `json:"start_time"`
	SubmittedAt      *time.Time    `json:"submitted_at,omitempty"`
	Score            *float64      `json:"score,omitempty"`
	Percentage       *float64      `json:"percentage,omitempty"`
	TimeSpentMinutes *int          `json:"time_spent_minutes,omitempty"`
	ViolationCount   int           `json:"violation_count"`
}

// Summary projects the attempt into its candidate-facing form.
func (a *ExamAttempt) Summary() AttemptSummary {
	return AttemptSummary{
		ID:               a.ID,
		ExamID:           a.ExamID,
		AttemptNumber:    a.AttemptNumber,
		Status:           a.Status,
		StartTime:        a.StartTime,
		SubmittedAt:      a.SubmittedAt,
		Score:            a.Score,
		Percentage:       a.Percentage,
		TimeSpentMinutes: a.TimeSpentMinutes,
		ViolationCount:   a.ViolationCount,
	}
}
