package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AnswerValue is either a scalar string (mcq, true/false, fill-blank,
// essay) or an ordered list of strings (matching). It round-trips through
// JSON and jsonb columns.
type AnswerValue struct {
	Scalar string
	List   []string
	IsList bool
}

// NewScalarAnswer wraps a single-string answer.
func NewScalarAnswer(s string) AnswerValue {
	return AnswerValue{Scalar: s}
}

// NewListAnswer wraps an ordered list answer.
func NewListAnswer(items []string) AnswerValue {
	return AnswerValue{List: items, IsList: true}
}

// IsEmpty reports whether no answer content is present.
func (v AnswerValue) IsEmpty() bool {
	if v.IsList {
		return len(v.List) == 0
	}
	return v.Scalar == ""
}

// MarshalJSON encodes the value as a bare string or a string array.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.IsList {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Scalar)
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = AnswerValue{Scalar: s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = AnswerValue{List: list, IsList: true}
		return nil
	}
	return errors.New("answer must be a string or an array of strings")
}

// AnswerRecord stores one graded answer, keyed by (attempt, question).
// Saves are upserts: the latest write replaces any prior record.
type AnswerRecord struct {
	AttemptID        uuid.UUID   `json:"attempt_id"`
	QuestionID       uuid.UUID   `json:"question_id"`
	Answer           AnswerValue `json:"answer"`
	IsCorrect        bool        `json:"is_correct"`
	PointsEarned     float64     `json:"points_earned"`
	TimeSpentSeconds int         `json:"time_spent_seconds"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// SaveAnswerRequest is the payload for saving a single answer.
type SaveAnswerRequest struct {
	QuestionID       uuid.UUID   `json:"question_id" binding:"required"`
	Answer           AnswerValue `json:"answer" binding:"required"`
	TimeSpentSeconds *int        `json:"time_spent_seconds" binding:"omitempty,min=0"`
}

// BulkSaveAnswersRequest is the payload for saving a batch of answers.
type BulkSaveAnswersRequest struct {
	Answers []SaveAnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// SavedAnswer echoes a graded answer back to the candidate. CorrectAnswer
// is only populated when the exam has ShowCorrectAnswers enabled.
type SavedAnswer struct {
	QuestionID    uuid.UUID    `json:"question_id"`
	Answer        AnswerValue  `json:"answer"`
	IsCorrect     bool         `json:"is_correct"`
	PointsEarned  float64      `json:"points_earned"`
	CorrectAnswer *AnswerValue `json:"correct_answer,omitempty"`
}

// BulkSaveItemResult reports the outcome of one item inside a bulk save.
type BulkSaveItemResult struct {
	QuestionID uuid.UUID    `json:"question_id"`
	Saved      bool         `json:"saved"`
	Error      string       `json:"error,omitempty"`
	Result     *SavedAnswer `json:"result,omitempty"`
}
