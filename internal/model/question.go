package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType is the closed set of supported question variants.
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "MCQ"
	QuestionTypeTrueFalse QuestionType = "TRUE_FALSE"
	QuestionTypeFillBlank QuestionType = "FILL_BLANK"
	QuestionTypeMatching  QuestionType = "MATCHING"
	QuestionTypeEssay     QuestionType = "ESSAY"
)

// Question represents a question bank entry. Immutable while any attempt
// references it.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	QuestionText  string          `json:"question_text"`
	QuestionType  QuestionType    `json:"question_type"`
	Options       json.RawMessage `json:"options,omitempty"`
	CorrectAnswer AnswerValue     `json:"correct_answer"`
	Points        float64         `json:"points"`
	Difficulty    string          `json:"difficulty,omitempty"`
}

// QuestionForCandidate is a question stripped of its correct answer, sent
// to candidates alongside the paper.
type QuestionForCandidate struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	QuestionType QuestionType    `json:"question_type"`
	Options      json.RawMessage `json:"options,omitempty"`
	Points       float64         `json:"points"`
	Difficulty   string          `json:"difficulty,omitempty"`
}

// Sanitize converts a bank question into its candidate-facing form.
func (q *Question) Sanitize() QuestionForCandidate {
	return QuestionForCandidate{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
		Points:       q.Points,
		Difficulty:   q.Difficulty,
	}
}
