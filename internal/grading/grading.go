// Package grading implements the per-type answer grading strategies. All
// functions are pure; persistence and attempt-state checks live in the
// service layer.
package grading

import (
	"fmt"
	"strings"

	"github.com/traindesk/traindesk-backend/internal/model"
)

// Result is the outcome of grading a single answer.
type Result struct {
	IsCorrect    bool
	PointsEarned float64
}

// Grade evaluates a submitted answer against the bank question. An unknown
// question type is a programming error and is reported as such rather than
// silently graded wrong.
func Grade(q *model.Question, answer model.AnswerValue) (Result, error) {
	switch q.QuestionType {
	case model.QuestionTypeMCQ, model.QuestionTypeTrueFalse, model.QuestionTypeFillBlank:
		return gradeScalar(q, answer), nil
	case model.QuestionTypeMatching:
		return gradeMatching(q, answer), nil
	case model.QuestionTypeEssay:
		// Essays await manual grading; auto-grading never awards points.
		return Result{}, nil
	default:
		return Result{}, fmt.Errorf("unknown question type %q", q.QuestionType)
	}
}

// gradeScalar marks mcq, true/false and fill-blank answers: correct iff the
// trimmed, case-insensitive submission equals the stored answer.
func gradeScalar(q *model.Question, answer model.AnswerValue) Result {
	if answer.IsList || q.CorrectAnswer.IsList {
		return Result{}
	}
	if !equalFold(answer.Scalar, q.CorrectAnswer.Scalar) {
		return Result{}
	}
	return Result{IsCorrect: true, PointsEarned: q.Points}
}

// gradeMatching marks ordered-pair answers: every position must match the
// stored list case-insensitively, and lengths must agree. Order matters.
func gradeMatching(q *model.Question, answer model.AnswerValue) Result {
	if !answer.IsList || !q.CorrectAnswer.IsList {
		return Result{}
	}
	if len(answer.List) != len(q.CorrectAnswer.List) {
		return Result{}
	}
	for i := range answer.List {
		if !equalFold(answer.List[i], q.CorrectAnswer.List[i]) {
			return Result{}
		}
	}
	return Result{IsCorrect: true, PointsEarned: q.Points}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
