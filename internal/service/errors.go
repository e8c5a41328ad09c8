package service

import "errors"

// Business rule errors. Handlers map these to typed response codes; none
// are retried internally.
var (
	ErrExamNotFound            = errors.New("exam not found")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrNotAttemptOwner         = errors.New("attempt belongs to another candidate")
	ErrExamNotPublished        = errors.New("exam is not published")
	ErrExamNotOpen             = errors.New("exam is outside its scheduled window")
	ErrNotEnrolled             = errors.New("candidate is not enrolled for this exam")
	ErrAttendanceBelowMinimum  = errors.New("attendance is below the required minimum")
	ErrMaxAttemptsReached      = errors.New("maximum attempts reached")
	ErrAttemptNotInProgress    = errors.New("attempt is not in progress")
	ErrQuestionNotAssigned     = errors.New("question is not part of the assigned set")
	ErrAttemptExpired          = errors.New("attempt time limit has elapsed")
	ErrNoQuestions             = errors.New("exam has no questions")
	ErrResultsAlreadyPublished = errors.New("results already published")
)
