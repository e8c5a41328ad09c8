package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam definition.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusOngoing   ExamStatus = "ONGOING"
	ExamStatusCompleted ExamStatus = "COMPLETED"
	ExamStatusCancelled ExamStatus = "CANCELLED"
)

// Exam represents an exam definition. Authoring owns these rows; the
// session engine reads them and only ever flips the result-publication
// flags.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	TotalQuestions  int        `json:"total_questions"`
	// QuestionsPerStudent is the size of the random subset assigned to each
	// candidate. Zero means every candidate gets the full question list.
	QuestionsPerStudent int        `json:"questions_per_student"`
	ShuffleQuestions    bool       `json:"shuffle_questions"`
	PassingScore        float64    `json:"passing_score"`
	MaxAttempts         int        `json:"max_attempts"`
	Status              ExamStatus `json:"status"`
	ScheduledStart      *time.Time `json:"scheduled_start,omitempty"`
	ExpirationDate      *time.Time `json:"expiration_date,omitempty"`

	ShowCorrectAnswers   bool `json:"show_correct_answers"`
	ShowDetailedFeedback bool `json:"show_detailed_feedback"`
	AutoPublishResults   bool `json:"auto_publish_results"`
	ResultsPublished     bool `json:"results_published"`

	// Scoping. A nil CourseID with empty ClassIDs means the exam is open to
	// any enrolled candidate.
	CourseID *uuid.UUID  `json:"course_id,omitempty"`
	ClassIDs []uuid.UUID `json:"class_ids,omitempty"`

	RequireMinimumAttendance    bool    `json:"require_minimum_attendance"`
	MinimumAttendancePercentage float64 `json:"minimum_attendance_percentage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AvailableExam is an exam as shown in the candidate's catalog, annotated
// with eligibility state.
type AvailableExam struct {
	Exam
	CanStart            bool       `json:"can_start"`
	AttemptsRemaining   int        `json:"attempts_remaining"`
	InProgressAttemptID *uuid.UUID `json:"in_progress_attempt_id,omitempty"`
	Reason              string     `json:"reason,omitempty"`
}

// ExamPaper is the candidate-facing rendition of an attempt: the frozen
// question list without correct answers, plus timing metadata.
type ExamPaper struct {
	AttemptID        uuid.UUID              `json:"attempt_id"`
	ExamID           uuid.UUID              `json:"exam_id"`
	Title            string                 `json:"title"`
	DurationMinutes  int                    `json:"duration_minutes"`
	AttemptNumber    int                    `json:"attempt_number"`
	StartTime        time.Time              `json:"start_time"`
	RemainingSeconds int64                  `json:"remaining_seconds"`
	Questions        []QuestionForCandidate `json:"questions"`
}
