package model

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus enumerates enrollment states. Only ACTIVE enrollments
// count toward exam eligibility.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusSuspended EnrollmentStatus = "SUSPENDED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// Enrollment links a candidate to a course, optionally narrowed to a class.
// Enrollment CRUD lives outside this service; the session engine only
// reads these rows.
type Enrollment struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	CourseID  uuid.UUID        `json:"course_id"`
	ClassID   *uuid.UUID       `json:"class_id,omitempty"`
	Status    EnrollmentStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// AttendanceSummary aggregates a candidate's recorded class sessions.
type AttendanceSummary struct {
	TotalSessions    int `json:"total_sessions"`
	AttendedSessions int `json:"attended_sessions"`
}

// Percentage returns attendance as 0-100. Zero recorded sessions yield
// 100 so a lack of data never penalizes the candidate.
func (s AttendanceSummary) Percentage() float64 {
	if s.TotalSessions == 0 {
		return 100
	}
	return float64(s.AttendedSessions) / float64(s.TotalSessions) * 100
}
