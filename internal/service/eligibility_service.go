package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// Eligibility is the outcome of the eligibility checks for one
// (exam, candidate) pair.
type Eligibility struct {
	Eligible            bool
	AttemptsRemaining   int
	InProgressAttemptID *uuid.UUID
	// Reason carries the first failed check as a business rule error.
	// Nil when eligible.
	Reason error
}

// EligibilityService decides whether a candidate may start or continue an
// exam. It is side-effect free: no check mutates any state.
type EligibilityService struct {
	attempts    AttemptStore
	enrollments EnrollmentStore
	attendance  AttendanceStore
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(attempts AttemptStore, enrollments EnrollmentStore, attendance AttendanceStore) *EligibilityService {
	return &EligibilityService{
		attempts:    attempts,
		enrollments: enrollments,
		attendance:  attendance,
	}
}

// Check runs the eligibility checks in order, short-circuiting on the
// first failure: published status, schedule window, enrollment scope,
// minimum attendance, attempt quota.
func (s *EligibilityService) Check(ctx context.Context, exam *model.Exam, userID uuid.UUID) (*Eligibility, error) {
	result := &Eligibility{}

	// An existing IN_PROGRESS attempt is reported regardless of outcome so
	// callers can offer a resume.
	existing, err := s.attempts.GetInProgress(ctx, userID, exam.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find in-progress attempt: %w", err)
	}
	if existing != nil {
		result.InProgressAttemptID = &existing.ID
	}

	// 1. Exam must be published.
	if exam.Status != model.ExamStatusPublished {
		result.Reason = ErrExamNotPublished
		return result, nil
	}

	// 2. Schedule window. An absent bound is unbounded on that side.
	now := time.Now()
	if exam.ScheduledStart != nil && now.Before(*exam.ScheduledStart) {
		result.Reason = ErrExamNotOpen
		return result, nil
	}
	if exam.ExpirationDate != nil && now.After(*exam.ExpirationDate) {
		result.Reason = ErrExamNotOpen
		return result, nil
	}

	// 3. Enrollment in the exam's course or one of its scoped classes.
	enrolled, err := s.checkEnrollment(ctx, exam, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		result.Reason = ErrNotEnrolled
		return result, nil
	}

	// 4. Minimum attendance, when required.
	if exam.RequireMinimumAttendance {
		ok, err := s.checkAttendance(ctx, exam, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			result.Reason = ErrAttendanceBelowMinimum
			return result, nil
		}
	}

	// 5. Attempt quota. Only COMPLETED attempts consume the quota;
	// cancelled attempts do not. MaxAttempts <= 0 means unlimited.
	completed, err := s.attempts.CountByStatus(ctx, userID, exam.ID, model.AttemptStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("count completed attempts: %w", err)
	}
	if exam.MaxAttempts > 0 {
		if completed >= exam.MaxAttempts {
			result.Reason = ErrMaxAttemptsReached
			return result, nil
		}
		result.AttemptsRemaining = exam.MaxAttempts - completed
	} else {
		result.AttemptsRemaining = -1 // unlimited
	}

	result.Eligible = true
	return result, nil
}

func (s *EligibilityService) checkEnrollment(ctx context.Context, exam *model.Exam, userID uuid.UUID) (bool, error) {
	if exam.CourseID == nil && len(exam.ClassIDs) == 0 {
		// Unscoped exam: any active enrollment suffices.
		ok, err := s.enrollments.HasAnyActiveEnrollment(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("check enrollment: %w", err)
		}
		return ok, nil
	}
	ok, err := s.enrollments.HasActiveEnrollment(ctx, userID, exam.CourseID, exam.ClassIDs)
	if err != nil {
		return false, fmt.Errorf("check scoped enrollment: %w", err)
	}
	return ok, nil
}

func (s *EligibilityService) checkAttendance(ctx context.Context, exam *model.Exam, userID uuid.UUID) (bool, error) {
	classIDs := exam.ClassIDs
	if len(classIDs) == 0 {
		var err error
		classIDs, err = s.enrollments.ListEnrolledClassIDs(ctx, userID)
		if err != nil {
			return false, fmt.Errorf("list enrolled classes: %w", err)
		}
	}

	summary, err := s.attendance.Summarize(ctx, userID, classIDs)
	if err != nil {
		return false, fmt.Errorf("summarize attendance: %w", err)
	}

	// No recorded sessions: the check passes. Lack of data is not held
	// against the candidate.
	if summary.TotalSessions == 0 {
		return true, nil
	}
	return summary.Percentage() >= exam.MinimumAttendancePercentage, nil
}
