package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// EnrollmentRepository reads enrollment rows owned by the enrollment
// service. The exam engine treats them as eligibility inputs only.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// HasActiveEnrollment reports whether the candidate holds an ACTIVE
// enrollment in the given course or any of the given classes. Either
// scope side may be empty.
func (r *EnrollmentRepository) HasActiveEnrollment(ctx context.Context, userID uuid.UUID, courseID *uuid.UUID, classIDs []uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM enrollments
		   WHERE user_id = $1 AND status = $2
		     AND (($3::uuid IS NOT NULL AND course_id = $3)
		       OR (cardinality($4::uuid[]) > 0 AND class_id = ANY($4)))
		 )`, userID, model.EnrollmentStatusActive, courseID, classIDs).Scan(&exists)
	return exists, err
}

// HasAnyActiveEnrollment reports whether the candidate is actively
// enrolled anywhere. Used when an exam is unscoped.
func (r *EnrollmentRepository) HasAnyActiveEnrollment(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM enrollments WHERE user_id = $1 AND status = $2
		 )`, userID, model.EnrollmentStatusActive).Scan(&exists)
	return exists, err
}

// ListEnrolledClassIDs returns the classes the candidate is actively
// enrolled in. Used for the attendance check on unscoped exams.
func (r *EnrollmentRepository) ListEnrolledClassIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT class_id FROM enrollments
		 WHERE user_id = $1 AND status = $2 AND class_id IS NOT NULL`,
		userID, model.EnrollmentStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
