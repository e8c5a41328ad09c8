package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traindesk/traindesk-backend/internal/model"
)

// AttendanceRepository reads attendance rows owned by the attendance
// capture service.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Summarize aggregates a candidate's attendance across the given classes.
// Zero classes or zero recorded sessions yield an empty summary.
func (r *AttendanceRepository) Summarize(ctx context.Context, userID uuid.UUID, classIDs []uuid.UUID) (model.AttendanceSummary, error) {
	var s model.AttendanceSummary
	if len(classIDs) == 0 {
		return s, nil
	}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE present)
		 FROM attendance_records
		 WHERE user_id = $1 AND class_id = ANY($2)`,
		userID, classIDs).Scan(&s.TotalSessions, &s.AttendedSessions)
	return s, err
}
