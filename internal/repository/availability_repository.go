package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorconnect-api/internal/models"
)

const availabilityColumns = "id, teacher_id, date, day_of_week, start_time, end_time, created_at"

// AvailabilityRepository manages teacher availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create stores a new window.
func (r *AvailabilityRepository) Create(ctx context.Context, slot *models.Availability) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	slot.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO teacher_availability (` + availabilityColumns + `)
VALUES (:id, :teacher_id, :date, :day_of_week, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// ListByTeacher returns every window of the teacher ordered by date and start time.
func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Availability, error) {
	const query = `SELECT ` + availabilityColumns + ` FROM teacher_availability WHERE teacher_id = $1 ORDER BY date, start_time`
	var slots []models.Availability
	if err := r.db.SelectContext(ctx, &slots, query, teacherID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return slots, nil
}

// ListByTeacherDate returns the teacher's windows on one date.
func (r *AvailabilityRepository) ListByTeacherDate(ctx context.Context, teacherID, date string) ([]models.Availability, error) {
	const query = `SELECT ` + availabilityColumns + ` FROM teacher_availability WHERE teacher_id = $1 AND date = $2 ORDER BY start_time`
	var slots []models.Availability
	if err := r.db.SelectContext(ctx, &slots, query, teacherID, date); err != nil {
		return nil, fmt.Errorf("list availability for date: %w", err)
	}
	return slots, nil
}

// ListByTeacherSince returns windows dated on or after fromDate.
func (r *AvailabilityRepository) ListByTeacherSince(ctx context.Context, teacherID, fromDate string) ([]models.Availability, error) {
	const query = `SELECT ` + availabilityColumns + ` FROM teacher_availability WHERE teacher_id = $1 AND date >= $2 ORDER BY date, start_time`
	var slots []models.Availability
	if err := r.db.SelectContext(ctx, &slots, query, teacherID, fromDate); err != nil {
		return nil, fmt.Errorf("list upcoming availability: %w", err)
	}
	return slots, nil
}

// DeleteExact removes the window matching date, start and end exactly. It
// reports how many rows were removed.
func (r *AvailabilityRepository) DeleteExact(ctx context.Context, teacherID, date, start, end string) (int64, error) {
	const query = `DELETE FROM teacher_availability WHERE teacher_id = $1 AND date = $2 AND start_time = $3 AND end_time = $4`
	res, err := r.db.ExecContext(ctx, query, teacherID, date, start, end)
	if err != nil {
		return 0, fmt.Errorf("delete availability: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete availability rows: %w", err)
	}
	return affected, nil
}
