package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutorconnect-api/internal/models"
)

const bookingColumns = "id, student_id, teacher_id, subject, date, day_of_week, start_time, end_time, status, meeting_link, event_id, created_at, updated_at"

const bookingDetailColumns = `b.id, b.student_id, b.teacher_id, b.subject, b.date, b.day_of_week, b.start_time, b.end_time, b.status, b.meeting_link, b.event_id, b.created_at, b.updated_at,
	s.name AS student_name, s.email AS student_email, t.name AS teacher_name, t.email AS teacher_email`

// ErrSlotTaken is returned by Create when another active booking for the same
// teacher already overlaps the requested range.
var ErrSlotTaken = errors.New("booking overlaps an active booking")

const exclusionViolation = "23P01"

// BookingTransitionParams describes one compare-and-swap status change.
type BookingTransitionParams struct {
	ID    string
	Actor models.Actor
	From  models.BookingStatus
	To    models.BookingStatus
	// MeetingLink and EventID replace the stored values, nil clears them.
	MeetingLink *string
	EventID     *string
}

// BookingRepository manages persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ownerClause restricts a bookings query to rows the actor is party to. Admins
// see every row.
func ownerClause(alias string, actor models.Actor, argPos int) (string, []interface{}, error) {
	if alias != "" {
		alias += "."
	}
	switch actor.Kind {
	case models.KindStudent:
		return fmt.Sprintf(" AND %sstudent_id = $%d", alias, argPos), []interface{}{actor.ID}, nil
	case models.KindTeacher:
		return fmt.Sprintf(" AND %steacher_id = $%d", alias, argPos), []interface{}{actor.ID}, nil
	case models.KindAdmin:
		return "", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported actor kind %q", actor.Kind)
	}
}

func statusArray(statuses []models.BookingStatus) interface{} {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	return pq.Array(raw)
}

// Create inserts a pending booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if booking.Status == "" {
		booking.Status = models.BookingPending
	}

	const query = `INSERT INTO bookings (` + bookingColumns + `)
VALUES (:id, :student_id, :teacher_id, :subject, :date, :day_of_week, :start_time, :end_time, :status, :meeting_link, :event_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == exclusionViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// ListActiveByTeacherDate returns the teacher's pending and confirmed bookings on date.
func (r *BookingRepository) ListActiveByTeacherDate(ctx context.Context, teacherID, date string) ([]models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE teacher_id = $1 AND date = $2 AND status = ANY($3) ORDER BY start_time`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, teacherID, date, statusArray(models.ActiveStatuses)); err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	return bookings, nil
}

// ListActiveByTeacherSince returns active bookings on or after fromDate.
func (r *BookingRepository) ListActiveByTeacherSince(ctx context.Context, teacherID, fromDate string) ([]models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE teacher_id = $1 AND date >= $2 AND status = ANY($3) ORDER BY date, start_time`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, teacherID, fromDate, statusArray(models.ActiveStatuses)); err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	return bookings, nil
}

// FindForActor loads a booking the actor is party to whose status is one of
// statuses. Missing, foreign and wrong-state bookings all yield sql.ErrNoRows.
func (r *BookingRepository) FindForActor(ctx context.Context, id string, actor models.Actor, statuses []models.BookingStatus) (*models.BookingDetail, error) {
	owner, ownerArgs, err := ownerClause("b", actor, 3)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + bookingDetailColumns + `
FROM bookings b
JOIN students s ON s.id = b.student_id
JOIN teachers t ON t.id = b.teacher_id
WHERE b.id = $1 AND b.status = ANY($2)` + owner

	args := append([]interface{}{id, statusArray(statuses)}, ownerArgs...)
	var detail models.BookingDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Transition applies a conditional status update matching id, owner and the
// expected prior status in one statement. Zero matched rows yields sql.ErrNoRows.
func (r *BookingRepository) Transition(ctx context.Context, params BookingTransitionParams) (*models.BookingDetail, error) {
	owner, ownerArgs, err := ownerClause("", params.Actor, 6)
	if err != nil {
		return nil, err
	}
	query := `WITH updated AS (
	UPDATE bookings SET status = $1, meeting_link = $2, event_id = $3, updated_at = NOW()
	WHERE id = $4 AND status = $5` + owner + `
	RETURNING ` + bookingColumns + `
)
SELECT ` + bookingDetailColumns + `
FROM updated b
JOIN students s ON s.id = b.student_id
JOIN teachers t ON t.id = b.teacher_id`

	args := append([]interface{}{params.To, params.MeetingLink, params.EventID, params.ID, params.From}, ownerArgs...)
	var detail models.BookingDetail
	if err := r.db.GetContext(ctx, &detail, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("transition booking %s: %w", params.ID, err)
	}
	return &detail, nil
}

// DeletePending removes a pending booking owned by the teacher and returns it.
func (r *BookingRepository) DeletePending(ctx context.Context, id, teacherID string) (*models.Booking, error) {
	const query = `DELETE FROM bookings WHERE id = $1 AND teacher_id = $2 AND status = $3 RETURNING ` + bookingColumns
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id, teacherID, models.BookingPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("delete booking %s: %w", id, err)
	}
	return &booking, nil
}

// ListForActor returns the actor's bookings in the given statuses ordered by
// date and start time. An empty statuses slice means every status.
func (r *BookingRepository) ListForActor(ctx context.Context, actor models.Actor, statuses []models.BookingStatus) ([]models.BookingDetail, error) {
	query := `SELECT ` + bookingDetailColumns + `
FROM bookings b
JOIN students s ON s.id = b.student_id
JOIN teachers t ON t.id = b.teacher_id
WHERE 1=1`
	var args []interface{}
	if len(statuses) > 0 {
		args = append(args, statusArray(statuses))
		query += fmt.Sprintf(" AND b.status = ANY($%d)", len(args))
	}
	owner, ownerArgs, err := ownerClause("b", actor, len(args)+1)
	if err != nil {
		return nil, err
	}
	query += owner + " ORDER BY b.date ASC, b.start_time ASC"
	args = append(args, ownerArgs...)

	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
