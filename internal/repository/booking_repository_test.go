package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorconnect-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var detailCols = []string{
	"id", "student_id", "teacher_id", "subject", "date", "day_of_week", "start_time", "end_time", "status",
	"meeting_link", "event_id", "created_at", "updated_at", "student_name", "student_email", "teacher_name", "teacher_email",
}

func detailRow(status models.BookingStatus, link, eventID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(detailCols).AddRow(
		"b1", "s1", "t1", "Math", "2024-06-10", "Monday", "10:00", "11:00", string(status),
		link, eventID, now, now, "Stu", "stu@example.com", "Tea", "tea@example.com",
	)
}

func TestBookingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), "s1", "t1", "Math", "2024-06-10", "Monday", "10:00", "11:00", "pending", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.Booking{StudentID: "s1", TeacherID: "t1", Subject: "Math", Date: "2024-06-10", DayOfWeek: "Monday", StartTime: "10:00", EndTime: "11:00"}
	require.NoError(t, repo.Create(context.Background(), booking))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingPending, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateOverlapRejected(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "bookings_no_active_overlap"})

	booking := &models.Booking{StudentID: "s1", TeacherID: "t1", Subject: "Math", Date: "2024-06-10", DayOfWeek: "Monday", StartTime: "10:00", EndTime: "11:00"}
	err := repo.Create(context.Background(), booking)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListActiveByTeacherDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "teacher_id", "subject", "date", "day_of_week", "start_time", "end_time", "status", "meeting_link", "event_id", "created_at", "updated_at"}).
		AddRow("b1", "s1", "t1", "Math", "2024-06-10", "Monday", "10:00", "11:00", "pending", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE teacher_id = $1 AND date = $2 AND status = ANY($3)")).
		WithArgs("t1", "2024-06-10", sqlmock.AnyArg()).
		WillReturnRows(rows)

	bookings, err := repo.ListActiveByTeacherDate(context.Background(), "t1", "2024-06-10")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.TimeSlot{Start: "10:00", End: "11:00"}, bookings[0].Slot())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryTransitionScopesByOwnerAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	link := "https://meet.google.com/abc"
	event := "evt-1"
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $4 AND status = $5 AND teacher_id = $6")).
		WithArgs("confirmed", link, event, "b1", "pending", "t1").
		WillReturnRows(detailRow(models.BookingConfirmed, link, event))

	detail, err := repo.Transition(context.Background(), BookingTransitionParams{
		ID:          "b1",
		Actor:       models.Actor{ID: "t1", Kind: models.KindTeacher},
		From:        models.BookingPending,
		To:          models.BookingConfirmed,
		MeetingLink: &link,
		EventID:     &event,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, detail.Status)
	require.NotNil(t, detail.MeetingLink)
	assert.Equal(t, link, *detail.MeetingLink)
	assert.Equal(t, "stu@example.com", detail.StudentEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryTransitionNoMatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $4 AND status = $5 AND student_id = $6")).
		WithArgs("cancelled", nil, nil, "b1", "confirmed", "s1").
		WillReturnRows(sqlmock.NewRows(detailCols))

	_, err := repo.Transition(context.Background(), BookingTransitionParams{
		ID:    "b1",
		Actor: models.Actor{ID: "s1", Kind: models.KindStudent},
		From:  models.BookingConfirmed,
		To:    models.BookingCancelled,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryTransitionAdminHasNoOwnerPredicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`WHERE id = \$4 AND status = \$5\s+RETURNING`).
		WithArgs("cancelled", nil, nil, "b1", "pending").
		WillReturnRows(detailRow(models.BookingCancelled, nil, nil))

	detail, err := repo.Transition(context.Background(), BookingTransitionParams{
		ID:    "b1",
		Actor: models.Actor{ID: "a1", Kind: models.KindAdmin},
		From:  models.BookingPending,
		To:    models.BookingCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, detail.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryTransitionRejectsUnknownKind(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	_, err := repo.Transition(context.Background(), BookingTransitionParams{ID: "b1", Actor: models.Actor{ID: "x", Kind: "guest"}})
	assert.Error(t, err)
}

func TestBookingRepositoryDeletePending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "teacher_id", "subject", "date", "day_of_week", "start_time", "end_time", "status", "meeting_link", "event_id", "created_at", "updated_at"}).
		AddRow("b1", "s1", "t1", "Math", "2024-06-10", "Monday", "10:00", "11:00", "pending", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1 AND teacher_id = $2 AND status = $3 RETURNING")).
		WithArgs("b1", "t1", "pending").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1 AND teacher_id = $2 AND status = $3 RETURNING")).
		WithArgs("b1", "t1", "pending").
		WillReturnError(sql.ErrNoRows)

	booking, err := repo.DeletePending(context.Background(), "b1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)

	_, err = repo.DeletePending(context.Background(), "b1", "t1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListForActor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND b.status = ANY($1) AND b.teacher_id = $2 ORDER BY b.date ASC, b.start_time ASC")).
		WithArgs(sqlmock.AnyArg(), "t1").
		WillReturnRows(detailRow(models.BookingConfirmed, nil, nil))

	list, err := repo.ListForActor(context.Background(), models.Actor{ID: "t1", Kind: models.KindTeacher}, []models.BookingStatus{models.BookingConfirmed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Stu", list[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindForActor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = $1 AND b.status = ANY($2) AND b.student_id = $3")).
		WithArgs("b1", sqlmock.AnyArg(), "s1").
		WillReturnRows(detailRow(models.BookingConfirmed, "https://meet", "evt"))

	detail, err := repo.FindForActor(context.Background(), "b1", models.Actor{ID: "s1", Kind: models.KindStudent}, models.SourceStatuses(models.ActionCancel))
	require.NoError(t, err)
	require.NotNil(t, detail.EventID)
	assert.Equal(t, "evt", *detail.EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
