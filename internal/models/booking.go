package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for bookings and availability.
const DateLayout = "2006-01-02"

// BookingStatus is the persisted lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"

	// BookingDeclined is never stored. Declined bookings are deleted and the
	// status only appears in the response describing the deletion.
	BookingDeclined BookingStatus = "declined"
)

// ActiveStatuses are the statuses that occupy a teacher's time.
var ActiveStatuses = []BookingStatus{BookingPending, BookingConfirmed}

// IsActive reports whether the status counts for conflict detection.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

// IsTerminal reports whether no further transition can leave the status.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingCompleted, BookingCancelled, BookingDeclined:
		return true
	default:
		return false
	}
}

// BookingAction is a lifecycle operation on an existing booking.
type BookingAction string

const (
	ActionConfirm  BookingAction = "confirm"
	ActionDecline  BookingAction = "decline"
	ActionCancel   BookingAction = "cancel"
	ActionComplete BookingAction = "complete"
)

// Actions lists every lifecycle action.
var Actions = []BookingAction{ActionConfirm, ActionDecline, ActionCancel, ActionComplete}

type transition struct {
	from []BookingStatus
	to   BookingStatus
}

var transitions = map[BookingAction]transition{
	ActionConfirm:  {from: []BookingStatus{BookingPending}, to: BookingConfirmed},
	ActionDecline:  {from: []BookingStatus{BookingPending}, to: BookingDeclined},
	ActionCancel:   {from: []BookingStatus{BookingPending, BookingConfirmed}, to: BookingCancelled},
	ActionComplete: {from: []BookingStatus{BookingConfirmed}, to: BookingCompleted},
}

// NextStatus returns the status reached by applying action to from. The second
// result is false when the pair is not in the transition table.
func NextStatus(from BookingStatus, action BookingAction) (BookingStatus, bool) {
	t, ok := transitions[action]
	if !ok {
		return "", false
	}
	for _, s := range t.from {
		if s == from {
			return t.to, true
		}
	}
	return "", false
}

// SourceStatuses returns the statuses action may be applied to. Repositories use
// it as the status predicate of the conditional update.
func SourceStatuses(action BookingAction) []BookingStatus {
	t, ok := transitions[action]
	if !ok {
		return nil
	}
	out := make([]BookingStatus, len(t.from))
	copy(out, t.from)
	return out
}

// TimeSlot is a half-open [Start, End) range of zero-padded "HH:MM" times on one date.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Valid reports whether both ends are well formed and Start precedes End.
func (s TimeSlot) Valid() bool {
	return IsHHMM(s.Start) && IsHHMM(s.End) && s.Start < s.End
}

// Overlaps reports whether the two ranges share any instant. Zero-padded HH:MM
// strings order lexically the same as temporally.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return !(s.End <= o.Start || s.Start >= o.End)
}

// Booking is a student's reservation of a teacher's time.
type Booking struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	TeacherID   string        `db:"teacher_id" json:"teacher_id"`
	Subject     string        `db:"subject" json:"subject"`
	Date        string        `db:"date" json:"date"`
	DayOfWeek   string        `db:"day_of_week" json:"day"`
	StartTime   string        `db:"start_time" json:"start_time"`
	EndTime     string        `db:"end_time" json:"end_time"`
	Status      BookingStatus `db:"status" json:"status"`
	MeetingLink *string       `db:"meeting_link" json:"meeting_link"`
	EventID     *string       `db:"event_id" json:"-"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Slot returns the booking's time range.
func (b Booking) Slot() TimeSlot {
	return TimeSlot{Start: b.StartTime, End: b.EndTime}
}

// StartsAt resolves the booking start in loc.
func (b Booking) StartsAt(loc *time.Location) (time.Time, error) {
	return combine(b.Date, b.StartTime, loc)
}

// EndsAt resolves the booking end in loc.
func (b Booking) EndsAt(loc *time.Location) (time.Time, error) {
	return combine(b.Date, b.EndTime, loc)
}

func combine(date, hhmm string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" 15:04", date+" "+hhmm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse booking time: %w", err)
	}
	return t, nil
}

// DayOfWeek returns the English weekday name of a YYYY-MM-DD date.
func DayOfWeek(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return t.Weekday().String(), nil
}

// BookingDetail is a booking joined with both parties' contact details.
type BookingDetail struct {
	Booking
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
	TeacherEmail string `db:"teacher_email" json:"teacher_email"`
}

// BookingView is the API representation of a booking.
type BookingView struct {
	ID           string        `json:"id"`
	Subject      string        `json:"subject"`
	Date         string        `json:"date"`
	Day          string        `json:"day"`
	TimeSlot     TimeSlot      `json:"time_slot"`
	Status       BookingStatus `json:"status"`
	MeetingLink  *string       `json:"meeting_link"`
	StudentName  string        `json:"student_name,omitempty"`
	StudentEmail string        `json:"student_email,omitempty"`
	TeacherName  string        `json:"teacher_name,omitempty"`
	TeacherEmail string        `json:"teacher_email,omitempty"`
}

// View renders the detail for API responses.
func (d BookingDetail) View() BookingView {
	return BookingView{
		ID:           d.ID,
		Subject:      d.Subject,
		Date:         d.Date,
		Day:          d.DayOfWeek,
		TimeSlot:     d.Slot(),
		Status:       d.Status,
		MeetingLink:  d.MeetingLink,
		StudentName:  d.StudentName,
		StudentEmail: d.StudentEmail,
		TeacherName:  d.TeacherName,
		TeacherEmail: d.TeacherEmail,
	}
}

// CreateBookingRequest is a student's booking request.
type CreateBookingRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
	Subject   string `json:"subject" validate:"required,max=80"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

// BookingTransition records a persisted status change. Prior is the status the
// booking held immediately before the conditional update matched.
type BookingTransition struct {
	Detail BookingDetail
	Prior  BookingStatus
}
