package models

import "time"

// Availability is a teacher-declared open window on a specific date.
type Availability struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"-"`
	Date      string    `db:"date" json:"date"`
	DayOfWeek string    `db:"day_of_week" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// Slot returns the window's time range.
func (a Availability) Slot() TimeSlot {
	return TimeSlot{Start: a.StartTime, End: a.EndTime}
}

// AvailabilityRequest adds or removes an availability window.
type AvailabilityRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

// OpenWindow is the part of an availability window not covered by an active booking.
type OpenWindow struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AvailableSlots answers the slot query for one teacher.
type AvailableSlots struct {
	TeacherID    string       `json:"teacher_id"`
	Availability []OpenWindow `json:"availability"`
	Subjects     []string     `json:"subjects"`
}
