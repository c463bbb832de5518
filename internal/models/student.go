package models

import "time"

// Student represents a learner account.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Banned       bool      `db:"banned" json:"banned"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UpdateStudentProfileRequest edits the student's own account.
type UpdateStudentProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=120"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

// StudentDashboard is the landing view for a student.
type StudentDashboard struct {
	Student         Student       `json:"student"`
	RecentBookings  []BookingView `json:"recent_bookings"`
	SuggestedTutors []Teacher     `json:"available_teachers"`
}
