package models

import (
	"time"

	"github.com/lib/pq"
)

// VerificationWindow is how long a new teacher has to be verified by an admin.
const VerificationWindow = 7 * 24 * time.Hour

// Teacher represents an instructor account.
type Teacher struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Bio          string         `db:"bio" json:"bio"`
	Subjects     pq.StringArray `db:"subjects" json:"subjects"`
	HourlyRate   float64        `db:"hourly_rate" json:"hourly_rate"`
	Verified     bool           `db:"verified" json:"verified"`
	Banned       bool           `db:"banned" json:"banned"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Teaches reports whether subject is in the teacher's list.
func (t *Teacher) Teaches(subject string) bool {
	for _, s := range t.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// VerificationStatus reports the remaining verification window.
type VerificationStatus struct {
	DaysRemaining int  `json:"days_remaining"`
	IsExpired     bool `json:"is_expired"`
}

// Verification computes the status relative to now.
func (t *Teacher) Verification(now time.Time) VerificationStatus {
	daysPassed := int(now.Sub(t.CreatedAt) / (24 * time.Hour))
	remaining := int(VerificationWindow/(24*time.Hour)) - daysPassed
	if remaining < 0 {
		remaining = 0
	}
	return VerificationStatus{DaysRemaining: remaining, IsExpired: remaining == 0}
}

// TeacherProfile is the teacher's own view of their account.
type TeacherProfile struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Bio          string             `json:"bio"`
	Subjects     []string           `json:"subjects"`
	HourlyRate   float64            `json:"hourly_rate"`
	Availability []Availability     `json:"availability"`
	Verified     bool               `json:"verified"`
	Verification VerificationStatus `json:"verification_status"`
}

// UpdateTeacherProfileRequest edits the mutable profile fields.
type UpdateTeacherProfileRequest struct {
	Name       *string  `json:"name" validate:"omitempty,min=2,max=120"`
	Bio        *string  `json:"bio" validate:"omitempty,max=2000"`
	HourlyRate *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
}

// AddSubjectsRequest adds subjects to the teacher's list.
type AddSubjectsRequest struct {
	Subjects []string `json:"subjects" validate:"required,min=1,dive,required,max=80"`
}

// RemoveSubjectRequest removes one subject from the teacher's list.
type RemoveSubjectRequest struct {
	Subject string `json:"subject" validate:"required"`
}

// TeacherFilter narrows the public teacher directory.
type TeacherFilter struct {
	Subject  string `form:"subject"`
	Name     string `form:"name"`
	Verified *bool  `form:"verified"`
	Limit    int    `form:"-"`
}
