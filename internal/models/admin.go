package models

import "time"

// Admin represents a moderator account.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PlatformStats summarises account and booking counts for moderators.
type PlatformStats struct {
	TotalStudents  int `db:"total_students" json:"total_students"`
	TotalTeachers  int `db:"total_teachers" json:"total_teachers"`
	ActiveTeachers int `db:"active_teachers" json:"active_teachers"`
	TotalBookings  int `db:"total_bookings" json:"total_bookings"`
	BannedUsers    int `db:"banned_users" json:"banned_users"`
}
