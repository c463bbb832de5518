package models

import (
	"fmt"
	"strings"
	"time"
)

// UserKind identifies which account table an identity lives in.
type UserKind string

const (
	KindStudent UserKind = "student"
	KindTeacher UserKind = "teacher"
	KindAdmin   UserKind = "admin"
)

// ParseUserKind maps a raw role string onto a UserKind.
func ParseUserKind(raw string) (UserKind, error) {
	switch UserKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindStudent:
		return KindStudent, nil
	case KindTeacher:
		return KindTeacher, nil
	case KindAdmin:
		return KindAdmin, nil
	default:
		return "", fmt.Errorf("unknown user kind %q", raw)
	}
}

// Bannable reports whether accounts of this kind can be banned by an admin.
func (k UserKind) Bannable() bool {
	switch k {
	case KindStudent, KindTeacher:
		return true
	case KindAdmin:
		return false
	default:
		return false
	}
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Kind UserKind
}

// Account is the credential view shared by students, teachers and admins.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Banned       bool      `db:"banned" json:"banned"`
	Kind         UserKind  `db:"-" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserKind `json:"role"`
}

// Info strips credentials from the account.
func (a Account) Info() UserInfo {
	return UserInfo{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Kind}
}
