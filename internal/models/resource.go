package models

import "time"

// Resource is a learning material link published by a teacher.
type Resource struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"uploaded_by"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Subject     string    `db:"subject" json:"subject"`
	URL         string    `db:"url" json:"link"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateResourceRequest publishes a resource.
type CreateResourceRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Subject     string `json:"subject" validate:"omitempty,max=80"`
	Link        string `json:"link" validate:"required,url"`
}

// ResourceFilter narrows resource listings.
type ResourceFilter struct {
	TeacherID string
	Subject   string
}
