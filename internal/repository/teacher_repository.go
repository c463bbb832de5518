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

const teacherColumns = "id, name, email, password_hash, bio, subjects, hourly_rate, verified, banned, created_at, updated_at"

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT ` + teacherColumns + ` FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Search lists teachers who are not banned, filtered by a case-insensitive
// subject or name fragment and the verification flag.
func (r *TeacherRepository) Search(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, error) {
	query := `SELECT ` + teacherColumns + ` FROM teachers WHERE banned = FALSE`
	var args []interface{}
	if filter.Subject != "" {
		args = append(args, "%"+filter.Subject+"%")
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM unnest(subjects) AS s WHERE s ILIKE $%d)", len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		query += fmt.Sprintf(" AND verified = $%d", len(args))
	}
	query += " ORDER BY name ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("search teachers: %w", err)
	}
	return teachers, nil
}

// Create inserts a new teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	if teacher.Subjects == nil {
		teacher.Subjects = pq.StringArray{}
	}

	const query = `INSERT INTO teachers (` + teacherColumns + `)
VALUES (:id, :name, :email, :password_hash, :bio, :subjects, :hourly_rate, :verified, :banned, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// UpdateProfile persists the mutable profile fields.
func (r *TeacherRepository) UpdateProfile(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET name = :name, bio = :bio, hourly_rate = :hourly_rate, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return expectAffected(res)
}

// AddSubjects merges subjects into the teacher's list keeping first-seen order
// and returns the resulting list.
func (r *TeacherRepository) AddSubjects(ctx context.Context, id string, subjects []string) ([]string, error) {
	const query = `UPDATE teachers
SET subjects = ARRAY(
	SELECT s FROM unnest(subjects || $2::text[]) WITH ORDINALITY AS x(s, n)
	GROUP BY s ORDER BY MIN(n)
), updated_at = NOW()
WHERE id = $1
RETURNING subjects`
	var out pq.StringArray
	if err := r.db.GetContext(ctx, &out, query, id, pq.Array(subjects)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("add teacher subjects: %w", err)
	}
	return out, nil
}

// RemoveSubject drops subject from the list. It returns sql.ErrNoRows when the
// teacher does not exist or does not teach the subject.
func (r *TeacherRepository) RemoveSubject(ctx context.Context, id, subject string) ([]string, error) {
	const query = `UPDATE teachers SET subjects = array_remove(subjects, $2), updated_at = NOW()
WHERE id = $1 AND $2 = ANY(subjects)
RETURNING subjects`
	var out pq.StringArray
	if err := r.db.GetContext(ctx, &out, query, id, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("remove teacher subject: %w", err)
	}
	return out, nil
}

// SetVerified marks the teacher as verified.
func (r *TeacherRepository) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE teachers SET verified = $2, updated_at = NOW() WHERE id = $1`, id, verified)
	if err != nil {
		return fmt.Errorf("verify teacher: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
