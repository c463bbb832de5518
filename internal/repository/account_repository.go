package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutorconnect-api/internal/models"
)

// AccountRepository resolves credentials across the student, teacher and admin tables.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type accountRow struct {
	models.Account
	Kind string `db:"kind"`
}

// accountTable maps a kind onto its table and its banned expression.
func accountTable(kind models.UserKind) (table, banned string, err error) {
	switch kind {
	case models.KindStudent:
		return "students", "banned", nil
	case models.KindTeacher:
		return "teachers", "banned", nil
	case models.KindAdmin:
		return "admins", "FALSE", nil
	default:
		return "", "", fmt.Errorf("unsupported account kind %q", kind)
	}
}

// FindByEmail looks the email up in students, then teachers, then admins.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	const query = `SELECT id, name, email, password_hash, banned, created_at, kind FROM (
	SELECT id, name, email, password_hash, banned, created_at, 'student' AS kind, 1 AS rank FROM students WHERE LOWER(email) = LOWER($1)
	UNION ALL
	SELECT id, name, email, password_hash, banned, created_at, 'teacher' AS kind, 2 AS rank FROM teachers WHERE LOWER(email) = LOWER($1)
	UNION ALL
	SELECT id, name, email, password_hash, FALSE AS banned, created_at, 'admin' AS kind, 3 AS rank FROM admins WHERE LOWER(email) = LOWER($1)
) accounts ORDER BY rank LIMIT 1`
	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, email); err != nil {
		return nil, err
	}
	kind, err := models.ParseUserKind(row.Kind)
	if err != nil {
		return nil, err
	}
	account := row.Account
	account.Kind = kind
	return &account, nil
}

// FindByID loads the account of the given kind.
func (r *AccountRepository) FindByID(ctx context.Context, kind models.UserKind, id string) (*models.Account, error) {
	table, banned, err := accountTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, name, email, password_hash, %s AS banned, created_at FROM %s WHERE id = $1`, banned, table)
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	account.Kind = kind
	return &account, nil
}

// EmailExists reports whether any account already uses email.
func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM (
	SELECT email FROM students UNION ALL SELECT email FROM teachers UNION ALL SELECT email FROM admins
) accounts WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check account email: %w", err)
	}
	return true, nil
}

// SetBanned flips the banned flag for a student or teacher.
func (r *AccountRepository) SetBanned(ctx context.Context, kind models.UserKind, id string, banned bool) error {
	if !kind.Bannable() {
		return fmt.Errorf("accounts of kind %q cannot be banned", kind)
	}
	table, _, err := accountTable(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET banned = $2, updated_at = NOW() WHERE id = $1`, table)
	res, err := r.db.ExecContext(ctx, query, id, banned)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	return expectAffected(res)
}

// CreateAdmin inserts an admin account.
func (r *AccountRepository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	admin.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO admins (id, name, email, password_hash, created_at) VALUES (:id, :name, :email, :password_hash, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Stats aggregates platform counters.
func (r *AccountRepository) Stats(ctx context.Context) (*models.PlatformStats, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM students) AS total_students,
	(SELECT COUNT(*) FROM teachers) AS total_teachers,
	(SELECT COUNT(*) FROM teachers WHERE verified AND NOT banned) AS active_teachers,
	(SELECT COUNT(*) FROM bookings) AS total_bookings,
	(SELECT COUNT(*) FROM students WHERE banned) + (SELECT COUNT(*) FROM teachers WHERE banned) AS banned_users`
	var stats models.PlatformStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return &stats, nil
}
