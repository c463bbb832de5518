package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type moderationRepository interface {
	SetBanned(ctx context.Context, kind models.UserKind, id string, banned bool) error
	Stats(ctx context.Context) (*models.PlatformStats, error)
}

type teacherVerifier interface {
	SetVerified(ctx context.Context, id string, verified bool) error
}

// AdminService implements moderation use cases.
type AdminService struct {
	accounts moderationRepository
	teachers teacherVerifier
	logger   *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(accounts moderationRepository, teachers teacherVerifier, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{accounts: accounts, teachers: teachers, logger: logger}
}

// SetBanned bans or unbans a student or teacher.
func (s *AdminService) SetBanned(ctx context.Context, kind models.UserKind, id string, banned bool) error {
	if !kind.Bannable() {
		return appErrors.Clone(appErrors.ErrValidation, "only students and teachers can be banned")
	}
	if err := s.accounts.SetBanned(ctx, kind, id, banned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.logger.Info("account moderation", zap.String("user_id", id), zap.String("role", string(kind)), zap.Bool("banned", banned))
	return nil
}

// VerifyTeacher marks a teacher verified.
func (s *AdminService) VerifyTeacher(ctx context.Context, id string) error {
	if err := s.teachers.SetVerified(ctx, id, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify teacher")
	}
	return nil
}

// Stats returns platform counters.
func (s *AdminService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	stats, err := s.accounts.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load stats")
	}
	return stats, nil
}
