package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type mockModerationRepo struct {
	banned   map[string]bool
	statsErr error
}

func (m *mockModerationRepo) SetBanned(ctx context.Context, kind models.UserKind, id string, banned bool) error {
	if _, ok := m.banned[id]; !ok {
		return sql.ErrNoRows
	}
	m.banned[id] = banned
	return nil
}

func (m *mockModerationRepo) Stats(ctx context.Context) (*models.PlatformStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &models.PlatformStats{TotalStudents: 3}, nil
}

type mockVerifier struct{ verified map[string]bool }

func (m *mockVerifier) SetVerified(ctx context.Context, id string, verified bool) error {
	if _, ok := m.verified[id]; !ok {
		return sql.ErrNoRows
	}
	m.verified[id] = verified
	return nil
}

func TestAdminServiceSetBanned(t *testing.T) {
	repo := &mockModerationRepo{banned: map[string]bool{"s1": false}}
	svc := NewAdminService(repo, &mockVerifier{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetBanned(ctx, models.KindStudent, "s1", true))
	assert.True(t, repo.banned["s1"])

	assert.ErrorIs(t, svc.SetBanned(ctx, models.KindAdmin, "a1", true), appErrors.ErrValidation)
	assert.ErrorIs(t, svc.SetBanned(ctx, models.KindTeacher, "ghost", true), appErrors.ErrNotFound)
}

func TestAdminServiceVerifyAndStats(t *testing.T) {
	verifier := &mockVerifier{verified: map[string]bool{"t1": false}}
	repo := &mockModerationRepo{}
	svc := NewAdminService(repo, verifier, nil)
	ctx := context.Background()

	require.NoError(t, svc.VerifyTeacher(ctx, "t1"))
	assert.True(t, verifier.verified["t1"])
	assert.ErrorIs(t, svc.VerifyTeacher(ctx, "ghost"), appErrors.ErrNotFound)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalStudents)

	repo.statsErr = errors.New("db down")
	_, err = svc.Stats(ctx)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
