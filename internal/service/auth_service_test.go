package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

type mockAccountRepo struct {
	accounts map[string]*models.Account
	admins   []*models.Admin
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]*models.Account)}
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) FindByID(ctx context.Context, kind models.UserKind, id string) (*models.Account, error) {
	if a, ok := m.accounts[id]; ok && a.Kind == kind {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockAccountRepo) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	admin.ID = "admin-1"
	m.admins = append(m.admins, admin)
	m.accounts[admin.ID] = &models.Account{ID: admin.ID, Name: admin.Name, Email: admin.Email, PasswordHash: admin.PasswordHash, Kind: models.KindAdmin}
	return nil
}

type accountStudentCreator struct{ repo *mockAccountRepo }

func (c accountStudentCreator) Create(ctx context.Context, student *models.Student) error {
	student.ID = "s-" + student.Email
	c.repo.accounts[student.ID] = &models.Account{ID: student.ID, Name: student.Name, Email: student.Email, PasswordHash: student.PasswordHash, Kind: models.KindStudent}
	return nil
}

type accountTeacherCreator struct {
	repo    *mockAccountRepo
	created []*models.Teacher
}

func (c *accountTeacherCreator) Create(ctx context.Context, teacher *models.Teacher) error {
	teacher.ID = "t-" + teacher.Email
	c.created = append(c.created, teacher)
	c.repo.accounts[teacher.ID] = &models.Account{ID: teacher.ID, Name: teacher.Name, Email: teacher.Email, PasswordHash: teacher.PasswordHash, Kind: models.KindTeacher}
	return nil
}

type memBlacklist struct {
	entries map[string]time.Duration
}

func (m *memBlacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string]time.Duration)
	}
	m.entries[token] = ttl
	return nil
}

func (m *memBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	_, ok := m.entries[token]
	return ok, nil
}

type authFixture struct {
	svc       *AuthService
	accounts  *mockAccountRepo
	teachers  *accountTeacherCreator
	blacklist *memBlacklist
}

func newAuthFixture(accessTTL time.Duration) *authFixture {
	accounts := newMockAccountRepo()
	teachers := &accountTeacherCreator{repo: accounts}
	blacklist := &memBlacklist{}
	svc := NewAuthService(accounts, accountStudentCreator{repo: accounts}, teachers, blacklist, nil, nil, AuthConfig{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenExpiry:  accessTTL,
		RefreshTokenExpiry: 96 * time.Hour,
		Issuer:             "tutor-connect-api",
		Audience:           []string{"tutor-connect-client"},
	})
	return &authFixture{svc: svc, accounts: accounts, teachers: teachers, blacklist: blacklist}
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(time.Hour)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, models.KindTeacher, models.RegisterRequest{
		Name: "Tina", Email: "Tina@Example.com", Password: "password1", Subjects: []string{"Math"}, HourlyRate: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindTeacher, res.User.Role)
	assert.Equal(t, "tina@example.com", res.User.Email)
	require.Len(t, f.teachers.created, 1)
	assert.True(t, f.teachers.created[0].Teaches("Math"))

	_, err = f.svc.Register(ctx, models.KindStudent, models.RegisterRequest{Name: "Dup", Email: "tina@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = f.svc.Register(ctx, models.KindAdmin, models.RegisterRequest{Name: "Eve", Email: "eve@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	login, err := f.svc.Login(ctx, models.LoginRequest{Email: "tina@example.com", Password: "password1"})
	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.Actor{ID: res.User.ID, Kind: models.KindTeacher}, claims.Actor())

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "tina@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceLoginBanned(t *testing.T) {
	f := newAuthFixture(time.Hour)
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	f.accounts.accounts["s1"] = &models.Account{ID: "s1", Email: "sam@example.com", PasswordHash: string(hash), Banned: true, Kind: models.KindStudent}

	_, err = f.svc.Login(context.Background(), models.LoginRequest{Email: "sam@example.com", Password: "password1"})
	require.ErrorIs(t, err, appErrors.ErrAccountBanned)
	assert.Equal(t, 403, appErrors.FromError(err).Status)
}

func TestAuthServiceRefreshToken(t *testing.T) {
	f := newAuthFixture(time.Hour)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, models.KindStudent, models.RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "password1"})
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	// an access token is not accepted as a refresh token and vice versa
	_, err = f.svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: res.AccessToken})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	_, err = f.svc.ValidateToken(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	f.accounts.accounts[res.User.ID].Banned = true
	_, err = f.svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrAccountBanned)
}

func TestAuthServiceLogoutBlacklistsTokens(t *testing.T) {
	f := newAuthFixture(time.Hour)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, models.KindStudent, models.RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.AccessToken, res.RefreshToken))
	assert.Len(t, f.blacklist.entries, 2)
	assert.InDelta(t, time.Hour.Seconds(), f.blacklist.entries[res.AccessToken].Seconds(), 5)

	_, err = f.svc.ValidateToken(ctx, res.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	_, err = f.svc.RefreshToken(ctx, models.RefreshTokenRequest{RefreshToken: res.RefreshToken})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceLogoutSkipsShortLivedTokens(t *testing.T) {
	f := newAuthFixture(2 * time.Minute)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, models.KindStudent, models.RegisterRequest{Name: "Sam", Email: "sam@example.com", Password: "password1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.AccessToken, "garbage"))
	assert.Empty(t, f.blacklist.entries)

	err = f.svc.Logout(ctx, "garbage", "")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceEnsureAdmin(t *testing.T) {
	f := newAuthFixture(time.Hour)
	ctx := context.Background()

	require.NoError(t, f.svc.EnsureAdmin(ctx, "Root", "", "secret"))
	assert.Empty(t, f.accounts.admins)

	require.NoError(t, f.svc.EnsureAdmin(ctx, "Root", "Root@Example.com", "secret-pass"))
	require.NoError(t, f.svc.EnsureAdmin(ctx, "Root", "root@example.com", "secret-pass"))
	require.Len(t, f.accounts.admins, 1)

	login, err := f.svc.Login(ctx, models.LoginRequest{Email: "root@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.KindAdmin, login.User.Role)
}
