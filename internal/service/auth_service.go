package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/tutorconnect-api/internal/models"
	appErrors "github.com/noah-isme/tutorconnect-api/pkg/errors"
)

// minBlacklistLifetime is the remaining lifetime below which a token is left to
// expire on its own instead of being blacklisted.
const minBlacklistLifetime = 5 * time.Minute

type accountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, kind models.UserKind, id string) (*models.Account, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error
}

type studentCreator interface {
	Create(ctx context.Context, student *models.Student) error
}

type teacherCreator interface {
	Create(ctx context.Context, teacher *models.Teacher) error
}

type tokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) (bool, error)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	Audience           []string
}

// AuthService provides authentication use cases.
type AuthService struct {
	accounts  accountRepository
	students  studentCreator
	teachers  teacherCreator
	blacklist tokenBlacklist
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(accounts accountRepository, students studentCreator, teachers teacherCreator, blacklist tokenBlacklist, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = models.NewValidator()
	}
	if config.RefreshTokenSecret == "" {
		config.RefreshTokenSecret = config.AccessTokenSecret
	}
	return &AuthService{
		accounts:  accounts,
		students:  students,
		teachers:  teachers,
		blacklist: blacklist,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a student or teacher account and signs the user in.
func (s *AuthService) Register(ctx context.Context, kind models.UserKind, req models.RegisterRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	account := models.Account{Name: strings.TrimSpace(req.Name), Email: email, PasswordHash: string(hash), Kind: kind}
	switch kind {
	case models.KindStudent:
		student := &models.Student{Name: account.Name, Email: email, PasswordHash: account.PasswordHash}
		if err := s.students.Create(ctx, student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
		}
		account.ID, account.CreatedAt = student.ID, student.CreatedAt
	case models.KindTeacher:
		teacher := &models.Teacher{
			Name:         account.Name,
			Email:        email,
			PasswordHash: account.PasswordHash,
			Bio:          req.Bio,
			Subjects:     req.Subjects,
			HourlyRate:   req.HourlyRate,
		}
		if err := s.teachers.Create(ctx, teacher); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
		}
		account.ID, account.CreatedAt = teacher.ID, teacher.CreatedAt
	case models.KindAdmin:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "admin accounts cannot self-register")
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	s.logger.Info("account registered", zap.String("user_id", account.ID), zap.String("role", string(kind)))
	return s.issue(&account)
}

// Login authenticates a user of any kind and returns issued tokens.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	account, err := s.accounts.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if account.Banned {
		return nil, appErrors.ErrAccountBanned
	}

	return s.issue(account)
}

// RefreshToken exchanges a refresh token for a new access token.
func (s *AuthService) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	claims, err := s.parse(req.RefreshToken, s.config.RefreshTokenSecret, models.TokenRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotRevoked(ctx, req.RefreshToken); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, claims.Kind, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if account.Banned {
		return nil, appErrors.ErrAccountBanned
	}

	accessToken, _, err := s.sign(account, models.TokenAccess)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate access token")
	}
	return &models.AuthResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    s.now(),
	}, nil
}

// Logout blacklists the access token and, when given, the refresh token for
// the rest of their lifetime. Tokens close to expiry are left alone.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	tokens := []struct {
		raw    string
		secret string
		typ    models.TokenType
	}{
		{accessToken, s.config.AccessTokenSecret, models.TokenAccess},
		{refreshToken, s.config.RefreshTokenSecret, models.TokenRefresh},
	}
	for _, tok := range tokens {
		if tok.raw == "" {
			continue
		}
		claims, err := s.parse(tok.raw, tok.secret, tok.typ)
		if err != nil {
			if tok.typ == models.TokenAccess {
				return err
			}
			s.logger.Debug("ignoring invalid refresh token on logout", zap.Error(err))
			continue
		}
		remaining := claims.ExpiresAt.Time.Sub(s.now())
		if remaining <= minBlacklistLifetime {
			continue
		}
		if err := s.blacklist.Add(ctx, tok.raw, remaining); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke token")
		}
	}
	return nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims, err := s.parse(tokenString, s.config.AccessTokenSecret, models.TokenAccess)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotRevoked(ctx, tokenString); err != nil {
		return nil, err
	}
	return claims, nil
}

// EnsureAdmin creates the bootstrap admin when no account uses its email.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin email: %w", err)
	}
	if exists {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := s.accounts.CreateAdmin(ctx, &models.Admin{Name: name, Email: email, PasswordHash: string(hash)}); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}

func (s *AuthService) ensureNotRevoked(ctx context.Context, token string) error {
	revoked, err := s.blacklist.Contains(ctx, token)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check token")
	}
	if revoked {
		return appErrors.Clone(appErrors.ErrUnauthorized, "token has been revoked")
	}
	return nil
}

func (s *AuthService) issue(account *models.Account) (*models.AuthResponse, error) {
	accessToken, issuedAt, err := s.sign(account, models.TokenAccess)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	refreshToken, _, err := s.sign(account, models.TokenRefresh)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}
	info := account.Info()
	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.AccessTokenExpiry.Seconds()),
		User:         &info,
		IssuedAt:     issuedAt,
	}, nil
}

func (s *AuthService) sign(account *models.Account, typ models.TokenType) (string, time.Time, error) {
	secret, ttl := s.config.AccessTokenSecret, s.config.AccessTokenExpiry
	if typ == models.TokenRefresh {
		secret, ttl = s.config.RefreshTokenSecret, s.config.RefreshTokenExpiry
	}
	issuedAt := s.now()
	claims := &models.JWTClaims{
		UserID: account.ID,
		Kind:   account.Kind,
		Email:  account.Email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   account.ID,
			Audience:  s.config.Audience,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func (s *AuthService) parse(tokenString, secret string, typ models.TokenType) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if len(s.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(s.config.Audience[0]))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Type != typ {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, fmt.Sprintf("expected %s token", typ))
	}
	if _, err := models.ParseUserKind(string(claims.Kind)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token role")
	}
	return claims, nil
}
