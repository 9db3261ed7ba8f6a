// Package auth implements the auth provider capability: sign-up, sign-in,
// session retrieval, and sign-out, backed by bcrypt passwords and JWT
// bearer tokens.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tangent-server/internal/domain/user"
	"tangent-server/internal/utils/apperrors"
)

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *user.User
}

// Config carries token and password policy settings.
type Config struct {
	JWTSecret       []byte
	TokenTTL        time.Duration
	Issuer          string
	BcryptCost      int
	MinPasswordSize int
}

// Service issues and validates sessions.
type Service struct {
	users    user.Repository
	cfg      Config
	validate *validator.Validate
}

func NewService(users user.Repository, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.MinPasswordSize == 0 {
		cfg.MinPasswordSize = 8
	}
	return &Service{
		users:    users,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// SignUp registers a new account with optional profile fields.
func (s *Service) SignUp(ctx context.Context, email, password string, profile map[string]string) (*user.User, error) {
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeValidation, "invalid email address", err)
	}
	if len(password) < s.cfg.MinPasswordSize {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeValidation, "password too short", nil)
	}

	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeConflict, "email already registered", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeInternal, "failed to hash password", err)
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Profile:      profile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypePersistence, "failed to create user", err)
	}
	return u, nil
}

// SignIn verifies credentials and issues a bearer token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeUnauthorized, "invalid credentials", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeUnauthorized, "invalid credentials", nil)
	}

	expiresAt := time.Now().Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		Issuer:    s.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.JWTSecret)
	if err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeInternal, "failed to sign token", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

// CurrentUser resolves the bearer token back to its user.
func (s *Service) CurrentUser(ctx context.Context, token string) (*user.User, error) {
	userID, err := s.ParseToken(token)
	if err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeUnauthorized, "invalid token", err)
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "user not found")
	}
	return u, nil
}

// ParseToken validates a bearer token and returns the subject user ID.
func (s *Service) ParseToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.cfg.JWTSecret, nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token claims")
	}
	return uuid.Parse(claims.Subject)
}
