package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/config"
	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stemsi/certifypro-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrDuplicateRegistration = errors.New("an account with this email already exists")
	ErrSessionInvalidated    = errors.New("session was replaced by a newer login")
	ErrUserNotFound          = errors.New("user not found")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// AuthService handles registration, login, JWT and the current-session marker.
type AuthService struct {
	cfg     *config.Config
	users   repository.UserRepository
	markers repository.SessionMarkerRepository
	log     zerolog.Logger
	now     func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users repository.UserRepository, markers repository.SessionMarkerRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:     cfg,
		users:   users,
		markers: markers,
		log:     log.With().Str("component", "auth_service").Logger(),
		now:     time.Now,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// CreateUser stores a new user without logging them in.
func (s *AuthService) CreateUser(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := NormalizeEmail(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateRegistration
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:             uuid.New(),
		Email:          email,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		PasswordHash:   hash,
		CompletedExams: []string{},
		CreatedAt:      s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateRegistration
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", u.ID.String()).Msg("User registered")
	return u, nil
}

// Register creates an account and logs the new user in.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	u, err := s.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, u)
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	return s.issue(ctx, u)
}

// issue signs a token and records it as the user's current session. A newer
// login replaces the marker and so invalidates older tokens.
func (s *AuthService) issue(ctx context.Context, u *model.User) (*model.AuthResponse, error) {
	jti := uuid.New().String()
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: u.ID,
		Email:  u.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	marker := &model.SessionMarker{User: u.Public(), TokenID: jti, CreatedAt: now.UTC()}
	if err := s.markers.Put(ctx, u.ID, marker, s.cfg.JWTExpiry); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &model.AuthResponse{Token: signed, User: u.Public()}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateSession checks that the token's JTI is the user's current session.
func (s *AuthService) ValidateSession(ctx context.Context, userID uuid.UUID, jti string) error {
	m, err := s.markers.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMarkerNotFound) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if m.TokenID != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout clears the session marker if it still belongs to this token.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, jti string) error {
	m, err := s.markers.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMarkerNotFound) {
			return nil
		}
		return fmt.Errorf("check session: %w", err)
	}
	if m.TokenID != jti {
		return nil
	}
	if err := s.markers.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.log.Info().Str("user_id", userID.String()).Msg("User logged out")
	return nil
}

// CurrentUser returns the stored user record.
func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// SyncMarker refreshes the user snapshot held in the session marker, keeping
// its token and remaining lifetime. A missing marker is not an error.
func (s *AuthService) SyncMarker(ctx context.Context, userID uuid.UUID) error {
	m, err := s.markers.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMarkerNotFound) {
			return nil
		}
		return err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ttl := m.CreatedAt.Add(s.cfg.JWTExpiry).Sub(s.now())
	if ttl <= 0 {
		return s.markers.Delete(ctx, userID)
	}
	m.User = u.Public()
	return s.markers.Put(ctx, userID, m, ttl)
}
