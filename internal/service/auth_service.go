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
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBlocked        = errors.New("account is blocked")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// AuthService handles passwords, JWTs and the single active session per
// account.
type AuthService struct {
	cfg      *config.Config
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	admin    *AdminService
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, users *repository.UserRepository, sessions *repository.SessionRepository, adminSvc *AdminService, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		users:    users,
		sessions: sessions,
		admin:    adminSvc,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
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

// Login verifies the password and opens a new session. Any previous token
// of the account stops working.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthSession, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, ok := s.admin.UserByEmail(email)
	if !ok {
		return model.AuthSession{}, ErrInvalidCredentials
	}
	cred, ok := s.users.GetCredential(ctx, email)
	if !ok {
		return model.AuthSession{}, ErrInvalidCredentials
	}
	if err := s.CheckPassword(cred.PasswordHash, req.Password); err != nil {
		return model.AuthSession{}, err
	}
	if user.IsBlocked {
		return model.AuthSession{}, ErrUserBlocked
	}

	now := time.Now()
	res, err := s.admin.Dispatch(ctx, admin.UpsertUser{User: model.AdminUserRecord{Email: email, LastLogin: &now}})
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to record last login")
	} else if u, ok := findUser(res.State.Users, email); ok {
		user = u
	}

	token, err := s.GenerateToken(ctx, user)
	if err != nil {
		return model.AuthSession{}, err
	}
	return model.AuthSession{Token: token, User: user}, nil
}

// Register creates a candidate account and signs it in. The account is
// claimed through the admin session first, so of two concurrent
// registrations for one email only one reaches the credential write.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthSession, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == s.cfg.BuiltinAdminEmail {
		return model.AuthSession{}, ErrEmailTaken
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return model.AuthSession{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	res, err := s.admin.Dispatch(ctx, admin.UpsertUser{
		User: model.AdminUserRecord{
			Email:     email,
			FullName:  req.FullName,
			Role:      model.RoleUser,
			LastLogin: &now,
		},
		CreateOnly: true,
	})
	if errors.Is(err, admin.ErrEmailExists) {
		return model.AuthSession{}, ErrEmailTaken
	}
	if err != nil {
		return model.AuthSession{}, err
	}
	user, _ := findUser(res.State.Users, email)

	if err := s.users.SaveCredential(ctx, model.Credential{Email: email, PasswordHash: hash}); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("account created without credential")
		return model.AuthSession{}, fmt.Errorf("store credential: %w", err)
	}

	token, err := s.GenerateToken(ctx, user)
	if err != nil {
		return model.AuthSession{}, err
	}
	s.log.Info().Str("email", email).Msg("User registered")
	return model.AuthSession{Token: token, User: user}, nil
}

func findUser(users []model.AdminUserRecord, email string) (model.AdminUserRecord, bool) {
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return model.AdminUserRecord{}, false
}

// GenerateToken creates a JWT for user and records it as the active session.
func (s *AuthService) GenerateToken(ctx context.Context, user model.AdminUserRecord) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Email: user.Email,
		Role:  user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.sessions.SetActive(ctx, user.Email, jti); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
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

// ValidateSession checks that the token is the account's active session and
// that the account may still sign in.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) (model.AdminUserRecord, error) {
	active, ok := s.sessions.Active(ctx, claims.Email)
	if !ok || active != claims.ID {
		return model.AdminUserRecord{}, ErrSessionInvalidated
	}
	user, ok := s.admin.UserByEmail(claims.Email)
	if !ok {
		return model.AdminUserRecord{}, ErrSessionInvalidated
	}
	if user.IsBlocked {
		return model.AdminUserRecord{}, ErrUserBlocked
	}
	return user, nil
}

// Logout ends the account's active session.
func (s *AuthService) Logout(ctx context.Context, email string) error {
	return s.sessions.Clear(ctx, email)
}

// EnsureAccount creates or updates an account with a password, used by the
// provisioning commands.
func (s *AuthService) EnsureAccount(ctx context.Context, email, fullName string, role model.Role, password string) (model.AdminUserRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := s.HashPassword(password)
	if err != nil {
		return model.AdminUserRecord{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SaveCredential(ctx, model.Credential{Email: email, PasswordHash: hash}); err != nil {
		return model.AdminUserRecord{}, fmt.Errorf("store credential: %w", err)
	}
	res, err := s.admin.Dispatch(ctx, admin.UpsertUser{User: model.AdminUserRecord{Email: email, FullName: fullName, Role: role}})
	if err != nil {
		return model.AdminUserRecord{}, err
	}
	user, _ := findUser(res.State.Users, email)
	return user, nil
}
