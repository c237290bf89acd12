// Package auth authenticates admin panel users against bcrypt hashed admin
// records and issues the signed session token kept in the admin cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/CLDWare/evaluations-backend/config"
	models "github.com/CLDWare/evaluations-backend/pkg/db"
	"github.com/CLDWare/evaluations-backend/pkg/logger"
)

// CookieName is the cookie holding the admin session token
const CookieName = "admin_session"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AdminClaims are the JWT claims of an admin session
type AdminClaims struct {
	AdminID uint   `json:"adminId"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// Session is a freshly issued admin session
type Session struct {
	Token     string
	AdminID   uint
	Email     string
	ExpiresAt time.Time
}

type Service struct {
	db              *gorm.DB
	jwtSecret       []byte
	sessionDuration time.Duration
	now             func() time.Time
}

func NewService(cfg *config.Config, db *gorm.DB) *Service {
	return &Service{
		db:              db,
		jwtSecret:       []byte(cfg.Admin.JWTSecret),
		sessionDuration: cfg.Admin.SessionDuration,
		now:             time.Now,
	}
}

// SetClock replaces the time source used for issuing and validating tokens
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// EnsureAdmins creates an admin record with the given password for every email that has none.
// Existing admins keep their password.
func (s *Service) EnsureAdmins(ctx context.Context, emails []string, password string) (int, error) {
	created := 0
	for _, email := range emails {
		email = normalizeEmail(email)
		if email == "" {
			continue
		}
		count, err := gorm.G[models.Admin](s.db).Where("email = ?", email).Count(ctx, "id")
		if err != nil {
			return created, fmt.Errorf("failed to look up admin %s: %w", email, err)
		}
		if count > 0 {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return created, fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin := models.Admin{Email: email, PasswordHash: string(hash)}
		if err := gorm.G[models.Admin](s.db).Create(ctx, &admin); err != nil {
			return created, fmt.Errorf("failed to create admin %s: %w", email, err)
		}
		logger.Info("Created admin account for", email)
		created++
	}
	return created, nil
}

// Login checks the credentials and issues a signed session token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	admin, err := gorm.G[models.Admin](s.db).Where("email = ?", normalizeEmail(email)).First(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.sessionDuration)
	claims := &AdminClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(admin.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign admin token: %w", err)
	}

	return &Session{
		Token:     tokenString,
		AdminID:   admin.ID,
		Email:     admin.Email,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate verifies an admin token and returns its claims
func (s *Service) Validate(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
