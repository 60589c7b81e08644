package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"safecampus/database"
	"safecampus/metrics"
	"safecampus/models"

	"github.com/apex/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is how long an admin token stays valid after login.
const TokenTTL = 8 * time.Hour

// AdminRepository reads admin credential records.
type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	GetByID(ctx context.Context, id string) (*models.AdminUser, error)
}

// AdminClaims are the claims of an admin token. Subject holds the admin id.
type AdminClaims struct {
	Email      string `json:"email"`
	University string `json:"university"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService logs admins in and verifies their bearer tokens.
type AuthService struct {
	admins    AdminRepository
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthService creates an auth service signing tokens with jwtSecret.
func NewAuthService(admins AdminRepository, jwtSecret string) *AuthService {
	return &AuthService{
		admins:    admins,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// compareDummy burns a bcrypt comparison so unknown emails cost as much as wrong passwords.
func compareDummy(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("safecampus-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// Login checks the credentials and returns a signed token with the admin's public profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.AdminProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, invalid("email and password are required")
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		compareDummy(password)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(admin)
	if err != nil {
		return "", nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.WithField("admin_id", admin.ID).Info("Admin logged in")

	return token, &models.AdminProfile{
		Email:      admin.Email,
		University: admin.University,
		Role:       admin.Role,
	}, nil
}

func (s *AuthService) generateToken(admin *models.AdminUser) (string, error) {
	now := s.now()
	claims := AdminClaims{
		Email:      admin.Email,
		University: admin.University,
		Role:       admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Authenticate verifies an Authorization header value and resolves the admin
// it belongs to.
func (s *AuthService) Authenticate(ctx context.Context, authHeader string) (*models.AdminIdentity, error) {
	tokenString := extractToken(authHeader)
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, ErrTokenRejected
	}

	admin, err := s.admins.GetByID(ctx, claims.Subject)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	return &models.AdminIdentity{
		ID:         admin.ID,
		Email:      admin.Email,
		University: admin.University,
		Role:       admin.Role,
	}, nil
}

func (s *AuthService) parseToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid subject in token")
	}
	return claims, nil
}

// extractToken returns the token of a "Bearer <token>" header value.
func extractToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
