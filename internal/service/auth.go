package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ebraholidays/voyager/internal/model"
	"github.com/ebraholidays/voyager/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// DefaultTokenTTL is how long a session token stays valid after issuance.
const DefaultTokenTTL = 24 * time.Hour

// AuthService issues and verifies admin session tokens and performs all
// credential checks. Tokens are HS256 JWTs carrying the admin ID and the
// token version the admin had at issuance; bumping the stored version
// (logout, password change) invalidates every outstanding token.
type AuthService struct {
	store     *store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates an AuthService. A zero ttl falls back to
// DefaultTokenTTL.
func NewAuthService(st *store.Store, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AuthService{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  ttl,
	}
}

type sessionClaims struct {
	AdminID      int64 `json:"admin_id"`
	TokenVersion int64 `json:"token_version"`
	jwt.RegisteredClaims
}

// IssueToken creates a new signed session token for the given admin.
func (s *AuthService) IssueToken(admin *model.Admin) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		AdminID:      admin.ID,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "voyager",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken checks a session token's signature, expiry, and version, and
// returns the admin it was issued to. Any failure (malformed token, bad
// signature, expiry, stale version, deleted admin) yields ErrInvalidToken.
func (s *AuthService) VerifyToken(ctx context.Context, tokenStr string) (*model.Admin, error) {
	claims := &sessionClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	admin, err := s.store.GetAdmin(ctx, claims.AdminID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if admin.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidToken
	}
	return admin, nil
}

// Login verifies the email/password pair, records the login time, and issues
// a session token. Unknown emails and wrong passwords are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Admin, string, error) {
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("look up admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(admin)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.store.UpdateAdminLastLogin(ctx, admin.ID); err != nil {
		return nil, "", fmt.Errorf("update last login: %w", err)
	}
	return admin, token, nil
}

// ChangePassword verifies the current password and replaces it. The stored
// token version is bumped as part of the update, so tokens issued before the
// change stop verifying immediately.
func (s *AuthService) ChangePassword(ctx context.Context, adminID int64, current, next string) error {
	admin, err := s.store.GetAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("look up admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.UpdateAdminPassword(ctx, adminID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Logout invalidates all outstanding tokens for the admin by bumping the
// stored token version.
func (s *AuthService) Logout(ctx context.Context, adminID int64) error {
	if err := s.store.BumpAdminTokenVersion(ctx, adminID); err != nil {
		return fmt.Errorf("invalidate tokens: %w", err)
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
