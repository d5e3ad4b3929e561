package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "playfinder"

// ErrTokenExpired is returned by ValidateToken for expired tokens.
var ErrTokenExpired = errors.New("token expired")

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

type sessionClaims struct {
	Admin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	UserID    string    `json:"user_id"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at"`
}

// GenerateToken issues a token for userID valid for the service TTL.
func (s *TokenService) GenerateToken(userID string, admin bool) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature, algorithm, issuer and expiry.
func (s *TokenService) ValidateToken(token string) (*TokenClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}

	result := &TokenClaims{
		UserID:  claims.Subject,
		IsAdmin: claims.Admin,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	return result, nil
}
