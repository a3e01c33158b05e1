package usecase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService verifies the bearer tokens issued by the session service.
type AuthService struct {
	JWTSecret string
	TTL       time.Duration
}

// Issue signs a token for userID. Used by the dev login route and tests.
func (s *AuthService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", ErrBadRequest("user id required")
	}
	ttl := s.TTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.JWTSecret))
}

func (s *AuthService) Verify(token string) (string, error) {
	if s.JWTSecret == "" {
		return "", ErrUnauthorized("auth not configured")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrUnauthorized("invalid token")
	}
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized("invalid claims")
	}
	uid, _ := m["user_id"].(string)
	if uid == "" {
		return "", ErrUnauthorized("user_id claim missing")
	}
	return uid, nil
}
