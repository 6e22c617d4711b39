package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ManuelReschke/FreelanceFlow/app/models"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/env"
)

const tokenIssuer = "freelanceflow"

var (
	ErrMissingSecret = errors.New("secret is required for token signing")
	ErrInvalidToken  = errors.New("invalid access token")
)

// AccessTokenClaims are carried by API bearer tokens.
type AccessTokenClaims struct {
	Role models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// LoadTokenConfig reads AUTH_TOKEN_SECRET and AUTH_TOKEN_TTL.
func LoadTokenConfig() TokenConfig {
	return TokenConfig{
		Secret: env.GetEnv("AUTH_TOKEN_SECRET", ""),
		TTL:    env.GetDuration("AUTH_TOKEN_TTL", 24*time.Hour),
	}
}

// GenerateAccessToken signs an HS256 token for the user.
func GenerateAccessToken(user *models.User, cfg TokenConfig, now time.Time) (string, time.Time, error) {
	if cfg.Secret == "" {
		return "", time.Time{}, ErrMissingSecret
	}
	expires := now.Add(cfg.TTL)
	claims := AccessTokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expires, nil
}

// VerifyAccessToken parses and validates a bearer token.
func VerifyAccessToken(raw string, cfg TokenConfig) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	claims := &AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
