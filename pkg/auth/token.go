package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/commercegrid/acp-checkout-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ClientClaims identifies the agent platform calling the checkout API.
type ClientClaims struct {
	ClientName string `json:"client_name,omitempty"`
	jwt.RegisteredClaims
}

// MintClientToken issues a signed JWT for an agent client. Used by the
// token CLI and by tests; the API itself only verifies.
func MintClientToken(cfg config.AuthConfig, now time.Time, clientName string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if strings.TrimSpace(cfg.JWTIssuer) == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	claims := ClientClaims{
		ClientName: strings.TrimSpace(clientName),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			Subject:   strings.TrimSpace(clientName),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseClientToken validates the JWT string and returns typed claims.
func ParseClientToken(cfg config.AuthConfig, tokenString string) (*ClientClaims, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &ClientClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.JWTIssuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
