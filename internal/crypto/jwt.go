package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "taskboard"
	tokenAudience = "taskboard-web"
)

var (
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenNotConfigured = errors.New("token signing is not configured")
	ErrUnsupportedAlg     = errors.New("unsupported signing algorithm")
)

// TokenConfig is the server-held signing setup. All three fields are required.
type TokenConfig struct {
	Algorithm  string
	Secret     string
	Expiration time.Duration
}

// Claims represents the JWT claims carried by a session cookie.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// signingMethod resolves an HMAC algorithm name. Asymmetric algorithms are
// rejected because the token is keyed by a shared secret.
func signingMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
	return m, nil
}

// GenerateToken creates a signed JWT for the given user.
func GenerateToken(userID, email string, cfg TokenConfig) (string, error) {
	if cfg.Algorithm == "" || cfg.Secret == "" || cfg.Expiration <= 0 {
		return "", ErrTokenNotConfigured
	}
	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(method, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ValidateToken parses and validates a token string, returning the claims if valid.
// Only the configured algorithm is accepted.
func ValidateToken(tokenString string, cfg TokenConfig) (*Claims, error) {
	if cfg.Secret == "" || cfg.Algorithm == "" {
		return nil, ErrTokenNotConfigured
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{cfg.Algorithm}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
