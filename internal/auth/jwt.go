package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims
// RegisteredClaims.ID carries the session id checked against the SessionStore
type Claims struct {
	UID       int    `json:"uid"`
	CompanyID int    `json:"cid"`
	Username  string `json:"sub"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token was issued for
func (c *Claims) SessionID() string {
	return c.ID
}

var jwtSecret []byte

// InitJWT initializes JWT secret
func InitJWT(secret string) {
	jwtSecret = []byte(secret)
}

// TokenSpec describes a token to issue
type TokenSpec struct {
	UID       int
	CompanyID int
	Username  string
	Role      string
	SessionID string
	ExpireAt  time.Time
	Issuer    string
}

// GenerateToken generates a JWT token
func GenerateToken(spec TokenSpec) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	claims := Claims{
		UID:       spec.UID,
		CompanyID: spec.CompanyID,
		Username:  spec.Username,
		Role:      spec.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        spec.SessionID,
			Subject:   spec.Username,
			ExpiresAt: jwt.NewNumericDate(spec.ExpireAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    spec.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseToken parses and validates a JWT token
func ParseToken(tokenString string) (*Claims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
