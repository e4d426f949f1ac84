package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is the lifetime of tokens issued from the command line.
const DefaultTTL = 30 * 24 * time.Hour

// ErrDisabled is returned when no signing secret is configured.
var ErrDisabled = errors.New("authentication is not configured")

var jwtSecret []byte

// AppClaims represents the custom claims for the JWT.
type AppClaims struct {
	jwt.RegisteredClaims
	Device string `json:"device,omitempty"`
}

// InitAuth reads JWT_SECRET. Without it the API is served unauthenticated,
// which suits a diary bound to localhost.
func InitAuth() {
	SetSecret([]byte(os.Getenv("JWT_SECRET")))
	if Enabled() {
		logrus.Info("JWT authentication enabled for the API.")
	} else {
		logrus.Warn("JWT_SECRET is not set. The API is served without authentication.")
	}
}

// SetSecret replaces the signing secret.
func SetSecret(secret []byte) {
	jwtSecret = secret
}

// Enabled reports whether tokens are required.
func Enabled() bool {
	return len(jwtSecret) > 0
}

// IssueToken signs a token for device valid for ttl.
func IssueToken(device string, ttl time.Duration) (string, error) {
	if !Enabled() {
		return "", ErrDisabled
	}
	now := time.Now()
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "owner",
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Device: device,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ParseJWT(tokenString string) (*AppClaims, error) {
	if !Enabled() {
		return nil, ErrDisabled
	}
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
