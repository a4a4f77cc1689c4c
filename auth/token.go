package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"query-server/entities"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

const guestPrefix = "guest:"

// Principal is the identity a verified token carries.
type Principal struct {
	Subject  string
	Mode     entities.AppMode
	Username string
}

// GuestPrincipal builds the identity of an anonymous on-device guest.
func GuestPrincipal(deviceID string) Principal {
	return Principal{Subject: guestPrefix + deviceID, Mode: entities.ModeGuest, Username: "guest"}
}

// Anonymous reports whether p belongs to no account at all.
func (p Principal) Anonymous() bool {
	return strings.HasPrefix(p.Subject, guestPrefix)
}

// OwnerKey identifies the owner of history and config rows. The mode prefix
// keeps a local and a remote account with the same id apart in shared caches.
func (p Principal) OwnerKey() string {
	return string(p.Mode) + "|" + p.Subject
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
}

// NewIssuer creates an Issuer with the given secret
func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: secret}
}

// Generate creates a token for p valid for expiresIn.
func (i *Issuer) Generate(p Principal, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      p.Subject,
		"mode":     string(p.Mode),
		"username": p.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(expiresIn).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify validates tokenString and returns the principal it names.
func (i *Issuer) Verify(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrExpiredToken
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Principal{}, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	mode, ok := claims["mode"].(string)
	if !ok || mode == "" {
		return Principal{}, fmt.Errorf("%w: mode", ErrMissingClaim)
	}
	username, _ := claims["username"].(string)

	return Principal{Subject: sub, Mode: entities.ParseAppMode(mode), Username: username}, nil
}
