// Package auth covers the two credential surfaces: JWT sessions for
// the admin interface and HMAC-signed API keys for scheduler clients.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// Service signs and verifies credentials with secrets injected at
// construction, never read from the environment at call time.
type Service struct {
	jwtSecret    []byte
	masterSecret []byte
}

// New builds an auth service from the configured secrets.
func New(jwtSecret, masterSecret string) *Service {
	return &Service{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
	}
}

// Claims are the JWT claims carried by an admin session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// CreateToken issues a 24h admin session token.
func (s *Service) CreateToken(username string) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// VerifyToken checks an admin session token and returns its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateAPIKey creates a client key of the form name.signature,
// signed with HMAC-SHA256 so it can be verified statelessly.
func (s *Service) GenerateAPIKey(name string) string {
	return name + "." + s.sign(name)
}

// VerifyAPIKey validates an HMAC-signed key and returns the client
// name embedded in it.
func (s *Service) VerifyAPIKey(key string) (string, error) {
	name, signature, ok := strings.Cut(key, ".")
	if !ok {
		return "", errors.New("invalid key format")
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(name))) {
		return "", errors.New("invalid signature")
	}
	return name, nil
}

func (s *Service) sign(name string) string {
	h := hmac.New(sha256.New, s.masterSecret)
	h.Write([]byte(name))
	return hex.EncodeToString(h.Sum(nil))
}

// HashPassword hashes an admin password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
