package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"recipes/internal/domain/service"

	"github.com/pkg/errors"
)

const sessionTokenBytes = 32

type sessionTokenService struct{}

// NewSessionTokenService returns a token service producing 256-bit random tokens.
func NewSessionTokenService() service.SessionTokenService {
	return &sessionTokenService{}
}

// Generate returns a URL-safe random token suitable for a cookie value.
func (s *sessionTokenService) Generate() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash returns the hex SHA-256 of the token.
func (s *sessionTokenService) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}
