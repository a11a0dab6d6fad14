package service

// SessionTokenService issues opaque session tokens and derives their storage keys.
type SessionTokenService interface {
	// Generate returns a new random token to hand to the client.
	Generate() (string, error)

	// Hash derives the value stored server-side for a token.
	Hash(token string) string
}
