package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashSessionToken returns a SHA-256 hash of the opaque session token, hex-encoded.
// Session records are keyed by this hash so the raw token is never stored.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionTokenHashEqual performs constant-time comparison of the provided token's hash
// with the stored hash. Returns true only if they match.
func SessionTokenHashEqual(providedToken, storedHash string) bool {
	providedHash := HashSessionToken(providedToken)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}
