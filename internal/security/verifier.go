package security

import (
	"crypto"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed or invalid.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims holds JWT claims for access tokens minted by the external auth layer.
// SessionID identifies the caller's current session record; handlers pass it
// explicitly to operations that need to know which session is "this one".
type AccessClaims struct {
	jwt.RegisteredClaims
	OrgID     string `json:"org_id"`
	SessionID string `json:"session_id"`
}

// Verifier validates JWT access tokens using RS256 or ES256 (public key only).
// This service never mints tokens; issuing lives in the auth layer.
type Verifier struct {
	publicKey crypto.PublicKey
	issuer    string
	audience  string
}

// NewVerifier returns a Verifier for the given public key, issuer, and audience.
func NewVerifier(publicKey crypto.PublicKey, issuer, audience string) *Verifier {
	return &Verifier{publicKey: publicKey, issuer: issuer, audience: audience}
}

// ValidateAccess parses and validates the access token (signature, exp, iss, aud).
// Returns sessionID, userID, orgID, or error.
func (p *Verifier) ValidateAccess(tokenString string) (sessionID, userID, orgID string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); ok {
			return p.publicKey, nil
		}
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); ok {
			return p.publicKey, nil
		}
		return nil, ErrInvalidToken
	})
	if err != nil {
		return "", "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return "", "", "", ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return "", "", "", ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return "", "", "", ErrInvalidToken
	}
	return claims.SessionID, claims.Subject, claims.OrgID, nil
}
