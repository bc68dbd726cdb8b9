package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, claims AccessClaims) string {
	t.Helper()
	signer, err := ParsePrivateKey(testPrivateKeyPEM)
	if err != nil {
		t.Fatalf("parse test private key: %v", err)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	s, err := tok.SignedString(signer)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims() AccessClaims {
	now := time.Now().UTC()
	return AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "test-issuer",
			Audience:  jwt.ClaimStrings{"test-audience"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
		OrgID:     "org-1",
		SessionID: "sess-1",
	}
}

func TestVerifier_ValidateAccess(t *testing.T) {
	v, err := NewTestVerifier()
	if err != nil {
		t.Fatalf("NewTestVerifier: %v", err)
	}
	token := signTestToken(t, validClaims())

	sessionID, userID, orgID, err := v.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if sessionID != "sess-1" {
		t.Errorf("sessionID = %q, want sess-1", sessionID)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want user-1", userID)
	}
	if orgID != "org-1" {
		t.Errorf("orgID = %q, want org-1", orgID)
	}
}

func TestVerifier_RejectsExpired(t *testing.T) {
	v, err := NewTestVerifier()
	if err != nil {
		t.Fatalf("NewTestVerifier: %v", err)
	}
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().UTC().Add(-time.Minute))
	token := signTestToken(t, claims)

	if _, _, _, err := v.ValidateAccess(token); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestVerifier_RejectsWrongIssuer(t *testing.T) {
	v, err := NewTestVerifier()
	if err != nil {
		t.Fatalf("NewTestVerifier: %v", err)
	}
	claims := validClaims()
	claims.Issuer = "other-issuer"
	token := signTestToken(t, claims)

	if _, _, _, err := v.ValidateAccess(token); err == nil {
		t.Fatal("token with wrong issuer should be rejected")
	}
}

func TestVerifier_RejectsWrongAudience(t *testing.T) {
	v, err := NewTestVerifier()
	if err != nil {
		t.Fatalf("NewTestVerifier: %v", err)
	}
	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"other-audience"}
	token := signTestToken(t, claims)

	if _, _, _, err := v.ValidateAccess(token); err == nil {
		t.Fatal("token with wrong audience should be rejected")
	}
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	v, err := NewTestVerifier()
	if err != nil {
		t.Fatalf("NewTestVerifier: %v", err)
	}
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, _, _, err := v.ValidateAccess(tok); err == nil {
			t.Errorf("token %q should be rejected", tok)
		}
	}
}

func TestParsePublicKey_Invalid(t *testing.T) {
	if _, err := ParsePublicKey(""); err == nil {
		t.Error("empty input should fail")
	}
	if _, err := ParsePublicKey("-----BEGIN PUBLIC KEY-----\ngarbage\n-----END PUBLIC KEY-----"); err == nil {
		t.Error("garbage PEM should fail")
	}
}
