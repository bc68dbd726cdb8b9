package security

import (
	"strings"
	"testing"
)

func TestHashSessionToken_Deterministic(t *testing.T) {
	h1 := HashSessionToken("tok-abc")
	h2 := HashSessionToken("tok-abc")
	if h1 != h2 {
		t.Errorf("same token hashed to %q and %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
	if strings.ToLower(h1) != h1 {
		t.Error("hash should be lowercase hex")
	}
}

func TestHashSessionToken_DifferentTokens(t *testing.T) {
	if HashSessionToken("tok-a") == HashSessionToken("tok-b") {
		t.Error("different tokens should not collide")
	}
}

func TestSessionTokenHashEqual(t *testing.T) {
	stored := HashSessionToken("tok-abc")
	if !SessionTokenHashEqual("tok-abc", stored) {
		t.Error("matching token should compare equal")
	}
	if SessionTokenHashEqual("tok-other", stored) {
		t.Error("non-matching token should not compare equal")
	}
	if SessionTokenHashEqual("", stored) {
		t.Error("empty token should not compare equal")
	}
}
