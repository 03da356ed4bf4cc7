package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyToken(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("cleanup-secret")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("unexpected hash format: %q", hash)
	}

	if !VerifyToken("cleanup-secret", hash) {
		t.Fatal("matching token should verify")
	}
	if VerifyToken("wrong-secret", hash) {
		t.Fatal("wrong token must not verify")
	}
	if !VerifyToken("  cleanup-secret  ", hash) {
		t.Fatal("surrounding whitespace should be ignored")
	}
}

func TestHashTokenRejectsBlank(t *testing.T) {
	t.Parallel()

	if _, err := HashToken("   "); err == nil {
		t.Fatal("blank token must be rejected")
	}
}

func TestVerifyTokenBlankInputs(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("x")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	if VerifyToken("", hash) {
		t.Fatal("empty token must not verify")
	}
	if VerifyToken("x", "") {
		t.Fatal("empty hash must not verify")
	}
}
