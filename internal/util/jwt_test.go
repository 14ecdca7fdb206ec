package util

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"

	tokenStr, err := GenerateToken(secret, "hematyu", 42, "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseToken(secret, tokenStr)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", claims.SessionID)
	}
	if claims.Issuer != "hematyu" {
		t.Errorf("Issuer = %q, want hematyu", claims.Issuer)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	tokenStr, err := GenerateToken("secret-a", "hematyu", 1, "sess", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("secret-b", tokenStr); err == nil {
		t.Error("token signed with another secret should not parse")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tokenStr, err := GenerateToken("secret", "hematyu", 1, "sess", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("secret", tokenStr); err == nil {
		t.Error("expired token should not parse")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken("secret", "not.a.token"); err == nil {
		t.Error("garbage token should not parse")
	}
}
