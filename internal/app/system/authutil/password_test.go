package authutil

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid minimum length", "abcd1234", nil},
		{"valid typical", "correct horse battery", nil},
		{"valid at max length", strings.Repeat("a", MaxPasswordLength), nil},
		{"empty", "", ErrPasswordTooShort},
		{"one below minimum", "abc1234", ErrPasswordTooShort},
		{"one above maximum", strings.Repeat("a", MaxPasswordLength+1), ErrPasswordTooLong},
		{"far above maximum", strings.Repeat("x", 500), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePassword(%q) = %v, want nil", tt.password, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("my-secret-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if hash == "my-secret-password" {
		t.Fatal("hash must not equal the plain-text password")
	}
	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("expected bcrypt hash prefix, got %q", hash[:4])
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("first hash failed: %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("second hash failed: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPassword("correct-password", hash) {
		t.Error("CheckPassword should accept the correct password")
	}
	if CheckPassword("wrong-password", hash) {
		t.Error("CheckPassword should reject a wrong password")
	}
	if CheckPassword("correct-password", "not-a-bcrypt-hash") {
		t.Error("CheckPassword should reject a malformed hash")
	}
	if CheckPassword("", hash) {
		t.Error("CheckPassword should reject an empty password")
	}
}
