package core

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse")) != nil {
		t.Error("hash does not verify against its password")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong-horse")) == nil {
		t.Error("hash verifies against a different password")
	}

	if _, err := HashPassword("short"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for a short password, got %v", err)
	}
}

func TestNewUserInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		in    NewUserInput
		valid bool
	}{
		{"ok", NewUserInput{Username: "ana", Email: "ana@shop.test", Password: "password1"}, true},
		{"ok with role", NewUserInput{Username: "ana", Email: "ana@shop.test", Role: RoleManager}, true},
		{"missing username", NewUserInput{Email: "ana@shop.test"}, false},
		{"bad email", NewUserInput{Username: "ana", Email: "ana"}, false},
		{"bad role", NewUserInput{Username: "ana", Email: "ana@shop.test", Role: "owner"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
