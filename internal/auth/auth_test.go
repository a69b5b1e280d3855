package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager("test-secret-key-with-enough-bytes", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := manager.Generate("session-1")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		claims, err := manager.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.SessionID != "session-1" {
			t.Errorf("SessionID = %q, want session-1", claims.SessionID)
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		token, err := NewJWTManager("another-secret", time.Hour).Generate("session-1")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := NewJWTManager("test-secret-key-with-enough-bytes", -time.Minute).Generate("session-1")
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := manager.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("foreign issuer is rejected", func(t *testing.T) {
		claims := &Claims{
			SessionID: "session-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-with-enough-bytes"))
		if err != nil {
			t.Fatalf("SignedString failed: %v", err)
		}
		if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestPasscode(t *testing.T) {
	tests := []struct {
		name     string
		passcode string
		attempt  string
		wantHash error
		wantOK   bool
	}{
		{name: "no passcode accepts anything", passcode: "", attempt: "whatever", wantOK: true},
		{name: "correct passcode", passcode: "1234", attempt: "1234", wantOK: true},
		{name: "wrong passcode", passcode: "1234", attempt: "4321", wantOK: false},
		{name: "too short", passcode: "12", wantHash: ErrWeakPasscode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPasscode(tt.passcode)
			if tt.wantHash != nil {
				if !errors.Is(err, tt.wantHash) {
					t.Fatalf("HashPasscode() error = %v, want %v", err, tt.wantHash)
				}
				return
			}
			if err != nil {
				t.Fatalf("HashPasscode() error = %v", err)
			}

			err = CheckPasscode(hash, tt.attempt)
			if tt.wantOK && err != nil {
				t.Errorf("CheckPasscode() error = %v, want nil", err)
			}
			if !tt.wantOK && !errors.Is(err, ErrInvalidPasscode) {
				t.Errorf("CheckPasscode() error = %v, want ErrInvalidPasscode", err)
			}
		})
	}
}
