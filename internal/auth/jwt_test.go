package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenSource(t *testing.T) {
	source, err := NewTokenSource("test-secret", "payer-h", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenSource failed: %v", err)
	}

	t.Run("Token round trips through Validate", func(t *testing.T) {
		token, err := source.Token()
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}

		claims, err := source.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.Payer != "payer-h" || claims.Subject != "payer-h" {
			t.Errorf("unexpected claims: %+v", claims)
		}
		if claims.ID == "" {
			t.Error("expected a token ID")
		}
	})

	t.Run("Tokens are unique", func(t *testing.T) {
		a, _ := source.Token()
		b, _ := source.Token()
		if a == b {
			t.Error("expected distinct tokens")
		}
	})

	t.Run("Validate rejects a different secret", func(t *testing.T) {
		other, _ := NewTokenSource("other-secret", "payer-h", time.Minute)
		token, _ := other.Token()
		if _, err := source.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Validate rejects expired tokens", func(t *testing.T) {
		expired, _ := NewTokenSource("test-secret", "payer-h", -time.Minute)
		token, _ := expired.Token()
		if _, err := source.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Validate rejects garbage", func(t *testing.T) {
		if _, err := source.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestNewTokenSource_MissingSecret(t *testing.T) {
	if _, err := NewTokenSource("", "payer-h", time.Minute); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}
