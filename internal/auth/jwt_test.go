package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestCreateAndVerifyToken(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := CreateToken("user-1", "a@b.co", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	claims, err := VerifyToken(tok, cfg)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID())
	}
	if claims.Email != "a@b.co" || claims.Role != "authenticated" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"}
	tok, err := CreateToken("user-1", "", cfg)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	_, err = VerifyToken(tok, TokenConfig{Secret: "wrong"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestCreateToken_InvalidExpiry(t *testing.T) {
	cfg := TokenConfig{Secret: "secret", Expiry: -time.Second, Issuer: "test"}
	_, err := CreateToken("user-1", "", cfg)
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseAccessToken_Unverified(t *testing.T) {
	minted := TokenConfig{Secret: "server-side", Expiry: time.Hour}
	tok, err := CreateToken("user-1", "", minted)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	claims, err := ParseAccessToken(tok, TokenConfig{})
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Fatalf("expected user-1, got %q", claims.UserID())
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	tok, err := CreateToken("user-1", "", TokenConfig{Secret: "s", Expiry: time.Hour, Now: func() time.Time { return past }})
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	if _, err := ParseAccessToken(tok, TokenConfig{}); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, err := ParseAccessToken(tok, TokenConfig{Secret: "s"}); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired when verified, got %v", err)
	}
}

func TestParseAccessToken_Garbage(t *testing.T) {
	if _, err := ParseAccessToken("not-a-token", TokenConfig{}); err == nil {
		t.Fatalf("expected error")
	}
}
