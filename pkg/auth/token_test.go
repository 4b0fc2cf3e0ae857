package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/commercegrid/acp-checkout-backend/pkg/config"
)

func TestMintAndParseClientToken(t *testing.T) {
	cfg := config.AuthConfig{
		JWTSecret: "secret",
		JWTIssuer: "commercegrid",
	}
	now := time.Now().UTC()

	token, err := MintClientToken(cfg, now, "shopping-agent", 30*time.Minute)
	if err != nil {
		t.Fatalf("mint client token: %v", err)
	}

	claims, err := ParseClientToken(cfg, token)
	if err != nil {
		t.Fatalf("parse client token: %v", err)
	}

	if claims.ClientName != "shopping-agent" {
		t.Fatalf("expected client shopping-agent, got %s", claims.ClientName)
	}
	if claims.Issuer != cfg.JWTIssuer {
		t.Fatalf("expected issuer %s, got %s", cfg.JWTIssuer, claims.Issuer)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseClientTokenInvalidSignature(t *testing.T) {
	cfg := config.AuthConfig{
		JWTSecret: "secret",
		JWTIssuer: "commercegrid",
	}

	token, err := MintClientToken(cfg, time.Now(), "agent", 10*time.Minute)
	if err != nil {
		t.Fatalf("mint client token: %v", err)
	}

	if _, err := ParseClientToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseClientTokenExpired(t *testing.T) {
	cfg := config.AuthConfig{
		JWTSecret: "secret",
		JWTIssuer: "commercegrid",
	}

	token, err := MintClientToken(cfg, time.Now().Add(-time.Hour), "agent", 15*time.Minute)
	if err != nil {
		t.Fatalf("mint client token: %v", err)
	}

	_, err = ParseClientToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseClientTokenWrongIssuer(t *testing.T) {
	mintCfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "someone-else"}
	token, err := MintClientToken(mintCfg, time.Now(), "agent", 10*time.Minute)
	if err != nil {
		t.Fatalf("mint client token: %v", err)
	}

	parseCfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "commercegrid"}
	if _, err := ParseClientToken(parseCfg, token); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestMintClientTokenMissingSecret(t *testing.T) {
	cfg := config.AuthConfig{JWTIssuer: "commercegrid"}
	if _, err := MintClientToken(cfg, time.Now(), "agent", 5*time.Minute); err == nil {
		t.Fatal("expected missing secret error")
	}
}
