package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgauth "github.com/commercegrid/acp-checkout-backend/pkg/auth"
	"github.com/commercegrid/acp-checkout-backend/pkg/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	cfg := config.AuthConfig{Token: "shared-secret"}
	handler := Auth(cfg, false, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsWrongStaticToken(t *testing.T) {
	cfg := config.AuthConfig{Token: "shared-secret"}
	handler := Auth(cfg, false, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthAllowsStaticToken(t *testing.T) {
	cfg := config.AuthConfig{Token: "shared-secret"}
	handler := Auth(cfg, false, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer shared-secret")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAuthAllowsValidJWT(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "commercegrid"}
	token, err := pkgauth.MintClientToken(cfg, time.Now(), "shopping-agent", time.Hour)
	if err != nil {
		t.Fatalf("mint client token: %v", err)
	}

	var capturedClient string
	handler := Auth(cfg, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedClient = ClientNameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if capturedClient != "shopping-agent" {
		t.Fatalf("expected client shopping-agent got %q", capturedClient)
	}
}

func TestAuthRejectsExpiredJWT(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "secret", JWTIssuer: "commercegrid"}
	token, err := pkgauth.MintClientToken(cfg, time.Now().Add(-2*time.Hour), "agent", time.Hour)
	if err != nil {
		t.Fatalf("mint client token: %v", err)
	}

	handler := Auth(cfg, false, nil)(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthUnconfiguredDevAllows(t *testing.T) {
	handler := Auth(config.AuthConfig{}, true, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAuthUnconfiguredProdRejects(t *testing.T) {
	handler := Auth(config.AuthConfig{}, false, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
