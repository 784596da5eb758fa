package auth

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "author-1",
			Issuer:    "scenario-sheets",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Roles: []string{RoleAuthor},
	}
}

func runJWT(t *testing.T, cfg JWTConfig, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	h := JWTMiddleware(cfg)(func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	})
	err := h(c)
	return seen, err
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected HTTP %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, "")
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runJWT(t, JWTConfig{SigningKey: testSigningKey}, tt.header)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	tokenStr := createTestToken(t, validClaims(), testSigningKey)

	c, err := runJWT(t, JWTConfig{SigningKey: testSigningKey, Issuer: "scenario-sheets"}, "Bearer "+tokenStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("expected handler to be called")
	}
	ctx := c.Request().Context()
	if got := UserIDFromContext(ctx); got != "author-1" {
		t.Errorf("expected user author-1, got %q", got)
	}
	if got := RolesFromContext(ctx); !reflect.DeepEqual(got, []string{RoleAuthor}) {
		t.Errorf("expected roles [author], got %v", got)
	}
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-1 * time.Hour))

	tests := []struct {
		name  string
		token string
		cfg   JWTConfig
	}{
		{"wrong key", createTestToken(t, validClaims(), []byte("another-key")), JWTConfig{SigningKey: testSigningKey}},
		{"expired", createTestToken(t, expired, testSigningKey), JWTConfig{SigningKey: testSigningKey}},
		{"wrong issuer", createTestToken(t, validClaims(), testSigningKey), JWTConfig{SigningKey: testSigningKey, Issuer: "other"}},
		{"wrong audience", createTestToken(t, validClaims(), testSigningKey), JWTConfig{SigningKey: testSigningKey, Audience: "game"}},
		{"garbage", "not.a.token", JWTConfig{SigningKey: testSigningKey}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := runJWT(t, tt.cfg, "Bearer "+tt.token)
			expectStatus(t, err, http.StatusUnauthorized)
			if c != nil {
				t.Error("expected handler not to be called")
			}
		})
	}
}

func TestDevAuthMiddleware_DefaultsToAuthor(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var roles []string
	h := DevAuthMiddleware()(func(c echo.Context) error {
		roles = RolesFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(roles, []string{RoleAuthor}) {
		t.Errorf("expected dev user to be an author, got %v", roles)
	}
}
