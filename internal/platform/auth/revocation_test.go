package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func fixedRevocations(now time.Time) *Revocations {
	r := NewRevocations()
	r.now = func() time.Time { return now }
	return r
}

func TestRevocations_Token(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := fixedRevocations(now)

	claims := validClaims()
	claims.ID = "jti-1"
	if r.IsRevoked(&claims) {
		t.Fatal("expected token to be accepted before revocation")
	}

	r.RevokeToken("jti-1", now.Add(time.Hour))
	if !r.IsRevoked(&claims) {
		t.Error("expected revoked jti to be rejected")
	}

	other := validClaims()
	other.ID = "jti-2"
	if r.IsRevoked(&other) {
		t.Error("expected other jti to be accepted")
	}
}

func TestRevocations_PrunesExpiredTokens(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := fixedRevocations(now)
	r.RevokeToken("old", now.Add(-time.Minute))
	r.RevokeToken("new", now.Add(time.Hour))

	list := r.List()
	if len(list.Tokens) != 1 || list.Tokens[0].JTI != "new" {
		t.Errorf("expected only the unexpired entry, got %+v", list.Tokens)
	}
}

func TestRevocations_User(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := fixedRevocations(now)
	r.RevokeUser("author-1")

	issued := func(at time.Time) *Claims {
		c := validClaims()
		c.IssuedAt = jwt.NewNumericDate(at)
		return &c
	}

	if !r.IsRevoked(issued(now.Add(-time.Hour))) {
		t.Error("expected token issued before the cutoff to be rejected")
	}
	if r.IsRevoked(issued(now.Add(time.Minute))) {
		t.Error("expected token issued after the cutoff to be accepted")
	}

	noIat := validClaims()
	noIat.IssuedAt = nil
	if !r.IsRevoked(&noIat) {
		t.Error("expected token without iat to be rejected for a cut-off user")
	}

	otherUser := validClaims()
	otherUser.Subject = "author-2"
	otherUser.IssuedAt = jwt.NewNumericDate(now.Add(-time.Hour))
	if r.IsRevoked(&otherUser) {
		t.Error("expected other users to be unaffected")
	}
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	r := NewRevocations()
	claims := validClaims()
	claims.ID = "jti-revoked"
	r.RevokeToken("jti-revoked", time.Now().Add(time.Hour))

	cfg := JWTConfig{SigningKey: testSigningKey, Revocations: r}
	_, err := runJWT(t, cfg, "Bearer "+createTestToken(t, claims, testSigningKey))
	expectStatus(t, err, http.StatusUnauthorized)
}

func revocationServer(r *Revocations, roles ...string) *echo.Echo {
	e := echo.New()
	g := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(withUser(context.Background(), "admin-1", roles)))
			return next(c)
		}
	})
	RegisterRevocationRoutes(g, r)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRevocationRoutes(t *testing.T) {
	r := NewRevocations()
	e := revocationServer(r, RoleAdmin)

	if rec := doJSON(e, http.MethodPost, "/api/v1/auth/revocations/tokens", `{"jti":"jti-9"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(e, http.MethodPost, "/api/v1/auth/revocations/tokens", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without jti, got %d", rec.Code)
	}
	if rec := doJSON(e, http.MethodPost, "/api/v1/auth/revocations/users", `{"user_id":"author-1"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec := doJSON(e, http.MethodGet, "/api/v1/auth/revocations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list RevocationList
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Tokens) != 1 || list.Tokens[0].JTI != "jti-9" {
		t.Errorf("unexpected tokens: %+v", list.Tokens)
	}
	if len(list.Users) != 1 || list.Users[0].UserID != "author-1" {
		t.Errorf("unexpected users: %+v", list.Users)
	}
}

func TestRevocationRoutes_RequireAdmin(t *testing.T) {
	e := revocationServer(NewRevocations(), RoleAuthor)
	if rec := doJSON(e, http.MethodGet, "/api/v1/auth/revocations", ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
