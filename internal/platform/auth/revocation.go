package auth

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Revocations rejects bearer tokens before they expire. A token is revoked
// either by its ID (jti) or because its subject was cut off after the token
// was issued. Expired jti entries are pruned on write.
type Revocations struct {
	mu      sync.RWMutex
	tokens  map[string]time.Time // jti -> token expiry
	cutoffs map[string]time.Time // user -> tokens issued before are rejected
	now     func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{
		tokens:  make(map[string]time.Time),
		cutoffs: make(map[string]time.Time),
		now:     time.Now,
	}
}

// RevokeToken rejects the token with this jti until expiresAt.
func (r *Revocations) RevokeToken(jti string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.tokens {
		if now.After(exp) {
			delete(r.tokens, id)
		}
	}
	r.tokens[jti] = expiresAt
}

// RevokeUser rejects every token of userID issued up to now.
func (r *Revocations) RevokeUser(userID string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	at := r.now()
	r.cutoffs[userID] = at
	return at
}

// IsRevoked reports whether claims must be rejected.
func (r *Revocations) IsRevoked(claims *Claims) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if claims.ID != "" {
		if _, ok := r.tokens[claims.ID]; ok {
			return true
		}
	}
	cutoff, ok := r.cutoffs[claims.Subject]
	if !ok {
		return false
	}
	// Tokens without iat cannot prove they postdate the cutoff.
	if claims.IssuedAt == nil {
		return true
	}
	return !claims.IssuedAt.Time.After(cutoff)
}

type RevokedToken struct {
	JTI       string    `json:"jti"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RevokedUser struct {
	UserID string    `json:"user_id"`
	Cutoff time.Time `json:"cutoff"`
}

type RevocationList struct {
	Tokens []RevokedToken `json:"tokens"`
	Users  []RevokedUser  `json:"users"`
}

// List returns a sorted snapshot.
func (r *Revocations) List() RevocationList {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := RevocationList{Tokens: []RevokedToken{}, Users: []RevokedUser{}}
	for jti, exp := range r.tokens {
		list.Tokens = append(list.Tokens, RevokedToken{JTI: jti, ExpiresAt: exp})
	}
	for user, at := range r.cutoffs {
		list.Users = append(list.Users, RevokedUser{UserID: user, Cutoff: at})
	}
	sort.Slice(list.Tokens, func(i, j int) bool { return list.Tokens[i].JTI < list.Tokens[j].JTI })
	sort.Slice(list.Users, func(i, j int) bool { return list.Users[i].UserID < list.Users[j].UserID })
	return list
}

// RegisterRevocationRoutes mounts the admin-only revocation endpoints under
// /auth/revocations.
func RegisterRevocationRoutes(g *echo.Group, r *Revocations) {
	admin := g.Group("/auth/revocations", RequireRole(RoleAdmin))

	admin.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, r.List())
	})

	admin.POST("/tokens", func(c echo.Context) error {
		var req RevokedToken
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if req.JTI == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "jti is required")
		}
		if req.ExpiresAt.IsZero() {
			req.ExpiresAt = r.now().Add(24 * time.Hour)
		}
		r.RevokeToken(req.JTI, req.ExpiresAt)
		return c.NoContent(http.StatusNoContent)
	})

	admin.POST("/users", func(c echo.Context) error {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if req.UserID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
		}
		at := r.RevokeUser(req.UserID)
		return c.JSON(http.StatusOK, RevokedUser{UserID: req.UserID, Cutoff: at})
	})
}
