package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tournament-core/internal/identity"
	"tournament-core/internal/ids"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T, id *identity.Identity, required bool) *gin.Engine {
	t.Helper()
	r := gin.New()
	mw := OptionalAuth(id)
	if required {
		mw = RequireAuth(id)
	}
	r.GET("/ping", mw, func(c *gin.Context) {
		accountID, _ := c.Get("account_id")
		authenticated, _ := c.Get("authenticated")
		c.JSON(http.StatusOK, gin.H{"account_id": accountID, "authenticated": authenticated})
	})
	return r
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	id := identity.New("secret", time.Hour)
	r := newAuthRouter(t, id, true)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a missing Authorization header, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	id := identity.New("secret", time.Hour)
	r := newAuthRouter(t, id, true)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "not-bearer-format")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a malformed Authorization header, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	id := identity.New("secret", time.Hour)
	r := newAuthRouter(t, id, true)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an invalid token, got %d", rec.Code)
	}
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	id := identity.New("secret", time.Hour)
	r := newAuthRouter(t, id, true)
	account := mustMint(t, id)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+account.token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a valid token, got %d", rec.Code)
	}
}

func TestOptionalAuthAllowsMissingHeader(t *testing.T) {
	id := identity.New("secret", time.Hour)
	r := newAuthRouter(t, id, false)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected OptionalAuth to let an unauthenticated request through, got %d", rec.Code)
	}
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	id := identity.New("secret", time.Hour)
	r := newAuthRouter(t, id, false)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected OptionalAuth to let a request with a bad token through unauthenticated, got %d", rec.Code)
	}
}

type mintedAccount struct {
	token string
}

func mustMint(t *testing.T, id *identity.Identity) mintedAccount {
	t.Helper()
	token, err := id.Mint(ids.NewAccountID())
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return mintedAccount{token: token}
}
