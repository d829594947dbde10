package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubverify/kyc-backend/access"
	"github.com/clubverify/kyc-backend/util"
)

func newAuthedRouter(t *testing.T, store util.SessionStore, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{SessionAuth(store)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user, _ := GetUserContext(c)
		c.JSON(http.StatusOK, gin.H{"role": string(user.Role)})
	})
	r.GET("/protected", handlers...)
	return r
}

func seedSession(t *testing.T, store util.SessionStore, token string, role access.Role) {
	t.Helper()
	err := store.Put(context.Background(), token, util.SessionEntry{
		UserID:    7,
		Email:     "staff@example.com",
		User:      access.UserContext{Role: role, ClubID: "C42"},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestSessionAuthMissingToken(t *testing.T) {
	r := newAuthedRouter(t, util.NewMemorySessionStore())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthUnknownToken(t *testing.T) {
	r := newAuthedRouter(t, util.NewMemorySessionStore())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(SessionTokenHeader, "nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthExpiredToken(t *testing.T) {
	store := util.NewMemorySessionStore()
	require.NoError(t, store.Put(context.Background(), "stale", util.SessionEntry{
		UserID:    7,
		User:      access.UserContext{Role: access.RoleAdmin},
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	r := newAuthedRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(SessionTokenHeader, "stale")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionAuthValidToken(t *testing.T) {
	store := util.NewMemorySessionStore()
	seedSession(t, store, "tok-1", access.RoleClubOwner)
	r := newAuthedRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(SessionTokenHeader, "tok-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "club_owner")
}

func TestRequireAdmin(t *testing.T) {
	store := util.NewMemorySessionStore()
	seedSession(t, store, "tok-admin", access.RoleAdmin)
	seedSession(t, store, "tok-agent", access.RoleAgent)
	r := newAuthedRouter(t, store, RequireAdmin())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(SessionTokenHeader, "tok-admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(SessionTokenHeader, "tok-agent")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
