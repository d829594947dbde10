package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/clubverify/kyc-backend/access"
	"github.com/clubverify/kyc-backend/util"
)

const (
	userContextKey = "user_context"
	userIDKey      = "user_id"
	userEmailKey   = "user_email"

	// SessionTokenHeader is the header carrying the session token.
	SessionTokenHeader = "session-token"
)

// SessionAuth validates the session token against the injected store and
// places the user's access context on the request. Requests without a valid,
// unexpired session are rejected.
func SessionAuth(store util.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionTokenHeader)
		if token == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session token not provided",
				Err: fmt.Errorf("session token not provided"),
			})
			c.Abort()
			return
		}

		entry, found, err := store.Get(c.Request.Context(), token)
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Session lookup failed",
				Err: err,
			})
			c.Abort()
			return
		}
		if !found {
			util.LogUnauthorizedAccess("", "", c.ClientIP(), c.Request.URL.Path, "invalid or expired session token")
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Invalid or expired session token",
				Err: fmt.Errorf("session not found"),
			})
			c.Abort()
			return
		}

		c.Set(userContextKey, entry.User)
		c.Set(userIDKey, entry.UserID)
		c.Set(userEmailKey, entry.Email)
		c.Next()
	}
}

// RequireAdmin allows only admin sessions through. It must run after
// SessionAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUserContext(c)
		if !ok || user.Role != access.RoleAdmin {
			userID, _ := GetUserID(c)
			email, _ := GetUserEmail(c)
			util.LogUnauthorizedAccess(fmt.Sprintf("%d", userID), email, c.ClientIP(), c.Request.URL.Path, "admin role required")
			util.CallUserForbidden(c, util.APIErrorParams{
				Msg: "Admin role required",
				Err: fmt.Errorf("insufficient role"),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserContext returns the authenticated user's access context.
func GetUserContext(c *gin.Context) (access.UserContext, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return access.UserContext{}, false
	}
	user, ok := v.(access.UserContext)
	return user, ok
}

// GetUserID returns the authenticated user's id, or 0 when unauthenticated.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetUserEmail returns the authenticated user's email.
func GetUserEmail(c *gin.Context) (string, bool) {
	v, ok := c.Get(userEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}
