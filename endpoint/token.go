package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubverify/kyc-backend/middleware"
	"github.com/clubverify/kyc-backend/util"
)

// ValidateToken godoc
// @Summary      Validate session token
// @Description  Validate if the session token is valid and not expired
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Valid session token"
// @Failure      401 {object} util.APIResponse "Invalid or expired session token"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /token/validate [get]
func ValidateToken(store util.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken := c.GetHeader(middleware.SessionTokenHeader)
		if sessionToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
			return
		}

		entry, found, err := store.Get(c.Request.Context(), sessionToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Session lookup failed"})
			return
		}
		if !found {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
			return
		}

		util.CallSuccessOK(c, util.APISuccessParams{
			Msg: "Valid session token",
			Data: map[string]interface{}{
				"user_id":    entry.UserID,
				"email":      entry.Email,
				"role":       string(entry.User.Role),
				"expires_at": entry.ExpiresAt,
			},
		})
	}
}
