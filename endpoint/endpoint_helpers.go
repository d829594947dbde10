package endpoint

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubverify/kyc-backend/access"
	"github.com/clubverify/kyc-backend/middleware"
	"github.com/clubverify/kyc-backend/util"
)

// clientInfo groups the request metadata carried into security log entries.
type clientInfo struct {
	IP    string
	Agent string
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

func getUserContextOrRespond(c *gin.Context) (access.UserContext, bool) {
	user, ok := middleware.GetUserContext(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "User not authenticated",
			Err: fmt.Errorf("user context not found"),
		})
		return access.UserContext{}, false
	}
	return user, true
}

// parseIntParamOrRespond reads an optional numeric query parameter. Absent
// means zero; anything non-numeric is a client error.
func parseIntParamOrRespond(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid %s parameter", name),
			Err: fmt.Errorf("%s must be numeric: %w", name, err),
		})
		return 0, false
	}
	return value, true
}

func parseQueryOptionsOrRespond(c *gin.Context) (access.QueryOptions, bool) {
	page, ok := parseIntParamOrRespond(c, "page")
	if !ok {
		return access.QueryOptions{}, false
	}
	limit, ok := parseIntParamOrRespond(c, "limit")
	if !ok {
		return access.QueryOptions{}, false
	}
	return access.QueryOptions{
		Search:    c.Query("search"),
		Page:      page,
		Limit:     limit,
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("sort_dir"),
	}, true
}
