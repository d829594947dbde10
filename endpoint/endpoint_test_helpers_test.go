package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/clubverify/kyc-backend/access"
	"github.com/clubverify/kyc-backend/middleware"
	"github.com/clubverify/kyc-backend/model"
	"github.com/clubverify/kyc-backend/util"
)

// endpointTestModels is the standard set of models migrated for endpoint tests.
var endpointTestModels = []interface{}{
	&model.User{},
	&model.Role{},
	&model.Session{},
	&model.Submission{},
	&model.DeviceData{},
	&model.SecurityLog{},
}

// setupEndpointTest returns a Gin engine and an in-memory database with all
// models migrated and the database middleware installed.
func setupEndpointTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("APPENV", "test")
	t.Setenv("JWTSECRET", "test-secret-123")
	util.SetJWTSecret("test-secret-123")

	dsn := fmt.Sprintf("file:testdb_endpoint_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := db.AutoMigrate(endpointTestModels...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))
	return r, db
}

// seedSession puts a live session for the given role into the store and
// returns its token.
func seedSession(t *testing.T, store util.SessionStore, user access.UserContext) string {
	t.Helper()
	token := fmt.Sprintf("test-token-%s-%d", user.Role, time.Now().UnixNano())
	err := store.Put(context.Background(), token, util.SessionEntry{
		UserID:    42,
		Email:     "reviewer@example.com",
		User:      user,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return token
}

// createTestUser inserts a user with an argon2 password hash and returns it.
func createTestUser(t *testing.T, db *gorm.DB, email, password string, roleID uint32) model.User {
	t.Helper()
	salt, err := util.GenerateSalt()
	require.NoError(t, err)
	hashed, err := util.HashPasswordArgon2(password, salt)
	require.NoError(t, err)

	user := model.User{
		Name:         "Test User",
		Email:        email,
		Password:     hashed,
		PasswordSalt: salt,
		RoleID:       roleID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func doJSONRequest(r *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, w.Code, "body: %s", w.Body.String())
}
