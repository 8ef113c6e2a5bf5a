package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"featboard/internal/db"
	"featboard/internal/middleware"
	"featboard/internal/router"
	"featboard/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer wires the same middleware stack as cmd/server against a
// fresh in-memory database.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	db.DB = gdb

	// List caches would leak between test databases otherwise
	utils.GetCache().Purge()

	r := gin.New()
	store := cookie.NewStore([]byte("test_secret"))
	r.Use(sessions.Sessions("featboard_session", store))
	r.Use(middleware.LoadUser())
	router.RegisterRoutes(r)
	return r
}

// doJSON performs a request with an optional JSON body and session cookies.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return data
}

// signup registers a user through the API and returns the session cookies.
func signup(t *testing.T, r *gin.Engine, email string) []*http.Cookie {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"email":    email,
		"password": "testpass123",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Register %s: expected 201, got %d (%s)", email, w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

// createFeature submits a feature through the API and returns its public id.
func createFeature(t *testing.T, r *gin.Engine, cookies []*http.Cookie, title string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/feature", gin.H{
		"title":       title,
		"description": "A test description",
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create feature: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	data := decodeBody(t, w)
	feature := data["feature"].(map[string]interface{})
	return feature["id"].(string)
}

func votePath(fid string) string {
	return fmt.Sprintf("/api/feature/%s/vote", fid)
}
