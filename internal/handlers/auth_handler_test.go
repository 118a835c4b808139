package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"boekhouden/internal/middleware"
	"boekhouden/internal/validator"
)

// --- mock audit service ---

type auditEntry struct {
	actor, action, resourceType, resourceID string
	changes                                 map[string]interface{}
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(actor, action, resourceType, resourceID, _ string, changes map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{actor, action, resourceType, resourceID, changes})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectActor(actor string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// --- tests ---

func TestAuthHandler_Login(t *testing.T) {
	secret := []byte("test-secret")
	hash, err := middleware.HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	setup := func(hash string) *gin.Engine {
		r := gin.New()
		r.POST("/auth/login", NewAuthHandler(hash, secret, time.Hour).Login)
		return r
	}

	t.Run("returns 200 with a valid token", func(t *testing.T) {
		rec := doRequest(setup(hash), "POST", "/auth/login", `{"password":"s3cret-password"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		token, _ := result["access_token"].(string)
		claims, err := middleware.ParseAccessToken(secret, token)
		if err != nil {
			t.Fatalf("expected a valid token: %v", err)
		}
		if claims.Subject != webActor {
			t.Errorf("expected subject %q, got %q", webActor, claims.Subject)
		}
		if result["expires_in"].(float64) != 3600 {
			t.Errorf("expected expires_in 3600, got %v", result["expires_in"])
		}
	})

	t.Run("returns 401 on wrong password", func(t *testing.T) {
		rec := doRequest(setup(hash), "POST", "/auth/login", `{"password":"nope"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 401 when no password is configured", func(t *testing.T) {
		rec := doRequest(setup(""), "POST", "/auth/login", `{"password":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for empty password, got %d", rec.Code)
		}
		rec = doRequest(setup(""), "POST", "/auth/login", `{"password":"anything"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing body", func(t *testing.T) {
		rec := doRequest(setup(hash), "POST", "/auth/login", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}
