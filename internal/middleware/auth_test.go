package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"branchdesk/internal/models"
	"branchdesk/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "middleware-secret-middleware-secret"

func newTokens(t *testing.T, now func() time.Time) *token.Manager {
	t.Helper()
	opts := []token.Option{}
	if now != nil {
		opts = append(opts, token.WithClock(now))
	}
	m, err := token.NewManager(testSecret, "branchdesk", opts...)
	require.NoError(t, err)
	return m
}

func issue(t *testing.T, m *token.Manager, role models.Role) string {
	t.Helper()
	signed, _, err := m.Issue(token.Identity{ID: 7, Role: role})
	require.NoError(t, err)
	return signed
}

// newRouter guards /protected with guard and reports whether the handler ran.
func newRouter(guard gin.HandlerFunc, reached *bool) *gin.Engine {
	r := gin.New()
	r.GET("/protected", guard, func(c *gin.Context) {
		*reached = true
		claims := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.ID, "role": claims.Role})
	})
	return r
}

func do(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens(t, nil)
	valid := issue(t, tokens, models.RoleMember)

	expiredTokens := newTokens(t, func() time.Time { return time.Now().Add(-48 * time.Hour) })
	expired := issue(t, expiredTokens, models.RoleMember)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"no header", "", http.StatusUnauthorized, msgNoToken},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, msgNoToken},
		{"empty token", "Bearer   ", http.StatusUnauthorized, msgNoToken},
		{"garbage token", "Bearer abc.def.ghi", http.StatusForbidden, msgInvalidToken},
		{"expired token", "Bearer " + expired, http.StatusForbidden, msgInvalidToken},
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			rec := do(newRouter(Authenticate(tokens, zap.NewNop()), &reached), tt.header)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status == http.StatusOK, reached)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorBody(t, rec))
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	tokens := newTokens(t, nil)

	tests := []struct {
		name    string
		roles   []models.Role
		role    models.Role
		allowed bool
	}{
		{"any role", nil, models.RoleMember, true},
		{"nec on nec route", []models.Role{models.RoleNEC}, models.RoleNEC, true},
		{"bec on nec route", []models.Role{models.RoleNEC}, models.RoleBEC, false},
		{"bec on officer route", []models.Role{models.RoleNEC, models.RoleBEC}, models.RoleBEC, true},
		{"member on officer route", []models.Role{models.RoleNEC, models.RoleBEC}, models.RoleMember, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			r := newRouter(Authorize(tokens, zap.NewNop(), tt.roles...), &reached)
			rec := do(r, "Bearer "+issue(t, tokens, tt.role))

			assert.Equal(t, tt.allowed, reached)
			if tt.allowed {
				assert.Equal(t, http.StatusOK, rec.Code)
			} else {
				assert.Equal(t, http.StatusForbidden, rec.Code)
				assert.Equal(t, msgForbidden, errorBody(t, rec))
			}
		})
	}
}

func TestAuthorizeWithoutTokenIs401(t *testing.T) {
	tokens := newTokens(t, nil)
	reached := false
	rec := do(newRouter(Authorize(tokens, zap.NewNop(), models.RoleNEC), &reached), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestClaimsFromContextUnguarded(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ClaimsFromContext(c))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFromContext(c)) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://members.example.org"}))
	r.GET("/api/branches", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/branches", nil)
	req.Header.Set("Origin", "https://members.example.org")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://members.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/branches", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryReturns500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", errorBody(t, rec))
}
