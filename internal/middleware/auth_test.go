package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketlive/internal/config"
	"marketlive/internal/identity"
	"marketlive/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubRoles struct {
	role string
	err  error
}

func (s stubRoles) ResolveRole(context.Context, string) (string, error) { return s.role, s.err }

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, claims utils.Claims) string {
	t.Helper()
	signed, err := utils.GenerateToken("user_1", claims, testSecret, time.Hour)
	require.NoError(t, err)
	return signed
}

func newRouter(mw ...gin.HandlerFunc) (*gin.Engine, **identity.Identity) {
	var seen *identity.Identity
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		seen = GetIdentity(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/", handlers...)
	return r, &seen
}

func do(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{Secret: testSecret}
	valid := token(t, utils.Claims{OrgID: "org_1", Role: "org:member", Email: "u@example.com"})

	tests := []struct {
		name   string
		header string
		roles  RoleResolver
		status int
		role   string
	}{
		{"missing header", "", nil, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", nil, http.StatusUnauthorized, ""},
		{"token role", "Bearer " + valid, nil, http.StatusNoContent, "org:member"},
		{"stored role wins", "Bearer " + valid, stubRoles{role: "admin"}, http.StatusNoContent, identity.RoleAdmin},
		{"org admin stays org scoped", "Bearer " + valid, stubRoles{role: "org:admin"}, http.StatusNoContent, "org:admin"},
		{"lookup failure keeps token role", "Bearer " + valid, stubRoles{err: errors.New("db down")}, http.StatusNoContent, "org:member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, seen := newRouter(AuthMiddleware(cfg, tt.roles))
			w := do(r, tt.header)

			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusNoContent {
				return
			}
			require.NotNil(t, *seen)
			assert.Equal(t, "user_1", (*seen).Subject)
			assert.Equal(t, "org_1", (*seen).OrgID)
			assert.Equal(t, tt.role, (*seen).Role)
		})
	}
}

func TestAuthMiddleware_DefaultsToClient(t *testing.T) {
	r, seen := newRouter(AuthMiddleware(&config.JWTConfig{Secret: testSecret}, stubRoles{}))
	w := do(r, "Bearer "+token(t, utils.Claims{}))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, identity.RoleClient, (*seen).Role)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{Secret: testSecret}
	r, seen := newRouter(OptionalAuthMiddleware(cfg, nil))

	assert.Equal(t, http.StatusNoContent, do(r, "").Code)
	assert.Nil(t, *seen)

	assert.Equal(t, http.StatusNoContent, do(r, "Bearer garbage").Code)
	assert.Nil(t, *seen)

	assert.Equal(t, http.StatusNoContent, do(r, "Bearer "+token(t, utils.Claims{})).Code)
	require.NotNil(t, *seen)
	assert.Equal(t, "user_1", (*seen).Subject)
}

func TestAdminOnly(t *testing.T) {
	cfg := &config.JWTConfig{Secret: testSecret}
	r, _ := newRouter(AuthMiddleware(cfg, nil), AdminOnly())

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+token(t, utils.Claims{Role: "client"})).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+token(t, utils.Claims{Role: "org:admin"})).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "Bearer "+token(t, utils.Claims{Role: "platform:superadmin"})).Code)

	anonymous, _ := newRouter(AdminOnly())
	assert.Equal(t, http.StatusUnauthorized, do(anonymous, "").Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	r, _ := newRouter(RateLimitMiddleware(1, 2))

	assert.Equal(t, http.StatusNoContent, do(r, "").Code)
	assert.Equal(t, http.StatusNoContent, do(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "").Code)
}
