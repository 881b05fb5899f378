package api

import (
	"net/http"
	"testing"

	"project_hub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidatesAndRejectsDuplicates(t *testing.T) {
	h := newHarness(t)

	code, resp := h.do(http.MethodPost, "/auth/register", "", gin.H{"email": "not-an-email", "name": "X", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, code)
	fields := list(resp, "fields")
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].(map[string]any)["field"])
	assert.Equal(t, "password", fields[1].(map[string]any)["field"])

	code, resp = h.do(http.MethodPost, "/auth/register", "", gin.H{"email": "Ada@Example.com", "name": "Ada", "password": "password123"})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "ada@example.com", obj(resp, "user")["email"])
	assert.Equal(t, domain.RoleUser, obj(resp, "user")["role"])
	assert.NotContains(t, obj(resp, "user"), "password")

	code, _ = h.do(http.MethodPost, "/auth/register", "", gin.H{"email": "ada@example.com", "name": "Ada", "password": "password123"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.signup("ada@example.com")

	code, _ := h.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = h.do(http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogoutRevokesOnlyThatSession(t *testing.T) {
	h := newHarness(t)
	first := h.signup("ada@example.com")
	code, resp := h.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, code)
	second := resp["token"].(string)

	code, resp = h.do(http.MethodGet, "/auth/me", first, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), resp["active_sessions"])

	code, _ = h.do(http.MethodPost, "/auth/logout", first, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = h.do(http.MethodGet, "/auth/me", first, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, resp = h.do(http.MethodGet, "/auth/me", second, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), resp["active_sessions"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	code, _ := h.do(http.MethodGet, "/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = h.do(http.MethodGet, "/clients", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	code, resp := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp["status"])

	w := h.raw(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "project_hub_http_requests_total")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t)
	token := h.signup("ada@example.com")
	h.signup("bob@example.com")

	code, _ := h.do(http.MethodGet, "/admin/stats", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	require.NoError(t, h.db.Model(&domain.User{}).Where("email = ?", "ada@example.com").Update("role", domain.RoleAdmin).Error)

	code, resp := h.do(http.MethodGet, "/admin/stats", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), obj(resp, "counts")["users"])

	code, resp = h.do(http.MethodGet, "/admin/users?page_size=1", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, float64(2), resp["total_pages"])
	assert.Equal(t, false, resp["cached"])
	users := list(resp, "users")
	require.Len(t, users, 1)
	assert.Equal(t, "ada@example.com", users[0].(map[string]any)["email"])
	assert.Equal(t, float64(1), users[0].(map[string]any)["sessions"])
}
