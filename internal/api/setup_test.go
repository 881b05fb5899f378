package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"project_hub/internal/config"
	"project_hub/internal/mail"
	"project_hub/internal/testutil"
	"project_hub/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.ErrorLevel)
}

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type harness struct {
	t      *testing.T
	db     *gorm.DB
	cache  *utils.Cache
	router *gin.Engine
	mailer *fakeMailer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithCache(t, nil)
}

// newCachedHarness backs the response cache with an in-process Redis
func newCachedHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return newHarnessWithCache(t, utils.NewCache(rdb, time.Minute))
}

func newHarnessWithCache(t *testing.T, cache *utils.Cache) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	mailer := &fakeMailer{}
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
		TaxRate:    decimal.RequireFromString("0.25"),
		Location:   time.UTC,
	}
	return &harness{t: t, db: db, cache: cache, router: NewRouter(db, cache, mailer, cfg), mailer: mailer}
}

// do sends a JSON request and decodes a JSON response body
func (h *harness) do(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	w := h.raw(method, path, token, body)
	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (h *harness) raw(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns a session token
func (h *harness) signup(email string) string {
	h.t.Helper()
	code, _ := h.do(http.MethodPost, "/auth/register", "", gin.H{"email": email, "name": "Tester", "password": "password123"})
	require.Equal(h.t, http.StatusCreated, code)
	code, resp := h.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(h.t, http.StatusOK, code)
	return resp["token"].(string)
}

// create posts body and returns the id of the created object under key
func (h *harness) create(path, token, key string, body any) uint {
	h.t.Helper()
	code, resp := h.do(http.MethodPost, path, token, body)
	require.Equal(h.t, http.StatusCreated, code, resp)
	return uint(obj(resp, key)["id"].(float64))
}

func obj(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func list(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
