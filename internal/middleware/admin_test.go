package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"project_hub/internal/domain"
	"project_hub/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func adminEngine(db *gorm.DB, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set(UserIDKey, userID)
		}
	}, AdminOnlyMiddleware(db))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func TestAdminOnlyMiddleware(t *testing.T) {
	db := testutil.NewDB(t)
	admin := domain.User{Email: "root@example.com", Name: "Root", Password: "x", Role: domain.RoleAdmin}
	member := domain.User{Email: "ada@example.com", Name: "Ada", Password: "x", Role: domain.RoleUser}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&member).Error)

	cases := []struct {
		name   string
		userID uint
		want   int
	}{
		{"admin", admin.ID, http.StatusNoContent},
		{"member", member.ID, http.StatusForbidden},
		{"deleted account", member.ID + 100, http.StatusUnauthorized},
		{"anonymous", 0, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			adminEngine(db, tc.userID).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
