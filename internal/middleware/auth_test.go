package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		util.Success(c, util.GetUserFromContext(c).UserID)
	})
	return r
}

func bearer(t *testing.T, userID uint, role model.UserRole, secret string) string {
	t.Helper()
	token, err := util.GenerateJWT(userID, role, secret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := newEngine(AuthMiddleware(cfg))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"wrong secret", bearer(t, 1, model.Student, "another-secret"), http.StatusUnauthorized},
		{"valid", bearer(t, 1, model.Student, testSecret), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := newEngine(AuthMiddleware(cfg), RoleMiddleware(model.Admin))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, 1, model.Student, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, 2, model.Admin, testSecret))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

type recordingRepo struct {
	mu   sync.Mutex
	seen []uint
	done chan struct{}
}

func (r *recordingRepo) UpdateLastSeen(userID uint) error {
	r.mu.Lock()
	r.seen = append(r.seen, userID)
	r.mu.Unlock()
	close(r.done)
	return nil
}

func TestActivityMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	repo := &recordingRepo{done: make(chan struct{})}
	r := newEngine(AuthMiddleware(cfg), ActivityMiddleware(repo))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, 42, model.Student, testSecret))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case <-repo.done:
	case <-time.After(time.Second):
		t.Fatal("last seen was not updated")
	}
	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, []uint{42}, repo.seen)
}
