package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seragon/config"
	"seragon/internal/auth"
	"seragon/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthRequired(t *testing.T) {
	cfg := &config.JWTConfig{AccessSecret: "s", AccessExpiry: time.Minute}
	r := gin.New()
	r.GET("/me", AuthRequired(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	r.GET("/admin", AuthRequired(cfg), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := auth.GenerateAccessToken(cfg, "replit:7", "x@y.z", domain.RoleCustomer)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "replit:7", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)
	r := gin.New()
	r.GET("/", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	limiter.Sweep(time.Now().Add(time.Hour))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
