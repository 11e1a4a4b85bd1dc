package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
)

func swaggerRouter(cfg config.SwaggerConfig, auth ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/index.html", SwaggerProtection(cfg, auth...), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func getFrom(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSwaggerProtection(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rec := getFrom(swaggerRouter(config.SwaggerConfig{}), "10.0.0.1:1234")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("open when no allow list", func(t *testing.T) {
		rec := getFrom(swaggerRouter(config.SwaggerConfig{Enabled: true}), "203.0.113.9:1234")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("allow list with IP and CIDR", func(t *testing.T) {
		router := swaggerRouter(config.SwaggerConfig{
			Enabled:    true,
			AllowedIPs: []string{"127.0.0.1", "10.1.0.0/16", "not-an-ip"},
		})
		assert.Equal(t, http.StatusOK, getFrom(router, "127.0.0.1:5000").Code)
		assert.Equal(t, http.StatusOK, getFrom(router, "10.1.44.2:5000").Code)
		assert.Equal(t, http.StatusForbidden, getFrom(router, "10.2.0.1:5000").Code)
	})

	t.Run("auth chain runs when required", func(t *testing.T) {
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
		router := swaggerRouter(config.SwaggerConfig{Enabled: true, RequireAuth: true}, deny)
		assert.Equal(t, http.StatusUnauthorized, getFrom(router, "127.0.0.1:5000").Code)

		allow := func(c *gin.Context) {}
		router = swaggerRouter(config.SwaggerConfig{Enabled: true, RequireAuth: true}, allow)
		assert.Equal(t, http.StatusOK, getFrom(router, "127.0.0.1:5000").Code)
	})
}
