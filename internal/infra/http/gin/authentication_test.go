package ginserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func identityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GatewayAuth())
	router.GET("/whoami", func(c *gin.Context) {
		p, ok := currentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "anonymous"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "admin": p.HasRole("admin")})
	})
	router.GET("/admin", func(c *gin.Context) {
		if _, ok := requireRole(c, "admin"); !ok {
			return
		}
		c.Status(http.StatusNoContent)
	})
	return router
}

func get(router *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGatewayAuthParsesIdentityHeaders(t *testing.T) {
	router := identityRouter()

	rec := get(router, "/whoami", map[string]string{
		"X-User-ID":    "user-1",
		"X-User-Roles": "renter, Admin",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"user-1"`)
	assert.Contains(t, rec.Body.String(), `"admin":true`)
}

func TestGatewayAuthAnonymousWithoutSubject(t *testing.T) {
	router := identityRouter()
	rec := get(router, "/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	router := identityRouter()

	rec := get(router, "/admin", map[string]string{"X-User-ID": "user-1", "X-User-Roles": "admin"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = get(router, "/admin", map[string]string{"X-User-ID": "user-1", "X-User-Roles": "renter"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(router, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
