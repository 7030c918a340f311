package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitgroup-api/internal/models"
	"github.com/noah-isme/fitgroup-api/internal/service"
)

func protectedRouter(tokens TokenValidator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", JWT(tokens))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})
	return router
}

func call(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAttachesClaims(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "test-secret", Issuer: "fitgroup"})
	token, err := tokens.Issue("u1", models.RoleMember, time.Hour)
	require.NoError(t, err)

	w := call(protectedRouter(tokens), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "test-secret"})
	router := protectedRouter(tokens)

	assert.Equal(t, http.StatusUnauthorized, call(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(router, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, call(router, "Bearer not-a-jwt").Code)
}

func TestRequireRoles(t *testing.T) {
	tokens := service.NewTokenService(service.TokenConfig{Secret: "test-secret"})
	router := protectedRouter(tokens, models.RoleAdmin)

	member, err := tokens.Issue("u1", models.RoleMember, time.Hour)
	require.NoError(t, err)
	admin, err := tokens.Issue("a1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, call(router, "Bearer "+member).Code)
	assert.Equal(t, http.StatusOK, call(router, "Bearer "+admin).Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, call(router, "").Code)
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

	call(router, "")
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
