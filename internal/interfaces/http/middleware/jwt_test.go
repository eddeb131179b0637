package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailbill/backend/internal/infrastructure/auth"
	"github.com/retailbill/backend/internal/infrastructure/config"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "retailbill-test",
		MaxRefreshCount:        10,
	})
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService) (*auth.TokenPair, auth.GenerateTokenInput) {
	t.Helper()
	input := auth.GenerateTokenInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "asha.clerk",
		RoleIDs:     []uuid.UUID{uuid.New()},
		Permissions: []string{"returns:read", "returns:create"},
	}
	pair, err := jwtService.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair, input
}

func authTestRouter(mw gin.HandlerFunc, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	if handler == nil {
		handler = func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"success": true}) }
	}
	r.GET("/api/v1/sales-returns", handler)
	return r
}

func serveAuth(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(t, jwtService)

	t.Run("valid token populates context", func(t *testing.T) {
		var claims *auth.Claims
		var userID, tenantID, username string
		var roleIDs, perms []string
		r := authTestRouter(JWTAuthMiddleware(jwtService), func(c *gin.Context) {
			claims = GetJWTClaims(c)
			userID = GetJWTUserID(c)
			tenantID = GetJWTTenantID(c)
			username = GetJWTUsername(c)
			roleIDs = GetJWTRoleIDs(c)
			perms = GetJWTPermissions(c)
			c.Status(http.StatusOK)
		})

		w := serveAuth(r, BearerPrefix+pair.AccessToken)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), userID)
		assert.Equal(t, input.TenantID.String(), tenantID)
		assert.Equal(t, "asha.clerk", username)
		require.Len(t, roleIDs, 1)
		assert.Equal(t, input.RoleIDs[0].String(), roleIDs[0])
		assert.Equal(t, []string{"returns:read", "returns:create"}, perms)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		cases := []struct {
			name   string
			header string
		}{
			{"missing header", ""},
			{"wrong scheme", "Basic dXNlcjpwYXNz"},
			{"empty bearer token", BearerPrefix},
			{"garbage token", BearerPrefix + "not-a-jwt"},
			{"refresh token used as access", BearerPrefix + pair.RefreshToken},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				r := authTestRouter(JWTAuthMiddleware(jwtService), nil)
				w := serveAuth(r, tc.header)
				assert.Equal(t, http.StatusUnauthorized, w.Code)
			})
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expiredSvc := auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			AccessTokenExpiration:  -time.Hour,
			RefreshTokenExpiration: 7 * 24 * time.Hour,
			Issuer:                 "retailbill-test",
		})
		expiredPair, _ := newTestTokenPair(t, expiredSvc)

		r := authTestRouter(JWTAuthMiddleware(expiredSvc), nil)
		w := serveAuth(r, BearerPrefix+expiredPair.AccessToken)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})
}

func TestJWTAuthMiddlewareSkipPaths(t *testing.T) {
	jwtService := newTestJWTService()

	t.Run("default skip paths pass unauthenticated", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(JWTAuthMiddleware(jwtService))
		paths := []string{"/health", "/healthz", "/ready", "/api/v1/health", "/api/v1/auth/login", "/api/v1/auth/refresh"}
		for _, p := range paths {
			r.GET(p, func(c *gin.Context) { c.Status(http.StatusOK) })
		}
		for _, p := range paths {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
			assert.Equal(t, http.StatusOK, w.Code, p)
		}
	})

	t.Run("custom prefix skips nested paths", func(t *testing.T) {
		cfg := DefaultJWTConfig(jwtService)
		cfg.SkipPathPrefixes = append(cfg.SkipPathPrefixes, "/static")

		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(JWTAuthMiddlewareWithConfig(cfg))
		r.GET("/static/assets/logo.png", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/assets/logo.png", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJWTAuthMiddlewareCustomOnError(t *testing.T) {
	jwtService := newTestJWTService()

	called := false
	cfg := DefaultJWTConfig(jwtService)
	cfg.OnError = func(c *gin.Context, err error) {
		called = true
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"custom": "error"})
	}

	r := authTestRouter(JWTAuthMiddlewareWithConfig(cfg), nil)
	w := serveAuth(r, "")

	assert.True(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	jwtService := newTestJWTService()
	pair, input := newTestTokenPair(t, jwtService)

	capture := func(dst **auth.Claims) gin.HandlerFunc {
		return func(c *gin.Context) {
			*dst = GetJWTClaims(c)
			c.Status(http.StatusOK)
		}
	}

	t.Run("no token passes with nil claims", func(t *testing.T) {
		var claims *auth.Claims
		r := authTestRouter(OptionalJWTAuthMiddleware(jwtService), capture(&claims))
		w := serveAuth(r, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, claims)
	})

	t.Run("invalid token passes with nil claims", func(t *testing.T) {
		var claims *auth.Claims
		r := authTestRouter(OptionalJWTAuthMiddleware(jwtService), capture(&claims))
		w := serveAuth(r, BearerPrefix+"not-a-jwt")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, claims)
	})

	t.Run("valid token resolves claims", func(t *testing.T) {
		var claims *auth.Claims
		r := authTestRouter(OptionalJWTAuthMiddleware(jwtService), capture(&claims))
		w := serveAuth(r, BearerPrefix+pair.AccessToken)
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, claims)
		assert.Equal(t, input.UserID.String(), claims.UserID)
	})
}

func TestJWTContextAccessorsWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTTenantID(c))
	assert.Empty(t, GetJWTUsername(c))
	assert.Nil(t, GetJWTRoleIDs(c))
	assert.Nil(t, GetJWTPermissions(c))
}
