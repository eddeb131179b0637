package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/retailbill/backend/internal/infrastructure/logger"
)

type stubTenantValidator struct {
	tenants map[string]*TenantInfo
	err     error
}

func (s *stubTenantValidator) ValidateTenant(tenantID string) (*TenantInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	if info, ok := s.tenants[tenantID]; ok {
		return info, nil
	}
	return nil, errors.New("tenant not found")
}

func tenantTestRouter(cfg TenantMiddlewareConfig, pre ...gin.HandlerFunc) (*gin.Engine, *string, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, h := range pre {
		r.Use(h)
	}
	r.Use(TenantMiddlewareWithConfig(cfg))
	var gotID, gotCode string
	r.GET("/api/v1/sales-returns", func(c *gin.Context) {
		gotID = GetTenantID(c)
		gotCode = GetTenantCode(c)
		c.Status(http.StatusOK)
	})
	return r, &gotID, &gotCode
}

func TestTenantMiddlewareHeader(t *testing.T) {
	tenantID := uuid.NewString()

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid uuid header", tenantID, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed uuid", "store-42", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, gotID, _ := tenantTestRouter(DefaultTenantConfig())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
			if tc.header != "" {
				req.Header.Set(TenantHeaderKey, tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, tc.header, *gotID)
			}
		})
	}
}

func TestTenantMiddlewareJWTPriority(t *testing.T) {
	jwtTenant := uuid.NewString()
	headerTenant := uuid.NewString()

	setClaim := func(c *gin.Context) {
		c.Set("jwt_tenant_id", jwtTenant)
		c.Next()
	}

	t.Run("jwt claim wins over header", func(t *testing.T) {
		r, gotID, _ := tenantTestRouter(DefaultTenantConfig(), setClaim)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
		req.Header.Set(TenantHeaderKey, headerTenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, jwtTenant, *gotID)
	})

	t.Run("jwt source disabled falls back to header", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.JWTEnabled = false
		r, gotID, _ := tenantTestRouter(cfg, setClaim)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
		req.Header.Set(TenantHeaderKey, headerTenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, headerTenant, *gotID)
	})

	t.Run("header source disabled leaves tenant empty", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.HeaderEnabled = false
		cfg.JWTEnabled = false
		cfg.Required = false
		r, gotID, _ := tenantTestRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
		req.Header.Set(TenantHeaderKey, headerTenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, *gotID)
	})
}

func TestTenantMiddlewareSkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantMiddleware())
	for _, p := range []string{"/health", "/health/ready", "/metrics", "/api/v1/health"} {
		r.GET(p, func(c *gin.Context) { c.Status(http.StatusOK) })
	}
	r.GET("/api/v1/sales-returns", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("operational endpoints bypass tenant resolution", func(t *testing.T) {
		for _, p := range []string{"/health", "/health/ready", "/metrics", "/api/v1/health"} {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
			assert.Equal(t, http.StatusOK, w.Code, p)
		}
	})

	t.Run("business endpoints still require a tenant", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalTenantMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(OptionalTenantMiddleware())
	var gotID string
	r.GET("/api/v1/sales-returns", func(c *gin.Context) {
		gotID = GetTenantID(c)
		c.Status(http.StatusOK)
	})

	t.Run("anonymous request passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, gotID)
	})

	t.Run("tenant still resolved when supplied", func(t *testing.T) {
		tenantID := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
		req.Header.Set(TenantHeaderKey, tenantID)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, gotID)
	})
}

func TestTenantMiddlewareValidator(t *testing.T) {
	knownTenant := uuid.NewString()
	unknownTenant := uuid.NewString()

	validator := &stubTenantValidator{
		tenants: map[string]*TenantInfo{
			knownTenant: {ID: uuid.MustParse(knownTenant), Code: "KIRANA-NORTH"},
		},
	}

	cfg := DefaultTenantConfig()
	cfg.Validator = validator

	t.Run("known tenant resolves code", func(t *testing.T) {
		r, _, gotCode := tenantTestRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
		req.Header.Set(TenantHeaderKey, knownTenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "KIRANA-NORTH", *gotCode)
	})

	t.Run("unknown tenant rejected", func(t *testing.T) {
		r, _, _ := tenantTestRouter(cfg)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
		req.Header.Set(TenantHeaderKey, unknownTenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validator outage rejects request", func(t *testing.T) {
		broken := DefaultTenantConfig()
		broken.Validator = &stubTenantValidator{err: errors.New("database connection failed")}
		r, _, _ := tenantTestRouter(broken)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
		req.Header.Set(TenantHeaderKey, knownTenant)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTenantFromSubdomain(t *testing.T) {
	cases := []struct {
		name string
		host string
		want string
	}{
		{"simple subdomain", "acme.retailbill.com", "acme"},
		{"subdomain with port", "acme.retailbill.com:8080", "acme"},
		{"bare base domain", "retailbill.com", ""},
		{"www ignored", "www.retailbill.com", ""},
		{"foreign domain", "acme.other.com", ""},
		{"multi level takes leftmost", "app.acme.retailbill.com", "app"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tenantFromSubdomain(tc.host, "retailbill.com"))
		})
	}
}

func TestTenantMiddlewareContextPropagation(t *testing.T) {
	tenantID := uuid.NewString()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantMiddleware())
	var fromCtx string
	r.GET("/api/v1/sales-returns", func(c *gin.Context) {
		fromCtx = logger.GetTenantID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-returns", nil)
	req.Header.Set(TenantHeaderKey, tenantID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, fromCtx)
}
