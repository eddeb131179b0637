package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/infrastructure/logger"
)

const (
	TenantIDKey     = "tenant_id"
	TenantCodeKey   = "tenant_code"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantInfo describes a resolved tenant.
type TenantInfo struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// TenantValidator checks that a tenant exists and is active.
type TenantValidator interface {
	ValidateTenant(tenantID string) (*TenantInfo, error)
}

// TenantMiddlewareConfig controls how the tenant id is resolved.
// Sources are tried in order: JWT claim, X-Tenant-ID header, subdomain.
type TenantMiddlewareConfig struct {
	HeaderEnabled    bool
	JWTEnabled       bool
	SubdomainEnabled bool
	// BaseDomain is required for subdomain resolution, e.g. "retailbill.com"
	// so that "acme.retailbill.com" resolves to "acme".
	BaseDomain string
	// SkipPaths bypass tenant resolution entirely (health checks and the like).
	SkipPaths []string
	// Required rejects requests that carry no tenant id.
	Required  bool
	Validator TenantValidator
	Logger    *zap.Logger
}

// DefaultTenantConfig resolves from JWT and header, requires a tenant,
// and skips the operational endpoints.
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: true,
		JWTEnabled:    true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:      true,
	}
}

// TenantMiddleware resolves the tenant with the default configuration.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// OptionalTenantMiddleware resolves the tenant when present but lets
// anonymous requests through. Used for the dev header-auth mode.
func OptionalTenantMiddleware() gin.HandlerFunc {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	return TenantMiddlewareWithConfig(cfg)
}

// TenantMiddlewareWithConfig resolves the tenant id, validates it, and
// stores it in both the gin context and the request context so the
// logger and service layer see it.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipTenantPath(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		tenantID, source := resolveTenantID(c, cfg)

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				abortTenantUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}

		if tenantID == "" {
			if cfg.Required {
				abortTenantUnauthorized(c, "Tenant identification required")
				return
			}
			c.Next()
			return
		}

		var info *TenantInfo
		if cfg.Validator != nil {
			var err error
			info, err = cfg.Validator.ValidateTenant(tenantID)
			if err != nil {
				tenantLogger(c, cfg).Warn("Tenant validation failed",
					zap.String("tenant_id", tenantID),
					zap.Error(err),
				)
				abortTenantUnauthorized(c, "Invalid or inactive tenant")
				return
			}
		}

		c.Set(TenantIDKey, tenantID)
		if info != nil {
			c.Set(TenantCodeKey, info.Code)
		}

		ctx := c.Request.Context()
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Tenant identified",
				zap.String("tenant_id", tenantID),
				zap.String("source", source),
			)
		}

		c.Next()
	}
}

func skipTenantPath(skipPaths []string, path string) bool {
	for _, p := range skipPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// resolveTenantID returns the tenant id and the source it came from.
func resolveTenantID(c *gin.Context, cfg TenantMiddlewareConfig) (string, string) {
	if cfg.JWTEnabled {
		if v, ok := c.Get("jwt_tenant_id"); ok {
			if id, ok := v.(string); ok && id != "" {
				return id, "jwt"
			}
		}
	}
	if cfg.HeaderEnabled {
		if id := c.GetHeader(TenantHeaderKey); id != "" {
			return id, "header"
		}
	}
	if cfg.SubdomainEnabled && cfg.BaseDomain != "" {
		if id := tenantFromSubdomain(c.Request.Host, cfg.BaseDomain); id != "" {
			return id, "subdomain"
		}
	}
	return "", ""
}

func tenantFromSubdomain(host, baseDomain string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}
	sub := strings.TrimSuffix(host, "."+baseDomain)
	if sub == host || sub == "" || sub == "www" {
		return ""
	}
	// Multi-level subdomains resolve to their leftmost label.
	return strings.Split(sub, ".")[0]
}

func tenantLogger(c *gin.Context, cfg TenantMiddlewareConfig) *zap.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return logger.FromContext(c.Request.Context())
}

func abortTenantUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID returns the tenant id stored by the middleware, or "".
func GetTenantID(c *gin.Context) string {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetTenantCode returns the tenant code when a validator resolved one.
func GetTenantCode(c *gin.Context) string {
	if v, ok := c.Get(TenantCodeKey); ok {
		if code, ok := v.(string); ok {
			return code
		}
	}
	return ""
}
