package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retailbill/backend/internal/infrastructure/auth"
	"github.com/retailbill/backend/internal/interfaces/http/dto"
)

// PermissionConfig customises the permission middleware.
type PermissionConfig struct {
	Logger *zap.Logger
	// OnDenied replaces the default 403 response when set.
	OnDenied func(c *gin.Context, requiredPerms []string)
}

// RequirePermission gates a route behind a single permission string.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission lets the request through when the session holds
// at least one of the listed permissions.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return requirePermissions(cfg, permissions, func(claims *auth.Claims) bool {
		return claims.HasAnyPermission(permissions...)
	})
}

// RequireAllPermissions lets the request through only when the session
// holds every listed permission.
func RequireAllPermissions(permissions ...string) gin.HandlerFunc {
	return RequireAllPermissionsWithConfig(PermissionConfig{}, permissions...)
}

func RequireAllPermissionsWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return requirePermissions(cfg, permissions, func(claims *auth.Claims) bool {
		return claims.HasAllPermissions(permissions...)
	})
}

func requirePermissions(cfg PermissionConfig, permissions []string, allowed func(*auth.Claims) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			deny(c, cfg, permissions, "no authentication claims")
			return
		}
		if !allowed(claims) {
			deny(c, cfg, permissions, "missing required permission")
			return
		}
		c.Next()
	}
}

func deny(c *gin.Context, cfg PermissionConfig, requiredPerms []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredPerms)
		return
	}

	if cfg.Logger != nil {
		userID := ""
		if claims := GetJWTClaims(c); claims != nil {
			userID = claims.UserID
		}
		cfg.Logger.Warn("Permission denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.Strings("required_permissions", requiredPerms),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(
		dto.ErrCodeForbidden,
		"Access denied: insufficient permissions",
	))
}
