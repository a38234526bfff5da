package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	TenantIDKey      contextKey = "tenant_id"
	TenantContextKey            = "tenant_id"
	TenantHeader                = "X-Tenant-ID"

	// SessionTenantKey holds the tenant named by the backend session token.
	SessionTenantKey = "jwt_tenant_id"
)

var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidTenant reports whether id is a usable tenant identifier.
func ValidTenant(id string) bool {
	return tenantIDPattern.MatchString(id)
}

// Tenant resolves the active tenant for each request. fallback is called
// when the request names none; it normally reads the persisted selection.
func Tenant(fallback func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID := extractTenantID(c, fallback)
			if !ValidTenant(tenantID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant identifier")
			}

			ctx := context.WithValue(c.Request().Context(), TenantIDKey, tenantID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(TenantContextKey, tenantID)
			return next(c)
		}
	}
}

// SessionTenant exposes the tenant carried by the session token to Tenant,
// where it takes precedence over headers and query parameters.
func SessionTenant(fromSession func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tid := fromSession(); tid != "" {
				c.Set(SessionTenantKey, tid)
			}
			return next(c)
		}
	}
}

func extractTenantID(c echo.Context, fallback func() string) string {
	if tid, ok := c.Get(SessionTenantKey).(string); ok && tid != "" {
		return tid
	}
	if tid := c.Request().Header.Get(TenantHeader); tid != "" {
		return tid
	}
	if tid := c.QueryParam("tenant_id"); tid != "" {
		return tid
	}
	if tid := c.QueryParam("tenantId"); tid != "" {
		return tid
	}
	if fallback != nil {
		return fallback()
	}
	return ""
}

// TenantFromContext retrieves the tenant ID from context.
func TenantFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(TenantIDKey).(string)
	return tid
}

// TenantFromEcho is TenantFromContext for handlers.
func TenantFromEcho(c echo.Context) string {
	if tid, ok := c.Get(TenantContextKey).(string); ok {
		return tid
	}
	return TenantFromContext(c.Request().Context())
}
