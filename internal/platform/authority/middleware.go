package authority

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/domainerr"
	"github.com/clinicore/clinicore/pkg/respond"
)

// Request metadata keys. Authority fields travel only in headers; any
// authority-shaped field in a request body is ignored, never trusted.
const (
	HeaderTenantID      = "X-Tenant-ID"
	HeaderClinicianID   = "X-Clinician-ID"
	HeaderAuthorizedAt  = "X-Authorized-At"
	HeaderCorrelationID = "X-Correlation-ID"
)

type contextKey int

const (
	tenantKey contextKey = iota
	authorityKey
	authTenantKey
	rolesKey
)

// RequireTenant rejects requests without a tenant id before anything else
// runs (400, distinct from authorization failure). When an authenticated
// tenant was established by the token layer, a mismatch against the requested
// tenant is rejected with 403.
func RequireTenant() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID := c.Request().Header.Get(HeaderTenantID)
			if tenantID == "" {
				return respond.Error(c, domainerr.New(domainerr.CodeTenantRequired))
			}

			ctx := c.Request().Context()
			if authTenant, ok := ctx.Value(authTenantKey).(string); ok && authTenant != "" && authTenant != tenantID {
				return respond.Error(c, domainerr.New(domainerr.CodeTenantMismatch))
			}

			ctx = context.WithValue(ctx, tenantKey, tenantID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("tenant_id", tenantID)
			return next(c)
		}
	}
}

// RequireAuthority guards write routes. It builds the per-operation Context
// from request metadata via the trusted constructor and stores it in the
// request context. Reads never pass through this middleware.
func RequireAuthority() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			clinicianID := req.Header.Get(HeaderClinicianID)
			authorizedAt := req.Header.Get(HeaderAuthorizedAt)
			correlationID := req.Header.Get(HeaderCorrelationID)

			if clinicianID == "" || authorizedAt == "" || correlationID == "" {
				return respond.Error(c, domainerr.New(domainerr.CodeAuthorityMissing))
			}

			// The client-supplied timestamp proves the caller filled the
			// field deliberately; the constructor stamps its own instant.
			if _, err := time.Parse(time.RFC3339, authorizedAt); err != nil {
				return respond.Error(c, domainerr.New(domainerr.CodeAuthorityInvalid))
			}

			tenantID := TenantFromContext(req.Context())
			authz, err := New(clinicianID, tenantID, correlationID)
			if err != nil || !authz.Valid() {
				return respond.Error(c, domainerr.New(domainerr.CodeAuthorityInvalid))
			}

			ctx := context.WithValue(req.Context(), authorityKey, &authz)
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// TenantFromContext returns the requested tenant id, or "".
func TenantFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(tenantKey).(string)
	return tid
}

// FromContext returns the verified authority for the current operation, or
// nil when the route never passed RequireAuthority.
func FromContext(ctx context.Context) *Context {
	authz, _ := ctx.Value(authorityKey).(*Context)
	return authz
}

// RolesFromContext returns the authenticated caller's roles.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(rolesKey).([]string)
	return roles
}

// RequireRole denies the request unless the caller holds one of the given
// roles. Capability denial is 403, indistinguishable from other denials.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, r := range RolesFromContext(c.Request().Context()) {
				if allowed[r] {
					return next(c)
				}
			}
			return respond.Error(c, domainerr.New(domainerr.CodeForbidden))
		}
	}
}
