package authority

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/domainerr"
	"github.com/clinicore/clinicore/pkg/respond"
)

// TokenClaims are the verified session claims the upstream identity provider
// issues. Only the tenant and roles are consumed here; the core never builds
// an authority Context from token claims.
type TokenClaims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
}

type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// VerifyToken validates the bearer token and records the authenticated
// tenant and roles on the request context. RequireTenant later compares the
// authenticated tenant against the requested one.
func VerifyToken(cfg TokenConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return respond.Error(c, domainerr.New(domainerr.CodeForbidden))
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return respond.Error(c, domainerr.New(domainerr.CodeForbidden))
			}

			claims := &TokenClaims{}
			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.Secret, nil
			}, opts...)
			if err != nil || !token.Valid {
				return respond.Error(c, domainerr.New(domainerr.CodeForbidden))
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, authTenantKey, claims.TenantID)
			ctx = context.WithValue(ctx, rolesKey, claims.Roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevIdentity grants every request the clinician role without a token. For
// development only; serve refuses this mode in production configuration.
func DevIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), rolesKey, []string{"clinician", "admin"})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
