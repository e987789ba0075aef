package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sollo/sheet-admin/internal/api/metrics"
	"github.com/sollo/sheet-admin/internal/core/domain"
)

// Context keys set by Auth.
const (
	ClaimsKey   = "claims"
	UsernameKey = "username"
	RoleKey     = "role"
)

// Authenticator verifies a bearer token and returns its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
}

// Auth validates the bearer token and injects claims into the context.
// Requests without a valid, unrevoked token never reach next.
func Auth(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := authn.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrTokenRevoked):
					metrics.AuthRejectionsTotal.WithLabelValues("revoked").Inc()
				case errors.Is(err, domain.ErrUnauthenticated):
					metrics.AuthRejectionsTotal.WithLabelValues("invalid_token").Inc()
				}
				return err
			}

			c.Set(ClaimsKey, claims)
			c.Set(UsernameKey, claims.Username)
			c.Set(RoleKey, string(claims.Role))

			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by Auth, or nil.
func ClaimsFrom(c echo.Context) *domain.Claims {
	claims, _ := c.Get(ClaimsKey).(*domain.Claims)
	return claims
}
