package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sollo/sheet-admin/internal/api/metrics"
	"github.com/sollo/sheet-admin/internal/core/domain"
	"github.com/sollo/sheet-admin/internal/core/security"
)

// Require enforces role-based access control for one operation. It must run
// after Auth: missing claims mean 401, a denied role means 403.
func Require(op security.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return domain.ErrUnauthenticated
			}
			if !security.IsAuthorized(claims, op) {
				metrics.AuthRejectionsTotal.WithLabelValues("forbidden").Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
