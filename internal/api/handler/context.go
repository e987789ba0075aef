package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sollo/sheet-admin/internal/api/middleware"
	"github.com/sollo/sheet-admin/internal/core/domain"
)

// ctxClaims returns the claims injected by the Auth middleware. Handlers
// behind Auth always have them; their absence means the route was wired
// without the middleware, which is treated as unauthenticated.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.Username == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}

// messageResponse is the body of operations that return no resource.
type messageResponse struct {
	Message string `json:"message"`
}
