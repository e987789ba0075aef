package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sollo/sheet-admin/docs"
	"github.com/sollo/sheet-admin/internal/api/handler"
	"github.com/sollo/sheet-admin/internal/api/middleware"
	"github.com/sollo/sheet-admin/internal/core/ports"
	"github.com/sollo/sheet-admin/internal/core/security"
	"github.com/sollo/sheet-admin/internal/infrastructure/http/handlers"
)

// Deps carries everything the router needs.
type Deps struct {
	Log            zerolog.Logger
	Auth           ports.AuthService
	Users          ports.UserService
	Records        ports.RecordService
	UploadMaxBytes int64
	// Readiness lists the dependencies probed by /health/ready.
	Readiness map[string]handlers.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Observe(d.Log))
	e.Use(echomiddleware.Recover())

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	recordHandler := handler.NewRecordHandler(d.Records, d.UploadMaxBytes)

	// Route-level so unknown paths still 404 instead of 401.
	authed := middleware.Auth(d.Auth)
	gate := func(op security.Operation) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{authed, middleware.Require(op)}
	}

	// --- Auth ---
	e.POST("/login", authHandler.Login)
	e.POST("/logout", authHandler.Logout, gate(security.OpLogout)...)

	// --- Users (admin) ---
	e.GET("/users", userHandler.List, gate(security.OpListUsers)...)
	e.POST("/users", userHandler.Create, gate(security.OpCreateUser)...)
	e.PATCH("/users/:ref", userHandler.Update, gate(security.OpUpdateUser)...)
	e.DELETE("/users/:ref", userHandler.Delete, gate(security.OpDeleteUser)...)

	// --- Records ---
	e.GET("/records", recordHandler.List, gate(security.OpListRecords)...)
	e.POST("/records", recordHandler.Create, gate(security.OpCreateRecord)...)
	e.PATCH("/records/:index", recordHandler.Update, gate(security.OpUpdateRecord)...)
	e.DELETE("/records/:index", recordHandler.Delete, gate(security.OpDeleteRecord)...)
	e.POST("/upload", recordHandler.Upload, gate(security.OpImportRecords)...)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Readiness, d.Log)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
