package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/labyrinth/internal/handler"
	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/middleware"
)

// New returns an Echo instance with the process-wide middleware installed:
// panic recovery, request ids and one log line per request.
func New(log logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	return e
}

// RegisterRoutes registers routes that live outside the API prefix.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers registration, verification, login and the password
// reset flow directly under /api.  limit guards the endpoints that accept
// credentials or send mail.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	api.POST("/register", a.Register, limit)
	api.GET("/verify-email", a.VerifyEmail)
	api.POST("/login", a.Login, limit)
	api.POST("/password-reset-request", a.RequestPasswordReset, limit)
	api.POST("/reset-password", a.ResetPassword)
}
