package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/labyrinth/internal/handler"
)

// RegisterUser registers the /api/user endpoints.  They take the user id
// from the request rather than from a session token.
func RegisterUser(api *echo.Group, h *handler.UserHandler) {
	g := api.Group("/user")
	g.POST("/reset", h.Reset)
	g.POST("/change-password", h.ChangePassword)
	g.POST("/update-problem", h.UpdateProblem)
	g.GET("/:id", h.Get)
}
