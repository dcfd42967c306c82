package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/labyrinth/internal/handler"
	"github.com/iliyamo/labyrinth/internal/middleware"
	"github.com/iliyamo/labyrinth/internal/utils"
)

// ProblemOptions carries the middleware the problem routes need beyond the
// handler itself.
type ProblemOptions struct {
	Tokens     *utils.TokenIssuer        // verifies session tokens on /current
	Limit      echo.MiddlewareFunc       // rate limit for /submit
	Cache      *middleware.ResponseCache // history response cache, nil when disabled
	AdminToken string                    // guards /add-problems when set
}

// RegisterProblem registers the /api/problem endpoints.
func RegisterProblem(api *echo.Group, h *handler.ProblemHandler, opt ProblemOptions) {
	g := api.Group("/problem")
	g.GET("/current", h.Current, middleware.JWTAuth(opt.Tokens))
	g.POST("/add-problems", h.AddProblems, middleware.RequireAdminToken(opt.AdminToken))
	g.POST("/submit", h.Submit, opt.Limit)
	g.GET("/problems/history", h.History, opt.Cache.Middleware())
}
