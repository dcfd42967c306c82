package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/service"
)

// UserHandler serves the /api/user endpoints.  They identify the account
// by the userId in the request, as the client app expects.
type UserHandler struct {
	Auth *service.AuthService
	Log  logging.Logger
}

func NewUserHandler(auth *service.AuthService, log logging.Logger) *UserHandler {
	return &UserHandler{Auth: auth, Log: log}
}

type userIDReq struct {
	UserID flexID `json:"userId"`
}
type changePasswordReq struct {
	UserID          flexID `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Reset puts the user back on the first problem.
func (h *UserHandler) Reset(c echo.Context) error {
	var req userIDReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.ResetAccount(ctx, uint64(req.UserID)); err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "progress has been reset"})
}

// ChangePassword replaces the password after checking the current one.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.ChangePassword(ctx, uint64(req.UserID), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// Get returns the public profile of one user.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Auth.GetUser(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateProblem hands out a fresh session token carrying the stored
// progress pointer, so the client's cached claim catches up after a solve.
func (h *UserHandler) UpdateProblem(c echo.Context) error {
	var req userIDReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	token, u, err := h.Auth.RefreshSession(ctx, uint64(req.UserID))
	if err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":          "session refreshed",
		"token":            token,
		"currentProblemId": u.CurrentProblemID,
	})
}
