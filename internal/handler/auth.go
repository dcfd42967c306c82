package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/labyrinth/internal/config"
	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/middleware"
	"github.com/iliyamo/labyrinth/internal/service"
)

// AuthHandler bundles dependencies for the account endpoints that do not
// take a user id in the body.
type AuthHandler struct {
	Cfg  config.Config
	Auth *service.AuthService
	Log  logging.Logger
}

func NewAuthHandler(cfg config.Config, auth *service.AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Auth: auth, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type resetRequestReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Register: create an unverified account and mail the verification link.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Auth.Register(ctx, service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}); err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registration complete, check your email to verify your account",
	})
}

// verifyEmailOverrides: the link is opened in a browser, so every failure
// is a plain 400.
var verifyEmailOverrides = statusOverrides{service.ErrUserNotFound: http.StatusBadRequest}

// VerifyEmail: follow the emailed link, then send the browser to login.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.VerifyEmail(ctx, c.QueryParam("token")); err != nil {
		return respondError(c, h.Log, err, verifyEmailOverrides)
	}
	return c.Redirect(http.StatusFound, h.Cfg.ClientURL+"/login")
}

var loginOverrides = statusOverrides{service.ErrUserNotFound: http.StatusBadRequest}

// Login: check credentials and return a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	token, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, h.Log, err, loginOverrides)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "login successful", "token": token})
}

// RequestPasswordReset: the signed-in user asks for a reset link.  The
// bearer token is read here rather than by JWTAuth so that a missing token
// and a foreign email are told apart.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequestReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.RequestPasswordReset(ctx, middleware.BearerToken(c), req.Email); err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset link sent"})
}

var resetPasswordOverrides = statusOverrides{service.ErrUserNotFound: http.StatusBadRequest}

// ResetPassword: redeem a reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return respondError(c, h.Log, err, resetPasswordOverrides)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password has been reset"})
}
