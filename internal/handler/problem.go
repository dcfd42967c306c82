package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/middleware"
	"github.com/iliyamo/labyrinth/internal/service"
)

// CachePurger drops cached responses after the problem set changes.
// *middleware.ResponseCache implements it; nil disables purging.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// ProblemHandler serves /api/problem.
type ProblemHandler struct {
	Progress *service.ProgressService
	Cache    CachePurger
	Log      logging.Logger
}

func NewProblemHandler(progress *service.ProgressService, cache CachePurger, log logging.Logger) *ProblemHandler {
	return &ProblemHandler{Progress: progress, Cache: cache, Log: log}
}

type submitReq struct {
	ProblemID flexInt `json:"problemId"`
	Answer    string  `json:"answer"`
	UserID    flexID  `json:"userId"`
}

// Current returns the problem the signed-in user is working on.  The route
// sits behind JWTAuth.
func (h *ProblemHandler) Current(c echo.Context) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized request"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Progress.Current(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusOK, p)
}

// AddProblems loads the built-in problem set.  Problems already stored are
// left alone.
func (h *ProblemHandler) AddProblems(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	n, err := h.Progress.Seed(ctx)
	if err != nil {
		return respondError(c, h.Log, err, nil)
	}
	if h.Cache != nil {
		if err := h.Cache.Purge(ctx); err != nil {
			h.Log.Warn(ctx, "cache purge after seed failed", "err", err)
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "problems added", "inserted": n})
}

var submitOverrides = statusOverrides{service.ErrProblemNotFound: http.StatusBadRequest}

// Submit grades an answer.  A wrong answer is a 400 with isCorrect false.
func (h *ProblemHandler) Submit(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Progress.Submit(ctx, uint64(req.UserID), int(req.ProblemID), req.Answer)
	if err != nil {
		return respondError(c, h.Log, err, submitOverrides)
	}
	if !res.IsCorrect {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "incorrect answer", "isCorrect": false})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "correct answer",
		"isCorrect":     true,
		"nextProblemId": res.NextProblemID,
	})
}

// History lists the problems up to maxProblemId.
func (h *ProblemHandler) History(c echo.Context) error {
	maxID, err := strconv.Atoi(c.QueryParam("maxProblemId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "maxProblemId must be an integer"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ps, err := h.Progress.History(ctx, maxID)
	if err != nil {
		return respondError(c, h.Log, err, nil)
	}
	return c.JSON(http.StatusOK, ps)
}
