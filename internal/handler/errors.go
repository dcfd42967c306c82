package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/service"
)

// requestTimeout bounds the store and mail work of a single request.
const requestTimeout = 5 * time.Second

// statusOverrides lets an endpoint answer a service error with a status
// other than the default for its kind.
type statusOverrides map[*service.Error]int

var kindStatus = map[service.Kind]int{
	service.KindValidation: http.StatusBadRequest,
	service.KindNotFound:   http.StatusNotFound,
	service.KindAuth:       http.StatusBadRequest,
	service.KindConflict:   http.StatusBadRequest,
	service.KindServer:     http.StatusInternalServerError,
}

// defaultStatus refines kindStatus for errors every endpoint reports alike.
var defaultStatus = statusOverrides{
	service.ErrUnauthorized:  http.StatusUnauthorized,
	service.ErrEmailMismatch: http.StatusForbidden,
}

// respondError writes err as a {message} body.  Service errors carry their
// own safe message; anything else is logged and reported as a generic 500.
func respondError(c echo.Context, log logging.Logger, err error, overrides statusOverrides) error {
	ctx := c.Request().Context()

	var se *service.Error
	if !errors.As(err, &se) {
		log.Error(ctx, "request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
	}

	status, ok := overrides[se]
	if !ok {
		status, ok = defaultStatus[se]
	}
	if !ok {
		status = kindStatus[se.Kind]
	}
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	}
	return c.JSON(status, echo.Map{"message": se.Error()})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
}
