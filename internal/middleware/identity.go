package middleware

// identity.go holds the helpers that read the authenticated user back out
// of the Echo context.  JWTAuth stores the session's user id as a string.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id.  ok is false when JWTAuth did
// not run or the claim is not a valid id.
func UserID(c echo.Context) (id uint64, ok bool) {
	s, _ := c.Get(ContextUserID).(string)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// userKey identifies the caller in rate limit keys.  It returns "anon" when
// no user is authenticated.
func userKey(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
