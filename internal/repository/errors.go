// Package repository defines the SQL stores for users and problems and the
// error values they share.  Handlers never see driver errors directly; the
// service layer translates these sentinels into API errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrProblemNotFound is returned when no problem row matches the lookup.
var ErrProblemNotFound = errors.New("problem not found")

// ErrEmailExists and ErrUsernameExists are returned when an insert hits
// the corresponding unique index.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)

// uniqueViolation reports which column a duplicate-key error refers to, or
// "" when err is not a duplicate-key error.  MySQL reports error 1062 with
// the index name; SQLite reports "UNIQUE constraint failed: table.column".
func uniqueViolation(err error) string {
	if err == nil {
		return ""
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		if me.Number != 1062 {
			return ""
		}
		return columnIn(me.Message)
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return columnIn(msg)
	}
	return ""
}

func columnIn(msg string) string {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "email"):
		return "email"
	case strings.Contains(msg, "username"):
		return "username"
	case strings.Contains(msg, "problem_id"):
		return "problem_id"
	}
	return "unknown"
}
