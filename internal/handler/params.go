package handler

import (
	"fmt"
	"strconv"
	"strings"
)

// Clients send ids both as JSON numbers and as strings, so the request
// DTOs use these two types instead of plain integers.  An empty string or
// null decodes to zero, which the services treat as absent.

type flexID uint64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s, err := flexText(b)
	if err != nil || s == "" {
		*f = 0
		return err
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*f = flexID(n)
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s, err := flexText(b)
	if err != nil || s == "" {
		*f = 0
		return err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = flexInt(n)
	return nil
}

// flexText strips JSON quoting from a scalar.
func flexText(b []byte) (string, error) {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return "", nil
	}
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return "", fmt.Errorf("invalid string %s", s)
		}
		s = unq
	}
	return strings.TrimSpace(s), nil
}
