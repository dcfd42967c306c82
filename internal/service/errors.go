package service

// Kind groups service errors by how a client should react to them.
type Kind int

const (
	KindValidation Kind = iota + 1 // missing or malformed input
	KindNotFound                   // user or problem absent
	KindAuth                       // bad credentials, unverified account, bad token
	KindConflict                   // uniqueness violation
	KindServer                     // misconfiguration on our side
)

// Error is a service failure that is safe to show to the client.  Values
// are compared by identity, so use errors.Is against the variables below.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(k Kind, msg string) *Error { return &Error{Kind: k, msg: msg} }

var (
	ErrMissingFields    = newError(KindValidation, "all fields are required")
	ErrMissingUserID    = newError(KindValidation, "user id is required")
	ErrMissingAnswer    = newError(KindValidation, "an answer is required")
	ErrPasswordMismatch = newError(KindValidation, "passwords do not match")

	ErrUserNotFound    = newError(KindNotFound, "user not found")
	ErrProblemNotFound = newError(KindNotFound, "problem not found")

	ErrWrongPassword        = newError(KindAuth, "wrong password")
	ErrWrongCurrentPassword = newError(KindAuth, "current password is incorrect")
	ErrNotVerified          = newError(KindAuth, "email address has not been verified")
	ErrInvalidToken         = newError(KindAuth, "invalid or expired token")
	ErrUnauthorized         = newError(KindAuth, "unauthorized request")
	ErrEmailMismatch        = newError(KindAuth, "email does not match the signed-in account")

	ErrDuplicateEmail    = newError(KindConflict, "email is already registered")
	ErrDuplicateUsername = newError(KindConflict, "username is already taken")

	ErrMissingCorrectAnswer = newError(KindServer, "problem has no answer configured")
)
