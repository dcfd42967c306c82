package model

import "time"

// User represents an account record as stored in the `users` table.  The
// JSON tags define the public shape returned by GET /api/user/:id; the
// password hash never leaves the server.
//
// Fields:
//
//	ID               – primary key identifier of the user.
//	Username         – unique login name.
//	Email            – unique address, stored trimmed and lower-cased.
//	PasswordHash     – bcrypt hashed password.
//	IsVerified       – set once the email verification link was followed.
//	CurrentProblemID – ordinal of the next problem to solve, starts at 1.
type User struct {
	ID               uint64    `json:"id"`               // users.id
	Username         string    `json:"username"`         // users.username
	Email            string    `json:"email"`            // users.email
	PasswordHash     string    `json:"-"`                // users.password_hash
	IsVerified       bool      `json:"isVerified"`       // users.is_verified
	CurrentProblemID int       `json:"currentProblemId"` // users.current_problem_id
	CreatedAt        time.Time `json:"createdAt"`        // users.created_at
	UpdatedAt        time.Time `json:"updatedAt"`        // users.updated_at
}

// FirstProblemID is where every new or reset account starts.
const FirstProblemID = 1
