package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/labyrinth/internal/model"
)

const userColumns = "id, username, email, password_hash, is_verified, current_problem_id, created_at, updated_at"

// UserRepo persists accounts in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts an unverified user positioned at the first problem and
// returns the stored row.  passwordHash must already be hashed.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (model.User, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, is_verified, current_problem_id) VALUES (?,?,?,?,?)",
		username, email, passwordHash, false, model.FirstProblemID)
	if err != nil {
		switch uniqueViolation(err) {
		case "email":
			return model.User{}, ErrEmailExists
		case "username":
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("insert user id: %w", err)
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by email.  Callers pass the normalized form.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsVerified, &u.CurrentProblemID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// MarkVerified flags the user's email address as confirmed.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	return r.updateOne(ctx, id, "mark verified", "is_verified=?", true)
}

// SetPasswordHash replaces the stored password hash.
func (r *UserRepo) SetPasswordHash(ctx context.Context, id uint64, hash string) error {
	return r.updateOne(ctx, id, "set password", "password_hash=?", hash)
}

// ResetProgress puts the user back on the first problem.
func (r *UserRepo) ResetProgress(ctx context.Context, id uint64) error {
	return r.updateOne(ctx, id, "reset progress", "current_problem_id=?", model.FirstProblemID)
}

// updateOne sets one column on the user's row and maps "no row" to
// ErrUserNotFound.  MySQL reports zero affected rows when nothing changed,
// so a miss is confirmed with a lookup before it is reported.
func (r *UserRepo) updateOne(ctx context.Context, id uint64, op, set string, val any) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+set+", updated_at=? WHERE id=?", val, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// AdvanceProgress moves the user from problem `from` to `from+1`.  The
// update only matches while the stored pointer still equals `from`, so two
// concurrent correct submissions advance the user once.  It reports whether
// the row moved.
func (r *UserRepo) AdvanceProgress(ctx context.Context, id uint64, from int) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET current_problem_id = current_problem_id + 1, updated_at=? WHERE id=? AND current_problem_id=?",
		time.Now().UTC(), id, from)
	if err != nil {
		return false, fmt.Errorf("advance progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance progress rows: %w", err)
	}
	return n == 1, nil
}
