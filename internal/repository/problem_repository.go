package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/labyrinth/internal/model"
)

const problemColumns = "id, problem_id, title, correct_answer"

// ProblemRepo encapsulates queries on the `problems` table.  Problems are
// written once by Seed and read-only afterwards.
type ProblemRepo struct{ DB *sql.DB }

func NewProblemRepo(db *sql.DB) *ProblemRepo { return &ProblemRepo{DB: db} }

// GetByProblemID fetches the problem with the given ordinal.
func (r *ProblemRepo) GetByProblemID(ctx context.Context, problemID int) (model.Problem, error) {
	return r.getOne(ctx, "SELECT "+problemColumns+" FROM problems WHERE problem_id = ? LIMIT 1", problemID)
}

// GetByID fetches a problem by its row identity.  Handlers address
// problems by ordinal; this is for admin tooling and tests.
func (r *ProblemRepo) GetByID(ctx context.Context, id uint64) (model.Problem, error) {
	return r.getOne(ctx, "SELECT "+problemColumns+" FROM problems WHERE id = ? LIMIT 1", id)
}

func (r *ProblemRepo) getOne(ctx context.Context, q string, arg any) (model.Problem, error) {
	var p model.Problem
	if err := r.DB.QueryRowContext(ctx, q, arg).Scan(&p.ID, &p.ProblemID, &p.Title, &p.CorrectAnswer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Problem{}, ErrProblemNotFound
		}
		return model.Problem{}, fmt.Errorf("select problem: %w", err)
	}
	return p, nil
}

// ListUpTo returns every problem whose ordinal is at most max, ascending.
func (r *ProblemRepo) ListUpTo(ctx context.Context, max int) ([]model.Problem, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+problemColumns+" FROM problems WHERE problem_id <= ? ORDER BY problem_id ASC", max)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	out := make([]model.Problem, 0)
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(&p.ID, &p.ProblemID, &p.Title, &p.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("scan problem: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate problems: %w", err)
	}
	return out, nil
}

// Seed inserts each problem whose ordinal is not stored yet, in a single
// transaction, and returns how many rows were added.  Running it twice with
// the same catalogue adds nothing the second time.
func (r *ProblemRepo) Seed(ctx context.Context, problems []model.Problem) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("seed begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, p := range problems {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM problems WHERE problem_id = ?", p.ProblemID).Scan(&n); err != nil {
			return 0, fmt.Errorf("seed lookup %d: %w", p.ProblemID, err)
		}
		if n > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO problems (problem_id, title, correct_answer) VALUES (?, ?, ?)",
			p.ProblemID, p.Title, p.CorrectAnswer); err != nil {
			return 0, fmt.Errorf("seed insert %d: %w", p.ProblemID, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed commit: %w", err)
	}
	return inserted, nil
}
