package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/model"
	"github.com/iliyamo/labyrinth/internal/repository"
)

// ProblemStore is the read side of the problem catalogue plus seeding.
// *repository.ProblemRepo implements it.
type ProblemStore interface {
	GetByProblemID(ctx context.Context, problemID int) (model.Problem, error)
	ListUpTo(ctx context.Context, max int) ([]model.Problem, error)
	Seed(ctx context.Context, problems []model.Problem) (int, error)
}

// CompareAnswer reports whether a submitted answer matches the stored one.
// Whitespace anywhere in either string is ignored, as is letter case.  An
// empty argument never matches.
func CompareAnswer(userAnswer, correctAnswer string) bool {
	if userAnswer == "" || correctAnswer == "" {
		return false
	}
	return normalizeAnswer(userAnswer) == normalizeAnswer(correctAnswer)
}

func normalizeAnswer(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// SubmitResult is the outcome of one answer submission.  NextProblemID is
// only meaningful when IsCorrect is set.
type SubmitResult struct {
	IsCorrect     bool
	NextProblemID int
}

// ProgressService grades submissions and moves the users' progress pointer.
type ProgressService struct {
	users    UserStore
	problems ProblemStore
	log      logging.Logger
}

func NewProgressService(users UserStore, problems ProblemStore, log logging.Logger) *ProgressService {
	return &ProgressService{users: users, problems: problems, log: log}
}

// Submit grades answer against problemID for the given user.  A correct
// answer to the user's current problem moves them to the next one; a
// correct answer to any other problem is acknowledged without changing
// progress.
func (s *ProgressService) Submit(ctx context.Context, userID uint64, problemID int, answer string) (SubmitResult, error) {
	if answer == "" {
		return SubmitResult{}, ErrMissingAnswer
	}
	if userID == 0 {
		return SubmitResult{}, ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return SubmitResult{}, userErr(err)
	}
	p, err := s.problems.GetByProblemID(ctx, problemID)
	if err != nil {
		return SubmitResult{}, problemErr(err)
	}
	if p.CorrectAnswer == "" {
		s.log.Error(ctx, "problem has no answer", "problem_id", p.ProblemID)
		return SubmitResult{}, ErrMissingCorrectAnswer
	}

	if !CompareAnswer(answer, p.CorrectAnswer) {
		return SubmitResult{IsCorrect: false}, nil
	}

	next := u.CurrentProblemID
	if u.CurrentProblemID == problemID {
		moved, err := s.users.AdvanceProgress(ctx, u.ID, problemID)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("advance progress: %w", err)
		}
		if moved {
			next = problemID + 1
			s.log.Info(ctx, "problem solved", "user_id", u.ID, "problem_id", problemID)
		} else {
			// Another request moved the pointer between our read and write.
			fresh, err := s.users.GetByID(ctx, u.ID)
			if err != nil {
				return SubmitResult{}, userErr(err)
			}
			next = fresh.CurrentProblemID
		}
	}
	return SubmitResult{IsCorrect: true, NextProblemID: next}, nil
}

// Current returns the problem the user is working on.  Once every problem is
// solved the pointer names a problem that does not exist and
// ErrProblemNotFound is returned.
func (s *ProgressService) Current(ctx context.Context, userID uint64) (model.Problem, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Problem{}, userErr(err)
	}
	p, err := s.problems.GetByProblemID(ctx, u.CurrentProblemID)
	if err != nil {
		return model.Problem{}, problemErr(err)
	}
	return p, nil
}

// History lists the problems up to and including maxProblemID.
func (s *ProgressService) History(ctx context.Context, maxProblemID int) ([]model.Problem, error) {
	return s.problems.ListUpTo(ctx, maxProblemID)
}

// Seed loads the built-in catalogue and returns how many problems were new.
func (s *ProgressService) Seed(ctx context.Context) (int, error) {
	n, err := s.problems.Seed(ctx, Catalog())
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "problems seeded", "inserted", n)
	return n, nil
}

func problemErr(err error) error {
	if errors.Is(err, repository.ErrProblemNotFound) {
		return ErrProblemNotFound
	}
	return err
}
