package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/labyrinth/internal/config"
	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/model"
	"github.com/iliyamo/labyrinth/internal/repository"
	"github.com/iliyamo/labyrinth/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func testConfig() config.Config {
	return config.Config{
		BcryptCost: bcrypt.MinCost,
		SessionTTL: time.Hour,
		VerifyTTL:  time.Hour,
		ResetTTL:   15 * time.Minute,
	}
}

// fakeUsers is an in-memory UserStore with the same uniqueness and
// conditional update rules as the SQL one.
type fakeUsers struct {
	mu        sync.Mutex
	rows      map[uint64]model.User
	nextID    uint64
	createErr error
	saveErr   error
	saves     int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: make(map[uint64]model.User)}
}

func (f *fakeUsers) add(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	if u.CurrentProblemID == 0 {
		u.CurrentProblemID = model.FirstProblemID
	}
	f.rows[u.ID] = u
	return u
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeUsers) get(id uint64) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func (f *fakeUsers) Create(_ context.Context, username, email, hash string) (model.User, error) {
	if f.createErr != nil {
		return model.User{}, f.createErr
	}
	f.mu.Lock()
	for _, u := range f.rows {
		if u.Email == email {
			f.mu.Unlock()
			return model.User{}, repository.ErrEmailExists
		}
		if u.Username == username {
			f.mu.Unlock()
			return model.User{}, repository.ErrUsernameExists
		}
	}
	f.mu.Unlock()
	return f.add(model.User{Username: username, Email: email, PasswordHash: hash}), nil
}

func (f *fakeUsers) find(match func(model.User) bool) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	return f.find(func(u model.User) bool { return u.Email == email })
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	return f.find(func(u model.User) bool { return u.Username == username })
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	return f.find(func(u model.User) bool { return u.ID == id })
}

// update applies fn to the stored row, the way a single-column UPDATE would.
func (f *fakeUsers) update(id uint64, fn func(*model.User)) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(&u)
	f.rows[id] = u
	f.saves++
	return nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id uint64) error {
	return f.update(id, func(u *model.User) { u.IsVerified = true })
}

func (f *fakeUsers) SetPasswordHash(_ context.Context, id uint64, hash string) error {
	return f.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (f *fakeUsers) ResetProgress(_ context.Context, id uint64) error {
	return f.update(id, func(u *model.User) { u.CurrentProblemID = model.FirstProblemID })
}

func (f *fakeUsers) AdvanceProgress(_ context.Context, id uint64, from int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok || u.CurrentProblemID != from {
		return false, nil
	}
	u.CurrentProblemID = from + 1
	f.rows[id] = u
	return true, nil
}

type fakeProblems struct {
	mu   sync.Mutex
	rows map[int]model.Problem
	err  error
}

func newFakeProblems(ps ...model.Problem) *fakeProblems {
	f := &fakeProblems{rows: make(map[int]model.Problem)}
	for _, p := range ps {
		f.rows[p.ProblemID] = p
	}
	return f
}

func (f *fakeProblems) GetByProblemID(_ context.Context, n int) (model.Problem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[n]
	if !ok {
		return model.Problem{}, repository.ErrProblemNotFound
	}
	return p, nil
}

func (f *fakeProblems) ListUpTo(_ context.Context, max int) ([]model.Problem, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Problem, 0)
	for n, p := range f.rows {
		if n <= max {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProblemID < out[j].ProblemID })
	return out, nil
}

func (f *fakeProblems) Seed(_ context.Context, ps []model.Problem) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i, p := range ps {
		if _, ok := f.rows[p.ProblemID]; ok {
			continue
		}
		p.ID = uint64(i + 1)
		f.rows[p.ProblemID] = p
		n++
	}
	return n, nil
}

type fakeMailer struct {
	mu            sync.Mutex
	verifications map[string]string
	resets        map[string]string
	err           error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{verifications: map[string]string{}, resets: map[string]string{}}
}

func (m *fakeMailer) SendVerification(_ context.Context, to, token string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications[to] = token
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, token string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[to] = token
	return nil
}

var errBoom = errors.New("boom")

type authFixture struct {
	svc    *AuthService
	users  *fakeUsers
	mail   *fakeMailer
	tokens *utils.TokenIssuer
}

func newAuthFixture() *authFixture {
	users := newFakeUsers()
	mail := newFakeMailer()
	tokens := utils.NewTokenIssuer(testSecret)
	return &authFixture{
		svc:    NewAuthService(testConfig(), users, tokens, mail, logging.Discard()),
		users:  users,
		mail:   mail,
		tokens: tokens,
	}
}

// addUser stores a user whose password is plain, hashed at the test cost.
func (f *authFixture) addUser(username, email, plain string, verified bool) model.User {
	hash, err := utils.HashPassword(plain, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return f.users.add(model.User{Username: username, Email: email, PasswordHash: hash, IsVerified: verified})
}
