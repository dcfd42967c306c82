package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/model"
	"github.com/iliyamo/labyrinth/internal/repository"
	"github.com/iliyamo/labyrinth/internal/utils"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
	}
}

func TestRegister_CreatesUnverifiedUserAndMailsToken(t *testing.T) {
	f := newAuthFixture()
	in := validRegistration()
	in.Email = "  Alice@Example.COM "

	u, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)

	stored := f.users.get(u.ID)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, model.FirstProblemID, stored.CurrentProblemID)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)
	assert.True(t, utils.VerifyPassword(stored.PasswordHash, "hunter22"))

	token, ok := f.mail.verifications["alice@example.com"]
	require.True(t, ok, "verification email not sent")
	var claims utils.EmailClaims
	require.NoError(t, f.tokens.Verify(token, &claims))
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestRegister_MissingFields(t *testing.T) {
	cases := map[string]func(*RegisterInput){
		"username":        func(in *RegisterInput) { in.Username = "   " },
		"email":           func(in *RegisterInput) { in.Email = "" },
		"password":        func(in *RegisterInput) { in.Password = "" },
		"confirmPassword": func(in *RegisterInput) { in.ConfirmPassword = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newAuthFixture()
			in := validRegistration()
			mutate(&in)

			_, err := f.svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Zero(t, f.users.count())
		})
	}
}

func TestRegister_PasswordMismatchCreatesNothing(t *testing.T) {
	f := newAuthFixture()
	in := validRegistration()
	in.ConfirmPassword = "hunter23"

	_, err := f.svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Zero(t, f.users.count())
	assert.Empty(t, f.mail.verifications)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	again := validRegistration()
	again.Username = "alice2"
	again.Email = "ALICE@example.com"
	_, err = f.svc.Register(context.Background(), again)

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, 1, f.users.count())
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	again := validRegistration()
	again.Email = "other@example.com"
	_, err = f.svc.Register(context.Background(), again)

	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.Equal(t, 1, f.users.count())
}

func TestRegister_UniqueIndexBackstop(t *testing.T) {
	f := newAuthFixture()
	f.users.createErr = repository.ErrEmailExists

	_, err := f.svc.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegister_MailFailureIsServerSide(t *testing.T) {
	f := newAuthFixture()
	f.mail.err = errBoom

	_, err := f.svc.Register(context.Background(), validRegistration())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	var svcErr *Error
	assert.False(t, errors.As(err, &svcErr))
}

func TestVerifyEmail(t *testing.T) {
	f := newAuthFixture()
	u := f.addUser("bob", "bob@example.com", "pw", false)
	token, err := f.tokens.Issue(&utils.EmailClaims{Email: "bob@example.com"}, time.Hour)
	require.NoError(t, err)

	require.NoError(t, f.svc.VerifyEmail(context.Background(), token))
	assert.True(t, f.users.get(u.ID).IsVerified)
}

func TestVerifyEmail_Rejects(t *testing.T) {
	f := newAuthFixture()
	f.addUser("bob", "bob@example.com", "pw", false)

	session, err := f.tokens.Issue(&utils.SessionClaims{UserID: "1"}, time.Hour)
	require.NoError(t, err)
	unknown, err := f.tokens.Issue(&utils.EmailClaims{Email: "nobody@example.com"}, time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.VerifyEmail(context.Background(), ""), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.VerifyEmail(context.Background(), "garbage"), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.VerifyEmail(context.Background(), session), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.VerifyEmail(context.Background(), unknown), ErrUserNotFound)
}

func TestLogin_IssuesSessionToken(t *testing.T) {
	f := newAuthFixture()
	u := f.addUser("carol", "carol@example.com", "s3cret", true)

	token, err := f.svc.Login(context.Background(), "carol", "s3cret")
	require.NoError(t, err)

	claims, err := f.svc.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatUint(u.ID, 10), claims.UserID)
	assert.Equal(t, "carol", claims.Username)
	assert.Equal(t, 1, claims.CurrentProblemID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLogin_Failures(t *testing.T) {
	f := newAuthFixture()
	f.addUser("carol", "carol@example.com", "s3cret", true)

	_, err := f.svc.Login(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = f.svc.Login(context.Background(), "dave", "s3cret")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.svc.Login(context.Background(), "carol", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestLogin_UnverifiedRegardlessOfPassword(t *testing.T) {
	f := newAuthFixture()
	f.addUser("erin", "erin@example.com", "right", false)

	for _, pw := range []string{"right", "wrong"} {
		_, err := f.svc.Login(context.Background(), "erin", pw)
		assert.ErrorIs(t, err, ErrNotVerified, "password %q", pw)
	}
}

func TestResetAccount_AlwaysBackToFirst(t *testing.T) {
	f := newAuthFixture()
	for _, start := range []int{1, 4, 9} {
		u := f.users.add(model.User{Username: "u" + strconv.Itoa(start), Email: strconv.Itoa(start) + "@x", CurrentProblemID: start})

		require.NoError(t, f.svc.ResetAccount(context.Background(), u.ID))
		assert.Equal(t, 1, f.users.get(u.ID).CurrentProblemID)
	}

	assert.ErrorIs(t, f.svc.ResetAccount(context.Background(), 0), ErrMissingUserID)
	assert.ErrorIs(t, f.svc.ResetAccount(context.Background(), 999), ErrUserNotFound)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	u := f.addUser("frank", "frank@example.com", "pw", true)
	bearer, err := f.svc.Login(context.Background(), "frank", "pw")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), bearer, " Frank@Example.com"))

	token, ok := f.mail.resets["frank@example.com"]
	require.True(t, ok)
	var claims utils.ResetClaims
	require.NoError(t, f.tokens.Verify(token, &claims))
	assert.Equal(t, strconv.FormatUint(u.ID, 10), claims.UserID)
	assert.Equal(t, "frank@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestRequestPasswordReset_Rejects(t *testing.T) {
	f := newAuthFixture()
	f.addUser("frank", "frank@example.com", "pw", true)
	bearer, err := f.svc.Login(context.Background(), "frank", "pw")
	require.NoError(t, err)
	ghost, err := f.tokens.Issue(&utils.SessionClaims{UserID: "404"}, time.Hour)
	require.NoError(t, err)
	verify, err := f.tokens.Issue(&utils.EmailClaims{Email: "frank@example.com"}, time.Hour)
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "", "frank@example.com"), ErrUnauthorized)
	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "nope", "frank@example.com"), ErrUnauthorized)
	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, verify, "frank@example.com"), ErrUnauthorized)
	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, ghost, "frank@example.com"), ErrUserNotFound)
	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, bearer, "mallory@example.com"), ErrEmailMismatch)
	assert.Empty(t, f.mail.resets)
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture()
	u := f.addUser("gina", "gina@example.com", "old", true)
	id := strconv.FormatUint(u.ID, 10)
	token, err := f.tokens.Issue(&utils.ResetClaims{UserID: id, Email: "gina@example.com"}, 15*time.Minute)
	require.NoError(t, err)

	require.NoError(t, f.svc.ResetPassword(context.Background(), token, "new"))

	_, err = f.svc.Login(context.Background(), "gina", "new")
	assert.NoError(t, err)
	_, err = f.svc.Login(context.Background(), "gina", "old")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestResetPassword_Rejects(t *testing.T) {
	f := newAuthFixture()
	u := f.addUser("gina", "gina@example.com", "old", true)
	id := strconv.FormatUint(u.ID, 10)
	stale, err := f.tokens.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).
		Issue(&utils.ResetClaims{UserID: id, Email: "gina@example.com"}, 15*time.Minute)
	require.NoError(t, err)
	otherEmail, err := f.tokens.Issue(&utils.ResetClaims{UserID: id, Email: "gina@elsewhere.com"}, time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "", "x"), ErrMissingFields)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "tok", ""), ErrMissingFields)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, stale, "x"), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, otherEmail, "x"), ErrUserNotFound)
	assert.Zero(t, f.users.saves)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture()
	u := f.addUser("hank", "hank@example.com", "old", true)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, "", "new"), ErrMissingFields)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, 999, "old", "new"), ErrUserNotFound)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, u.ID, "nope", "new"), ErrWrongCurrentPassword)

	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, "old", "new"))
	assert.True(t, utils.VerifyPassword(f.users.get(u.ID).PasswordHash, "new"))
}

// solvingUsers advances the user's progress right after every GetByID,
// standing in for a correct submission that lands mid-request.
type solvingUsers struct {
	*fakeUsers
}

func (s solvingUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.fakeUsers.GetByID(ctx, id)
	if err == nil {
		_, _ = s.fakeUsers.AdvanceProgress(ctx, id, u.CurrentProblemID)
	}
	return u, err
}

func (s solvingUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := s.fakeUsers.GetByEmail(ctx, email)
	if err == nil {
		_, _ = s.fakeUsers.AdvanceProgress(ctx, u.ID, u.CurrentProblemID)
	}
	return u, err
}

func TestAccountWrites_KeepConcurrentProgress(t *testing.T) {
	f := newAuthFixture()
	users := solvingUsers{f.users}
	svc := NewAuthService(testConfig(), users, f.tokens, f.mail, logging.Discard())
	ctx := context.Background()

	u := f.addUser("kim", "kim@example.com", "old", false)
	token, err := f.tokens.Issue(&utils.EmailClaims{Email: "kim@example.com"}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, token))
	assert.Equal(t, 2, f.users.get(u.ID).CurrentProblemID)
	assert.True(t, f.users.get(u.ID).IsVerified)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "old", "new"))
	assert.Equal(t, 3, f.users.get(u.ID).CurrentProblemID)
	assert.True(t, utils.VerifyPassword(f.users.get(u.ID).PasswordHash, "new"))

	reset, err := f.tokens.Issue(&utils.ResetClaims{UserID: strconv.FormatUint(u.ID, 10), Email: "kim@example.com"}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, svc.ResetPassword(ctx, reset, "newer"))
	assert.Equal(t, 4, f.users.get(u.ID).CurrentProblemID)
}

func TestGetUserAndRefreshSession(t *testing.T) {
	f := newAuthFixture()
	u := f.users.add(model.User{Username: "ivy", Email: "ivy@example.com", IsVerified: true, CurrentProblemID: 5})
	ctx := context.Background()

	_, err := f.svc.GetUser(ctx, 0)
	assert.ErrorIs(t, err, ErrMissingUserID)
	_, _, err = f.svc.RefreshSession(ctx, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)

	token, got, err := f.svc.RefreshSession(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.CurrentProblemID)
	claims, err := f.svc.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, 5, claims.CurrentProblemID)
	assert.Equal(t, 5, f.users.get(u.ID).CurrentProblemID)
}
