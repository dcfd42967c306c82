// Package service holds the account and progress rules.  Handlers translate
// HTTP into calls on AuthService and ProgressService; both depend only on
// the small store interfaces declared here.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iliyamo/labyrinth/internal/config"
	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/model"
	"github.com/iliyamo/labyrinth/internal/repository"
	"github.com/iliyamo/labyrinth/internal/utils"
)

// UserStore is the credential store.  *repository.UserRepo implements it.
type UserStore interface {
	Create(ctx context.Context, username, email, passwordHash string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	MarkVerified(ctx context.Context, id uint64) error
	SetPasswordHash(ctx context.Context, id uint64, hash string) error
	ResetProgress(ctx context.Context, id uint64) error
	AdvanceProgress(ctx context.Context, id uint64, from int) (bool, error)
}

// Notifier sends the account emails.  *notify.Mailer implements it.
type Notifier interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// AuthService implements registration, email verification, login and the
// password and progress reset flows.
type AuthService struct {
	cfg    config.Config
	users  UserStore
	tokens *utils.TokenIssuer
	mail   Notifier
	log    logging.Logger
}

func NewAuthService(cfg config.Config, users UserStore, tokens *utils.TokenIssuer, mail Notifier, log logging.Logger) *AuthService {
	return &AuthService{cfg: cfg, users: users, tokens: tokens, mail: mail, log: log}
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates an unverified account and mails its verification link.
// No session token is issued; the user has to verify first.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return model.User{}, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return model.User{}, ErrPasswordMismatch
	}

	if err := s.ensureFree(ctx, s.users.GetByEmail, email, ErrDuplicateEmail); err != nil {
		return model.User{}, err
	}
	if err := s.ensureFree(ctx, s.users.GetByUsername, username, ErrDuplicateUsername); err != nil {
		return model.User{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return model.User{}, ErrDuplicateEmail
		case errors.Is(err, repository.ErrUsernameExists):
			return model.User{}, ErrDuplicateUsername
		}
		return model.User{}, err
	}

	token, err := s.tokens.Issue(&utils.EmailClaims{Email: email}, s.cfg.VerifyTTL)
	if err != nil {
		return model.User{}, fmt.Errorf("issue verification token: %w", err)
	}
	if err := s.mail.SendVerification(ctx, email, token); err != nil {
		return model.User{}, fmt.Errorf("send verification email: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

func (s *AuthService) ensureFree(ctx context.Context, lookup func(context.Context, string) (model.User, error), key string, taken error) error {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	}
	return err
}

// VerifyEmail marks the account named by a verification token as verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	var claims utils.EmailClaims
	if err := s.tokens.Verify(token, &claims); err != nil {
		return ErrInvalidToken
	}
	u, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		return userErr(err)
	}
	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return userErr(err)
	}
	s.log.Info(ctx, "email verified", "user_id", u.ID)
	return nil
}

// Login checks credentials and returns a session token.  An unverified
// account is refused before its password is looked at.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrMissingFields
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", userErr(err)
	}
	if !u.IsVerified {
		return "", ErrNotVerified
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return "", ErrWrongPassword
	}
	return s.issueSession(u)
}

// ResetAccount puts the user back on the first problem.
func (s *AuthService) ResetAccount(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return ErrMissingUserID
	}
	return userErr(s.users.ResetProgress(ctx, userID))
}

// RequestPasswordReset mails a reset link to the signed-in user.  The email
// in the request must be the session owner's own address.
func (s *AuthService) RequestPasswordReset(ctx context.Context, bearer, email string) error {
	if bearer == "" {
		return ErrUnauthorized
	}
	claims, err := s.ParseSession(bearer)
	if err != nil {
		return ErrUnauthorized
	}
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return userErr(err)
	}
	if u.Email != normalizeEmail(email) {
		return ErrEmailMismatch
	}

	token, err := s.tokens.Issue(&utils.ResetClaims{UserID: claims.UserID, Email: u.Email}, s.cfg.ResetTTL)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.mail.SendPasswordReset(ctx, u.Email, token); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword sets a new password for the user named by a reset token.
// The token's user id and email must still belong to the same account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}
	var claims utils.ResetClaims
	if err := s.tokens.Verify(token, &claims); err != nil {
		return ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil {
		return ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return userErr(err)
	}
	if u.Email != claims.Email {
		return ErrUserNotFound
	}
	return s.setPassword(ctx, u, newPassword)
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, currentPassword, newPassword string) error {
	if userID == 0 || currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return userErr(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, currentPassword) {
		return ErrWrongCurrentPassword
	}
	return s.setPassword(ctx, u, newPassword)
}

func (s *AuthService) setPassword(ctx context.Context, u model.User, plain string) error {
	hash, err := utils.HashPassword(plain, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return userErr(err)
	}
	s.log.Info(ctx, "password changed", "user_id", u.ID)
	return nil
}

// GetUser returns the account with the given id.
func (s *AuthService) GetUser(ctx context.Context, userID uint64) (model.User, error) {
	if userID == 0 {
		return model.User{}, ErrMissingUserID
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, userErr(err)
	}
	return u, nil
}

// RefreshSession issues a new session token whose progress claim reflects
// the stored pointer.  Clients call it after solving a problem.
func (s *AuthService) RefreshSession(ctx context.Context, userID uint64) (string, model.User, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", model.User{}, err
	}
	token, err := s.issueSession(u)
	if err != nil {
		return "", model.User{}, err
	}
	return token, u, nil
}

// ParseSession verifies a session token.
func (s *AuthService) ParseSession(raw string) (utils.SessionClaims, error) {
	var claims utils.SessionClaims
	if err := s.tokens.Verify(raw, &claims); err != nil {
		return utils.SessionClaims{}, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) issueSession(u model.User) (string, error) {
	token, err := s.tokens.Issue(&utils.SessionClaims{
		UserID:           strconv.FormatUint(u.ID, 10),
		Username:         u.Username,
		CurrentProblemID: u.CurrentProblemID,
	}, s.cfg.SessionTTL)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	return token, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// userErr maps the store's not-found sentinel onto the service one and
// passes everything else through.
func userErr(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
