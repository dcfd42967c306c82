package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is the only error Verify returns.  A forged signature, a
// token minted for another purpose, garbage input and an elapsed expiry are
// deliberately indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid or expired token")

// Token purposes, carried in the audience claim.
const (
	PurposeSession       = "session"
	PurposeVerifyEmail   = "verify-email"
	PurposePasswordReset = "password-reset"
)

// Claims is implemented by the three claim sets below.  The unexported
// methods keep callers from signing arbitrary claim structs.
type Claims interface {
	jwt.Claims
	purpose() string
	stamp(jwt.RegisteredClaims)
}

// SessionClaims is the bearer credential handed out at login.  It caches
// the user's progress pointer as of issuance.
type SessionClaims struct {
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	CurrentProblemID int    `json:"currentProblemId"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) purpose() string              { return PurposeSession }
func (c *SessionClaims) stamp(r jwt.RegisteredClaims) { c.RegisteredClaims = r }

// EmailClaims is embedded in the verification link sent at registration.
type EmailClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (c *EmailClaims) purpose() string              { return PurposeVerifyEmail }
func (c *EmailClaims) stamp(r jwt.RegisteredClaims) { c.RegisteredClaims = r }

// ResetClaims is embedded in the password reset link.
type ResetClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (c *ResetClaims) purpose() string              { return PurposePasswordReset }
func (c *ResetClaims) stamp(r jwt.RegisteredClaims) { c.RegisteredClaims = r }

// TokenIssuer signs and verifies HS256 tokens with one process-wide secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer returns an issuer for secret using the wall clock.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the issuer reading time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	return &TokenIssuer{secret: i.secret, now: now}
}

// Issue stamps iat, exp and aud on c and returns the signed token.
func (i *TokenIssuer) Issue(c Claims, ttl time.Duration) (string, error) {
	now := i.now()
	c.stamp(jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{c.purpose()},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Verify parses raw into c.  Any failure yields ErrInvalidToken.
func (i *TokenIssuer) Verify(raw string, c Claims) error {
	tok, err := jwt.ParseWithClaims(raw, c,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(c.purpose()),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return ErrInvalidToken
	}
	return nil
}
