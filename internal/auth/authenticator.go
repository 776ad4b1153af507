package auth

import (
	"crypto/subtle"
	"time"

	"notes-portal/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks the admin credentials and issues tokens.
type Authenticator struct {
	username     string
	passwordHash []byte
	tokens       *JWTService
	logger       zerolog.Logger
}

// NewAuthenticator creates an authenticator for the single admin account.
// passwordHash is a bcrypt hash.
func NewAuthenticator(username, passwordHash string, tokens *JWTService, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
		logger:       logger.With().Str("component", "authenticator").Logger(),
	}
}

// Login verifies the credentials and returns a signed admin token and its
// expiry.
func (a *Authenticator) Login(username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	// The hash is checked even when the username is wrong.
	passErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		a.logger.Warn().Str("username", username).Msg("admin login failed")
		return "", time.Time{}, model.ErrInvalidCredentials
	}

	token, expiresAt, err := a.tokens.Generate(username, RoleAdmin)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to sign admin token")
		return "", time.Time{}, err
	}

	a.logger.Info().Str("username", username).Time("expires_at", expiresAt).Msg("admin logged in")
	return token, expiresAt, nil
}

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
