// Package accounts implements registration and login for the event board.
//
// Registration stores a bcrypt hash of the password, never the plaintext.
// Login fails with the same error kind, after a bcrypt comparison either way,
// whether the username is unknown or the password is wrong, so that the
// response does not leak which accounts exist.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gatherpoint/server/internal/auth"
	"github.com/rs/zerolog"
)

var (
	// ErrInvalidCredentials is returned when username/password authentication fails.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrPasswordTooShort is returned when a password is less than 8 characters.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// ErrPasswordTooLong is returned when a password exceeds 128 characters.
	ErrPasswordTooLong = errors.New("password must not exceed 128 characters")
)

const (
	maxUsernameLength = 64
	maxEmailLength    = 254
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "accounts").Logger(),
	}
}

type RegisterParams struct {
	Username string
	Password string
	Email    string
}

// Register creates a new member account. Usernames are case-sensitive and
// immutable once created.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Account, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return Account{}, ValidationError{Field: "username", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return Account{}, ValidationError{Field: "username", Message: fmt.Sprintf("must not exceed %d characters", maxUsernameLength)}
	}

	email := strings.TrimSpace(params.Email)
	if utf8.RuneCountInString(email) > maxEmailLength {
		return Account{}, ValidationError{Field: "email", Message: fmt.Sprintf("must not exceed %d characters", maxEmailLength)}
	}

	if err := validatePassword(params.Password); err != nil {
		return Account{}, err
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.repo.Create(ctx, CreateParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         string(auth.RoleMember),
	})
	if err != nil {
		return Account{}, err
	}

	s.logger.Info().Str("username", account.Username).Msg("account registered")
	return account, nil
}

// Login verifies a username/password pair and returns the account on success.
// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	creds, err := s.repo.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = auth.CompareDummy(password)
			return Account{}, ErrInvalidCredentials
		}
		return Account{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := auth.ComparePassword(creds.PasswordHash, password); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return creds.Account, nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	if utf8.RuneCountInString(password) > 128 {
		return ErrPasswordTooLong
	}
	return nil
}
