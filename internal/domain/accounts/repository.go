package accounts

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrNotFound is returned when an account lookup fails.
	ErrNotFound = errors.New("account not found")
)

// Account is the public view of a registered user. The password hash never
// leaves the repository boundary except through Credentials.
type Account struct {
	ID        string
	Username  string
	Email     string
	Role      string
	CreatedAt time.Time
}

// Credentials pairs an account with its stored password hash, for login only.
type Credentials struct {
	Account      Account
	PasswordHash string
}

type CreateParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

type Repository interface {
	// Create inserts a new account. Username uniqueness is enforced by the
	// store in the same operation as the insert; a duplicate maps to
	// ErrUsernameTaken with no partial record left behind.
	Create(ctx context.Context, params CreateParams) (Account, error)

	// GetCredentials looks up an account and its password hash by username.
	// Returns ErrNotFound when the username is unknown.
	GetCredentials(ctx context.Context, username string) (Credentials, error)
}
