package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ accounts.Repository = (*AccountRepository)(nil)

// uniqueViolation is the PostgreSQL error code for a unique constraint
// violation. The insert itself enforces username uniqueness, so concurrent
// registrations of the same name cannot both succeed.
const uniqueViolation = "23505"

func (r *AccountRepository) Create(ctx context.Context, params accounts.CreateParams) (accounts.Account, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO accounts (username, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, username, email, role, created_at
`, params.Username, nullableString(params.Email), params.PasswordHash, params.Role)

	account, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return accounts.Account{}, accounts.ErrUsernameTaken
		}
		return accounts.Account{}, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetCredentials(ctx context.Context, username string) (accounts.Credentials, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT id, username, email, role, created_at, password_hash
  FROM accounts
 WHERE username = $1
`, username)

	var (
		account   accounts.Account
		email     *string
		createdAt pgtype.Timestamptz
		hash      string
	)
	if err := row.Scan(&account.ID, &account.Username, &email, &account.Role, &createdAt, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Credentials{}, accounts.ErrNotFound
		}
		return accounts.Credentials{}, fmt.Errorf("get credentials: %w", err)
	}

	account.Email = derefString(email)
	if createdAt.Valid {
		account.CreatedAt = createdAt.Time
	}
	return accounts.Credentials{Account: account, PasswordHash: hash}, nil
}

func scanAccount(row pgx.Row) (accounts.Account, error) {
	var (
		account   accounts.Account
		email     *string
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&account.ID, &account.Username, &email, &account.Role, &createdAt); err != nil {
		return accounts.Account{}, err
	}
	account.Email = derefString(email)
	if createdAt.Valid {
		account.CreatedAt = createdAt.Time
	}
	return account, nil
}

func (r *AccountRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
