package postgres

import (
	"context"
	"testing"

	"github.com/gatherpoint/server/internal/domain/accounts"
	"github.com/stretchr/testify/require"
)

func TestAccountCreateAndGetCredentials(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgres(t, ctx).Accounts()

	created, err := repo.Create(ctx, accounts.CreateParams{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$hash",
		Role:         "member",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, "member", created.Role)
	require.False(t, created.CreatedAt.IsZero())

	creds, err := repo.GetCredentials(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, creds.Account.ID)
	require.Equal(t, "$2a$12$hash", creds.PasswordHash)
}

func TestAccountDuplicateUsernameAtomic(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgres(t, ctx).Accounts()

	params := accounts.CreateParams{Username: "alice", PasswordHash: "h", Role: "member"}
	_, err := repo.Create(ctx, params)
	require.NoError(t, err)

	_, err = repo.Create(ctx, params)
	require.ErrorIs(t, err, accounts.ErrUsernameTaken)
}

func TestAccountUsernameCaseSensitive(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgres(t, ctx).Accounts()

	_, err := repo.Create(ctx, accounts.CreateParams{Username: "Alice", PasswordHash: "h", Role: "member"})
	require.NoError(t, err)

	_, err = repo.GetCredentials(ctx, "alice")
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestAccountEmptyEmailStoredAsNull(t *testing.T) {
	ctx := context.Background()
	repo := setupPostgres(t, ctx).Accounts()

	created, err := repo.Create(ctx, accounts.CreateParams{Username: "bob", PasswordHash: "h", Role: "member"})
	require.NoError(t, err)
	require.Empty(t, created.Email)
}
