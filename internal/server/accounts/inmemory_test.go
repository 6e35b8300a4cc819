package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panayot-marinov/password-vault/internal/common"
	"github.com/panayot-marinov/password-vault/internal/cryptox"
)

func testAccount(username string) *Account {
	return &Account{
		Username:       username,
		PasswordHashes: cryptox.TripleHashPassword("hash-" + username),
		Iterations:     1000,
		Salt:           []byte("salt"),
	}
}

func TestInMemoryRepository_CreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, testAccount("alice"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.PasswordHashes, got.PasswordHashes)

	_, err = repo.Get(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemoryRepository_DuplicateCreate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, testAccount("alice"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, testAccount("alice"))
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestInMemoryRepository_Contains(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	ok, err := repo.Contains(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Create(ctx, testAccount("alice"))
	require.NoError(t, err)

	ok, err = repo.Contains(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryRepository_Update(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, testAccount("alice"))
	require.NoError(t, err)

	created.PasswordHashes = cryptox.TripleHashPassword("new-hash")
	require.NoError(t, repo.Update(ctx, created))

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.PasswordHashes, got.PasswordHashes)

	assert.ErrorIs(t, repo.Update(ctx, testAccount("bob")), common.ErrorNotFound)
}

func TestInMemoryRepository_Remove(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, testAccount("alice"))
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, "alice"))
	assert.ErrorIs(t, repo.Remove(ctx, "alice"), common.ErrorNotFound)
}

func TestInMemoryRepository_GetAll(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := repo.Create(ctx, testAccount(name))
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alice", all[0].Username)
	assert.Equal(t, "bob", all[1].Username)
	assert.Equal(t, "carol", all[2].Username)
}
