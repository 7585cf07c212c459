package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/testutil"
)

func TestRepositoryStore_CreateAndList(t *testing.T) {
	store := newTestDB(t).RepositoryStore()
	ctx := context.Background()

	peer := testutil.Repository("repo-peer", domain.RepositoryRemote, 30)
	peer.Token = "secret"
	require.NoError(t, store.Create(ctx, peer))
	require.NoError(t, store.Create(ctx, testutil.Repository("repo-local", domain.RepositoryLocal, 10)))
	require.NoError(t, store.Create(ctx, testutil.Repository(domain.ManagedRepositoryID, domain.RepositoryManaged, 1)))

	repos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	require.Equal(t, domain.ManagedRepositoryID, repos[0].RepositoryID)
	require.Equal(t, "repo-local", repos[1].RepositoryID)
	require.Equal(t, peer, repos[2], "every column round-trips")
}

func TestRepositoryStore_UniqueConstraints(t *testing.T) {
	store := newTestDB(t).RepositoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, testutil.Repository("repo-peer", domain.RepositoryRemote, 30)))

	sameID := testutil.Repository("repo-peer", domain.RepositoryRemote, 31)
	sameID.Name, sameID.Endpoint = "other", "http://other.example.com"
	require.ErrorIs(t, store.Create(ctx, sameID), domain.ErrAlreadyExists)

	sameEndpoint := testutil.Repository("repo-other", domain.RepositoryRemote, 31)
	sameEndpoint.Endpoint = "http://repo-peer.example.com"
	require.ErrorIs(t, store.Create(ctx, sameEndpoint), domain.ErrAlreadyExists)

	// Endpoint uniqueness ignores the empty endpoints of LOCAL and MANAGED.
	require.NoError(t, store.Create(ctx, testutil.Repository("repo-local", domain.RepositoryLocal, 10)))
	require.NoError(t, store.Create(ctx, testutil.Repository(domain.ManagedRepositoryID, domain.RepositoryManaged, 1)))
}

func TestRepositoryStore_UpdateAndDelete(t *testing.T) {
	store := newTestDB(t).RepositoryStore()
	ctx := context.Background()
	repo := testutil.Repository("repo-peer", domain.RepositoryRemote, 30)
	require.NoError(t, store.Create(ctx, repo))

	repo.Name, repo.Priority, repo.Token = "renamed", 5, "rotated"
	require.NoError(t, store.Update(ctx, repo))

	repos, err := store.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "renamed", repos[0].Name)
	require.Equal(t, 5, repos[0].Priority)
	require.Equal(t, "rotated", repos[0].Token)

	require.NoError(t, store.Delete(ctx, "repo-peer"))
	require.ErrorIs(t, store.Delete(ctx, "repo-peer"), domain.ErrNotFound)
	require.ErrorIs(t, store.Update(ctx, repo), domain.ErrNotFound)
}
