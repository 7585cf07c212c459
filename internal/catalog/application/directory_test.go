package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/fedrepo/internal/cachemanager"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/domain/mocks"
	"github.com/zjrosen/fedrepo/internal/testutil"
)

func newDirectory(t *testing.T, store domain.RepositoryStore, peer domain.Peer) *Directory {
	t.Helper()
	if peer == nil {
		peer = mocks.NewMockPeer(t)
	}
	cache := cachemanager.NewInMemoryCacheManager[string, []domain.Repository](
		"repositories", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	return NewDirectory(store, peer, cache)
}

func TestDirectory_RegisterLocalAssignsID(t *testing.T) {
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(), nil)

	repo, err := d.Register(context.Background(), domain.RegisterRepositoryParams{
		Name: "local", RepositoryType: domain.RepositoryLocal, Priority: 10,
	})
	require.NoError(t, err)
	require.Regexp(t, `^repo-[0-9a-f]{12}$`, repo.RepositoryID)

	local, err := d.GetLocalRepository(context.Background())
	require.NoError(t, err)
	require.Equal(t, repo.RepositoryID, local.RepositoryID)
}

func TestDirectory_RegisterManagedUsesWellKnownID(t *testing.T) {
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(), nil)

	repo, err := d.Register(context.Background(), domain.RegisterRepositoryParams{
		Name: "managed", RepositoryType: domain.RepositoryManaged, Priority: 1, Endpoint: "ignored",
	})
	require.NoError(t, err)
	require.Equal(t, domain.ManagedRepositoryID, repo.RepositoryID)
	require.Empty(t, repo.Endpoint)

	got, err := d.GetManagedRepository(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, domain.ManagedRepositoryID, got.RepositoryID)
}

func TestDirectory_RegisterRejectsSecondSingleton(t *testing.T) {
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(testutil.Repository("repo-local", domain.RepositoryLocal, 10)), nil)

	_, err := d.Register(context.Background(), domain.RegisterRepositoryParams{
		Name: "another", RepositoryType: domain.RepositoryLocal, Priority: 20,
	})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestDirectory_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		params domain.RegisterRepositoryParams
	}{
		{"missing name", domain.RegisterRepositoryParams{RepositoryType: domain.RepositoryLocal, Priority: 1}},
		{"unknown type", domain.RegisterRepositoryParams{Name: "x", RepositoryType: "MIRROR", Priority: 1}},
		{"zero priority", domain.RegisterRepositoryParams{Name: "x", RepositoryType: domain.RepositoryLocal}},
		{"remote without endpoint", domain.RegisterRepositoryParams{Name: "x", RepositoryType: domain.RepositoryRemote, Priority: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDirectory(t, testutil.NewMemoryRepositoryStore(), nil)
			_, err := d.Register(context.Background(), tt.params)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestDirectory_RegisterRemoteAdoptsPeerLocalID(t *testing.T) {
	peer := mocks.NewMockPeer(t)
	peer.EXPECT().
		ListRepositories(mock.Anything, domain.PeerTarget{Endpoint: "http://peer:8080", Token: "secret"}, domain.RepositoryLocal).
		Return([]domain.Repository{{RepositoryID: "repo-abc123def456", RepositoryType: domain.RepositoryLocal}}, nil)
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(), peer)

	repo, err := d.Register(context.Background(), domain.RegisterRepositoryParams{
		Name: "peer", RepositoryType: domain.RepositoryRemote, Endpoint: "http://peer:8080", Token: "secret", Priority: 30,
	})
	require.NoError(t, err)
	require.Equal(t, "repo-abc123def456", repo.RepositoryID)
}

func TestDirectory_RegisterRemotePeerWithoutLocal(t *testing.T) {
	peer := mocks.NewMockPeer(t)
	peer.EXPECT().ListRepositories(mock.Anything, mock.Anything, domain.RepositoryLocal).Return(nil, nil)
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(), peer)

	_, err := d.Register(context.Background(), domain.RegisterRepositoryParams{
		Name: "peer", RepositoryType: domain.RepositoryRemote, Endpoint: "http://peer:8080", Priority: 30,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectory_RegisterRemoteDuplicateEndpoint(t *testing.T) {
	existing := testutil.Repository("repo-peer", domain.RepositoryRemote, 30)
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(existing), nil)

	_, err := d.Register(context.Background(), domain.RegisterRepositoryParams{
		Name: "peer-again", RepositoryType: domain.RepositoryRemote, Endpoint: existing.Endpoint, Priority: 31,
	})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestDirectory_GetRepositoriesOrderedAndFiltered(t *testing.T) {
	store := testutil.NewMemoryRepositoryStore(
		testutil.Repository("repo-b", domain.RepositoryRemote, 5),
		testutil.Repository("repo-local", domain.RepositoryLocal, 2),
		testutil.Repository("repo-a", domain.RepositoryRemote, 5),
		testutil.Repository(domain.ManagedRepositoryID, domain.RepositoryManaged, 1),
	)
	d := newDirectory(t, store, nil)

	all, err := d.GetRepositories(context.Background(), "", "")
	require.NoError(t, err)
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.RepositoryID)
	}
	require.Equal(t, []string{domain.ManagedRepositoryID, "repo-local", "repo-a", "repo-b"}, ids)

	remotes, err := d.GetRepositories(context.Background(), "", domain.RepositoryRemote)
	require.NoError(t, err)
	require.Len(t, remotes, 2)

	one, err := d.GetRepositories(context.Background(), "repo-b", "")
	require.NoError(t, err)
	require.Len(t, one, 1)

	_, err = d.GetRepository(context.Background(), "repo-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectory_ReadsAreCachedUntilMutation(t *testing.T) {
	store := testutil.NewMemoryRepositoryStore(testutil.Repository("repo-local", domain.RepositoryLocal, 2))
	d := newDirectory(t, store, nil)
	ctx := context.Background()

	_, err := d.GetRepositories(ctx, "", "")
	require.NoError(t, err)
	_, err = d.GetLocalRepository(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, store.Lists)

	priority := 7
	_, err = d.Update(ctx, "repo-local", domain.UpdateRepositoryParams{Priority: &priority})
	require.NoError(t, err)

	local, err := d.GetLocalRepository(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, local.Priority, "mutation must invalidate the cached listing")
}

func TestDirectory_UpdateValidation(t *testing.T) {
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(testutil.Repository("repo-local", domain.RepositoryLocal, 2)), nil)

	zero := 0
	_, err := d.Update(context.Background(), "repo-local", domain.UpdateRepositoryParams{Priority: &zero})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	blank := " "
	_, err = d.Update(context.Background(), "repo-local", domain.UpdateRepositoryParams{Name: &blank})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = d.Update(context.Background(), "repo-missing", domain.UpdateRepositoryParams{})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDirectory_Deregister(t *testing.T) {
	store := testutil.NewMemoryRepositoryStore(
		testutil.Repository("repo-local", domain.RepositoryLocal, 2),
		testutil.Repository("repo-peer", domain.RepositoryRemote, 30),
	)
	d := newDirectory(t, store, nil)
	ctx := context.Background()

	require.ErrorIs(t, d.Deregister(ctx, "repo-local"), domain.ErrInvalidState)
	require.NoError(t, d.Deregister(ctx, "repo-peer"))

	repos, err := d.GetRepositories(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.ErrorIs(t, d.Deregister(ctx, "repo-peer"), domain.ErrNotFound)
}

func TestDirectory_GetLocalRepositoryRequiresExactlyOne(t *testing.T) {
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(), nil)

	_, err := d.GetLocalRepository(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidState)

	managed, err := d.GetManagedRepository(context.Background())
	require.NoError(t, err)
	require.Nil(t, managed, "managed mode is optional")
}

func TestDirectory_BootstrapIsIdempotent(t *testing.T) {
	store := testutil.NewMemoryRepositoryStore()
	d := newDirectory(t, store, nil)
	ctx := context.Background()
	seeds := []domain.RegisterRepositoryParams{
		{Name: "managed", RepositoryType: domain.RepositoryManaged, Priority: 1},
		{Name: "local", RepositoryType: domain.RepositoryLocal, Priority: 10},
	}

	require.NoError(t, d.Bootstrap(ctx, seeds))
	first, err := d.GetLocalRepository(ctx)
	require.NoError(t, err)

	require.NoError(t, d.Bootstrap(ctx, seeds))
	second, err := d.GetLocalRepository(ctx)
	require.NoError(t, err)
	require.Equal(t, first.RepositoryID, second.RepositoryID)

	repos, err := d.GetRepositories(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, repos, 2)
}

func TestDirectory_BootstrapRejectsRemoteSeed(t *testing.T) {
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(), nil)

	err := d.Bootstrap(context.Background(), []domain.RegisterRepositoryParams{
		{Name: "peer", RepositoryType: domain.RepositoryRemote, Endpoint: "http://peer", Priority: 5},
	})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDirectory_BootstrapWithoutLocalFails(t *testing.T) {
	d := newDirectory(t, testutil.NewMemoryRepositoryStore(), nil)

	err := d.Bootstrap(context.Background(), []domain.RegisterRepositoryParams{
		{Name: "managed", RepositoryType: domain.RepositoryManaged, Priority: 1},
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}
