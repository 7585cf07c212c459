package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/domain/mocks"
	"github.com/zjrosen/fedrepo/internal/catalog/manager"
	"github.com/zjrosen/fedrepo/internal/catalog/query"
	"github.com/zjrosen/fedrepo/internal/testutil"
)

// fakeManager serves fixed records per repository id and records visits.
type fakeManager[T domain.Resource[T]] struct {
	mu      sync.Mutex
	items   map[string][]T
	errs    map[string]error
	visited []string
}

func newFakeManager[T domain.Resource[T]]() *fakeManager[T] {
	return &fakeManager[T]{items: map[string][]T{}, errs: map[string]error{}}
}

func (f *fakeManager[T]) visit(repositoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visited = append(f.visited, repositoryID)
	return f.errs[repositoryID]
}

func (f *fakeManager[T]) Get(_ context.Context, repo domain.Repository, id, domainID string) (T, error) {
	var zero T
	if err := f.visit(repo.RepositoryID); err != nil {
		return zero, err
	}
	for _, item := range f.items[repo.RepositoryID] {
		if item.ResourceID() == id {
			return item.WithRepository(repo.Info(), domainID), nil
		}
	}
	return zero, &domain.NotFoundError{Resource: "fake", Key: "id", Value: id}
}

func (f *fakeManager[T]) List(_ context.Context, repo domain.Repository, q domain.Query, domainID string) ([]T, int, error) {
	if err := f.visit(repo.RepositoryID); err != nil {
		return nil, 0, err
	}
	items, total, err := query.Apply(f.items[repo.RepositoryID], q, nil)
	if err != nil {
		return nil, 0, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, item.WithRepository(repo.Info(), domainID))
	}
	return out, total, nil
}

func (f *fakeManager[T]) Stat(_ context.Context, repo domain.Repository, q domain.StatQuery, _ string) ([]domain.StatResult, error) {
	if err := f.visit(repo.RepositoryID); err != nil {
		return nil, err
	}
	return query.Stat(f.items[repo.RepositoryID], q)
}

func (f *fakeManager[T]) visits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.visited...)
}

var (
	managedRepo = testutil.Repository(domain.ManagedRepositoryID, domain.RepositoryManaged, 1)
	localRepo   = testutil.Repository("repo-local", domain.RepositoryLocal, 2)
	peerRepo    = testutil.Repository("repo-peer", domain.RepositoryRemote, 3)
)

func TestFederation_GetResolvesByPriority(t *testing.T) {
	catalog := &domain.ManagedCatalog{}
	store := testutil.NewMemoryStore(domain.KindPlugin, testutil.PluginDomain)
	require.NoError(t, store.Create(context.Background(), testutil.Plugin("p1")))

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(managedRepo, localRepo), nil)
	f := NewFederation(domain.KindPlugin, d, &manager.Set[domain.Plugin]{
		Local:   manager.NewLocal[domain.Plugin](domain.KindPlugin, store),
		Managed: manager.NewManaged[domain.Plugin](domain.KindPlugin, catalog),
	})

	got, err := f.Get(context.Background(), "p1", "domain-test", "")
	require.NoError(t, err)
	require.Equal(t, "repo-local", got.RepositoryID)
	require.Equal(t, domain.RepositoryLocal, got.RepositoryInfo.RepositoryType)
}

func TestFederation_GetStopsAtFirstMatch(t *testing.T) {
	locals, remotes := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
	locals.items["repo-local"] = []domain.Policy{testutil.Policy("policy-1")}
	remotes.items["repo-peer"] = []domain.Policy{testutil.Policy("policy-1")}

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(localRepo, peerRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Remote: remotes})

	got, err := f.Get(context.Background(), "policy-1", "domain-test", "")
	require.NoError(t, err)
	require.Equal(t, "repo-local", got.RepositoryID)
	require.Empty(t, remotes.visits(), "lower priority repositories are never consulted after a match")
}

func TestFederation_GetSkipsFailingRepository(t *testing.T) {
	locals, remotes := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
	locals.errs["repo-local"] = errors.New("disk on fire")
	remotes.items["repo-peer"] = []domain.Policy{testutil.Policy("policy-1")}

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(localRepo, peerRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Remote: remotes})

	got, err := f.Get(context.Background(), "policy-1", "domain-test", "")
	require.NoError(t, err)
	require.Equal(t, "repo-peer", got.RepositoryID)
}

func TestFederation_GetExhaustedIsNotFound(t *testing.T) {
	locals, remotes := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
	remotes.errs["repo-peer"] = &domain.UpstreamError{Endpoint: peerRepo.Endpoint, Method: "Policy.get", Err: errors.New("refused")}

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(localRepo, peerRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Remote: remotes})

	_, err := f.Get(context.Background(), "policy-missing", "domain-test", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Equal(t, []string{"repo-local"}, locals.visits())
	require.Equal(t, []string{"repo-peer"}, remotes.visits())
}

func TestFederation_GetScopedToRepository(t *testing.T) {
	locals, remotes := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
	locals.items["repo-local"] = []domain.Policy{testutil.Policy("policy-1")}

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(localRepo, peerRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Remote: remotes})

	_, err := f.Get(context.Background(), "policy-1", "domain-test", "repo-peer")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, locals.visits())
}

func TestFederation_ListAggregatesAndPages(t *testing.T) {
	managed, locals := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
	for i := range 3 {
		managed.items[domain.ManagedRepositoryID] = append(managed.items[domain.ManagedRepositoryID], testutil.Policy(fmt.Sprintf("managed-%d", i)))
	}
	for i := range 7 {
		locals.items["repo-local"] = append(locals.items["repo-local"], testutil.Policy(fmt.Sprintf("local-%d", i)))
	}

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(managedRepo, localRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Managed: managed})

	items, total, err := f.List(context.Background(), domain.Query{Page: &domain.Page{Start: 1, Limit: 5}}, "domain-test", "")
	require.NoError(t, err)
	require.Equal(t, 10, total)
	require.Len(t, items, 5)
	require.Equal(t, "managed-0", items[0].PolicyID, "higher priority repositories come first")
	require.Equal(t, "local-1", items[4].PolicyID)
}

func TestFederation_ListFailsWhenAnyRepositoryFails(t *testing.T) {
	managed, locals := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
	locals.errs["repo-local"] = errors.New("boom")

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(managedRepo, localRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Managed: managed})

	_, _, err := f.List(context.Background(), domain.Query{}, "domain-test", "")
	require.Error(t, err)
}

func TestFederation_ListSingleRepositoryKeepsPage(t *testing.T) {
	locals := newFakeManager[domain.Policy]()
	for i := range 4 {
		locals.items["repo-local"] = append(locals.items["repo-local"], testutil.Policy(fmt.Sprintf("local-%d", i)))
	}

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(localRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals})

	items, total, err := f.List(context.Background(), domain.Query{Page: &domain.Page{Start: 3, Limit: 10}}, "domain-test", "repo-local")
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, items, 2)

	_, _, err = f.List(context.Background(), domain.Query{}, "domain-test", "repo-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFederation_ListTotalIsSumOfCounts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sizes := rapid.SliceOfN(rapid.IntRange(0, 6), 1, 4).Draw(t, "sizes")
		start := rapid.IntRange(0, 12).Draw(t, "start")
		limit := rapid.IntRange(0, 12).Draw(t, "limit")

		locals, remotes := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
		repos := []domain.Repository{localRepo}
		var want []string
		for i := range sizes[0] {
			id := fmt.Sprintf("local-%d", i)
			locals.items["repo-local"] = append(locals.items["repo-local"], testutil.Policy(id))
			want = append(want, id)
		}
		for r, n := range sizes[1:] {
			repo := testutil.Repository(fmt.Sprintf("repo-peer-%d", r), domain.RepositoryRemote, 10+r)
			repos = append(repos, repo)
			for i := range n {
				id := fmt.Sprintf("%s-%d", repo.RepositoryID, i)
				remotes.items[repo.RepositoryID] = append(remotes.items[repo.RepositoryID], testutil.Policy(id))
				want = append(want, id)
			}
		}

		d := newDirectoryForRapid(repos)
		f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Remote: remotes})
		page := &domain.Page{Start: start, Limit: limit}

		items, total, err := f.List(context.Background(), domain.Query{Page: page}, "domain-test", "")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != len(want) {
			t.Fatalf("total %d, want %d", total, len(want))
		}
		expected := query.Paginate(want, page)
		if len(items) != len(expected) {
			t.Fatalf("got %d items, want %d", len(items), len(expected))
		}
		for i := range items {
			if items[i].PolicyID != expected[i] {
				t.Fatalf("item %d is %s, want %s", i, items[i].PolicyID, expected[i])
			}
		}
	})
}

func TestFederation_StatDefaultsToLocal(t *testing.T) {
	managed, locals := newFakeManager[domain.Policy](), newFakeManager[domain.Policy]()
	locals.items["repo-local"] = []domain.Policy{testutil.Policy("a"), testutil.Policy("b")}

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(managedRepo, localRepo), nil)
	f := NewFederation(domain.KindPolicy, d, &manager.Set[domain.Policy]{Local: locals, Managed: managed})

	results, err := f.Stat(context.Background(), domain.StatQuery{GroupBy: "state"}, "domain-test", "")
	require.NoError(t, err)
	require.Equal(t, []domain.StatResult{{Value: "ENABLED", Count: 2}}, results)
	require.Empty(t, managed.visits())
}

func TestGetPluginVersions(t *testing.T) {
	store := testutil.NewMemoryStore(domain.KindPlugin, testutil.PluginDomain)
	require.NoError(t, store.Create(context.Background(), testutil.Plugin("aws-ec2")))
	require.NoError(t, store.Create(context.Background(), testutil.Plugin("untagged")))
	plugins := &manager.Set[domain.Plugin]{Local: manager.NewLocal[domain.Plugin](domain.KindPlugin, store)}

	images := mocks.NewMockImageVersionLister(t)
	images.EXPECT().ListVersions(mock.Anything, mock.MatchedBy(func(p domain.Plugin) bool { return p.PluginID == "aws-ec2" })).
		Return([]string{"1.2.0", "1.1.0"}, nil)
	images.EXPECT().ListVersions(mock.Anything, mock.MatchedBy(func(p domain.Plugin) bool { return p.PluginID == "untagged" })).
		Return([]string{}, nil)

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(localRepo), nil)
	versions := manager.NewVersions(plugins, images, mocks.NewMockPeer(t))

	got, err := GetPluginVersions(context.Background(), d, versions, "aws-ec2", "domain-test", "")
	require.NoError(t, err)
	require.Equal(t, []string{"1.2.0", "1.1.0"}, got)

	_, err = GetPluginVersions(context.Background(), d, versions, "untagged", "domain-test", "")
	require.ErrorIs(t, err, domain.ErrNoImageInRegistry)

	_, err = GetPluginVersions(context.Background(), d, versions, "missing", "domain-test", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetPluginVersions_DelegatesToPeer(t *testing.T) {
	peer := mocks.NewMockPeer(t)
	peer.EXPECT().GetVersions(mock.Anything, domain.PeerTarget{Endpoint: peerRepo.Endpoint}, "repo-peer", "aws-ec2").
		Return([]string{"2.0.0"}, nil)

	d := newDirectory(t, testutil.NewMemoryRepositoryStore(peerRepo), nil)
	versions := manager.NewVersions(&manager.Set[domain.Plugin]{}, mocks.NewMockImageVersionLister(t), peer)

	got, err := GetPluginVersions(context.Background(), d, versions, "aws-ec2", "domain-test", "")
	require.NoError(t, err)
	require.Equal(t, []string{"2.0.0"}, got)
}

func newDirectoryForRapid(repos []domain.Repository) *Directory {
	return NewDirectory(testutil.NewMemoryRepositoryStore(repos...), nil, noCache{})
}

// noCache never holds a value so every read goes to the store.
type noCache struct{}

func (noCache) Get(context.Context, string) ([]domain.Repository, bool) { return nil, false }

func (noCache) GetMultiple(context.Context, []string) (map[string][]domain.Repository, bool) {
	return nil, false
}

func (noCache) GetWithRefresh(context.Context, string, time.Duration) ([]domain.Repository, bool) {
	return nil, false
}

func (noCache) Set(context.Context, string, []domain.Repository, time.Duration) {}

func (noCache) Delete(context.Context, ...string) error { return nil }

func (noCache) Flush(context.Context) error { return nil }
