// Package application orchestrates the catalog: the repository directory,
// the federation engine and the per-kind resource services.
package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/fedrepo/internal/cachemanager"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

const repositoriesCacheKey = "repositories"

// Directory is the ordered set of registered repositories. Reads are served
// from a read-through cache that every mutation flushes.
type Directory struct {
	store domain.RepositoryStore
	peer  domain.Peer
	cache cachemanager.CacheManager[string, []domain.Repository]
	reads *cachemanager.ReadThroughCache[string, []domain.Repository, struct{}]
	ttl   time.Duration
	now   func() time.Time

	// mu serializes registrations so cardinality checks and inserts are atomic.
	mu sync.Mutex
}

// NewDirectory creates a directory over store. peer is used to resolve the
// identity of REMOTE repositories at registration.
func NewDirectory(store domain.RepositoryStore, peer domain.Peer, cache cachemanager.CacheManager[string, []domain.Repository]) *Directory {
	d := &Directory{
		store: store,
		peer:  peer,
		cache: cache,
		ttl:   cachemanager.DefaultExpiration,
		now:   time.Now,
	}
	d.reads = cachemanager.NewReadThroughCache(cache, d.load, false)
	return d
}

func (d *Directory) load(ctx context.Context, _ struct{}) ([]domain.Repository, error) {
	repos, err := d.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	domain.SortRepositories(repos)
	return repos, nil
}

func (d *Directory) all(ctx context.Context) ([]domain.Repository, error) {
	repos, err := d.reads.Get(ctx, repositoriesCacheKey, struct{}{}, d.ttl)
	if err != nil {
		return nil, err
	}
	return slices.Clone(repos), nil
}

func (d *Directory) invalidate(ctx context.Context) {
	if err := d.cache.Delete(ctx, repositoriesCacheKey); err != nil {
		log.ErrorErr(log.CatCache, "failed to invalidate repository cache", err)
	}
}

// GetRepositories returns the repositories matching the optional id and
// type filters, in priority order.
func (d *Directory) GetRepositories(ctx context.Context, repositoryID string, repositoryType domain.RepositoryType) ([]domain.Repository, error) {
	repos, err := d.all(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(repos, func(r domain.Repository) bool {
		return (repositoryID != "" && r.RepositoryID != repositoryID) ||
			(repositoryType != "" && r.RepositoryType != repositoryType)
	}), nil
}

// GetRepository returns the repository with id.
func (d *Directory) GetRepository(ctx context.Context, repositoryID string) (domain.Repository, error) {
	repos, err := d.GetRepositories(ctx, repositoryID, "")
	if err != nil {
		return domain.Repository{}, err
	}
	if len(repos) == 0 {
		return domain.Repository{}, &domain.NotFoundError{Resource: "Repository", Key: "repository_id", Value: repositoryID}
	}
	return repos[0], nil
}

// GetLocalRepository returns the single LOCAL repository.
// Returns InvalidStateError if there is not exactly one.
func (d *Directory) GetLocalRepository(ctx context.Context) (domain.Repository, error) {
	repos, err := d.GetRepositories(ctx, "", domain.RepositoryLocal)
	if err != nil {
		return domain.Repository{}, err
	}
	if len(repos) != 1 {
		return domain.Repository{}, &domain.InvalidStateError{
			Reason: fmt.Sprintf("exactly one LOCAL repository is required, found %d", len(repos)),
		}
	}
	return repos[0], nil
}

// GetManagedRepository returns the MANAGED repository, or nil when managed
// mode is not configured. More than one is an InvalidStateError.
func (d *Directory) GetManagedRepository(ctx context.Context) (*domain.Repository, error) {
	repos, err := d.GetRepositories(ctx, "", domain.RepositoryManaged)
	if err != nil {
		return nil, err
	}
	switch len(repos) {
	case 0:
		return nil, nil
	case 1:
		return &repos[0], nil
	default:
		return nil, &domain.InvalidStateError{
			Reason: fmt.Sprintf("at most one MANAGED repository is allowed, found %d", len(repos)),
		}
	}
}

// Register adds a repository. LOCAL and MANAGED are singletons; a REMOTE
// repository adopts the LOCAL repository id reported by its peer.
func (d *Directory) Register(ctx context.Context, params domain.RegisterRepositoryParams) (domain.Repository, error) {
	if err := validateRegistration(params); err != nil {
		return domain.Repository{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	existing, err := d.store.List(ctx)
	if err != nil {
		return domain.Repository{}, fmt.Errorf("list repositories: %w", err)
	}
	for _, r := range existing {
		if r.Name == params.Name {
			return domain.Repository{}, &domain.AlreadyExistsError{Resource: "Repository", Key: "name", Value: params.Name}
		}
	}

	now := d.now()
	repo := domain.Repository{
		RepositoryID:   params.RepositoryID,
		Name:           params.Name,
		RepositoryType: params.RepositoryType,
		Endpoint:       params.Endpoint,
		Token:          params.Token,
		Priority:       params.Priority,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	switch params.RepositoryType {
	case domain.RepositoryLocal, domain.RepositoryManaged:
		if i := slices.IndexFunc(existing, func(r domain.Repository) bool { return r.RepositoryType == params.RepositoryType }); i >= 0 {
			return domain.Repository{}, &domain.AlreadyExistsError{Resource: "Repository", Key: "repository_type", Value: string(params.RepositoryType)}
		}
		if repo.RepositoryID == "" {
			repo.RepositoryID = defaultRepositoryID(params.RepositoryType)
		}
		repo.Endpoint = ""
	case domain.RepositoryRemote:
		for _, r := range existing {
			if r.Endpoint == params.Endpoint {
				return domain.Repository{}, &domain.AlreadyExistsError{Resource: "Repository", Key: "endpoint", Value: params.Endpoint}
			}
		}
		id, err := d.remoteLocalRepositoryID(ctx, params)
		if err != nil {
			return domain.Repository{}, err
		}
		repo.RepositoryID = id
	}

	if err := d.store.Create(ctx, repo); err != nil {
		return domain.Repository{}, err
	}
	d.invalidate(ctx)

	log.Info(log.CatDirectory, "registered repository",
		"repository_id", repo.RepositoryID, "repository_type", repo.RepositoryType, "priority", repo.Priority)
	return repo, nil
}

// remoteLocalRepositoryID asks the peer for its LOCAL repository id.
func (d *Directory) remoteLocalRepositoryID(ctx context.Context, params domain.RegisterRepositoryParams) (string, error) {
	peerRepos, err := d.peer.ListRepositories(ctx, domain.PeerTarget{Endpoint: params.Endpoint, Token: params.Token}, domain.RepositoryLocal)
	if err != nil {
		return "", err
	}
	if len(peerRepos) == 0 {
		return "", &domain.NotFoundError{Resource: "Repository", Key: "endpoint", Value: params.Endpoint + " (no LOCAL repository)"}
	}
	return peerRepos[0].RepositoryID, nil
}

// Update changes the name, token or priority of a repository.
func (d *Directory) Update(ctx context.Context, repositoryID string, params domain.UpdateRepositoryParams) (domain.Repository, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	repo, err := d.GetRepository(ctx, repositoryID)
	if err != nil {
		return domain.Repository{}, err
	}
	if params.Name != nil {
		if strings.TrimSpace(*params.Name) == "" {
			return domain.Repository{}, &domain.InvalidArgumentError{Key: "name", Reason: "must not be empty"}
		}
		repo.Name = *params.Name
	}
	if params.Token != nil {
		repo.Token = *params.Token
	}
	if params.Priority != nil {
		if *params.Priority <= 0 {
			return domain.Repository{}, &domain.InvalidArgumentError{Key: "priority", Reason: "must be greater than zero"}
		}
		repo.Priority = *params.Priority
	}
	repo.UpdatedAt = d.now()

	if err := d.store.Update(ctx, repo); err != nil {
		return domain.Repository{}, err
	}
	d.invalidate(ctx)
	return repo, nil
}

// Deregister removes a repository. The LOCAL repository backs every write
// and cannot be removed.
func (d *Directory) Deregister(ctx context.Context, repositoryID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	repo, err := d.GetRepository(ctx, repositoryID)
	if err != nil {
		return err
	}
	if repo.RepositoryType == domain.RepositoryLocal {
		return &domain.InvalidStateError{Reason: "the LOCAL repository cannot be deregistered"}
	}
	if err := d.store.Delete(ctx, repositoryID); err != nil {
		return err
	}
	d.invalidate(ctx)

	log.Info(log.CatDirectory, "deregistered repository", "repository_id", repositoryID)
	return nil
}

// Bootstrap provisions the configured LOCAL and MANAGED repositories if they
// do not exist yet, then checks the single-LOCAL invariant.
func (d *Directory) Bootstrap(ctx context.Context, seeds []domain.RegisterRepositoryParams) error {
	for _, seed := range seeds {
		if seed.RepositoryType == domain.RepositoryRemote {
			return &domain.InvalidArgumentError{Key: "repositories", Reason: "REMOTE repositories are registered at runtime"}
		}
		repos, err := d.GetRepositories(ctx, "", seed.RepositoryType)
		if err != nil {
			return err
		}
		if len(repos) > 0 {
			log.Debug(log.CatDirectory, "repository already provisioned",
				"repository_id", repos[0].RepositoryID, "repository_type", seed.RepositoryType)
			continue
		}
		if _, err := d.Register(ctx, seed); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("provision %s repository %q: %w", seed.RepositoryType, seed.Name, err)
		}
	}
	if _, err := d.GetManagedRepository(ctx); err != nil {
		return err
	}
	_, err := d.GetLocalRepository(ctx)
	return err
}

func validateRegistration(params domain.RegisterRepositoryParams) error {
	if strings.TrimSpace(params.Name) == "" {
		return &domain.InvalidArgumentError{Key: "name", Reason: "required"}
	}
	if !params.RepositoryType.IsValid() {
		return &domain.InvalidArgumentError{Key: "repository_type", Reason: fmt.Sprintf("unknown repository type %q", params.RepositoryType)}
	}
	if params.Priority <= 0 {
		return &domain.InvalidArgumentError{Key: "priority", Reason: "required and must be greater than zero"}
	}
	if params.RepositoryType == domain.RepositoryRemote && strings.TrimSpace(params.Endpoint) == "" {
		return &domain.InvalidArgumentError{Key: "endpoint", Reason: "required for REMOTE repositories"}
	}
	return nil
}

func defaultRepositoryID(repositoryType domain.RepositoryType) string {
	if repositoryType == domain.RepositoryManaged {
		return domain.ManagedRepositoryID
	}
	return "repo-" + shortID()
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
