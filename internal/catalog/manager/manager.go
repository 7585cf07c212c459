// Package manager implements the per-repository strategies that serve a
// resource kind: LOCAL (backing store), MANAGED (bundled catalog) and
// REMOTE (delegation to a peer instance).
package manager

import (
	"context"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// Manager serves one resource kind from one repository.
type Manager[T any] interface {
	// Get returns the resource with id, stamped with the repository's identity.
	Get(ctx context.Context, repo domain.Repository, id, domainID string) (T, error)

	// List returns the resources matching q and the unpaged match count.
	List(ctx context.Context, repo domain.Repository, q domain.Query, domainID string) ([]T, int, error)

	// Stat groups the resources matching q.
	Stat(ctx context.Context, repo domain.Repository, q domain.StatQuery, domainID string) ([]domain.StatResult, error)
}

// Set holds the strategies of one kind, one per repository type.
type Set[T any] struct {
	Local   Manager[T]
	Managed Manager[T]
	Remote  Manager[T]
}

// For selects the strategy matching repositoryType.
func (s *Set[T]) For(repositoryType domain.RepositoryType) (Manager[T], error) {
	var m Manager[T]
	switch repositoryType {
	case domain.RepositoryLocal:
		m = s.Local
	case domain.RepositoryManaged:
		m = s.Managed
	case domain.RepositoryRemote:
		m = s.Remote
	default:
		return nil, &domain.InvalidArgumentError{Key: "repository_type", Reason: "unknown repository type " + string(repositoryType)}
	}
	if m == nil {
		return nil, &domain.NotSupportedError{Operation: "read", RepositoryType: repositoryType}
	}
	return m, nil
}

func stampAll[T domain.Resource[T]](items []T, repo domain.Repository, domainID string) []T {
	info := repo.Info()
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, item.WithRepository(info, domainID))
	}
	return out
}
