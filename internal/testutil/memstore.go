// Package testutil provides fixtures and in-memory fakes for tests.
package testutil

import (
	"context"
	"sync"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/query"
)

// MemoryStore is an in-memory domain.ResourceStore keyed by domain and id.
type MemoryStore[T domain.Resource[T]] struct {
	mu      sync.Mutex
	kind    domain.Kind
	records []T
	domain  func(T) string

	// FailUpdate, when set, is returned by the next Update call.
	FailUpdate error
}

// NewMemoryStore creates an empty store. domainOf extracts a record's domain.
func NewMemoryStore[T domain.Resource[T]](kind domain.Kind, domainOf func(T) string) *MemoryStore[T] {
	return &MemoryStore[T]{kind: kind, domain: domainOf}
}

var _ domain.ResourceStore[domain.Plugin] = (*MemoryStore[domain.Plugin])(nil)

func (s *MemoryStore[T]) index(id, domainID string) int {
	for i, r := range s.records {
		if r.ResourceID() == id && s.domain(r) == domainID {
			return i
		}
	}
	return -1
}

func (s *MemoryStore[T]) Create(_ context.Context, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if s.domain(r) != s.domain(item) {
			continue
		}
		if r.ResourceID() == item.ResourceID() {
			return &domain.AlreadyExistsError{Resource: string(s.kind), Key: s.kind.IDField(), Value: item.ResourceID()}
		}
		if r.ResourceName() == item.ResourceName() {
			return &domain.AlreadyExistsError{Resource: string(s.kind), Key: "name", Value: item.ResourceName()}
		}
	}
	s.records = append(s.records, item)
	return nil
}

func (s *MemoryStore[T]) Update(_ context.Context, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailUpdate; err != nil {
		s.FailUpdate = nil
		return err
	}
	i := s.index(item.ResourceID(), s.domain(item))
	if i < 0 {
		return s.notFound(item.ResourceID())
	}
	s.records[i] = item
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id, domainID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id, domainID)
	if i < 0 {
		return s.notFound(id)
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

func (s *MemoryStore[T]) Get(_ context.Context, id, domainID string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id, domainID)
	if i < 0 {
		var zero T
		return zero, s.notFound(id)
	}
	return s.records[i], nil
}

func (s *MemoryStore[T]) List(_ context.Context, q domain.Query, domainID string) ([]T, int, error) {
	return query.Apply(s.inDomain(domainID), q, s.kind.SortableFields())
}

func (s *MemoryStore[T]) Stat(_ context.Context, q domain.StatQuery, domainID string) ([]domain.StatResult, error) {
	return query.Stat(s.inDomain(domainID), q)
}

// Len returns the number of stored records across all domains.
func (s *MemoryStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore[T]) inDomain(domainID string) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []T
	for _, r := range s.records {
		if s.domain(r) == domainID {
			out = append(out, r)
		}
	}
	return out
}

func (s *MemoryStore[T]) notFound(id string) error {
	return &domain.NotFoundError{Resource: string(s.kind), Key: s.kind.IDField(), Value: id}
}

// PluginDomain returns a plugin's domain.
func PluginDomain(p domain.Plugin) string { return p.DomainID }

// PolicyDomain returns a policy's domain.
func PolicyDomain(p domain.Policy) string { return p.DomainID }

// SchemaDomain returns a schema's domain.
func SchemaDomain(s domain.Schema) string { return s.DomainID }

// MemoryRepositoryStore is an in-memory domain.RepositoryStore.
type MemoryRepositoryStore struct {
	mu    sync.Mutex
	repos []domain.Repository

	// Lists counts calls to List.
	Lists int
}

var _ domain.RepositoryStore = (*MemoryRepositoryStore)(nil)

// NewMemoryRepositoryStore creates a store seeded with repos.
func NewMemoryRepositoryStore(repos ...domain.Repository) *MemoryRepositoryStore {
	return &MemoryRepositoryStore{repos: append([]domain.Repository(nil), repos...)}
}

func (s *MemoryRepositoryStore) Create(_ context.Context, repo domain.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.repos {
		if r.RepositoryID == repo.RepositoryID {
			return &domain.AlreadyExistsError{Resource: "Repository", Key: "repository_id", Value: repo.RepositoryID}
		}
	}
	s.repos = append(s.repos, repo)
	return nil
}

func (s *MemoryRepositoryStore) Update(_ context.Context, repo domain.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.repos {
		if r.RepositoryID == repo.RepositoryID {
			s.repos[i] = repo
			return nil
		}
	}
	return &domain.NotFoundError{Resource: "Repository", Key: "repository_id", Value: repo.RepositoryID}
}

func (s *MemoryRepositoryStore) Delete(_ context.Context, repositoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.repos {
		if r.RepositoryID == repositoryID {
			s.repos = append(s.repos[:i], s.repos[i+1:]...)
			return nil
		}
	}
	return &domain.NotFoundError{Resource: "Repository", Key: "repository_id", Value: repositoryID}
}

func (s *MemoryRepositoryStore) List(context.Context) ([]domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lists++
	out := append([]domain.Repository(nil), s.repos...)
	domain.SortRepositories(out)
	return out, nil
}
