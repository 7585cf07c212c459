package manager

import (
	"context"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/query"
)

// Managed serves resources from the immutable bundled catalog. Records are
// stamped per response and filtered, sorted and paged in memory.
type Managed[T domain.Resource[T]] struct {
	kind    domain.Kind
	catalog *domain.ManagedCatalog
}

// NewManaged creates a MANAGED strategy reading from catalog.
func NewManaged[T domain.Resource[T]](kind domain.Kind, catalog *domain.ManagedCatalog) *Managed[T] {
	return &Managed[T]{kind: kind, catalog: catalog}
}

var _ Manager[domain.Plugin] = (*Managed[domain.Plugin])(nil)

func (m *Managed[T]) Get(_ context.Context, repo domain.Repository, id, domainID string) (T, error) {
	for _, item := range domain.CatalogRecords[T](m.catalog) {
		if item.ResourceID() == id {
			return item.WithRepository(repo.Info(), domainID), nil
		}
	}
	var zero T
	return zero, &domain.NotFoundError{Resource: string(m.kind), Key: m.kind.IDField(), Value: id}
}

func (m *Managed[T]) List(_ context.Context, repo domain.Repository, q domain.Query, domainID string) ([]T, int, error) {
	records := stampAll(domain.CatalogRecords[T](m.catalog), repo, domainID)
	return query.Apply(records, q, m.kind.SortableFields())
}

func (m *Managed[T]) Stat(_ context.Context, repo domain.Repository, q domain.StatQuery, domainID string) ([]domain.StatResult, error) {
	records := stampAll(domain.CatalogRecords[T](m.catalog), repo, domainID)
	return query.Stat(records, q)
}
