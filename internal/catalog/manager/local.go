package manager

import (
	"context"
	"fmt"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/uow"
)

// Local serves and mutates resources held in the backing store.
// Every mutation registers a compensation on the caller's unit of work.
type Local[T domain.Resource[T]] struct {
	kind  domain.Kind
	store domain.ResourceStore[T]
}

// NewLocal creates a LOCAL strategy over store.
func NewLocal[T domain.Resource[T]](kind domain.Kind, store domain.ResourceStore[T]) *Local[T] {
	return &Local[T]{kind: kind, store: store}
}

var _ Manager[domain.Plugin] = (*Local[domain.Plugin])(nil)

func (m *Local[T]) Get(ctx context.Context, repo domain.Repository, id, domainID string) (T, error) {
	item, err := m.store.Get(ctx, id, domainID)
	if err != nil {
		return item, err
	}
	return item.WithRepository(repo.Info(), domainID), nil
}

func (m *Local[T]) List(ctx context.Context, repo domain.Repository, q domain.Query, domainID string) ([]T, int, error) {
	items, total, err := m.store.List(ctx, q, domainID)
	if err != nil {
		return nil, 0, err
	}
	return stampAll(items, repo, domainID), total, nil
}

func (m *Local[T]) Stat(ctx context.Context, _ domain.Repository, q domain.StatQuery, domainID string) ([]domain.StatResult, error) {
	return m.store.Stat(ctx, q, domainID)
}

// Create persists item and registers its deletion as the compensation.
func (m *Local[T]) Create(ctx context.Context, u *uow.UnitOfWork, repo domain.Repository, item T, domainID string) (T, error) {
	if err := m.store.Create(ctx, item); err != nil {
		var zero T
		return zero, err
	}
	id := item.ResourceID()
	u.Compensate(fmt.Sprintf("create %s %s", m.kind, id), func(ctx context.Context) error {
		return m.store.Delete(ctx, id, domainID)
	})
	return item.WithRepository(repo.Info(), domainID), nil
}

// Update replaces the stored record and registers a restore of the
// pre-mutation snapshot as the compensation.
func (m *Local[T]) Update(ctx context.Context, u *uow.UnitOfWork, repo domain.Repository, item T, domainID string) (T, error) {
	var zero T
	id := item.ResourceID()
	snapshot, err := m.store.Get(ctx, id, domainID)
	if err != nil {
		return zero, err
	}
	if err := m.store.Update(ctx, item); err != nil {
		return zero, err
	}
	u.Compensate(fmt.Sprintf("update %s %s", m.kind, id), func(ctx context.Context) error {
		return m.store.Update(ctx, snapshot)
	})
	return item.WithRepository(repo.Info(), domainID), nil
}

// Delete removes the record and registers its re-creation as the compensation.
func (m *Local[T]) Delete(ctx context.Context, u *uow.UnitOfWork, id, domainID string) error {
	snapshot, err := m.store.Get(ctx, id, domainID)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id, domainID); err != nil {
		return err
	}
	u.Compensate(fmt.Sprintf("delete %s %s", m.kind, id), func(ctx context.Context) error {
		return m.store.Create(ctx, snapshot)
	})
	return nil
}

// Find returns the stored record without repository stamping.
func (m *Local[T]) Find(ctx context.Context, id, domainID string) (T, error) {
	return m.store.Get(ctx, id, domainID)
}
