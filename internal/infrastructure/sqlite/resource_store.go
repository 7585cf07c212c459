package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/query"
)

// rowMeta extracts the indexed columns of a record: its domain and its
// creation and update times as Unix seconds.
type rowMeta[T any] func(T) (domainID string, createdAt, updatedAt int64)

// resourceStore implements domain.ResourceStore for one kind. Each record is
// stored as a JSON document keyed by (domain_id, id); name is kept alongside
// so the unique constraint can be enforced in SQL.
type resourceStore[T domain.Resource[T]] struct {
	db    *sql.DB
	table string
	kind  domain.Kind
	meta  rowMeta[T]
}

func newResourceStore[T domain.Resource[T]](db *sql.DB, table string, kind domain.Kind, meta rowMeta[T]) *resourceStore[T] {
	return &resourceStore[T]{db: db, table: table, kind: kind, meta: meta}
}

var _ domain.ResourceStore[domain.Plugin] = (*resourceStore[domain.Plugin])(nil)

func (s *resourceStore[T]) Create(ctx context.Context, resource T) error {
	data, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.kind, err)
	}
	domainID, createdAt, updatedAt := s.meta(resource)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+s.table+` (domain_id, id, name, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		domainID, resource.ResourceID(), resource.ResourceName(), string(data), createdAt, updatedAt,
	)
	if errors.Is(err, sqlite3.CONSTRAINT) {
		return s.conflict(ctx, resource, domainID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", s.kind, err)
	}
	return nil
}

// conflict reports which unique key a failed insert collided with.
func (s *resourceStore[T]) conflict(ctx context.Context, resource T, domainID string) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+s.table+` WHERE domain_id = ? AND id = ?`, domainID, resource.ResourceID(),
	).Scan(&n)
	if err == nil && n > 0 {
		return &domain.AlreadyExistsError{Resource: string(s.kind), Key: s.kind.IDField(), Value: resource.ResourceID()}
	}
	return &domain.AlreadyExistsError{Resource: string(s.kind), Key: "name", Value: resource.ResourceName()}
}

func (s *resourceStore[T]) Update(ctx context.Context, resource T) error {
	data, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.kind, err)
	}
	domainID, _, updatedAt := s.meta(resource)

	result, err := s.db.ExecContext(ctx,
		`UPDATE `+s.table+` SET name = ?, data = ?, updated_at = ? WHERE domain_id = ? AND id = ?`,
		resource.ResourceName(), string(data), updatedAt, domainID, resource.ResourceID(),
	)
	if errors.Is(err, sqlite3.CONSTRAINT) {
		return &domain.AlreadyExistsError{Resource: string(s.kind), Key: "name", Value: resource.ResourceName()}
	}
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", s.kind, err)
	}
	return requireAffected(result, string(s.kind), s.kind.IDField(), resource.ResourceID())
}

func (s *resourceStore[T]) Delete(ctx context.Context, id, domainID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE domain_id = ? AND id = ?`, domainID, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.kind, err)
	}
	return requireAffected(result, string(s.kind), s.kind.IDField(), id)
}

func (s *resourceStore[T]) Get(ctx context.Context, id, domainID string) (T, error) {
	var zero T
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM `+s.table+` WHERE domain_id = ? AND id = ?`, domainID, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, &domain.NotFoundError{Resource: string(s.kind), Key: s.kind.IDField(), Value: id}
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get %s: %w", s.kind, err)
	}
	return s.decode(data)
}

// List loads the domain's records in insertion order and evaluates q over
// them, so filters behave exactly as they do for the other repository types.
func (s *resourceStore[T]) List(ctx context.Context, q domain.Query, domainID string) ([]T, int, error) {
	items, err := s.scope(ctx, domainID)
	if err != nil {
		return nil, 0, err
	}
	return query.Apply(items, q, s.kind.SortableFields())
}

func (s *resourceStore[T]) Stat(ctx context.Context, q domain.StatQuery, domainID string) ([]domain.StatResult, error) {
	items, err := s.scope(ctx, domainID)
	if err != nil {
		return nil, err
	}
	return query.Stat(items, q)
}

func (s *resourceStore[T]) scope(ctx context.Context, domainID string) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM `+s.table+` WHERE domain_id = ? ORDER BY rowid`, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.kind, err)
		}
		item, err := s.decode(data)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", s.table, err)
	}
	return items, nil
}

func (s *resourceStore[T]) decode(data string) (T, error) {
	var item T
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return item, fmt.Errorf("failed to decode %s: %w", s.kind, err)
	}
	return item, nil
}
