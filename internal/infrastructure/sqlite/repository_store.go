package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ncruces/go-sqlite3"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

const repositoryColumns = `repository_id, name, repository_type, endpoint, token, priority, created_at, updated_at`

// repositoryStore implements domain.RepositoryStore using SQLite.
type repositoryStore struct {
	db *sql.DB
}

func newRepositoryStore(db *sql.DB) *repositoryStore {
	return &repositoryStore{db: db}
}

var _ domain.RepositoryStore = (*repositoryStore)(nil)

func scanRepository(scanner interface{ Scan(...any) error }) (repositoryModel, error) {
	var m repositoryModel
	err := scanner.Scan(&m.RepositoryID, &m.Name, &m.RepositoryType, &m.Endpoint, &m.Token, &m.Priority, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// Create inserts a repository. Unique violations on the id, name or
// endpoint surface as AlreadyExistsError.
func (s *repositoryStore) Create(ctx context.Context, repo domain.Repository) error {
	m := toRepositoryModel(repo)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO repositories (`+repositoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.RepositoryID, m.Name, m.RepositoryType, m.Endpoint, m.Token, m.Priority, m.CreatedAt, m.UpdatedAt,
	)
	if errors.Is(err, sqlite3.CONSTRAINT) {
		return &domain.AlreadyExistsError{Resource: "Repository", Key: "repository_id", Value: repo.RepositoryID}
	}
	if err != nil {
		return fmt.Errorf("failed to insert repository: %w", err)
	}
	return nil
}

func (s *repositoryStore) Update(ctx context.Context, repo domain.Repository) error {
	m := toRepositoryModel(repo)
	result, err := s.db.ExecContext(ctx,
		`UPDATE repositories SET name = ?, token = ?, priority = ?, updated_at = ? WHERE repository_id = ?`,
		m.Name, m.Token, m.Priority, m.UpdatedAt, m.RepositoryID,
	)
	if errors.Is(err, sqlite3.CONSTRAINT) {
		return &domain.AlreadyExistsError{Resource: "Repository", Key: "name", Value: repo.Name}
	}
	if err != nil {
		return fmt.Errorf("failed to update repository: %w", err)
	}
	return requireAffected(result, "Repository", "repository_id", repo.RepositoryID)
}

func (s *repositoryStore) Delete(ctx context.Context, repositoryID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM repositories WHERE repository_id = ?`, repositoryID)
	if err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}
	return requireAffected(result, "Repository", "repository_id", repositoryID)
}

// List returns every repository ordered by priority, then name.
func (s *repositoryStore) List(ctx context.Context) ([]domain.Repository, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+repositoryColumns+` FROM repositories ORDER BY priority, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var repos []domain.Repository
	for rows.Next() {
		m, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repos = append(repos, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate repositories: %w", err)
	}
	return repos, nil
}

func requireAffected(result sql.Result, resource, key, value string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &domain.NotFoundError{Resource: resource, Key: key, Value: value}
	}
	return nil
}
