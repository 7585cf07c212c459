package sqlite

import (
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// repositoryModel is the row shape of the repositories table.
// Timestamps are stored as Unix seconds.
type repositoryModel struct {
	RepositoryID   string
	Name           string
	RepositoryType string
	Endpoint       string
	Token          string
	Priority       int
	CreatedAt      int64
	UpdatedAt      int64
}

func toRepositoryModel(r domain.Repository) repositoryModel {
	return repositoryModel{
		RepositoryID:   r.RepositoryID,
		Name:           r.Name,
		RepositoryType: string(r.RepositoryType),
		Endpoint:       r.Endpoint,
		Token:          r.Token,
		Priority:       r.Priority,
		CreatedAt:      r.CreatedAt.Unix(),
		UpdatedAt:      r.UpdatedAt.Unix(),
	}
}

func (m repositoryModel) toDomain() domain.Repository {
	return domain.Repository{
		RepositoryID:   m.RepositoryID,
		Name:           m.Name,
		RepositoryType: domain.RepositoryType(m.RepositoryType),
		Endpoint:       m.Endpoint,
		Token:          m.Token,
		Priority:       m.Priority,
		CreatedAt:      time.Unix(m.CreatedAt, 0).UTC(),
		UpdatedAt:      time.Unix(m.UpdatedAt, 0).UTC(),
	}
}
