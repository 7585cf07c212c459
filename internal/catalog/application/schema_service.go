package application

import (
	"context"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/manager"
	"github.com/zjrosen/fedrepo/internal/catalog/uow"
)

// CreateSchemaParams describes a schema to create in the LOCAL repository.
type CreateSchemaParams struct {
	Name        string            `json:"name"`
	ServiceType string            `json:"service_type"`
	Schema      map[string]any    `json:"schema"`
	Labels      []string          `json:"labels,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	DomainID    string            `json:"domain_id"`
}

// UpdateSchemaParams holds the mutable schema fields. Nil means unchanged.
type UpdateSchemaParams struct {
	Name     string            `json:"name"`
	DomainID string            `json:"domain_id"`
	Schema   map[string]any    `json:"schema,omitempty"`
	Labels   *[]string         `json:"labels,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// SchemaService manages configuration schemas.
type SchemaService struct {
	directory  *Directory
	local      *manager.Local[domain.Schema]
	federation *Federation[domain.Schema]
	now        func() time.Time
}

// NewSchemaService creates the schema service.
func NewSchemaService(directory *Directory, local *manager.Local[domain.Schema], managers *manager.Set[domain.Schema]) *SchemaService {
	return &SchemaService{
		directory:  directory,
		local:      local,
		federation: NewFederation(domain.KindSchema, directory, managers),
		now:        time.Now,
	}
}

// Create validates the schema document and persists it.
func (s *SchemaService) Create(ctx context.Context, params CreateSchemaParams) (domain.Schema, error) {
	if err := requireFields("name", params.Name, "service_type", params.ServiceType, "domain_id", params.DomainID); err != nil {
		return domain.Schema{}, err
	}
	if len(params.Schema) == 0 {
		return domain.Schema{}, &domain.InvalidArgumentError{Key: "schema", Reason: "required"}
	}
	if err := validateJSONSchema("schema", params.Schema); err != nil {
		return domain.Schema{}, err
	}
	repo, err := s.directory.GetLocalRepository(ctx)
	if err != nil {
		return domain.Schema{}, err
	}

	now := s.now()
	schema := domain.Schema{
		Name:         params.Name,
		ServiceType:  params.ServiceType,
		Schema:       params.Schema,
		Labels:       params.Labels,
		Tags:         params.Tags,
		RepositoryID: repo.RepositoryID,
		DomainID:     params.DomainID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var created domain.Schema
	err = uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		var err error
		created, err = s.local.Create(ctx, u, repo, schema, params.DomainID)
		return err
	})
	return created, err
}

// Update applies params to an existing schema.
func (s *SchemaService) Update(ctx context.Context, params UpdateSchemaParams) (domain.Schema, error) {
	if err := requireFields("name", params.Name, "domain_id", params.DomainID); err != nil {
		return domain.Schema{}, err
	}
	if err := validateJSONSchema("schema", params.Schema); err != nil {
		return domain.Schema{}, err
	}
	repo, err := s.directory.GetLocalRepository(ctx)
	if err != nil {
		return domain.Schema{}, err
	}
	current, err := s.local.Find(ctx, params.Name, params.DomainID)
	if err != nil {
		return domain.Schema{}, err
	}
	if params.Schema != nil {
		current.Schema = params.Schema
	}
	if params.Labels != nil {
		current.Labels = *params.Labels
	}
	if params.Tags != nil {
		current.Tags = params.Tags
	}
	current.UpdatedAt = s.now()

	var updated domain.Schema
	err = uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		var err error
		updated, err = s.local.Update(ctx, u, repo, current, params.DomainID)
		return err
	})
	return updated, err
}

// Enable is not supported: schemas have no lifecycle state.
func (s *SchemaService) Enable(context.Context, string, string) (domain.Schema, error) {
	return domain.Schema{}, &domain.NotSupportedError{Operation: "Schema.enable"}
}

// Disable is not supported: schemas have no lifecycle state.
func (s *SchemaService) Disable(context.Context, string, string) (domain.Schema, error) {
	return domain.Schema{}, &domain.NotSupportedError{Operation: "Schema.disable"}
}

// Delete removes a schema from the LOCAL repository.
func (s *SchemaService) Delete(ctx context.Context, name, domainID string) error {
	if _, err := s.directory.GetLocalRepository(ctx); err != nil {
		return err
	}
	return uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		return s.local.Delete(ctx, u, name, domainID)
	})
}

// Get resolves a schema across repositories in priority order.
func (s *SchemaService) Get(ctx context.Context, name, domainID, repositoryID string) (domain.Schema, error) {
	return s.federation.Get(ctx, name, domainID, repositoryID)
}

// List aggregates schemas across repositories.
func (s *SchemaService) List(ctx context.Context, q domain.Query, domainID, repositoryID string) ([]domain.Schema, int, error) {
	return s.federation.List(ctx, q, domainID, repositoryID)
}

// Stat groups schemas in one repository.
func (s *SchemaService) Stat(ctx context.Context, q domain.StatQuery, domainID, repositoryID string) ([]domain.StatResult, error) {
	return s.federation.Stat(ctx, q, domainID, repositoryID)
}
