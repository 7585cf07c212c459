package domain

import (
	"context"
	"encoding/json"
)

// RepositoryStore persists repository records.
type RepositoryStore interface {
	// Create inserts a repository.
	// Returns AlreadyExistsError on a duplicate id, name or endpoint.
	Create(ctx context.Context, repo Repository) error

	// Update replaces the mutable fields of an existing repository.
	// Returns NotFoundError if no repository has the id.
	Update(ctx context.Context, repo Repository) error

	// Delete removes a repository.
	// Returns NotFoundError if no repository has the id.
	Delete(ctx context.Context, repositoryID string) error

	// List returns every repository in priority order.
	List(ctx context.Context) ([]Repository, error)
}

// ResourceStore persists LOCAL resources of one kind, scoped by domain.
type ResourceStore[T any] interface {
	// Create inserts a resource.
	// Returns AlreadyExistsError if the id or name is taken within the domain.
	Create(ctx context.Context, resource T) error

	// Update replaces a stored resource.
	// Returns NotFoundError if it does not exist.
	Update(ctx context.Context, resource T) error

	// Delete removes a resource.
	// Returns NotFoundError if it does not exist.
	Delete(ctx context.Context, id, domainID string) error

	// Get retrieves a resource by id.
	// Returns NotFoundError if it does not exist.
	Get(ctx context.Context, id, domainID string) (T, error)

	// List returns the page of resources matching q and the unpaged match count.
	List(ctx context.Context, q Query, domainID string) ([]T, int, error)

	// Stat groups matching resources by q.GroupBy.
	Stat(ctx context.Context, q StatQuery, domainID string) ([]StatResult, error)
}

// PeerTarget addresses a peer instance.
type PeerTarget struct {
	Endpoint string
	Token    string
}

// Peer is the outbound RPC surface of another instance of this service.
// Resources are returned undecoded so the caller builds its own values.
type Peer interface {
	ListRepositories(ctx context.Context, target PeerTarget, repositoryType RepositoryType) ([]Repository, error)
	Get(ctx context.Context, target PeerTarget, kind Kind, repositoryID, id string) (json.RawMessage, error)
	List(ctx context.Context, target PeerTarget, kind Kind, repositoryID string, q Query) ([]json.RawMessage, int, error)
	GetVersions(ctx context.Context, target PeerTarget, repositoryID, pluginID string) ([]string, error)
}

// ImageVersionLister resolves the published versions of a plugin image.
type ImageVersionLister interface {
	ListVersions(ctx context.Context, plugin Plugin) ([]string, error)
}
