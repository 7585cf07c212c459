// Package domain provides the pure domain layer of the federated catalog.
//
// It defines the repository and resource entities, the query model shared by
// every backend, the error taxonomy, and the ports implemented by the
// infrastructure layer (stores, peer client, registry lookups).
package domain

import (
	"cmp"
	"slices"
	"time"
)

// RepositoryType selects the storage strategy behind a repository.
type RepositoryType string

const (
	// RepositoryLocal is the single store owned by this service.
	RepositoryLocal RepositoryType = "LOCAL"

	// RepositoryManaged is the read-only catalog bundled with the service.
	RepositoryManaged RepositoryType = "MANAGED"

	// RepositoryRemote is another instance of this service reached over RPC.
	RepositoryRemote RepositoryType = "REMOTE"
)

// ManagedRepositoryID is the default identifier of the bundled catalog.
const ManagedRepositoryID = "repo-managed"

// String returns the string representation of the repository type.
func (t RepositoryType) String() string {
	return string(t)
}

// IsValid returns true if the type is a recognized repository type.
func (t RepositoryType) IsValid() bool {
	switch t {
	case RepositoryLocal, RepositoryManaged, RepositoryRemote:
		return true
	default:
		return false
	}
}

// Repository is a named backend source of resources.
type Repository struct {
	RepositoryID   string         `json:"repository_id"`
	Name           string         `json:"name"`
	RepositoryType RepositoryType `json:"repository_type"`
	Endpoint       string         `json:"endpoint,omitempty"`
	Token          string         `json:"-"`
	// Priority orders resolution; lower values are visited first.
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Info returns the identity metadata stamped onto resources served from r.
func (r Repository) Info() RepositoryInfo {
	return RepositoryInfo{
		RepositoryID:   r.RepositoryID,
		Name:           r.Name,
		RepositoryType: r.RepositoryType,
		Endpoint:       r.Endpoint,
	}
}

// RepositoryInfo identifies the repository a resource was served from.
type RepositoryInfo struct {
	RepositoryID   string         `json:"repository_id"`
	Name           string         `json:"name"`
	RepositoryType RepositoryType `json:"repository_type"`
	Endpoint       string         `json:"endpoint,omitempty"`
}

// RegisterRepositoryParams describes a repository to register.
// RepositoryID is honoured for LOCAL and MANAGED only; REMOTE repositories
// adopt the identity reported by the peer.
type RegisterRepositoryParams struct {
	RepositoryID   string         `json:"repository_id,omitempty"`
	Name           string         `json:"name"`
	RepositoryType RepositoryType `json:"repository_type"`
	Endpoint       string         `json:"endpoint,omitempty"`
	Token          string         `json:"token,omitempty"`
	Priority       int            `json:"priority"`
}

// UpdateRepositoryParams holds the mutable repository fields. Nil means unchanged.
type UpdateRepositoryParams struct {
	Name     *string `json:"name,omitempty"`
	Token    *string `json:"token,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}

// SortRepositories orders repositories by ascending priority, then name.
func SortRepositories(repos []Repository) {
	slices.SortStableFunc(repos, func(a, b Repository) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
