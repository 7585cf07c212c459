package api

import (
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// === Request Types ===

// GetRequest addresses a single resource. Only the id field of the
// requested kind is read: plugin_id, policy_id or name. The same body is
// used by enable, disable, deregister and delete.
type GetRequest struct {
	PluginID     string   `json:"plugin_id,omitempty"`
	PolicyID     string   `json:"policy_id,omitempty"`
	Name         string   `json:"name,omitempty"`
	RepositoryID string   `json:"repository_id,omitempty"`
	DomainID     string   `json:"domain_id,omitempty"`
	Only         []string `json:"only,omitempty"`
}

// NewGetRequest builds a GetRequest for id of the given kind.
func NewGetRequest(kind domain.Kind, id, repositoryID string) GetRequest {
	req := GetRequest{RepositoryID: repositoryID}
	switch kind {
	case domain.KindPlugin:
		req.PluginID = id
	case domain.KindPolicy:
		req.PolicyID = id
	default:
		req.Name = id
	}
	return req
}

// ID returns the identifier of the requested kind.
func (r GetRequest) ID(kind domain.Kind) string {
	switch kind {
	case domain.KindPlugin:
		return r.PluginID
	case domain.KindPolicy:
		return r.PolicyID
	default:
		return r.Name
	}
}

// ListRequest is the request body for listing resources of one kind.
type ListRequest struct {
	Query        domain.Query `json:"query"`
	RepositoryID string       `json:"repository_id,omitempty"`
	DomainID     string       `json:"domain_id,omitempty"`
}

// StatRequest is the request body for grouping resources of one kind.
type StatRequest struct {
	Query        domain.StatQuery `json:"query"`
	RepositoryID string           `json:"repository_id,omitempty"`
	DomainID     string           `json:"domain_id,omitempty"`
}

// VersionsRequest is the request body for Plugin.get_versions.
type VersionsRequest struct {
	PluginID     string `json:"plugin_id"`
	RepositoryID string `json:"repository_id,omitempty"`
	DomainID     string `json:"domain_id,omitempty"`
}

// RepositoryRequest addresses a single repository.
type RepositoryRequest struct {
	RepositoryID string `json:"repository_id"`
}

// RepositoryUpdateRequest is the request body for Repository.update.
type RepositoryUpdateRequest struct {
	RepositoryID string `json:"repository_id"`
	domain.UpdateRepositoryParams
}

// RepositoryListRequest filters Repository.list. Both fields are optional.
type RepositoryListRequest struct {
	RepositoryID   string                `json:"repository_id,omitempty"`
	RepositoryType domain.RepositoryType `json:"repository_type,omitempty"`
}

// === Response Types ===

// ListResponse is the response body for every list call. Peers decode it
// with T = json.RawMessage.
type ListResponse[T any] struct {
	Results    []T `json:"results"`
	TotalCount int `json:"total_count"`
}

// StatResponse is the response body for stat calls.
type StatResponse struct {
	Results []domain.StatResult `json:"results"`
}

// VersionsResponse is the response body for Plugin.get_versions,
// most recent version first.
type VersionsResponse struct {
	Results    []string `json:"results"`
	TotalCount int      `json:"total_count"`
}

// EmptyResponse is returned by deletions.
type EmptyResponse struct{}

// ErrorResponse is the response body for errors. Code is one of the
// domain ERROR_* codes so that peers can rebuild the typed error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the response body for the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// Path returns the route of method on kind, e.g. "/v1/Plugin.get".
func Path(kind, method string) string {
	return "/v1/" + kind + "." + method
}
