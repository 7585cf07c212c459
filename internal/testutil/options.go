package testutil

import (
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// FixedTime is the creation timestamp given to fixtures.
var FixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// PluginOption configures a plugin fixture.
type PluginOption func(*domain.Plugin)

// Plugin creates an enabled DOCKER_HUB plugin fixture in domain "domain-test".
func Plugin(id string, opts ...PluginOption) domain.Plugin {
	p := domain.Plugin{
		PluginID:     id,
		Name:         id,
		State:        domain.StateEnabled,
		Image:        "cloudforet/" + id,
		RegistryType: domain.RegistryDockerHub,
		ServiceType:  "inventory.Collector",
		DomainID:     "domain-test",
		CreatedAt:    FixedTime,
		UpdatedAt:    FixedTime,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithPluginName sets the plugin name.
func WithPluginName(name string) PluginOption {
	return func(p *domain.Plugin) { p.Name = name }
}

// WithPluginDomain sets the owning domain.
func WithPluginDomain(domainID string) PluginOption {
	return func(p *domain.Plugin) { p.DomainID = domainID }
}

// WithProvider sets the plugin provider.
func WithProvider(provider string) PluginOption {
	return func(p *domain.Plugin) { p.Provider = provider }
}

// WithLabels sets the plugin labels.
func WithLabels(labels ...string) PluginOption {
	return func(p *domain.Plugin) { p.Labels = labels }
}

// WithRegistry sets the plugin registry type and image.
func WithRegistry(registryType domain.RegistryType, image string) PluginOption {
	return func(p *domain.Plugin) {
		p.RegistryType = registryType
		p.Image = image
	}
}

// Policy creates an enabled policy fixture in domain "domain-test".
func Policy(id string, permissions ...string) domain.Policy {
	return domain.Policy{
		PolicyID:    id,
		Name:        id,
		State:       domain.StateEnabled,
		Permissions: permissions,
		DomainID:    "domain-test",
		CreatedAt:   FixedTime,
		UpdatedAt:   FixedTime,
	}
}

// Schema creates a schema fixture in domain "domain-test".
func Schema(name, serviceType string) domain.Schema {
	return domain.Schema{
		Name:        name,
		ServiceType: serviceType,
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"api_key"},
			"properties": map[string]any{
				"api_key": map[string]any{"type": "string"},
			},
		},
		DomainID:  "domain-test",
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
}

// Repository creates a repository fixture.
func Repository(id string, repositoryType domain.RepositoryType, priority int) domain.Repository {
	r := domain.Repository{
		RepositoryID:   id,
		Name:           id,
		RepositoryType: repositoryType,
		Priority:       priority,
		CreatedAt:      FixedTime,
		UpdatedAt:      FixedTime,
	}
	if repositoryType == domain.RepositoryRemote {
		r.Endpoint = "http://" + id + ".example.com"
	}
	return r
}
