package application

import (
	"github.com/zjrosen/fedrepo/internal/cachemanager"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/manager"
)

// Dependencies are the ports the catalog services are built on.
type Dependencies struct {
	Repositories domain.RepositoryStore
	Plugins      domain.ResourceStore[domain.Plugin]
	Policies     domain.ResourceStore[domain.Policy]
	Schemas      domain.ResourceStore[domain.Schema]
	Catalog      *domain.ManagedCatalog
	Peer         domain.Peer
	Images       domain.ImageVersionLister
}

// Services groups the catalog services sharing one Repository Directory.
type Services struct {
	Directory *Directory
	Plugins   *PluginService
	Policies  *PolicyService
	Schemas   *SchemaService
}

// NewServices wires the three strategies of every kind and the services
// on top of them.
func NewServices(deps Dependencies) *Services {
	cache := cachemanager.NewInMemoryCacheManager[string, []domain.Repository](
		"repositories", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	directory := NewDirectory(deps.Repositories, deps.Peer, cache)

	pluginLocal := manager.NewLocal[domain.Plugin](domain.KindPlugin, deps.Plugins)
	plugins := &manager.Set[domain.Plugin]{
		Local:   pluginLocal,
		Managed: manager.NewManaged[domain.Plugin](domain.KindPlugin, deps.Catalog),
		Remote:  manager.NewRemote[domain.Plugin](domain.KindPlugin, deps.Peer),
	}

	policyLocal := manager.NewLocal[domain.Policy](domain.KindPolicy, deps.Policies)
	policies := &manager.Set[domain.Policy]{
		Local:   policyLocal,
		Managed: manager.NewManaged[domain.Policy](domain.KindPolicy, deps.Catalog),
		Remote:  manager.NewRemote[domain.Policy](domain.KindPolicy, deps.Peer),
	}

	schemaLocal := manager.NewLocal[domain.Schema](domain.KindSchema, deps.Schemas)
	schemas := &manager.Set[domain.Schema]{
		Local:   schemaLocal,
		Managed: manager.NewManaged[domain.Schema](domain.KindSchema, deps.Catalog),
		Remote:  manager.NewRemote[domain.Schema](domain.KindSchema, deps.Peer),
	}

	return &Services{
		Directory: directory,
		Plugins:   NewPluginService(directory, pluginLocal, plugins, manager.NewVersions(plugins, deps.Images, deps.Peer), deps.Images),
		Policies:  NewPolicyService(directory, policyLocal, policies),
		Schemas:   NewSchemaService(directory, schemaLocal, schemas),
	}
}
