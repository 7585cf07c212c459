package application

import (
	"context"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/manager"
	"github.com/zjrosen/fedrepo/internal/catalog/uow"
	"github.com/zjrosen/fedrepo/internal/log"
)

// RegisterPluginParams describes a plugin to register in the LOCAL repository.
type RegisterPluginParams struct {
	Name           string              `json:"name"`
	Image          string              `json:"image"`
	RegistryType   domain.RegistryType `json:"registry_type,omitempty"`
	RegistryConfig map[string]string   `json:"registry_config,omitempty"`
	ServiceType    string              `json:"service_type"`
	Provider       string              `json:"provider,omitempty"`
	Capability     map[string]any      `json:"capability,omitempty"`
	Template       map[string]any      `json:"template,omitempty"`
	Labels         []string            `json:"labels,omitempty"`
	Tags           map[string]string   `json:"tags,omitempty"`
	DomainID       string              `json:"domain_id"`
}

// UpdatePluginParams holds the mutable plugin fields. Nil means unchanged.
type UpdatePluginParams struct {
	PluginID       string            `json:"plugin_id"`
	DomainID       string            `json:"domain_id"`
	Name           *string           `json:"name,omitempty"`
	RegistryConfig map[string]string `json:"registry_config,omitempty"`
	Capability     map[string]any    `json:"capability,omitempty"`
	Template       map[string]any    `json:"template,omitempty"`
	Labels         *[]string         `json:"labels,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// PluginService registers plugins in the LOCAL repository and reads them
// from every repository.
type PluginService struct {
	directory  *Directory
	local      *manager.Local[domain.Plugin]
	federation *Federation[domain.Plugin]
	versions   *manager.Versions
	images     domain.ImageVersionLister
	now        func() time.Time
}

// NewPluginService creates the plugin service.
func NewPluginService(
	directory *Directory,
	local *manager.Local[domain.Plugin],
	managers *manager.Set[domain.Plugin],
	versions *manager.Versions,
	images domain.ImageVersionLister,
) *PluginService {
	return &PluginService{
		directory:  directory,
		local:      local,
		federation: NewFederation(domain.KindPlugin, directory, managers),
		versions:   versions,
		images:     images,
		now:        time.Now,
	}
}

// Register validates and persists a plugin, then checks that its image has
// at least one version in its registry. If the check fails the record is
// rolled back and NoImageInRegistry is returned.
func (s *PluginService) Register(ctx context.Context, params RegisterPluginParams) (domain.Plugin, error) {
	if err := requireFields("name", params.Name, "image", params.Image, "service_type", params.ServiceType, "domain_id", params.DomainID); err != nil {
		return domain.Plugin{}, err
	}
	pluginID, err := pluginIDFromImage(params.Image)
	if err != nil {
		return domain.Plugin{}, err
	}
	if params.RegistryType == "" {
		params.RegistryType = domain.RegistryDockerHub
	}
	if err := validateRegistry(params.RegistryType, params.RegistryConfig); err != nil {
		return domain.Plugin{}, err
	}
	if err := validateJSONSchema("template", params.Template); err != nil {
		return domain.Plugin{}, err
	}

	repo, err := s.directory.GetLocalRepository(ctx)
	if err != nil {
		return domain.Plugin{}, err
	}

	now := s.now()
	plugin := domain.Plugin{
		PluginID:       pluginID,
		Name:           params.Name,
		State:          domain.StateEnabled,
		Image:          params.Image,
		RegistryType:   params.RegistryType,
		RegistryConfig: params.RegistryConfig,
		ServiceType:    params.ServiceType,
		Provider:       params.Provider,
		Capability:     params.Capability,
		Template:       params.Template,
		Labels:         params.Labels,
		Tags:           params.Tags,
		RepositoryID:   repo.RepositoryID,
		DomainID:       params.DomainID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var created domain.Plugin
	err = uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		var err error
		if created, err = s.local.Create(ctx, u, repo, plugin, params.DomainID); err != nil {
			return err
		}
		return s.ensureImageVersions(ctx, created)
	})
	if err != nil {
		return domain.Plugin{}, err
	}
	return created, nil
}

// Update applies params and re-checks the image versions in the same unit
// of work, restoring the previous record if the check fails.
func (s *PluginService) Update(ctx context.Context, params UpdatePluginParams) (domain.Plugin, error) {
	if err := requireFields("plugin_id", params.PluginID, "domain_id", params.DomainID); err != nil {
		return domain.Plugin{}, err
	}
	if err := validateJSONSchema("template", params.Template); err != nil {
		return domain.Plugin{}, err
	}

	repo, err := s.directory.GetLocalRepository(ctx)
	if err != nil {
		return domain.Plugin{}, err
	}
	current, err := s.local.Find(ctx, params.PluginID, params.DomainID)
	if err != nil {
		return domain.Plugin{}, err
	}

	next := current
	if params.Name != nil {
		if err := requireFields("name", *params.Name); err != nil {
			return domain.Plugin{}, err
		}
		next.Name = *params.Name
	}
	if params.RegistryConfig != nil {
		next.RegistryConfig = params.RegistryConfig
	}
	if params.Capability != nil {
		next.Capability = params.Capability
	}
	if params.Template != nil {
		next.Template = params.Template
	}
	if params.Labels != nil {
		next.Labels = *params.Labels
	}
	if params.Tags != nil {
		next.Tags = params.Tags
	}
	if err := validateRegistry(next.RegistryType, next.RegistryConfig); err != nil {
		return domain.Plugin{}, err
	}
	next.UpdatedAt = s.now()

	var updated domain.Plugin
	err = uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		var err error
		if updated, err = s.local.Update(ctx, u, repo, next, params.DomainID); err != nil {
			return err
		}
		return s.ensureImageVersions(ctx, updated)
	})
	if err != nil {
		return domain.Plugin{}, err
	}
	return updated, nil
}

// Enable sets the plugin state to ENABLED.
func (s *PluginService) Enable(ctx context.Context, pluginID, domainID string) (domain.Plugin, error) {
	return s.setState(ctx, pluginID, domainID, domain.StateEnabled)
}

// Disable sets the plugin state to DISABLED.
func (s *PluginService) Disable(ctx context.Context, pluginID, domainID string) (domain.Plugin, error) {
	return s.setState(ctx, pluginID, domainID, domain.StateDisabled)
}

func (s *PluginService) setState(ctx context.Context, pluginID, domainID string, state domain.State) (domain.Plugin, error) {
	repo, err := s.directory.GetLocalRepository(ctx)
	if err != nil {
		return domain.Plugin{}, err
	}
	current, err := s.local.Find(ctx, pluginID, domainID)
	if err != nil {
		return domain.Plugin{}, err
	}
	current.State = state
	current.UpdatedAt = s.now()

	var updated domain.Plugin
	err = uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		var err error
		updated, err = s.local.Update(ctx, u, repo, current, domainID)
		return err
	})
	return updated, err
}

// Deregister deletes a plugin from the LOCAL repository.
func (s *PluginService) Deregister(ctx context.Context, pluginID, domainID string) error {
	if _, err := s.directory.GetLocalRepository(ctx); err != nil {
		return err
	}
	return uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		return s.local.Delete(ctx, u, pluginID, domainID)
	})
}

// Get resolves a plugin across repositories in priority order.
func (s *PluginService) Get(ctx context.Context, pluginID, domainID, repositoryID string) (domain.Plugin, error) {
	return s.federation.Get(ctx, pluginID, domainID, repositoryID)
}

// List aggregates plugins across repositories.
func (s *PluginService) List(ctx context.Context, q domain.Query, domainID, repositoryID string) ([]domain.Plugin, int, error) {
	return s.federation.List(ctx, q, domainID, repositoryID)
}

// Stat groups plugins in one repository.
func (s *PluginService) Stat(ctx context.Context, q domain.StatQuery, domainID, repositoryID string) ([]domain.StatResult, error) {
	return s.federation.Stat(ctx, q, domainID, repositoryID)
}

// GetVersions returns the image versions of a plugin, most recent first.
func (s *PluginService) GetVersions(ctx context.Context, pluginID, domainID, repositoryID string) ([]string, error) {
	return GetPluginVersions(ctx, s.directory, s.versions, pluginID, domainID, repositoryID)
}

func (s *PluginService) ensureImageVersions(ctx context.Context, plugin domain.Plugin) error {
	tags, err := s.images.ListVersions(ctx, plugin)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return &domain.NoImageInRegistryError{RegistryType: plugin.RegistryType, Image: plugin.Image}
	}
	log.Debug(log.CatRegistry, "image versions verified", "plugin_id", plugin.PluginID, "latest", tags[0])
	return nil
}
