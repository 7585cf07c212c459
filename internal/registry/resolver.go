package registry

import (
	"context"

	"github.com/distribution/reference"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

var tracer = otel.Tracer("github.com/zjrosen/fedrepo/internal/registry")

// Resolver lists plugin image versions with the connector of the plugin's
// registry type. Configured settings per type are overlaid with the
// plugin's own registry_config.
type Resolver struct {
	settings map[domain.RegistryType]Settings
}

// NewResolver creates a Resolver. Types missing from settings use zero
// Settings (public endpoints, no credentials).
func NewResolver(settings map[domain.RegistryType]Settings) *Resolver {
	if settings == nil {
		settings = map[domain.RegistryType]Settings{}
	}
	return &Resolver{settings: settings}
}

var _ domain.ImageVersionLister = (*Resolver)(nil)

// ListVersions returns the tags of plugin.Image, bounded by the configured
// per-call timeout.
func (r *Resolver) ListVersions(ctx context.Context, plugin domain.Plugin) ([]string, error) {
	registryType := plugin.RegistryType
	if registryType == "" {
		registryType = domain.RegistryDockerHub
	}

	ctx, span := tracer.Start(ctx, "registry.list_versions", trace.WithAttributes(
		attribute.String("registry_type", string(registryType)),
		attribute.String("image", plugin.Image),
	))
	defer span.End()

	tags, err := r.listVersions(ctx, registryType, plugin)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatRegistry, "list versions failed", "plugin_id", plugin.PluginID, "registry_type", registryType, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("tags", len(tags)))
	return tags, nil
}

func (r *Resolver) listVersions(ctx context.Context, registryType domain.RegistryType, plugin domain.Plugin) ([]string, error) {
	image, err := imagePath(registryType, plugin.Image)
	if err != nil {
		return nil, noImage(registryType, plugin.Image, err)
	}

	settings := r.settings[registryType].With(plugin.RegistryConfig)
	ctx, cancel := context.WithTimeout(ctx, settings.timeout())
	defer cancel()

	connector, err := New(ctx, registryType, settings)
	if err != nil {
		return nil, err
	}
	return connector.GetTags(ctx, image)
}

// imagePath strips the registry host from image. Docker Hub keeps the
// implicit "library/" namespace; other providers see the name as written.
func imagePath(registryType domain.RegistryType, image string) (string, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return "", err
	}
	if registryType != domain.RegistryDockerHub && reference.Domain(named) == "docker.io" {
		return reference.FamiliarName(named), nil
	}
	return reference.Path(named), nil
}
