// Package registry lists the published versions of plugin images across
// container registry providers.
//
// Every provider is a Connector with the same contract: GetTags returns the
// tags of an image, most recent first where the provider exposes push or
// creation times and in semantic version order otherwise. Connectors
// validate their settings at construction and fail with a
// *domain.ConfigurationError; any failed provider call surfaces as a
// *domain.NoImageInRegistryError.
package registry

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// DefaultTimeout bounds a single GetTags call when none is configured.
const DefaultTimeout = 10 * time.Second

// Connector lists image tags in one container registry.
type Connector interface {
	// GetTags returns every tag of image, fully draining pagination.
	GetTags(ctx context.Context, image string) ([]string, error)
}

// Settings configure a Connector.
type Settings struct {
	// URL is the registry or API host. A bare host is reached over https.
	URL string
	// Timeout bounds one GetTags call.
	Timeout time.Duration
	// Credentials holds the provider specific keys (tokens, account ids, ...).
	Credentials map[string]string
	// HTTPClient replaces the default HTTP client.
	HTTPClient *http.Client
}

// With returns a copy of s whose credentials are overlaid with overrides.
func (s Settings) With(overrides map[string]string) Settings {
	merged := make(map[string]string, len(s.Credentials)+len(overrides))
	for k, v := range s.Credentials {
		merged[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			merged[k] = v
		}
	}
	s.Credentials = merged
	return s
}

func (s Settings) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{}
}

func (s Settings) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultTimeout
}

// require returns a ConfigurationError naming every empty key.
func (s Settings) require(registryType domain.RegistryType, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if s.Credentials[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &domain.ConfigurationError{Component: component(registryType), Keys: missing}
}

func component(registryType domain.RegistryType) string {
	return "registry/" + string(registryType)
}

// baseURL returns url (or fallback) with a scheme and without a trailing slash.
func baseURL(url, fallback string) string {
	if url == "" {
		url = fallback
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	return strings.TrimRight(url, "/")
}

// New creates the connector for registryType.
func New(ctx context.Context, registryType domain.RegistryType, settings Settings) (Connector, error) {
	switch registryType {
	case domain.RegistryDockerHub:
		return NewDockerHub(settings), nil
	case domain.RegistryAWSPublicECR:
		return NewPublicECR(ctx, settings)
	case domain.RegistryAWSPrivateECR:
		return NewPrivateECR(ctx, settings)
	case domain.RegistryHarbor:
		return NewHarbor(settings)
	case domain.RegistryGitHub:
		return NewGitHub(settings)
	case domain.RegistryGCPPrivateGCR:
		return NewGCP(ctx, settings)
	default:
		return nil, &domain.ConfigurationError{Component: component(registryType), Reason: "unsupported registry type"}
	}
}

// noImage wraps a failed provider call.
func noImage(registryType domain.RegistryType, image string, err error) error {
	return &domain.NoImageInRegistryError{RegistryType: registryType, Image: image, Err: err}
}
