package registry

import (
	"context"
	"strings"

	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

// Harbor lists tags of any OCI distribution registry with basic auth,
// Harbor being the usual deployment.
type Harbor struct {
	host      string
	plainHTTP bool
	client    *auth.Client
}

// NewHarbor creates an OCI registry connector. It requires the registry
// url plus username and password.
func NewHarbor(settings Settings) (*Harbor, error) {
	if settings.URL == "" {
		return nil, &domain.ConfigurationError{Component: component(domain.RegistryHarbor), Keys: []string{"url"}}
	}
	if err := settings.require(domain.RegistryHarbor, "username", "password"); err != nil {
		return nil, err
	}

	host := settings.URL
	plainHTTP := false
	if rest, ok := strings.CutPrefix(host, "http://"); ok {
		host, plainHTTP = rest, true
	}
	host = strings.TrimRight(strings.TrimPrefix(host, "https://"), "/")

	return &Harbor{
		host:      host,
		plainHTTP: plainHTTP,
		client: &auth.Client{
			Client: settings.httpClient(),
			Cache:  auth.NewCache(),
			Credential: auth.StaticCredential(host, auth.Credential{
				Username: settings.Credentials["username"],
				Password: settings.Credentials["password"],
			}),
		},
	}, nil
}

var _ Connector = (*Harbor)(nil)

// GetTags drains the tags/list endpoint and sorts the result by semver.
func (c *Harbor) GetTags(ctx context.Context, image string) ([]string, error) {
	repo, err := remote.NewRepository(c.host + "/" + image)
	if err != nil {
		return nil, noImage(domain.RegistryHarbor, image, err)
	}
	repo.Client = c.client
	repo.PlainHTTP = c.plainHTTP

	tags, err := registry.Tags(ctx, repo)
	if err != nil {
		return nil, noImage(domain.RegistryHarbor, image, err)
	}

	log.Debug(log.CatRegistry, "harbor tags", "host", c.host, "image", image, "count", len(tags))
	return sortSemverDesc(tags), nil
}
