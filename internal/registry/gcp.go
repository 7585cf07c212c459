package registry

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

const (
	gcpDefaultURL = "artifactregistry.googleapis.com"
	gcpScope      = "https://www.googleapis.com/auth/cloud-platform"
)

// GCP lists tags of a Google Artifact Registry docker package,
// authenticating with a service account key.
type GCP struct {
	settings Settings
	jwt      *jwt.Config
	parent   string
	// prefix is the project/repository path a docker image reference
	// carries before the package name.
	prefix string
}

// NewGCP creates an Artifact Registry connector. It requires location,
// project_id, repository_id and service_account_key (the JSON key file).
func NewGCP(_ context.Context, settings Settings) (*GCP, error) {
	if err := settings.require(domain.RegistryGCPPrivateGCR, "location", "project_id", "repository_id", "service_account_key"); err != nil {
		return nil, err
	}
	cfg, err := google.JWTConfigFromJSON([]byte(settings.Credentials["service_account_key"]), gcpScope)
	if err != nil {
		return nil, &domain.ConfigurationError{
			Component: component(domain.RegistryGCPPrivateGCR),
			Reason:    "invalid service_account_key: " + err.Error(),
		}
	}
	creds := settings.Credentials
	parent := fmt.Sprintf("projects/%s/locations/%s/repositories/%s",
		url.PathEscape(creds["project_id"]), url.PathEscape(creds["location"]), url.PathEscape(creds["repository_id"]))
	return &GCP{
		settings: settings,
		jwt:      cfg,
		parent:   parent,
		prefix:   creds["project_id"] + "/" + creds["repository_id"] + "/",
	}, nil
}

var _ Connector = (*GCP)(nil)

type gcpTagsPage struct {
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	NextPageToken string `json:"nextPageToken"`
}

// GetTags follows nextPageToken until drained and sorts by semver. image
// is either the package name or the project/repository/package path of a
// pkg.dev reference. The access token is fetched within ctx.
func (c *GCP) GetTags(ctx context.Context, image string) ([]string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.settings.httpClient())
	client := c.jwt.Client(ctx)

	endpoint := fmt.Sprintf("%s/v1/%s/packages/%s/tags",
		baseURL(c.settings.URL, gcpDefaultURL), c.parent, url.PathEscape(strings.TrimPrefix(image, c.prefix)))

	var tags []string
	pageToken := ""
	for {
		query := url.Values{"pageSize": {"1000"}}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		var page gcpTagsPage
		if _, err := getJSON(ctx, client, endpoint+"?"+query.Encode(), nil, &page); err != nil {
			return nil, noImage(domain.RegistryGCPPrivateGCR, image, err)
		}
		for _, t := range page.Tags {
			tags = append(tags, path.Base(t.Name))
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	log.Debug(log.CatRegistry, "artifact registry tags", "parent", c.parent, "image", image, "count", len(tags))
	return sortSemverDesc(tags), nil
}
