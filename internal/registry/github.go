package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

const githubDefaultURL = "https://api.github.com"

// GitHub lists tags of a GitHub Packages container through the package
// versions API.
type GitHub struct {
	settings Settings
	owner    string
	scope    string
}

// NewGitHub creates a GitHub Packages connector. It requires github_token,
// owner and owner_type (USER or ORGANIZATION).
func NewGitHub(settings Settings) (*GitHub, error) {
	if err := settings.require(domain.RegistryGitHub, "github_token", "owner", "owner_type"); err != nil {
		return nil, err
	}
	var scope string
	switch strings.ToUpper(settings.Credentials["owner_type"]) {
	case "USER":
		scope = "users"
	case "ORGANIZATION":
		scope = "orgs"
	default:
		return nil, &domain.ConfigurationError{
			Component: component(domain.RegistryGitHub),
			Reason:    fmt.Sprintf("owner_type must be USER or ORGANIZATION, got %q", settings.Credentials["owner_type"]),
		}
	}
	return &GitHub{settings: settings, owner: settings.Credentials["owner"], scope: scope}, nil
}

var _ Connector = (*GitHub)(nil)

type githubVersion struct {
	CreatedAt time.Time `json:"created_at"`
	Metadata  struct {
		Container struct {
			Tags []string `json:"tags"`
		} `json:"container"`
	} `json:"metadata"`
}

// GetTags follows Link rel="next" until every version is read, newest
// version first.
func (c *GitHub) GetTags(ctx context.Context, image string) ([]string, error) {
	pkg := url.PathEscape(strings.TrimPrefix(image, c.owner+"/"))
	next := fmt.Sprintf("%s/%s/%s/packages/container/%s/versions?per_page=100",
		baseURL(c.settings.URL, githubDefaultURL), c.scope, url.PathEscape(c.owner), pkg)
	header := http.Header{
		"Authorization":        {"Bearer " + c.settings.Credentials["github_token"]},
		"X-Github-Api-Version": {"2022-11-28"},
	}

	var groups []timedTags
	for next != "" {
		var page []githubVersion
		h, err := getJSON(ctx, c.settings.httpClient(), next, header, &page)
		if err != nil {
			return nil, noImage(domain.RegistryGitHub, image, err)
		}
		for _, v := range page {
			if len(v.Metadata.Container.Tags) > 0 {
				groups = append(groups, timedTags{tags: v.Metadata.Container.Tags, at: v.CreatedAt})
			}
		}
		next = nextLink(h)
	}

	log.Debug(log.CatRegistry, "github tags", "owner", c.owner, "image", image, "versions", len(groups))
	return flattenByTimeDesc(groups), nil
}
