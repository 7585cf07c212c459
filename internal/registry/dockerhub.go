package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

const (
	dockerHubDefaultURL = "registry.hub.docker.com"
	dockerHubPageSize   = 1024
)

// DockerHub lists tags through the Docker Hub repositories API.
type DockerHub struct {
	settings Settings
}

// NewDockerHub creates a Docker Hub connector. It needs no credentials.
func NewDockerHub(settings Settings) *DockerHub {
	return &DockerHub{settings: settings}
}

var _ Connector = (*DockerHub)(nil)

type dockerHubPage struct {
	Next    string `json:"next"`
	Results []struct {
		Name        string     `json:"name"`
		LastUpdated *time.Time `json:"last_updated"`
	} `json:"results"`
}

// GetTags follows the "next" links until the listing is drained. Tags are
// ordered by last_updated when every tag carries one, by semver otherwise.
func (c *DockerHub) GetTags(ctx context.Context, image string) ([]string, error) {
	url := fmt.Sprintf("%s/v2/repositories/%s/tags?page_size=%d",
		baseURL(c.settings.URL, dockerHubDefaultURL), image, dockerHubPageSize)

	var groups []timedTags
	var names []string
	dated := true
	seen := map[string]bool{}
	for url != "" {
		if seen[url] {
			log.Warn(log.CatRegistry, "docker hub repeated a page link, stopping", "image", image, "url", url)
			break
		}
		seen[url] = true

		var page dockerHubPage
		if _, err := getJSON(ctx, c.settings.httpClient(), url, nil, &page); err != nil {
			return nil, noImage(domain.RegistryDockerHub, image, err)
		}
		for _, r := range page.Results {
			names = append(names, r.Name)
			if r.LastUpdated == nil {
				dated = false
				continue
			}
			groups = append(groups, timedTags{tags: []string{r.Name}, at: *r.LastUpdated})
		}
		url = page.Next
	}

	log.Debug(log.CatRegistry, "docker hub tags", "image", image, "count", len(names))
	if dated {
		return flattenByTimeDesc(groups), nil
	}
	return sortSemverDesc(names), nil
}
