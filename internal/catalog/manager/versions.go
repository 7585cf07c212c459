package manager

import (
	"context"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

// Versions resolves the image versions of a plugin held by one repository.
// LOCAL and MANAGED plugins are looked up through their strategy and then
// queried in their container registry; REMOTE repositories answer for
// themselves.
type Versions struct {
	plugins *Set[domain.Plugin]
	images  domain.ImageVersionLister
	peer    domain.Peer
}

// NewVersions creates a version resolver.
func NewVersions(plugins *Set[domain.Plugin], images domain.ImageVersionLister, peer domain.Peer) *Versions {
	return &Versions{plugins: plugins, images: images, peer: peer}
}

// GetVersions returns the versions of pluginID in repo. A located plugin
// whose registry reports no tags yields an empty Versions slice, not an error.
func (v *Versions) GetVersions(ctx context.Context, repo domain.Repository, pluginID, domainID string) (domain.PluginVersions, error) {
	if repo.RepositoryType == domain.RepositoryRemote {
		tags, err := v.peer.GetVersions(ctx, target(repo), repo.RepositoryID, pluginID)
		if err != nil {
			return domain.PluginVersions{}, err
		}
		return domain.PluginVersions{Image: remoteImage(repo), Versions: tags}, nil
	}

	m, err := v.plugins.For(repo.RepositoryType)
	if err != nil {
		return domain.PluginVersions{}, err
	}
	plugin, err := m.Get(ctx, repo, pluginID, domainID)
	if err != nil {
		return domain.PluginVersions{}, err
	}
	tags, err := v.images.ListVersions(ctx, plugin)
	if err != nil {
		return domain.PluginVersions{}, err
	}
	return domain.PluginVersions{RegistryType: plugin.RegistryType, Image: plugin.Image, Versions: tags}, nil
}

// remoteImage names the source of versions answered by a peer. The peer
// resolves its own registry, so no image reference is known locally.
func remoteImage(repo domain.Repository) string {
	return "remote:" + repo.Endpoint
}
