// Package managed loads the bundled catalog served by the MANAGED repository.
package managed

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	stdpath "path"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

// Directories scanned by Load, one YAML file per resource.
const (
	PluginsDir  = "plugins"
	PoliciesDir = "policies"
	SchemasDir  = "schemas"
)

// Defaults fills fields that catalog files may omit.
type Defaults struct {
	DomainID     string
	RegistryType domain.RegistryType
}

// Load reads every plugins/*.yaml, policies/*.yaml and schemas/*.yaml file in
// fsys into an immutable catalog. A missing directory yields no records of
// that kind; a malformed file or a duplicate id fails the whole load.
func Load(fsys fs.FS, defaults Defaults) (*domain.ManagedCatalog, error) {
	if defaults.RegistryType == "" {
		defaults.RegistryType = domain.RegistryDockerHub
	}

	plugins, err := loadDir(fsys, PluginsDir, func(p *domain.Plugin) error {
		if p.PluginID == "" {
			return fmt.Errorf("plugin_id is required")
		}
		if p.Name == "" {
			p.Name = p.PluginID
		}
		if p.State == "" {
			p.State = domain.StateEnabled
		}
		if p.RegistryType == "" {
			p.RegistryType = defaults.RegistryType
		}
		if !p.RegistryType.IsValid() {
			return fmt.Errorf("unsupported registry_type %q", p.RegistryType)
		}
		p.DomainID = defaults.DomainID
		return nil
	})
	if err != nil {
		return nil, err
	}

	policies, err := loadDir(fsys, PoliciesDir, func(p *domain.Policy) error {
		if p.PolicyID == "" {
			return fmt.Errorf("policy_id is required")
		}
		if p.Name == "" {
			p.Name = p.PolicyID
		}
		if p.State == "" {
			p.State = domain.StateEnabled
		}
		if p.Permissions == nil {
			p.Permissions = []string{}
		}
		p.DomainID = defaults.DomainID
		return nil
	})
	if err != nil {
		return nil, err
	}

	schemas, err := loadDir(fsys, SchemasDir, func(s *domain.Schema) error {
		if s.Name == "" {
			return fmt.Errorf("name is required")
		}
		s.DomainID = defaults.DomainID
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info(log.CatManaged, "loaded managed catalog",
		"plugins", len(plugins), "policies", len(policies), "schemas", len(schemas))
	return &domain.ManagedCatalog{Plugins: plugins, Policies: policies, Schemas: schemas}, nil
}

// LoadDir loads the catalog from a directory on disk.
func LoadDir(dir string, defaults Defaults) (*domain.ManagedCatalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("managed catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("managed catalog directory: %s is not a directory", dir)
	}
	return Load(os.DirFS(dir), defaults)
}

func loadDir[T domain.Resource[T]](fsys fs.FS, dir string, normalize func(*T) error) ([]T, error) {
	if _, err := fs.Stat(fsys, dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var records []T
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := stdpath.Ext(path); ext != ".yaml" && ext != ".yml" {
			return nil
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var record T
		if err := yaml.Unmarshal(content, &record); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if err := normalize(&record); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		id := record.ResourceID()
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%s: duplicate id %q (also defined in %s)", path, id, prev)
		}
		seen[id] = path
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan managed %s: %w", dir, err)
	}
	return records, nil
}
