// Package config provides the configuration types, defaults and validation
// of the fedrepo service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
	"github.com/zjrosen/fedrepo/internal/tracing"
)

// Config holds all service configuration.
type Config struct {
	Database     DatabaseConfig            `mapstructure:"database"`
	Server       ServerConfig              `mapstructure:"server"`
	Log          LogConfig                 `mapstructure:"log"`
	Tracing      tracing.Config            `mapstructure:"tracing"`
	Managed      ManagedConfig             `mapstructure:"managed"`
	Peer         PeerConfig                `mapstructure:"peer"`
	Registries   map[string]RegistryConfig `mapstructure:"registries"`
	Repositories []RepositoryConfig        `mapstructure:"repositories"`
}

// DatabaseConfig locates the LOCAL repository store.
type DatabaseConfig struct {
	// Path is the sqlite database file. Parent directories are created.
	Path string `mapstructure:"path"`
}

// ServerConfig configures the inbound RPC surface.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// DomainID is applied to requests that carry no domain_id.
	DomainID string `mapstructure:"domain_id"`
	// Token, when set, is required as a bearer token on every RPC.
	Token        string        `mapstructure:"token"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig configures the category logger.
type LogConfig struct {
	// Path is the log file. Empty logs to stderr.
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug, info, warn or error
}

// ManagedConfig configures the bundled MANAGED catalog.
type ManagedConfig struct {
	// CatalogDir replaces the embedded catalog with a directory on disk.
	CatalogDir string `mapstructure:"catalog_dir"`
	// DomainID is stamped on catalog records that do not set one.
	DomainID string `mapstructure:"domain_id"`
	// RegistryType is the default registry of catalog plugins.
	RegistryType string `mapstructure:"registry_type"`
}

// PeerConfig configures calls to REMOTE repositories.
type PeerConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// RegistryConfig holds the connector settings of one registry type. Keys
// of Config.Registries are registry types such as "docker_hub" or "harbor".
type RegistryConfig struct {
	URL         string            `mapstructure:"url"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Credentials map[string]string `mapstructure:"credentials"`
}

// RepositoryConfig seeds a LOCAL or MANAGED repository at boot.
type RepositoryConfig struct {
	RepositoryID string `mapstructure:"repository_id"`
	Name         string `mapstructure:"name"`
	Type         string `mapstructure:"type"`
	Priority     int    `mapstructure:"priority"`
}

// Params converts the seed to directory registration parameters.
func (r RepositoryConfig) Params() domain.RegisterRepositoryParams {
	return domain.RegisterRepositoryParams{
		RepositoryID:   r.RepositoryID,
		Name:           r.Name,
		RepositoryType: domain.RepositoryType(strings.ToUpper(r.Type)),
		Priority:       r.Priority,
	}
}

// RegistryType normalizes a Registries key ("docker_hub", "DOCKER_HUB") to
// its domain value.
func RegistryType(key string) domain.RegistryType {
	return domain.RegistryType(strings.ToUpper(key))
}

// DefaultDataDir returns ~/.fedrepo, or the working directory when the home
// directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".fedrepo")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	dataDir := DefaultDataDir()
	tr := tracing.DefaultConfig()
	tr.FilePath = filepath.Join(dataDir, "traces", "traces.jsonl")

	return Config{
		Database: DatabaseConfig{Path: filepath.Join(dataDir, "fedrepo.db")},
		Server: ServerConfig{
			Addr:         ":8080",
			DomainID:     "domain-default",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Log:     LogConfig{Level: "info"},
		Tracing: tr,
		Managed: ManagedConfig{
			DomainID:     "domain-default",
			RegistryType: string(domain.RegistryDockerHub),
		},
		Peer:       PeerConfig{Timeout: 30 * time.Second},
		Registries: map[string]RegistryConfig{},
		Repositories: []RepositoryConfig{
			{RepositoryID: "repo-managed", Name: "Managed", Type: string(domain.RepositoryManaged), Priority: 1},
			{Name: "Local", Type: string(domain.RepositoryLocal), Priority: 10},
		},
	}
}

// Validate checks the configuration for errors. Empty optional values are
// valid and fall back to defaults where they are used.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	if c.Managed.RegistryType != "" && !RegistryType(c.Managed.RegistryType).IsValid() {
		return fmt.Errorf("managed.registry_type: unknown registry type %q", c.Managed.RegistryType)
	}
	if c.Peer.Timeout < 0 {
		return fmt.Errorf("peer.timeout must not be negative")
	}
	for key, reg := range c.Registries {
		if !RegistryType(key).IsValid() {
			return fmt.Errorf("registries.%s: unknown registry type", key)
		}
		if reg.Timeout < 0 {
			return fmt.Errorf("registries.%s.timeout must not be negative", key)
		}
	}
	return ValidateRepositories(c.Repositories)
}

// ValidateRepositories checks boot repository seeds: each needs a name and
// a positive priority, only LOCAL and MANAGED may be seeded, and each of
// them at most once.
func ValidateRepositories(repos []RepositoryConfig) error {
	seen := map[domain.RepositoryType]bool{}
	for i, r := range repos {
		p := r.Params()
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("repositories[%d].name is required", i)
		}
		if p.Priority <= 0 {
			return fmt.Errorf("repositories[%d].priority must be > 0, got %d", i, p.Priority)
		}
		switch p.RepositoryType {
		case domain.RepositoryLocal, domain.RepositoryManaged:
		case domain.RepositoryRemote:
			return fmt.Errorf("repositories[%d]: REMOTE repositories are registered at runtime", i)
		default:
			return fmt.Errorf("repositories[%d].type: unknown repository type %q", i, r.Type)
		}
		if seen[p.RepositoryType] {
			return fmt.Errorf("repositories[%d]: more than one %s repository", i, p.RepositoryType)
		}
		seen[p.RepositoryType] = true
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}
	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}
	if !t.Enabled {
		return nil
	}
	if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
		return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
	}
	if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the commented config file written on first run.
func DefaultConfigTemplate() string {
	return `# fedrepo configuration

database:
  # sqlite file backing the LOCAL repository
  path: ~/.fedrepo/fedrepo.db

server:
  addr: ":8080"
  # domain applied to requests without a domain_id
  domain_id: domain-default
  # bearer token required from callers (empty disables auth)
  token: ""
  read_timeout: 30s
  write_timeout: 60s

log:
  # empty logs to stderr
  path: ""
  level: info

managed:
  # directory of plugins/, policies/ and schemas/ YAML files.
  # empty serves the catalog bundled with the binary
  catalog_dir: ""
  domain_id: domain-default
  registry_type: DOCKER_HUB

peer:
  # per-call timeout for REMOTE repositories
  timeout: 30s

# Repositories provisioned at boot. REMOTE repositories are registered at
# runtime with "fedrepo repository register".
repositories:
  - repository_id: repo-managed
    name: Managed
    type: MANAGED
    priority: 1
  - name: Local
    type: LOCAL
    priority: 10

# Registry connector settings per registry type. Plugins may override
# credentials through their registry_config.
registries:
  docker_hub:
    timeout: 10s
  # aws_private_ecr:
  #   credentials:
  #     aws_access_key_id: ""
  #     aws_secret_access_key: ""
  #     region_name: us-east-1
  #     account_id: ""
  # harbor:
  #   url: https://harbor.example.com
  #   credentials:
  #     username: ""
  #     password: ""
  # github:
  #   credentials:
  #     github_token: ""
  #     owner: ""
  #     owner_type: ORGANIZATION
  # gcp_private_gcr:
  #   credentials:
  #     location: us-central1
  #     project_id: ""
  #     repository_id: ""
  #     service_account_key: ""

# Tracing (OpenTelemetry)
tracing:
  enabled: false
  # none, file, stdout or otlp
  exporter: file
  file_path: ~/.fedrepo/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

// ExpandHome replaces a leading "~/" in path with the home directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
