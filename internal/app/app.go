// Package app assembles the fedrepo service from its configuration: the
// LOCAL store, the managed catalog, the peer client, the registry
// connectors and the catalog services on top of them.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zjrosen/fedrepo/internal/api"
	"github.com/zjrosen/fedrepo/internal/catalog/application"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalogdata"
	"github.com/zjrosen/fedrepo/internal/config"
	"github.com/zjrosen/fedrepo/internal/infrastructure/managed"
	"github.com/zjrosen/fedrepo/internal/infrastructure/peer"
	"github.com/zjrosen/fedrepo/internal/infrastructure/sqlite"
	"github.com/zjrosen/fedrepo/internal/log"
	"github.com/zjrosen/fedrepo/internal/registry"
	"github.com/zjrosen/fedrepo/internal/tracing"
)

// App owns the process-wide resources of one service instance.
type App struct {
	cfg      config.Config
	db       *sqlite.DB
	tracing  *tracing.Provider
	catalog  *domain.ManagedCatalog
	services *application.Services
}

// New validates cfg, opens every backing resource and provisions the boot
// repositories. Close releases what New opened.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tracingCfg := cfg.Tracing
	tracingCfg.FilePath = config.ExpandHome(tracingCfg.FilePath)
	provider, err := tracing.NewProvider(ctx, tracingCfg)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, tracing: provider}

	catalog, err := LoadCatalog(cfg.Managed)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.catalog = catalog

	a.db, err = sqlite.NewDB(config.ExpandHome(cfg.Database.Path))
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.services = application.NewServices(application.Dependencies{
		Repositories: a.db.RepositoryStore(),
		Plugins:      a.db.PluginStore(),
		Policies:     a.db.PolicyStore(),
		Schemas:      a.db.SchemaStore(),
		Catalog:      catalog,
		Peer:         peer.NewClient(peer.WithTimeout(cfg.Peer.Timeout)),
		Images:       registry.NewResolver(RegistrySettings(cfg.Registries)),
	})

	seeds := make([]domain.RegisterRepositoryParams, 0, len(cfg.Repositories))
	for _, r := range cfg.Repositories {
		seeds = append(seeds, r.Params())
	}
	if err := a.services.Directory.Bootstrap(ctx, seeds); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("bootstrap repositories: %w", err)
	}

	log.Info(log.CatConfig, "service assembled",
		"database", cfg.Database.Path,
		"managed_plugins", len(catalog.Plugins),
		"managed_policies", len(catalog.Policies),
		"managed_schemas", len(catalog.Schemas),
		"tracing", provider.Enabled())
	return a, nil
}

// LoadCatalog reads the managed catalog from cfg.CatalogDir, or from the
// catalog embedded in the binary when no directory is configured.
func LoadCatalog(cfg config.ManagedConfig) (*domain.ManagedCatalog, error) {
	defaults := managed.Defaults{
		DomainID:     cfg.DomainID,
		RegistryType: config.RegistryType(cfg.RegistryType),
	}
	if cfg.CatalogDir != "" {
		return managed.LoadDir(config.ExpandHome(cfg.CatalogDir), defaults)
	}
	return managed.Load(catalogdata.ManagedFS(), defaults)
}

// RegistrySettings converts configured registries into connector settings
// keyed by registry type.
func RegistrySettings(registries map[string]config.RegistryConfig) map[domain.RegistryType]registry.Settings {
	out := make(map[domain.RegistryType]registry.Settings, len(registries))
	for key, reg := range registries {
		out[config.RegistryType(key)] = registry.Settings{
			URL:         reg.URL,
			Timeout:     reg.Timeout,
			Credentials: reg.Credentials,
		}
	}
	return out
}

// Services returns the catalog services.
func (a *App) Services() *application.Services {
	return a.services
}

// Catalog returns the loaded managed catalog.
func (a *App) Catalog() *domain.ManagedCatalog {
	return a.catalog
}

// NewServer creates the RPC server bound to the configured address.
func (a *App) NewServer() (*api.Server, error) {
	return api.NewServer(api.ServerConfig{
		HandlerConfig: api.HandlerConfig{
			Plugins:      a.services.Plugins,
			Policies:     a.services.Policies,
			Schemas:      a.services.Schemas,
			Repositories: a.services.Directory,
			DomainID:     a.cfg.Server.DomainID,
			Token:        a.cfg.Server.Token,
		},
		Addr:         a.cfg.Server.Addr,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		Tracer:       a.tracing.Tracer(),
	})
}

// Serve runs the RPC server until ctx is cancelled, then shuts it down
// within shutdownTimeout.
func (a *App) Serve(ctx context.Context, shutdownTimeout time.Duration, ready func(port int)) error {
	server, err := a.NewServer()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	if ready != nil {
		ready(server.Port())
	}

	select {
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.ErrorErr(log.CatAPI, "Error stopping API server", err)
		return err
	}
	return nil
}

// Close releases the database and flushes pending spans.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.tracing != nil {
		errs = append(errs, a.tracing.Shutdown(ctx))
		a.tracing = nil
	}
	return errors.Join(errs...)
}
