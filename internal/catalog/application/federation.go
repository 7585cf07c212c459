package application

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/manager"
	"github.com/zjrosen/fedrepo/internal/catalog/query"
	"github.com/zjrosen/fedrepo/internal/log"
)

var tracer = otel.Tracer("github.com/zjrosen/fedrepo/internal/catalog/application")

// Federation resolves and aggregates one resource kind across every
// registered repository.
type Federation[T domain.Resource[T]] struct {
	kind      domain.Kind
	directory *Directory
	managers  *manager.Set[T]
}

// NewFederation creates the federation engine for one kind.
func NewFederation[T domain.Resource[T]](kind domain.Kind, directory *Directory, managers *manager.Set[T]) *Federation[T] {
	return &Federation[T]{kind: kind, directory: directory, managers: managers}
}

// Get visits the candidate repositories in priority order and returns the
// first match. Per-repository failures are logged and skipped; NotFound is
// returned only once every candidate has been tried.
func (f *Federation[T]) Get(ctx context.Context, id, domainID, repositoryID string) (T, error) {
	ctx, span := tracer.Start(ctx, "federation.get", trace.WithAttributes(
		attribute.String("kind", string(f.kind)),
		attribute.String("id", id),
		attribute.String("repository_id", repositoryID),
	))
	defer span.End()

	var zero T
	item, repo, err := firstMatch(ctx, f.directory, repositoryID, func(ctx context.Context, repo domain.Repository) (T, error) {
		m, err := f.managers.For(repo.RepositoryType)
		if err != nil {
			return zero, err
		}
		return m.Get(ctx, repo, id, domainID)
	}, "kind", f.kind, "id", id)
	if err != nil {
		if errors.Is(err, errExhausted) {
			err = &domain.NotFoundError{Resource: string(f.kind), Key: f.kind.IDField(), Value: id}
		}
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}
	span.SetAttributes(attribute.String("resolved_repository_id", repo.RepositoryID))
	return item, nil
}

// List queries one repository when repositoryID is set. Otherwise it strips
// the page from q, lists every repository concurrently, concatenates the
// results in priority order, sums the counts and applies the page to the
// concatenation.
func (f *Federation[T]) List(ctx context.Context, q domain.Query, domainID, repositoryID string) ([]T, int, error) {
	ctx, span := tracer.Start(ctx, "federation.list", trace.WithAttributes(
		attribute.String("kind", string(f.kind)),
		attribute.String("repository_id", repositoryID),
	))
	defer span.End()

	if repositoryID != "" {
		repo, err := f.directory.GetRepository(ctx, repositoryID)
		if err != nil {
			return nil, 0, err
		}
		m, err := f.managers.For(repo.RepositoryType)
		if err != nil {
			return nil, 0, err
		}
		return m.List(ctx, repo, q, domainID)
	}

	repos, err := f.directory.GetRepositories(ctx, "", "")
	if err != nil {
		return nil, 0, err
	}

	unpaged, page := q.WithoutPage()
	results := make([][]T, len(repos))
	counts := make([]int, len(repos))

	g, gctx := errgroup.WithContext(ctx)
	for i, repo := range repos {
		g.Go(func() error {
			m, err := f.managers.For(repo.RepositoryType)
			if err != nil {
				return err
			}
			items, n, err := m.List(gctx, repo, unpaged, domainID)
			if err != nil {
				return err
			}
			results[i], counts[i] = items, n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	var all []T
	total := 0
	for i := range repos {
		all = append(all, results[i]...)
		total += counts[i]
	}
	span.SetAttributes(attribute.Int("total_count", total), attribute.Int("repositories", len(repos)))
	return query.Paginate(all, page), total, nil
}

// Stat groups resources in one repository, the LOCAL one by default.
func (f *Federation[T]) Stat(ctx context.Context, q domain.StatQuery, domainID, repositoryID string) ([]domain.StatResult, error) {
	var repo domain.Repository
	var err error
	if repositoryID != "" {
		repo, err = f.directory.GetRepository(ctx, repositoryID)
	} else {
		repo, err = f.directory.GetLocalRepository(ctx)
	}
	if err != nil {
		return nil, err
	}
	m, err := f.managers.For(repo.RepositoryType)
	if err != nil {
		return nil, err
	}
	return m.Stat(ctx, repo, q, domainID)
}

// GetPluginVersions locates pluginID in priority order like Get and returns
// its image versions. A located plugin whose registry reports no tags fails
// with NoImageInRegistry instead of falling through to later repositories.
func GetPluginVersions(ctx context.Context, directory *Directory, versions *manager.Versions, pluginID, domainID, repositoryID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "federation.get_versions", trace.WithAttributes(
		attribute.String("plugin_id", pluginID),
		attribute.String("repository_id", repositoryID),
	))
	defer span.End()

	found, _, err := firstMatch(ctx, directory, repositoryID, func(ctx context.Context, repo domain.Repository) (domain.PluginVersions, error) {
		return versions.GetVersions(ctx, repo, pluginID, domainID)
	}, "kind", domain.KindPlugin, "id", pluginID)
	if err != nil {
		if errors.Is(err, errExhausted) {
			err = &domain.NotFoundError{Resource: string(domain.KindPlugin), Key: "plugin_id", Value: pluginID}
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(found.Versions) == 0 {
		err := &domain.NoImageInRegistryError{RegistryType: found.RegistryType, Image: found.Image}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return found.Versions, nil
}

var errExhausted = errors.New("no repository matched")

// firstMatch calls visit for each candidate repository in priority order and
// returns the first success. Candidates after a success are never visited.
func firstMatch[R any](
	ctx context.Context,
	directory *Directory,
	repositoryID string,
	visit func(ctx context.Context, repo domain.Repository) (R, error),
	logFields ...any,
) (R, domain.Repository, error) {
	var zero R
	repos, err := directory.GetRepositories(ctx, repositoryID, "")
	if err != nil {
		return zero, domain.Repository{}, err
	}

	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return zero, domain.Repository{}, err
		}

		repoCtx, span := tracer.Start(ctx, "federation.visit", trace.WithAttributes(
			attribute.String("repository_id", repo.RepositoryID),
			attribute.String("repository_type", string(repo.RepositoryType)),
		))
		result, err := visit(repoCtx, repo)
		if err == nil {
			span.End()
			return result, repo, nil
		}
		span.RecordError(err)
		span.End()

		fields := append([]any{"repository_id", repo.RepositoryID, "repository_type", repo.RepositoryType}, logFields...)
		log.Warn(log.CatFederation, "repository lookup failed, trying next", append(fields, "error", err)...)
	}
	return zero, domain.Repository{}, errExhausted
}
