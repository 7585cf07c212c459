package manager

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

// Remote delegates reads to a peer instance. The repository id of a REMOTE
// repository is the peer's own LOCAL repository id, so it is forwarded as is.
type Remote[T domain.Resource[T]] struct {
	kind domain.Kind
	peer domain.Peer
}

// NewRemote creates a REMOTE strategy calling peer.
func NewRemote[T domain.Resource[T]](kind domain.Kind, peer domain.Peer) *Remote[T] {
	return &Remote[T]{kind: kind, peer: peer}
}

var _ Manager[domain.Plugin] = (*Remote[domain.Plugin])(nil)

func target(repo domain.Repository) domain.PeerTarget {
	return domain.PeerTarget{Endpoint: repo.Endpoint, Token: repo.Token}
}

// Get propagates peer errors unchanged so the caller can move on to the
// next repository.
func (m *Remote[T]) Get(ctx context.Context, repo domain.Repository, id, domainID string) (T, error) {
	var zero T
	raw, err := m.peer.Get(ctx, target(repo), m.kind, repo.RepositoryID, id)
	if err != nil {
		return zero, err
	}
	item, err := decode[T](raw)
	if err != nil {
		return zero, fmt.Errorf("decode %s from %s: %w", m.kind, repo.Endpoint, err)
	}
	return item.WithRepository(repo.Info(), domainID), nil
}

// List degrades to an empty result when the peer fails.
func (m *Remote[T]) List(ctx context.Context, repo domain.Repository, q domain.Query, domainID string) ([]T, int, error) {
	raws, total, err := m.peer.List(ctx, target(repo), m.kind, repo.RepositoryID, q.WithoutKey("domain_id"))
	if err != nil {
		log.Warn(log.CatRemote, "remote list failed, contributing no results",
			"kind", m.kind, "repository_id", repo.RepositoryID, "endpoint", repo.Endpoint, "error", err)
		return []T{}, 0, nil
	}

	items := make([]T, 0, len(raws))
	for _, raw := range raws {
		item, err := decode[T](raw)
		if err != nil {
			log.Warn(log.CatRemote, "remote list returned an undecodable record, contributing no results",
				"kind", m.kind, "repository_id", repo.RepositoryID, "error", err)
			return []T{}, 0, nil
		}
		items = append(items, item)
	}
	return stampAll(items, repo, domainID), total, nil
}

func (m *Remote[T]) Stat(context.Context, domain.Repository, domain.StatQuery, string) ([]domain.StatResult, error) {
	return nil, &domain.NotSupportedError{Operation: "stat", RepositoryType: domain.RepositoryRemote}
}

// decode builds a new value from the peer's payload; the payload itself is
// never modified.
func decode[T any](raw json.RawMessage) (T, error) {
	var item T
	err := json.Unmarshal(raw, &item)
	return item, err
}
