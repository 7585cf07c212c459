package application

import (
	"context"
	"time"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/manager"
	"github.com/zjrosen/fedrepo/internal/catalog/uow"
)

// CreatePolicyParams describes a policy to create in the LOCAL repository.
type CreatePolicyParams struct {
	Name        string            `json:"name"`
	Permissions []string          `json:"permissions"`
	Labels      []string          `json:"labels,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	DomainID    string            `json:"domain_id"`
}

// UpdatePolicyParams holds the mutable policy fields. Nil means unchanged.
type UpdatePolicyParams struct {
	PolicyID    string            `json:"policy_id"`
	DomainID    string            `json:"domain_id"`
	Name        *string           `json:"name,omitempty"`
	Permissions *[]string         `json:"permissions,omitempty"`
	Labels      *[]string         `json:"labels,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// PolicyService manages policies.
type PolicyService struct {
	directory  *Directory
	local      *manager.Local[domain.Policy]
	federation *Federation[domain.Policy]
	now        func() time.Time
}

// NewPolicyService creates the policy service.
func NewPolicyService(directory *Directory, local *manager.Local[domain.Policy], managers *manager.Set[domain.Policy]) *PolicyService {
	return &PolicyService{
		directory:  directory,
		local:      local,
		federation: NewFederation(domain.KindPolicy, directory, managers),
		now:        time.Now,
	}
}

// Create persists a new enabled policy.
func (s *PolicyService) Create(ctx context.Context, params CreatePolicyParams) (domain.Policy, error) {
	if err := requireFields("name", params.Name, "domain_id", params.DomainID); err != nil {
		return domain.Policy{}, err
	}
	repo, err := s.directory.GetLocalRepository(ctx)
	if err != nil {
		return domain.Policy{}, err
	}

	now := s.now()
	policy := domain.Policy{
		PolicyID:     "policy-" + shortID(),
		Name:         params.Name,
		State:        domain.StateEnabled,
		Permissions:  params.Permissions,
		Labels:       params.Labels,
		Tags:         params.Tags,
		RepositoryID: repo.RepositoryID,
		DomainID:     params.DomainID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if policy.Permissions == nil {
		policy.Permissions = []string{}
	}

	var created domain.Policy
	err = uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		var err error
		created, err = s.local.Create(ctx, u, repo, policy, params.DomainID)
		return err
	})
	return created, err
}

// Update applies params to an existing policy.
func (s *PolicyService) Update(ctx context.Context, params UpdatePolicyParams) (domain.Policy, error) {
	if err := requireFields("policy_id", params.PolicyID, "domain_id", params.DomainID); err != nil {
		return domain.Policy{}, err
	}
	return s.modify(ctx, params.PolicyID, params.DomainID, func(p *domain.Policy) error {
		if params.Name != nil {
			if err := requireFields("name", *params.Name); err != nil {
				return err
			}
			p.Name = *params.Name
		}
		if params.Permissions != nil {
			p.Permissions = *params.Permissions
		}
		if params.Labels != nil {
			p.Labels = *params.Labels
		}
		if params.Tags != nil {
			p.Tags = params.Tags
		}
		return nil
	})
}

// Enable sets the policy state to ENABLED.
func (s *PolicyService) Enable(ctx context.Context, policyID, domainID string) (domain.Policy, error) {
	return s.modify(ctx, policyID, domainID, func(p *domain.Policy) error {
		p.State = domain.StateEnabled
		return nil
	})
}

// Disable sets the policy state to DISABLED.
func (s *PolicyService) Disable(ctx context.Context, policyID, domainID string) (domain.Policy, error) {
	return s.modify(ctx, policyID, domainID, func(p *domain.Policy) error {
		p.State = domain.StateDisabled
		return nil
	})
}

func (s *PolicyService) modify(ctx context.Context, policyID, domainID string, apply func(*domain.Policy) error) (domain.Policy, error) {
	repo, err := s.directory.GetLocalRepository(ctx)
	if err != nil {
		return domain.Policy{}, err
	}
	current, err := s.local.Find(ctx, policyID, domainID)
	if err != nil {
		return domain.Policy{}, err
	}
	if err := apply(&current); err != nil {
		return domain.Policy{}, err
	}
	current.UpdatedAt = s.now()

	var updated domain.Policy
	err = uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		var err error
		updated, err = s.local.Update(ctx, u, repo, current, domainID)
		return err
	})
	return updated, err
}

// Delete removes a policy from the LOCAL repository.
func (s *PolicyService) Delete(ctx context.Context, policyID, domainID string) error {
	if _, err := s.directory.GetLocalRepository(ctx); err != nil {
		return err
	}
	return uow.Run(ctx, func(ctx context.Context, u *uow.UnitOfWork) error {
		return s.local.Delete(ctx, u, policyID, domainID)
	})
}

// Get resolves a policy across repositories in priority order.
func (s *PolicyService) Get(ctx context.Context, policyID, domainID, repositoryID string) (domain.Policy, error) {
	return s.federation.Get(ctx, policyID, domainID, repositoryID)
}

// List aggregates policies across repositories.
func (s *PolicyService) List(ctx context.Context, q domain.Query, domainID, repositoryID string) ([]domain.Policy, int, error) {
	return s.federation.List(ctx, q, domainID, repositoryID)
}

// Stat groups policies in one repository.
func (s *PolicyService) Stat(ctx context.Context, q domain.StatQuery, domainID, repositoryID string) ([]domain.StatResult, error) {
	return s.federation.Stat(ctx, q, domainID, repositoryID)
}
