package domain

import "time"

// Kind names a catalogued resource kind.
type Kind string

const (
	KindPlugin Kind = "Plugin"
	KindPolicy Kind = "Policy"
	KindSchema Kind = "Schema"
)

// IDField returns the field that identifies a resource of kind k.
func (k Kind) IDField() string {
	switch k {
	case KindPlugin:
		return "plugin_id"
	case KindPolicy:
		return "policy_id"
	default:
		return "name"
	}
}

// SortableFields returns the declared fields a resource of kind k can be
// sorted on. Sorting on anything else fails with InvalidSortKeyError.
func (k Kind) SortableFields() []string {
	switch k {
	case KindPlugin:
		return []string{"plugin_id", "name", "state", "image", "registry_type", "service_type", "provider", "created_at", "updated_at"}
	case KindPolicy:
		return []string{"policy_id", "name", "state", "created_at", "updated_at"}
	case KindSchema:
		return []string{"name", "service_type", "created_at", "updated_at"}
	default:
		return nil
	}
}

// State is the lifecycle state of a plugin or policy.
type State string

const (
	StateEnabled  State = "ENABLED"
	StateDisabled State = "DISABLED"
)

// IsValid returns true if the state is a recognized resource state.
func (s State) IsValid() bool {
	return s == StateEnabled || s == StateDisabled
}

// Resource is implemented by every catalogued kind.
//
// WithRepository returns a copy stamped with the serving repository and, when
// domainID is non-empty, the caller's domain. The receiver is never modified.
type Resource[T any] interface {
	ResourceID() string
	ResourceName() string
	Fields() map[string]any
	WithRepository(info RepositoryInfo, domainID string) T
}

// RegistryType identifies the container registry provider hosting a plugin image.
type RegistryType string

const (
	RegistryDockerHub     RegistryType = "DOCKER_HUB"
	RegistryAWSPublicECR  RegistryType = "AWS_PUBLIC_ECR"
	RegistryAWSPrivateECR RegistryType = "AWS_PRIVATE_ECR"
	RegistryHarbor        RegistryType = "HARBOR"
	RegistryGitHub        RegistryType = "GITHUB"
	RegistryGCPPrivateGCR RegistryType = "GCP_PRIVATE_GCR"
)

// IsValid returns true if the type is a supported registry provider.
func (t RegistryType) IsValid() bool {
	switch t {
	case RegistryDockerHub, RegistryAWSPublicECR, RegistryAWSPrivateECR, RegistryHarbor, RegistryGitHub, RegistryGCPPrivateGCR:
		return true
	default:
		return false
	}
}

// Plugin is an installable plugin published as a container image.
type Plugin struct {
	PluginID       string            `json:"plugin_id" yaml:"plugin_id"`
	Name           string            `json:"name" yaml:"name"`
	State          State             `json:"state" yaml:"state"`
	Image          string            `json:"image" yaml:"image"`
	RegistryType   RegistryType      `json:"registry_type" yaml:"registry_type"`
	RegistryConfig map[string]string `json:"registry_config,omitempty" yaml:"registry_config"`
	ServiceType    string            `json:"service_type" yaml:"service_type"`
	Provider       string            `json:"provider,omitempty" yaml:"provider"`
	Capability     map[string]any    `json:"capability,omitempty" yaml:"capability"`
	Template       map[string]any    `json:"template,omitempty" yaml:"template"`
	Labels         []string          `json:"labels,omitempty" yaml:"labels"`
	Tags           map[string]string `json:"tags,omitempty" yaml:"tags"`
	RepositoryInfo RepositoryInfo    `json:"repository_info" yaml:"-"`
	RepositoryID   string            `json:"repository_id" yaml:"-"`
	DomainID       string            `json:"domain_id" yaml:"-"`
	CreatedAt      time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time         `json:"updated_at" yaml:"-"`
}

func (p Plugin) ResourceID() string   { return p.PluginID }
func (p Plugin) ResourceName() string { return p.Name }

func (p Plugin) Fields() map[string]any {
	return map[string]any{
		"plugin_id":     p.PluginID,
		"name":          p.Name,
		"state":         string(p.State),
		"image":         p.Image,
		"registry_type": string(p.RegistryType),
		"service_type":  p.ServiceType,
		"provider":      p.Provider,
		"labels":        p.Labels,
		"tags":          p.Tags,
		"repository_id": p.RepositoryID,
		"domain_id":     p.DomainID,
		"created_at":    p.CreatedAt,
		"updated_at":    p.UpdatedAt,
	}
}

func (p Plugin) WithRepository(info RepositoryInfo, domainID string) Plugin {
	p.RepositoryInfo = info
	p.RepositoryID = info.RepositoryID
	if domainID != "" {
		p.DomainID = domainID
	}
	return p
}

// Policy is a named set of access permissions.
type Policy struct {
	PolicyID       string            `json:"policy_id" yaml:"policy_id"`
	Name           string            `json:"name" yaml:"name"`
	State          State             `json:"state" yaml:"state"`
	Permissions    []string          `json:"permissions" yaml:"permissions"`
	Labels         []string          `json:"labels,omitempty" yaml:"labels"`
	Tags           map[string]string `json:"tags,omitempty" yaml:"tags"`
	RepositoryInfo RepositoryInfo    `json:"repository_info" yaml:"-"`
	RepositoryID   string            `json:"repository_id" yaml:"-"`
	DomainID       string            `json:"domain_id" yaml:"-"`
	CreatedAt      time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time         `json:"updated_at" yaml:"-"`
}

func (p Policy) ResourceID() string   { return p.PolicyID }
func (p Policy) ResourceName() string { return p.Name }

func (p Policy) Fields() map[string]any {
	return map[string]any{
		"policy_id":     p.PolicyID,
		"name":          p.Name,
		"state":         string(p.State),
		"permissions":   p.Permissions,
		"labels":        p.Labels,
		"tags":          p.Tags,
		"repository_id": p.RepositoryID,
		"domain_id":     p.DomainID,
		"created_at":    p.CreatedAt,
		"updated_at":    p.UpdatedAt,
	}
}

func (p Policy) WithRepository(info RepositoryInfo, domainID string) Policy {
	p.RepositoryInfo = info
	p.RepositoryID = info.RepositoryID
	if domainID != "" {
		p.DomainID = domainID
	}
	return p
}

// Schema is a JSON schema describing configuration accepted by a service.
// Schemas are identified by name and have no lifecycle state.
type Schema struct {
	Name           string            `json:"name" yaml:"name"`
	ServiceType    string            `json:"service_type" yaml:"service_type"`
	Schema         map[string]any    `json:"schema" yaml:"schema"`
	Labels         []string          `json:"labels,omitempty" yaml:"labels"`
	Tags           map[string]string `json:"tags,omitempty" yaml:"tags"`
	RepositoryInfo RepositoryInfo    `json:"repository_info" yaml:"-"`
	RepositoryID   string            `json:"repository_id" yaml:"-"`
	DomainID       string            `json:"domain_id" yaml:"-"`
	CreatedAt      time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt      time.Time         `json:"updated_at" yaml:"-"`
}

func (s Schema) ResourceID() string   { return s.Name }
func (s Schema) ResourceName() string { return s.Name }

func (s Schema) Fields() map[string]any {
	return map[string]any{
		"name":          s.Name,
		"service_type":  s.ServiceType,
		"labels":        s.Labels,
		"tags":          s.Tags,
		"repository_id": s.RepositoryID,
		"domain_id":     s.DomainID,
		"created_at":    s.CreatedAt,
		"updated_at":    s.UpdatedAt,
	}
}

func (s Schema) WithRepository(info RepositoryInfo, domainID string) Schema {
	s.RepositoryInfo = info
	s.RepositoryID = info.RepositoryID
	if domainID != "" {
		s.DomainID = domainID
	}
	return s
}

// PluginVersions is the result of a version lookup for a located plugin.
type PluginVersions struct {
	RegistryType RegistryType
	Image        string
	Versions     []string
}

// ManagedCatalog is the immutable bundled catalog served by the MANAGED
// repository. It is built once at startup and shared read-only.
type ManagedCatalog struct {
	Plugins  []Plugin
	Policies []Policy
	Schemas  []Schema
}

// CatalogRecords returns the records of c whose kind matches T.
func CatalogRecords[T any](c *ManagedCatalog) []T {
	if c == nil {
		return nil
	}
	var records any
	var zero T
	switch any(zero).(type) {
	case Plugin:
		records = c.Plugins
	case Policy:
		records = c.Policies
	case Schema:
		records = c.Schemas
	}
	out, _ := records.([]T)
	return out
}
