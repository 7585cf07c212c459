package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{"not found", &NotFoundError{Resource: "Plugin", Key: "plugin_id", Value: "p1"}, ErrNotFound, CodeNotFound},
		{"already exists", &AlreadyExistsError{Resource: "Repository", Key: "endpoint", Value: "x"}, ErrAlreadyExists, CodeAlreadyExists},
		{"invalid argument", &InvalidArgumentError{Key: "image", Reason: "empty"}, ErrInvalidArgument, CodeInvalidArgument},
		{"configuration", &ConfigurationError{Component: "registry/HARBOR", Keys: []string{"url"}}, ErrInvalidConfiguration, CodeInvalidConfiguration},
		{"sort key", &InvalidSortKeyError{Key: "nope"}, ErrInvalidSortKey, CodeInvalidSortKey},
		{"no image", &NoImageInRegistryError{RegistryType: RegistryDockerHub, Image: "a/b"}, ErrNoImageInRegistry, CodeNoImageInRegistry},
		{"not supported", &NotSupportedError{Operation: "stat", RepositoryType: RepositoryRemote}, ErrNotSupported, CodeNotSupported},
		{"upstream", &UpstreamError{Endpoint: "http://peer", Method: "Plugin.get", Err: errors.New("refused")}, ErrUpstreamUnavailable, CodeUpstreamUnavailable},
		{"invalid state", &InvalidStateError{Reason: "no LOCAL repository"}, ErrInvalidState, CodeInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("wrapped: %w", tt.err)
			require.ErrorIs(t, wrapped, tt.sentinel)
			require.Equal(t, tt.code, ErrorCode(wrapped))

			// A code received from a peer matches the same sentinel.
			require.ErrorIs(t, ErrorFromCode(tt.code, ""), tt.sentinel)
		})
	}
}

func TestErrorCode_Unknown(t *testing.T) {
	require.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
	require.NotErrorIs(t, ErrorFromCode(CodeInternal, "boom"), ErrNotFound)
}

func TestConfigurationError_Message(t *testing.T) {
	err := &ConfigurationError{Component: "registry/GITHUB", Keys: []string{"github_token", "owner"}}
	require.Equal(t, "invalid configuration for registry/GITHUB: missing github_token, owner", err.Error())
}

func TestQuery_WithoutPage(t *testing.T) {
	q := Query{Keyword: "aws", Page: &Page{Start: 2, Limit: 5}}

	stripped, page := q.WithoutPage()

	require.Nil(t, stripped.Page)
	require.Equal(t, "aws", stripped.Keyword)
	require.Equal(t, &Page{Start: 2, Limit: 5}, page)
	require.NotNil(t, q.Page, "original query must keep its page")
}

func TestQuery_WithoutKey_DoesNotMutate(t *testing.T) {
	q := Query{
		Filter: []Condition{
			{Key: "domain_id", Value: "d1"},
			{Key: "state", Value: "ENABLED"},
		},
		FilterOr: []Condition{{Key: "domain_id", Value: "d2"}},
	}

	out := q.WithoutKey("domain_id")

	require.Equal(t, []Condition{{Key: "state", Value: "ENABLED"}}, out.Filter)
	require.Empty(t, out.FilterOr)
	require.Len(t, q.Filter, 2)
	require.Len(t, q.FilterOr, 1)
}

func TestQuery_WithoutKey_DropsWholeDisjunction(t *testing.T) {
	q := Query{
		Filter: []Condition{{Key: "state", Value: "ENABLED"}},
		FilterOr: []Condition{
			{Key: "domain_id", Value: "d1"},
			{Key: "name", Value: "aws-ec2"},
		},
	}

	out := q.WithoutKey("domain_id")

	require.Equal(t, []Condition{{Key: "state", Value: "ENABLED"}}, out.Filter)
	require.Empty(t, out.FilterOr, "keeping name alone would narrow the OR")
	require.Len(t, q.FilterOr, 2)

	untouched := Query{FilterOr: []Condition{{Key: "name", Value: "a"}, {Key: "name", Value: "b"}}}
	require.Equal(t, untouched.FilterOr, untouched.WithoutKey("domain_id").FilterOr)
}

func TestPlugin_WithRepository_ReturnsCopy(t *testing.T) {
	original := Plugin{PluginID: "p1", DomainID: "domain-root", RepositoryID: "peer-local"}
	info := RepositoryInfo{RepositoryID: "repo-remote", Name: "Marketplace", RepositoryType: RepositoryRemote}

	stamped := original.WithRepository(info, "domain-a")

	require.Equal(t, "repo-remote", stamped.RepositoryID)
	require.Equal(t, "domain-a", stamped.DomainID)
	require.Equal(t, info, stamped.RepositoryInfo)
	require.Equal(t, "peer-local", original.RepositoryID)
	require.Equal(t, "domain-root", original.DomainID)

	// An empty domain keeps the record's own.
	require.Equal(t, "domain-root", original.WithRepository(info, "").DomainID)
}

func TestSortRepositories(t *testing.T) {
	repos := []Repository{
		{RepositoryID: "r3", Name: "remote", Priority: 10},
		{RepositoryID: "r2", Name: "local", Priority: 2},
		{RepositoryID: "r1", Name: "managed", Priority: 1},
		{RepositoryID: "r4", Name: "another", Priority: 10},
	}

	SortRepositories(repos)

	ids := make([]string, 0, len(repos))
	for _, r := range repos {
		ids = append(ids, r.RepositoryID)
	}
	require.Equal(t, []string{"r1", "r2", "r4", "r3"}, ids)
}

func TestCatalogRecords(t *testing.T) {
	catalog := &ManagedCatalog{
		Plugins:  []Plugin{{PluginID: "p1"}},
		Policies: []Policy{{PolicyID: "policy-1"}, {PolicyID: "policy-2"}},
	}

	require.Len(t, CatalogRecords[Plugin](catalog), 1)
	require.Len(t, CatalogRecords[Policy](catalog), 2)
	require.Empty(t, CatalogRecords[Schema](catalog))
	require.Nil(t, CatalogRecords[Plugin](nil))
}

func TestKind_IDField(t *testing.T) {
	require.Equal(t, "plugin_id", KindPlugin.IDField())
	require.Equal(t, "policy_id", KindPolicy.IDField())
	require.Equal(t, "name", KindSchema.IDField())
}
