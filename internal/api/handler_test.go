package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/fedrepo/internal/catalog/application"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/catalog/domain/mocks"
	"github.com/zjrosen/fedrepo/internal/testutil"
)

type fixture struct {
	handler  http.Handler
	images   *mocks.MockImageVersionLister
	plugins  *testutil.MemoryStore[domain.Plugin]
	services *application.Services
}

func newFixture(t *testing.T, token string) fixture {
	t.Helper()
	plugins := testutil.NewMemoryStore(domain.KindPlugin, testutil.PluginDomain)
	images := mocks.NewMockImageVersionLister(t)
	services := application.NewServices(application.Dependencies{
		Repositories: testutil.NewMemoryRepositoryStore(
			testutil.Repository(domain.ManagedRepositoryID, domain.RepositoryManaged, 1),
			testutil.Repository("repo-local", domain.RepositoryLocal, 2),
		),
		Plugins:  plugins,
		Policies: testutil.NewMemoryStore(domain.KindPolicy, testutil.PolicyDomain),
		Schemas:  testutil.NewMemoryStore(domain.KindSchema, testutil.SchemaDomain),
		Catalog: &domain.ManagedCatalog{
			Plugins: []domain.Plugin{testutil.Plugin("plugin-bundled-a"), testutil.Plugin("plugin-bundled-b")},
			Schemas: []domain.Schema{testutil.Schema("aws_access_key", "secret.Secret")},
		},
		Peer:   mocks.NewMockPeer(t),
		Images: images,
	})
	h := NewHandler(HandlerConfig{
		Plugins:      services.Plugins,
		Policies:     services.Policies,
		Schemas:      services.Schemas,
		Repositories: services.Directory,
		DomainID:     "domain-test",
		Token:        token,
	})
	return fixture{handler: h.Routes(), images: images, plugins: plugins, services: services}
}

func (f fixture) call(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// === Tests ===

func TestHandler_Health(t *testing.T) {
	fx := newFixture(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeAs[HealthResponse](t, w).Status)
}

func TestHandler_ListRepositories(t *testing.T) {
	fx := newFixture(t, "")

	w := fx.call(t, Path("Repository", "list"), RepositoryListRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeAs[ListResponse[domain.Repository]](t, w)
	require.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, domain.ManagedRepositoryID, resp.Results[0].RepositoryID)
	assert.Equal(t, "repo-local", resp.Results[1].RepositoryID)

	w = fx.call(t, Path("Repository", "list"), RepositoryListRequest{RepositoryType: domain.RepositoryLocal})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeAs[ListResponse[domain.Repository]](t, w).TotalCount)
}

func TestHandler_RepositoryTokenIsNeverReturned(t *testing.T) {
	peer := mocks.NewMockPeer(t)
	peer.EXPECT().
		ListRepositories(mock.Anything, mock.Anything, domain.RepositoryLocal).
		Return([]domain.Repository{{RepositoryID: "repo-0123456789ab", RepositoryType: domain.RepositoryLocal}}, nil)
	services := application.NewServices(application.Dependencies{
		Repositories: testutil.NewMemoryRepositoryStore(testutil.Repository("repo-local", domain.RepositoryLocal, 2)),
		Peer:         peer,
	})
	h := NewHandler(HandlerConfig{Repositories: services.Directory}).Routes()

	body, err := json.Marshal(domain.RegisterRepositoryParams{
		Name: "marketplace", RepositoryType: domain.RepositoryRemote,
		Endpoint: "http://marketplace:8080", Token: "peer-token", Priority: 10,
	})
	require.NoError(t, err)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, Path("Repository", "register"), bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "peer-token")
	assert.Equal(t, "repo-0123456789ab", decodeAs[domain.Repository](t, w).RepositoryID)
}

func TestHandler_PluginRegisterAndGet(t *testing.T) {
	fx := newFixture(t, "")
	fx.images.EXPECT().ListVersions(mock.Anything, mock.Anything).Return([]string{"1.2.0", "1.1.0"}, nil).Once()

	w := fx.call(t, Path("Plugin", "register"), application.RegisterPluginParams{
		Name:        "EC2 Collector",
		Image:       "cloudforet/plugin-aws-ec2-inven-collector",
		ServiceType: "inventory.Collector",
		Provider:    "aws",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	registered := decodeAs[domain.Plugin](t, w)
	assert.Equal(t, "plugin-aws-ec2-inven-collector", registered.PluginID)
	assert.Equal(t, "domain-test", registered.DomainID)
	assert.Equal(t, "repo-local", registered.RepositoryInfo.RepositoryID)

	w = fx.call(t, Path("Plugin", "get"), GetRequest{
		PluginID: "plugin-aws-ec2-inven-collector",
		Only:     []string{"plugin_id", "provider"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{
		"plugin_id": "plugin-aws-ec2-inven-collector",
		"provider":  "aws",
	}, decodeAs[map[string]any](t, w))
}

func TestHandler_PluginRegisterWithoutImage(t *testing.T) {
	fx := newFixture(t, "")
	fx.images.EXPECT().ListVersions(mock.Anything, mock.Anything).Return(nil, nil).Once()

	w := fx.call(t, Path("Plugin", "register"), application.RegisterPluginParams{
		Name:        "Ghost",
		Image:       "cloudforet/plugin-ghost",
		ServiceType: "inventory.Collector",
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, domain.CodeNoImageInRegistry, decodeAs[ErrorResponse](t, w).Code)
	assert.Equal(t, 0, fx.plugins.Len())
}

func TestHandler_PluginGetNotFound(t *testing.T) {
	fx := newFixture(t, "")

	w := fx.call(t, Path("Plugin", "get"), GetRequest{PluginID: "plugin-missing"})

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeAs[ErrorResponse](t, w)
	assert.Equal(t, domain.CodeNotFound, resp.Code)
	assert.Contains(t, resp.Error, "plugin-missing")
}

func TestHandler_PluginListAggregates(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, fx.plugins.Create(context.Background(), testutil.Plugin("plugin-local")))

	w := fx.call(t, Path("Plugin", "list"), ListRequest{
		Query: domain.Query{Page: &domain.Page{Start: 2, Limit: 1}, Only: []string{"plugin_id"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeAs[ListResponse[map[string]any]](t, w)
	assert.Equal(t, 3, resp.TotalCount)
	assert.Equal(t, []map[string]any{{"plugin_id": "plugin-bundled-b"}}, resp.Results)
}

func TestHandler_PluginListEmptyIsArray(t *testing.T) {
	fx := newFixture(t, "")

	w := fx.call(t, Path("Plugin", "list"), ListRequest{RepositoryID: "repo-local"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[],"total_count":0}`, w.Body.String())
}

func TestHandler_PluginGetVersions(t *testing.T) {
	fx := newFixture(t, "")
	fx.images.EXPECT().
		ListVersions(mock.Anything, mock.MatchedBy(func(p domain.Plugin) bool { return p.PluginID == "plugin-bundled-a" })).
		Return([]string{"2.0.0", "1.0.0"}, nil)

	w := fx.call(t, Path("Plugin", "get_versions"), VersionsRequest{PluginID: "plugin-bundled-a"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, VersionsResponse{Results: []string{"2.0.0", "1.0.0"}, TotalCount: 2}, decodeAs[VersionsResponse](t, w))
}

func TestHandler_PluginStat(t *testing.T) {
	fx := newFixture(t, "")
	require.NoError(t, fx.plugins.Create(context.Background(), testutil.Plugin("p1", testutil.WithProvider("aws"))))
	require.NoError(t, fx.plugins.Create(context.Background(), testutil.Plugin("p2", testutil.WithProvider("aws"))))

	w := fx.call(t, Path("Plugin", "stat"), StatRequest{Query: domain.StatQuery{GroupBy: "provider"}})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeAs[StatResponse](t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "aws", resp.Results[0].Value)
	assert.Equal(t, 2, resp.Results[0].Count)
}

func TestHandler_PolicyCreateUsesDefaultDomain(t *testing.T) {
	fx := newFixture(t, "")

	w := fx.call(t, Path("Policy", "create"), application.CreatePolicyParams{Name: "Viewer", Permissions: []string{"*.get"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decodeAs[domain.Policy](t, w)
	assert.Equal(t, "domain-test", created.DomainID)

	w = fx.call(t, Path("Policy", "disable"), GetRequest{PolicyID: created.PolicyID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.StateDisabled, decodeAs[domain.Policy](t, w).State)

	w = fx.call(t, Path("Policy", "delete"), GetRequest{PolicyID: created.PolicyID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	w = fx.call(t, Path("Policy", "get"), GetRequest{PolicyID: created.PolicyID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_SchemaEnableNotSupported(t *testing.T) {
	fx := newFixture(t, "")

	w := fx.call(t, Path("Schema", "enable"), GetRequest{Name: "aws_access_key"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeNotSupported, decodeAs[ErrorResponse](t, w).Code)
}

func TestHandler_SchemaGetFromManagedCatalog(t *testing.T) {
	fx := newFixture(t, "")

	w := fx.call(t, Path("Schema", "get"), GetRequest{Name: "aws_access_key"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	s := decodeAs[domain.Schema](t, w)
	assert.Equal(t, domain.ManagedRepositoryID, s.RepositoryID)
	assert.Equal(t, domain.RepositoryManaged, s.RepositoryInfo.RepositoryType)
}

func TestHandler_InvalidJSON(t *testing.T) {
	fx := newFixture(t, "")

	req := httptest.NewRequest(http.MethodPost, Path("Plugin", "get"), bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeInvalidArgument, decodeAs[ErrorResponse](t, w).Code)
}

func TestHandler_EmptyBodyIsZeroRequest(t *testing.T) {
	fx := newFixture(t, "")

	req := httptest.NewRequest(http.MethodPost, Path("Repository", "list"), http.NoBody)
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeAs[ListResponse[domain.Repository]](t, w).TotalCount)
}

func TestHandler_UnknownMethod(t *testing.T) {
	fx := newFixture(t, "")

	w := fx.call(t, Path("Plugin", "explode"), struct{}{})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_BearerToken(t *testing.T) {
	fx := newFixture(t, "secret")

	w := fx.call(t, Path("Repository", "list"), RepositoryListRequest{})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, Path("Repository", "list"), http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.NotFoundError{Resource: "Plugin"}, http.StatusNotFound},
		{&domain.AlreadyExistsError{Resource: "Plugin"}, http.StatusConflict},
		{&domain.InvalidArgumentError{Key: "name"}, http.StatusBadRequest},
		{&domain.InvalidSortKeyError{Key: "template"}, http.StatusBadRequest},
		{&domain.NotSupportedError{Operation: "stat"}, http.StatusBadRequest},
		{&domain.NoImageInRegistryError{}, http.StatusUnprocessableEntity},
		{&domain.InvalidStateError{}, http.StatusConflict},
		{&domain.UpstreamError{Err: errors.New("refused")}, http.StatusBadGateway},
		{&domain.ConfigurationError{Component: "registry/HARBOR"}, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", &domain.NotFoundError{}), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(domain.ErrorCode(tt.err)))
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	fx := newFixture(t, "")
	srv, err := NewServer(ServerConfig{
		Addr: "localhost:0",
		HandlerConfig: HandlerConfig{
			Plugins:      fx.services.Plugins,
			Policies:     fx.services.Policies,
			Schemas:      fx.services.Schemas,
			Repositories: fx.services.Directory,
			DomainID:     "domain-test",
		},
	})
	require.NoError(t, err)
	require.NotZero(t, srv.Port())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", srv.Port()))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.ErrorIs(t, <-done, http.ErrServerClosed)
}
