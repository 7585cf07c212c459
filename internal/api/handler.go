// Package api exposes the catalog over HTTP as a set of RPC-style routes,
// one per operation: POST /v1/{Kind}.{method} with a JSON body.
//
// The same wire format is spoken by the peer client, so one instance of
// the service can serve as a REMOTE repository of another.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/zjrosen/fedrepo/internal/catalog/application"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
)

const maxBodyBytes = 1 << 20

// Handler provides HTTP handlers for the catalog services.
type Handler struct {
	plugins      *application.PluginService
	policies     *application.PolicyService
	schemas      *application.SchemaService
	repositories *application.Directory
	domainID     string
	token        string
}

// HandlerConfig configures the Handler.
type HandlerConfig struct {
	Plugins      *application.PluginService
	Policies     *application.PolicyService
	Schemas      *application.SchemaService
	Repositories *application.Directory
	// DomainID is used when a request carries no domain_id. Peers never
	// send one.
	DomainID string
	// Token, when set, must be presented as a bearer token on every /v1 route.
	Token string
}

// NewHandler creates a new Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		plugins:      cfg.Plugins,
		policies:     cfg.Policies,
		schemas:      cfg.Schemas,
		repositories: cfg.Repositories,
		domainID:     cfg.DomainID,
		token:        cfg.Token,
	}
}

// Routes returns an http.Handler with all routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	route := func(kind, method string, fn http.HandlerFunc) {
		mux.Handle("POST "+Path(kind, method), h.authorize(fn))
	}

	route("Repository", "register", handle(h, h.registerRepository))
	route("Repository", "update", handle(h, h.updateRepository))
	route("Repository", "deregister", handle(h, h.deregisterRepository))
	route("Repository", "get", handle(h, h.getRepository))
	route("Repository", "list", handle(h, h.listRepositories))

	plugin := string(domain.KindPlugin)
	route(plugin, "register", handle(h, h.registerPlugin))
	route(plugin, "update", handle(h, h.updatePlugin))
	route(plugin, "enable", handle(h, h.enablePlugin))
	route(plugin, "disable", handle(h, h.disablePlugin))
	route(plugin, "deregister", handle(h, h.deregisterPlugin))
	route(plugin, "get", handle(h, h.getPlugin))
	route(plugin, "list", handle(h, h.listPlugins))
	route(plugin, "stat", handle(h, h.statPlugins))
	route(plugin, "get_versions", handle(h, h.getPluginVersions))

	policy := string(domain.KindPolicy)
	route(policy, "create", handle(h, h.createPolicy))
	route(policy, "update", handle(h, h.updatePolicy))
	route(policy, "enable", handle(h, h.enablePolicy))
	route(policy, "disable", handle(h, h.disablePolicy))
	route(policy, "delete", handle(h, h.deletePolicy))
	route(policy, "get", handle(h, h.getPolicy))
	route(policy, "list", handle(h, h.listPolicies))
	route(policy, "stat", handle(h, h.statPolicies))

	schema := string(domain.KindSchema)
	route(schema, "create", handle(h, h.createSchema))
	route(schema, "update", handle(h, h.updateSchema))
	route(schema, "enable", handle(h, h.enableSchema))
	route(schema, "disable", handle(h, h.disableSchema))
	route(schema, "delete", handle(h, h.deleteSchema))
	route(schema, "get", handle(h, h.getSchema))
	route(schema, "list", handle(h, h.listSchemas))
	route(schema, "stat", handle(h, h.statSchemas))

	mux.HandleFunc("GET /health", h.Health)

	return mux
}

// handle adapts a typed operation to an http.HandlerFunc: it decodes the
// request body into Req, runs fn, and writes either the result or the
// mapped error.
func handle[Req any](h *Handler, fn func(ctx context.Context, req Req) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := decodeBody(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, resp)
	}
}

// decodeBody reads a JSON body into v. An empty body leaves v zero.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &domain.InvalidArgumentError{Key: "body", Reason: "invalid JSON: " + err.Error()}
}

func (h *Handler) authorize(next http.Handler) http.Handler {
	if h.token == "" {
		return next
	}
	want := []byte("Bearer " + h.token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			h.writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error: "missing or invalid bearer token",
				Code:  "ERROR_AUTHENTICATE_FAILURE",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) domain(domainID string) string {
	if domainID == "" {
		return h.domainID
	}
	return domainID
}

// Health returns a simple health check response.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// === Repository ===

func (h *Handler) registerRepository(ctx context.Context, req domain.RegisterRepositoryParams) (any, error) {
	return h.repositories.Register(ctx, req)
}

func (h *Handler) updateRepository(ctx context.Context, req RepositoryUpdateRequest) (any, error) {
	return h.repositories.Update(ctx, req.RepositoryID, req.UpdateRepositoryParams)
}

func (h *Handler) deregisterRepository(ctx context.Context, req RepositoryRequest) (any, error) {
	return EmptyResponse{}, h.repositories.Deregister(ctx, req.RepositoryID)
}

func (h *Handler) getRepository(ctx context.Context, req RepositoryRequest) (any, error) {
	return h.repositories.GetRepository(ctx, req.RepositoryID)
}

func (h *Handler) listRepositories(ctx context.Context, req RepositoryListRequest) (any, error) {
	repos, err := h.repositories.GetRepositories(ctx, req.RepositoryID, req.RepositoryType)
	if err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []domain.Repository{}
	}
	return ListResponse[domain.Repository]{Results: repos, TotalCount: len(repos)}, nil
}

// === Plugin ===

func (h *Handler) registerPlugin(ctx context.Context, req application.RegisterPluginParams) (any, error) {
	req.DomainID = h.domain(req.DomainID)
	return h.plugins.Register(ctx, req)
}

func (h *Handler) updatePlugin(ctx context.Context, req application.UpdatePluginParams) (any, error) {
	req.DomainID = h.domain(req.DomainID)
	return h.plugins.Update(ctx, req)
}

func (h *Handler) enablePlugin(ctx context.Context, req GetRequest) (any, error) {
	return h.plugins.Enable(ctx, req.PluginID, h.domain(req.DomainID))
}

func (h *Handler) disablePlugin(ctx context.Context, req GetRequest) (any, error) {
	return h.plugins.Disable(ctx, req.PluginID, h.domain(req.DomainID))
}

func (h *Handler) deregisterPlugin(ctx context.Context, req GetRequest) (any, error) {
	return EmptyResponse{}, h.plugins.Deregister(ctx, req.PluginID, h.domain(req.DomainID))
}

func (h *Handler) getPlugin(ctx context.Context, req GetRequest) (any, error) {
	p, err := h.plugins.Get(ctx, req.PluginID, h.domain(req.DomainID), req.RepositoryID)
	if err != nil {
		return nil, err
	}
	return project(p, req.Only)
}

func (h *Handler) listPlugins(ctx context.Context, req ListRequest) (any, error) {
	items, total, err := h.plugins.List(ctx, req.Query, h.domain(req.DomainID), req.RepositoryID)
	if err != nil {
		return nil, err
	}
	return listResponse(items, total, req.Query.Only)
}

func (h *Handler) statPlugins(ctx context.Context, req StatRequest) (any, error) {
	results, err := h.plugins.Stat(ctx, req.Query, h.domain(req.DomainID), req.RepositoryID)
	return statResponse(results, err)
}

func (h *Handler) getPluginVersions(ctx context.Context, req VersionsRequest) (any, error) {
	versions, err := h.plugins.GetVersions(ctx, req.PluginID, h.domain(req.DomainID), req.RepositoryID)
	if err != nil {
		return nil, err
	}
	return VersionsResponse{Results: versions, TotalCount: len(versions)}, nil
}

// === Policy ===

func (h *Handler) createPolicy(ctx context.Context, req application.CreatePolicyParams) (any, error) {
	req.DomainID = h.domain(req.DomainID)
	return h.policies.Create(ctx, req)
}

func (h *Handler) updatePolicy(ctx context.Context, req application.UpdatePolicyParams) (any, error) {
	req.DomainID = h.domain(req.DomainID)
	return h.policies.Update(ctx, req)
}

func (h *Handler) enablePolicy(ctx context.Context, req GetRequest) (any, error) {
	return h.policies.Enable(ctx, req.PolicyID, h.domain(req.DomainID))
}

func (h *Handler) disablePolicy(ctx context.Context, req GetRequest) (any, error) {
	return h.policies.Disable(ctx, req.PolicyID, h.domain(req.DomainID))
}

func (h *Handler) deletePolicy(ctx context.Context, req GetRequest) (any, error) {
	return EmptyResponse{}, h.policies.Delete(ctx, req.PolicyID, h.domain(req.DomainID))
}

func (h *Handler) getPolicy(ctx context.Context, req GetRequest) (any, error) {
	p, err := h.policies.Get(ctx, req.PolicyID, h.domain(req.DomainID), req.RepositoryID)
	if err != nil {
		return nil, err
	}
	return project(p, req.Only)
}

func (h *Handler) listPolicies(ctx context.Context, req ListRequest) (any, error) {
	items, total, err := h.policies.List(ctx, req.Query, h.domain(req.DomainID), req.RepositoryID)
	if err != nil {
		return nil, err
	}
	return listResponse(items, total, req.Query.Only)
}

func (h *Handler) statPolicies(ctx context.Context, req StatRequest) (any, error) {
	results, err := h.policies.Stat(ctx, req.Query, h.domain(req.DomainID), req.RepositoryID)
	return statResponse(results, err)
}

// === Schema ===

func (h *Handler) createSchema(ctx context.Context, req application.CreateSchemaParams) (any, error) {
	req.DomainID = h.domain(req.DomainID)
	return h.schemas.Create(ctx, req)
}

func (h *Handler) updateSchema(ctx context.Context, req application.UpdateSchemaParams) (any, error) {
	req.DomainID = h.domain(req.DomainID)
	return h.schemas.Update(ctx, req)
}

func (h *Handler) enableSchema(ctx context.Context, req GetRequest) (any, error) {
	return h.schemas.Enable(ctx, req.Name, h.domain(req.DomainID))
}

func (h *Handler) disableSchema(ctx context.Context, req GetRequest) (any, error) {
	return h.schemas.Disable(ctx, req.Name, h.domain(req.DomainID))
}

func (h *Handler) deleteSchema(ctx context.Context, req GetRequest) (any, error) {
	return EmptyResponse{}, h.schemas.Delete(ctx, req.Name, h.domain(req.DomainID))
}

func (h *Handler) getSchema(ctx context.Context, req GetRequest) (any, error) {
	s, err := h.schemas.Get(ctx, req.Name, h.domain(req.DomainID), req.RepositoryID)
	if err != nil {
		return nil, err
	}
	return project(s, req.Only)
}

func (h *Handler) listSchemas(ctx context.Context, req ListRequest) (any, error) {
	items, total, err := h.schemas.List(ctx, req.Query, h.domain(req.DomainID), req.RepositoryID)
	if err != nil {
		return nil, err
	}
	return listResponse(items, total, req.Query.Only)
}

func (h *Handler) statSchemas(ctx context.Context, req StatRequest) (any, error) {
	results, err := h.schemas.Stat(ctx, req.Query, h.domain(req.DomainID), req.RepositoryID)
	return statResponse(results, err)
}

// === Helpers ===

func listResponse[T any](items []T, total int, only []string) (any, error) {
	results := make([]any, 0, len(items))
	for _, item := range items {
		v, err := project(item, only)
		if err != nil {
			return nil, err
		}
		results = append(results, v)
	}
	return ListResponse[any]{Results: results, TotalCount: total}, nil
}

func statResponse(results []domain.StatResult, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.StatResult{}
	}
	return StatResponse{Results: results}, nil
}

// project keeps only the named top-level fields of v. An empty only
// returns v unchanged.
func project(v any, only []string) (any, error) {
	if len(only) == 0 {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(only))
	for _, key := range only {
		if field, ok := fields[key]; ok {
			out[key] = field
		}
	}
	return out, nil
}

var statusByCode = map[string]int{
	domain.CodeNotFound:             http.StatusNotFound,
	domain.CodeAlreadyExists:        http.StatusConflict,
	domain.CodeInvalidArgument:      http.StatusBadRequest,
	domain.CodeInvalidSortKey:       http.StatusBadRequest,
	domain.CodeNotSupported:         http.StatusBadRequest,
	domain.CodeNoImageInRegistry:    http.StatusUnprocessableEntity,
	domain.CodeInvalidState:         http.StatusConflict,
	domain.CodeUpstreamUnavailable:  http.StatusBadGateway,
	domain.CodeInvalidConfiguration: http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(log.CatAPI, "Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := StatusFor(code)
	method := strings.TrimPrefix(r.URL.Path, "/v1/")
	if status >= http.StatusInternalServerError {
		log.ErrorErr(log.CatAPI, "request failed", err, "method", method, "code", code)
	} else {
		log.Debug(log.CatAPI, "request rejected", "method", method, "code", code, "error", err)
	}
	h.writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
