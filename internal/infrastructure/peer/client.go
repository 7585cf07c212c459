// Package peer calls another instance of this service serving as a REMOTE
// repository. It speaks the wire format of package api.
package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/fedrepo/internal/api"
	"github.com/zjrosen/fedrepo/internal/catalog/domain"
	"github.com/zjrosen/fedrepo/internal/log"
	"github.com/zjrosen/fedrepo/internal/tracing"
)

var tracer = otel.Tracer("github.com/zjrosen/fedrepo/internal/infrastructure/peer")

// DefaultTimeout bounds a single peer call when none is configured.
const DefaultTimeout = 30 * time.Second

const maxResponseBytes = 16 << 20

// Client implements domain.Peer over HTTP.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// NewClient creates a peer client.
func NewClient(opts ...Option) *Client {
	c := &Client{http: http.DefaultClient, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.Peer = (*Client)(nil)

// ListRepositories asks the peer for its repositories of repositoryType.
func (c *Client) ListRepositories(ctx context.Context, target domain.PeerTarget, repositoryType domain.RepositoryType) ([]domain.Repository, error) {
	var resp api.ListResponse[domain.Repository]
	err := c.call(ctx, target, "Repository", "list", api.RepositoryListRequest{RepositoryType: repositoryType}, &resp)
	return resp.Results, err
}

// Get fetches one resource from the peer's repositoryID.
func (c *Client) Get(ctx context.Context, target domain.PeerTarget, kind domain.Kind, repositoryID, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.call(ctx, target, string(kind), "get", api.NewGetRequest(kind, id, repositoryID), &raw)
	return raw, err
}

// List runs q against the peer's repositoryID.
func (c *Client) List(ctx context.Context, target domain.PeerTarget, kind domain.Kind, repositoryID string, q domain.Query) ([]json.RawMessage, int, error) {
	var resp api.ListResponse[json.RawMessage]
	err := c.call(ctx, target, string(kind), "list", api.ListRequest{Query: q, RepositoryID: repositoryID}, &resp)
	return resp.Results, resp.TotalCount, err
}

// GetVersions asks the peer for the image versions of pluginID.
func (c *Client) GetVersions(ctx context.Context, target domain.PeerTarget, repositoryID, pluginID string) ([]string, error) {
	var resp api.VersionsResponse
	err := c.call(ctx, target, string(domain.KindPlugin), "get_versions", api.VersionsRequest{PluginID: pluginID, RepositoryID: repositoryID}, &resp)
	return resp.Results, err
}

// call posts req to {endpoint}/v1/{kind}.{method} and decodes the reply
// into out. Error replies are rebuilt from their code; anything that never
// produced one is an UpstreamError.
func (c *Client) call(ctx context.Context, target domain.PeerTarget, kind, method string, req, out any) error {
	name := kind + "." + method
	ctx, span := tracer.Start(ctx, "peer "+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrRPCMethod, name),
			attribute.String(tracing.AttrPeer, target.Endpoint),
		))
	defer span.End()

	if err := c.do(ctx, target, kind, method, req, out); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, target domain.PeerTarget, kind, method string, req, out any) error {
	name := kind + "." + method
	upstream := func(err error) error {
		return &domain.UpstreamError{Endpoint: target.Endpoint, Method: name, Err: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := strings.TrimRight(target.Endpoint, "/") + api.Path(kind, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return upstream(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if target.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+target.Token)
	}
	tracing.Inject(ctx, httpReq.Header)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return upstream(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return upstream(fmt.Errorf("read response: %w", err))
	}
	log.Debug(log.CatRemote, "peer call", "endpoint", target.Endpoint, "method", name,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		var errResp api.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Code != "" {
			return domain.ErrorFromCode(errResp.Code, errResp.Error)
		}
		return upstream(fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return upstream(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
