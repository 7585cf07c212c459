package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/fedrepo/internal/catalog/domain"
)

func TestDockerHub_GetTags_FollowsNextAndSortsByLastUpdated(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/repositories/cloudforet/plugin-aws/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"next": nil,
				"results": []map[string]any{
					{"name": "1.2.0", "last_updated": "2024-03-01T00:00:00Z"},
				},
			})
			return
		}
		assert.Equal(t, "1024", r.URL.Query().Get("page_size"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"next": srv.URL + r.URL.Path + "?page=2",
			"results": []map[string]any{
				{"name": "1.0.0", "last_updated": "2024-01-01T00:00:00Z"},
				{"name": "1.1.0", "last_updated": "2024-02-01T00:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	c := NewDockerHub(Settings{URL: srv.URL})
	tags, err := c.GetTags(context.Background(), "cloudforet/plugin-aws")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.0", "1.1.0", "1.0.0"}, tags)
}

func TestDockerHub_GetTags_SemverWithoutTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"name":"1.0.0"},{"name":"latest"},{"name":"1.3.0","last_updated":"2024-01-01T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	tags, err := NewDockerHub(Settings{URL: srv.URL}).GetTags(context.Background(), "library/nginx")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "latest", "1.3.0"}, tags, "latest is not a version so registry order is kept")
}

func TestDockerHub_GetTags_AllVersionsWithoutTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"name":"1.0.0"},{"name":"1.10.0"},{"name":"1.3.0"}]}`))
	}))
	defer srv.Close()

	tags, err := NewDockerHub(Settings{URL: srv.URL}).GetTags(context.Background(), "library/nginx")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.10.0", "1.3.0", "1.0.0"}, tags)
}

func TestDockerHub_GetTags_StopsOnRepeatedNext(t *testing.T) {
	var calls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		next := srv.URL + r.URL.Path + "?page=2"
		if r.URL.Query().Get("page") == "2" {
			next = srv.URL + r.URL.Path + "?page_size=1024"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"next":    next,
			"results": []map[string]any{{"name": "1.0.0", "last_updated": "2024-01-01T00:00:00Z"}},
		})
	}))
	defer srv.Close()

	tags, err := NewDockerHub(Settings{URL: srv.URL}).GetTags(context.Background(), "cloudforet/plugin-aws")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.0.0"}, tags)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDockerHub_GetTags_MissingImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewDockerHub(Settings{URL: srv.URL}).GetTags(context.Background(), "nobody/nothing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoImageInRegistry)

	var noImg *domain.NoImageInRegistryError
	require.ErrorAs(t, err, &noImg)
	assert.Equal(t, domain.RegistryDockerHub, noImg.RegistryType)
	assert.Equal(t, "nobody/nothing", noImg.Image)
	assert.Contains(t, err.Error(), "status 404")
}
