package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
)

const maxResponseBytes = 8 << 20

// getJSON issues a GET and decodes a 200 response into out. It returns the
// response headers so callers can follow pagination links.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, out any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return nil, fmt.Errorf("GET %s: decode: %w", url, err)
	}
	return resp.Header, nil
}

var nextLinkPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

// nextLink returns the rel="next" target of an RFC 8288 Link header, or "".
func nextLink(header http.Header) string {
	for _, link := range header.Values("Link") {
		if m := nextLinkPattern.FindStringSubmatch(link); m != nil {
			return m[1]
		}
	}
	return ""
}
