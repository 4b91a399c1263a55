package objstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPClient is a Store backed by the storage gateway's REST API. The
// gateway fronts the actual object-storage service and exposes signing
// and listing; the engine never holds storage credentials itself.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for a storage gateway base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SignURL implements Store. A gateway 404 maps to ErrObjectNotFound; every
// other non-2xx status is terminal.
func (c *HTTPClient) SignURL(ctx context.Context, bucket, path string, opts SignOptions) (string, error) {
	q := url.Values{}
	q.Set("bucket", bucket)
	q.Set("path", path)
	if opts.TTL > 0 {
		q.Set("ttlSeconds", strconv.Itoa(int(opts.TTL.Seconds())))
	}
	if opts.DownloadName != "" {
		q.Set("downloadName", opts.DownloadName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/sign?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s/%s: %w", bucket, path, ErrObjectNotFound)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage gateway returned %d", resp.StatusCode)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}
	return out.URL, nil
}

// List implements Store.
func (c *HTTPClient) List(ctx context.Context, bucket, dir string, limit int) ([]ObjectInfo, error) {
	q := url.Values{}
	q.Set("bucket", bucket)
	q.Set("dir", dir)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/list?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage gateway returned %d", resp.StatusCode)
	}

	var out struct {
		Entries []struct {
			Name    string    `json:"name"`
			Updated time.Time `json:"updated"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}

	entries := make([]ObjectInfo, 0, len(out.Entries))
	for _, e := range out.Entries {
		entries = append(entries, ObjectInfo{Name: e.Name, Updated: e.Updated})
	}
	return entries, nil
}
