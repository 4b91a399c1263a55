package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type ledgerClient struct {
	baseURL string
	http    *http.Client
}

func newClient() (*ledgerClient, error) {
	if resolvedEntity() == "" {
		return nil, fmt.Errorf("entity scope is required (use --entity or OASIS_ENTITY_ID)")
	}
	return &ledgerClient{
		baseURL: serverURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// do performs a request with the viewer headers and decodes the response.
func (c *ledgerClient) do(method, path string, body any, v any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+"/api/v1"+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("X-Entity-ID", resolvedEntity())
	req.Header.Set("X-Lane", laneName)
	if actor != "" {
		req.Header.Set("X-User-Principal", actor)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
