package certify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/lane"
)

// HTTPCertifier calls the privileged certification function over HTTP.
type HTTPCertifier struct {
	baseURL string
	http    *http.Client
}

// NewHTTPCertifier creates a client for the certification function URL.
func NewHTTPCertifier(baseURL string) *HTTPCertifier {
	return &HTTPCertifier{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Certify implements Certifier. The function returns {ok,...} even for
// certification failures; non-2xx statuses are transport errors.
func (c *HTTPCertifier) Certify(ctx context.Context, req Request) (*Response, error) {
	isTest := req.Lane == lane.Test
	body, _ := json.Marshal(map[string]any{
		"recordId": req.RecordID,
		"isTest":   isTest,
		"force":    req.Force,
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/certify-record", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("certification function: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("certification function returned %d", resp.StatusCode)
	}

	var out struct {
		OK         bool   `json:"ok"`
		DocumentID string `json:"verifiedArtifactId"`
		Reused     bool   `json:"reused"`
		Error      string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode certification response: %w", err)
	}
	return &Response{OK: out.OK, DocumentID: out.DocumentID, Reused: out.Reused, Error: out.Error}, nil
}
