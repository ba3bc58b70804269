package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 4 << 10

type apiClient struct {
	httpClient *http.Client
	backend    string
	token      string
}

func newAPIClient(httpClient *http.Client, backend, token string, timeout time.Duration) *apiClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &apiClient{
		httpClient: httpClient,
		backend:    backend,
		token:      token,
	}
}

// do sends payload as JSON (when non-nil) and decodes a 2xx answer into out (when non-nil).
func (c *apiClient) do(ctx context.Context, operation, method, url string, payload, out any) error {
	start := time.Now()
	err := c.send(ctx, method, url, payload, out)
	ObserveRequest(c.backend, operation, start, err)
	return err
}

func (c *apiClient) send(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
