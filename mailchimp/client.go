// Package mailchimp is a thin wrapper over the Mailchimp Marketing API,
// covering the operations the notification flow needs: audiences,
// templates, static segments, and campaign create-and-send.
package mailchimp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var ErrInvalidAPIKey = errors.New("invalid Mailchimp API key")

// Client talks to one Mailchimp account. The datacenter server is
// extracted from the API key suffix, e.g. "xxxx-us21".
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) (*Client, error) {
	dash := strings.LastIndex(apiKey, "-")
	if dash < 0 || dash == len(apiKey)-1 {
		return nil, ErrInvalidAPIKey
	}
	server := apiKey[dash+1:]
	return &Client{
		apiKey:     apiKey,
		baseURL:    fmt.Sprintf("https://%s.api.mailchimp.com/3.0", server),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// APIError is a non-2xx response from Mailchimp.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("mailchimp: %s (status %d): %s", e.Title, e.Status, e.Detail)
	}
	return fmt.Sprintf("mailchimp: %s (status %d)", e.Title, e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("mailchimp: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("mailchimp: failed to build request: %w", err)
	}
	req.SetBasicAuth("anystring", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailchimp: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Title: resp.Status}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("mailchimp: failed to decode response: %w", err)
		}
	}
	return nil
}

// Ping verifies that the API key works.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

// Provider hands out a verified client for the current API key. The
// client is cached until the key changes or Invalidate is called, so the
// verifying ping does not run on every send.
type Provider struct {
	mu     sync.Mutex
	client *Client
}

func (p *Provider) Get(ctx context.Context, apiKey string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil && p.client.apiKey == apiKey {
		return p.client, nil
	}
	client, err := NewClient(apiKey)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		return nil, err
	}
	p.client = client
	return client, nil
}

// Invalidate drops the cached client.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.client = nil
	p.mu.Unlock()
}
