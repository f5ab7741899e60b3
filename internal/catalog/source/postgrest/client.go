// Package postgrest reads catalog pages from a Supabase PostgREST endpoint.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cdfinder/internal/catalog"
)

// row mirrors the remote table columns.
type row struct {
	ID    any    `json:"id"`
	Model string `json:"model"`
	DAC   string `json:"dac"`
	Laser string `json:"laser"`
}

// Client queries one table through the PostgREST API.
type Client struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a client. An empty URL or key yields an unconfigured client
// rather than an error so the reader can report it uniformly.
func New(baseURL, apiKey, table string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		table:      strings.TrimSpace(table),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name implements source.Store.
func (c *Client) Name() string { return "postgrest" }

// Configured implements source.Store.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != "" && c.table != ""
}

// FetchPage implements source.Store.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) ([]catalog.Record, error) {
	endpoint, err := url.Parse(c.baseURL + "/rest/v1/" + url.PathEscape(c.table))
	if err != nil {
		return nil, fmt.Errorf("parse postgrest url: %w", err)
	}
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "model.asc")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("postgrest returned %d (latency=%v): %s", resp.StatusCode, latency, snippet(body))
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var rows []row
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode postgrest response: %w", err)
	}

	records := make([]catalog.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, catalog.Record{
			Label:  r.Model,
			DAC:    strings.TrimSpace(r.DAC),
			Laser:  strings.TrimSpace(r.Laser),
			Origin: catalog.OriginAuthoritative,
			ID:     formatID(r.ID),
		})
	}
	return records, nil
}

func formatID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}
