package vultrdns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIBase is the base URL of the Vultr v2 API.
const APIBase = "https://api.vultr.com/v2"

const defaultAPITimeout = 30 * time.Second

// Client is a typed wrapper over the Vultr v2 DNS API.
//
// The zero value is not usable; construct with NewClient. A Client owns its
// HTTP connection pool for its lifetime and is not safe for use by multiple
// runs at once; release it with Close when done.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type ClientOption func(*Client)

// WithBaseURL overrides the API base URL. Intended for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout overrides the per-request timeout (default 30s).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpclient *http.Client) ClientOption {
	return func(c *Client) {
		if httpclient == nil {
			httpclient = &http.Client{Timeout: defaultAPITimeout}
		}
		c.httpClient = httpclient
	}
}

// WithLogger replaces the client's logger. The default discards everything.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}

// NewClient returns a Client authenticated with the given API key.
func NewClient(apiKey string, options ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    APIBase,
		httpClient: &http.Client{Timeout: defaultAPITimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Close releases the connection pool held by the client. The Client must not
// be used after Close returns.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// do issues one API request. A non-nil body is sent as JSON; a non-nil out
// receives the decoded response. Status >= 400 becomes an *APIError; a 2xx
// body that fails to decode wraps ErrBadResponse. A 204 or empty body is a
// successful empty payload.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("vultr api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("httpStatusCode", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: extractAPIMessage(responseBody)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(responseBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("%w: %s", ErrBadResponse, err)
	}
	return nil
}

// extractAPIMessage pulls the message out of the API's {"error": ...}
// envelope, falling back to the raw body.
func extractAPIMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(body))
}

// ListDomains lists all DNS domains in the account.
func (c *Client) ListDomains(ctx context.Context) ([]DNSDomain, error) {
	var out domainsResponse
	if err := c.do(ctx, http.MethodGet, "/domains", nil, &out); err != nil {
		return nil, err
	}
	return out.Domains, nil
}

// ListRecords lists all DNS records for a domain.
func (c *Client) ListRecords(ctx context.Context, domain string) ([]DNSRecord, error) {
	var out recordsResponse
	if err := c.do(ctx, http.MethodGet, "/domains/"+url.PathEscape(domain)+"/records", nil, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// GetRecordByName returns the first record in domain whose name and type
// both match exactly, or nil when no record matches. Absence is not an
// error. An empty recordType means "A". Zones are small, so this is a linear
// scan over the full record list.
func (c *Client) GetRecordByName(ctx context.Context, domain, name, recordType string) (*DNSRecord, error) {
	if recordType == "" {
		recordType = "A"
	}
	records, err := c.ListRecords(ctx, domain)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Name == name && records[i].Type == recordType {
			return &records[i], nil
		}
	}
	return nil, nil
}

// CreateRecord creates a new DNS record in domain and returns it as parsed
// from the provider response.
func (c *Client) CreateRecord(ctx context.Context, domain string, params CreateRecordParams) (*DNSRecord, error) {
	if params.Type == "" {
		params.Type = "A"
	}
	if params.TTL == 0 {
		params.TTL = 300
	}
	var out recordResponse
	if err := c.do(ctx, http.MethodPost, "/domains/"+url.PathEscape(domain)+"/records", params, &out); err != nil {
		return nil, err
	}
	if out.Record == nil {
		return nil, fmt.Errorf("%w: create response missing record", ErrBadResponse)
	}
	return out.Record, nil
}

// UpdateRecord applies a partial update to an existing record. The caller's
// in-memory copy of the record is stale once this returns.
func (c *Client) UpdateRecord(ctx context.Context, domain, recordID string, params UpdateRecordParams) error {
	path := "/domains/" + url.PathEscape(domain) + "/records/" + url.PathEscape(recordID)
	return c.do(ctx, http.MethodPatch, path, params, nil)
}

// DeleteRecord deletes a DNS record.
func (c *Client) DeleteRecord(ctx context.Context, domain, recordID string) error {
	path := "/domains/" + url.PathEscape(domain) + "/records/" + url.PathEscape(recordID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// EnsureRecordParams describes the desired state for EnsureRecord. A zero
// Type defaults to "A" and a zero TTL to 300.
type EnsureRecordParams struct {
	Name  string
	Type  string
	Data  string
	TTL   int
	Force bool // issue the update even when data and ttl already match
}

// EnsureRecord makes sure a record with the given name and type exists in
// domain and carries the desired data and TTL, creating or updating as
// needed. It reports whether a mutation was issued. On update the returned
// record is synthesized locally from the requested values and may lag
// provider-side reality.
func (c *Client) EnsureRecord(ctx context.Context, domain string, params EnsureRecordParams) (*DNSRecord, bool, error) {
	if params.Type == "" {
		params.Type = "A"
	}
	if params.TTL == 0 {
		params.TTL = 300
	}

	existing, err := c.GetRecordByName(ctx, domain, params.Name, params.Type)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		record, err := c.CreateRecord(ctx, domain, CreateRecordParams{
			Name: params.Name,
			Type: params.Type,
			Data: params.Data,
			TTL:  params.TTL,
		})
		if err != nil {
			return nil, false, err
		}
		return record, true, nil
	}

	if existing.Data == params.Data && existing.TTL == params.TTL && !params.Force {
		return existing, false, nil
	}

	data, ttl := params.Data, params.TTL
	if err := c.UpdateRecord(ctx, domain, existing.ID, UpdateRecordParams{Data: &data, TTL: &ttl}); err != nil {
		return nil, false, err
	}
	updated := *existing
	updated.Data = data
	updated.TTL = ttl
	return &updated, true, nil
}
