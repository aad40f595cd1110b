// Package client is a Go client for the keepstack REST API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/keepstack/keepstack/internal/model"
)

// Client talks to a keepstack service.
type Client struct {
	http *resty.Client
}

// Option customizes the client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(h).SetBaseURL(c.http.BaseURL) }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	c := &Client{http: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is the service's standard error body.
type apiError struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// toError maps an error response back onto the storage error taxonomy so
// callers can use errors.Is the same way they would in-process.
func toError(resp *resty.Response) error {
	var ae apiError
	msg := resp.Status()
	if err, ok := resp.Error().(*apiError); ok && err != nil && err.Message != "" {
		ae = *err
		msg = ae.Message
	}

	switch resp.StatusCode() {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", model.ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", model.ErrValidation, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", model.ErrConflict, msg)
	case http.StatusInsufficientStorage:
		return fmt.Errorf("%w: %s", model.ErrQuotaExceeded, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", model.ErrBackendUnavailable, msg)
	default:
		return fmt.Errorf("keepstack: %s", msg)
	}
}

func (c *Client) req(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&apiError{})
}

// CaptureResult is the response to a capture request.
type CaptureResult struct {
	Item   model.ContentItem `json:"item"`
	Result model.SaveResult  `json:"result"`
}

// CaptureItem submits a raw captured payload and returns the created item.
func (c *Client) CaptureItem(ctx context.Context, p model.CapturePayload) (*CaptureResult, error) {
	var out CaptureResult
	resp, err := c.req(ctx).SetBody(p).SetResult(&out).Post("/v0/items")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, toError(resp)
	}
	return &out, nil
}

// GetItem fetches one item by id.
func (c *Client) GetItem(ctx context.Context, id string) (*model.ContentItem, error) {
	var out model.ContentItem
	resp, err := c.req(ctx).SetResult(&out).Get("/v0/items/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return &out, nil
}

// ListItems lists items with sorting and pagination.
func (c *Client) ListItems(ctx context.Context, opts model.ListOptions) ([]model.ContentItem, error) {
	var out struct {
		Items []model.ContentItem `json:"items"`
	}
	req := c.req(ctx).SetResult(&out)
	if opts.SortBy != "" {
		req.SetQueryParam("sortBy", opts.SortBy)
	}
	if opts.SortOrder != "" {
		req.SetQueryParam("sortOrder", opts.SortOrder)
	}
	if opts.Offset > 0 {
		req.SetQueryParam("offset", fmt.Sprint(opts.Offset))
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", fmt.Sprint(opts.Limit))
	}

	resp, err := req.Get("/v0/items")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return out.Items, nil
}

// EnrichItem applies AI-produced fields to an existing item.
func (c *Client) EnrichItem(ctx context.Context, id string, p model.EnrichPayload) (*model.ContentItem, error) {
	var out model.ContentItem
	resp, err := c.req(ctx).SetBody(p).SetResult(&out).Patch("/v0/items/" + id)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return &out, nil
}

// DeleteItem removes an item everywhere.
func (c *Client) DeleteItem(ctx context.Context, id string) (model.SaveResult, error) {
	var out struct {
		Result model.SaveResult `json:"result"`
	}
	resp, err := c.req(ctx).SetResult(&out).Delete("/v0/items/" + id)
	if err != nil {
		return model.SaveResult{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return model.SaveResult{}, toError(resp)
	}
	return out.Result, nil
}

// Search runs a relevance-ranked query.
func (c *Client) Search(ctx context.Context, req model.SearchRequest) (model.SearchResult, error) {
	var out model.SearchResult
	resp, err := c.req(ctx).SetBody(req).SetResult(&out).Post("/v0/search")
	if err != nil {
		return model.SearchResult{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return model.SearchResult{}, toError(resp)
	}
	return out, nil
}

// Suggest returns completion candidates for a partial query.
func (c *Client) Suggest(ctx context.Context, partial string, limit int) ([]model.Suggestion, error) {
	var out struct {
		Suggestions []model.Suggestion `json:"suggestions"`
	}
	req := c.req(ctx).SetResult(&out).SetQueryParam("q", partial)
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprint(limit))
	}
	resp, err := req.Get("/v0/search/suggestions")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return out.Suggestions, nil
}

// SearchHistory returns recorded queries, most recent first.
func (c *Client) SearchHistory(ctx context.Context) ([]model.SearchHistoryEntry, error) {
	var out struct {
		History []model.SearchHistoryEntry `json:"history"`
	}
	resp, err := c.req(ctx).SetResult(&out).Get("/v0/search/history")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return out.History, nil
}

// ClearSearchHistory drops all recorded queries.
func (c *Client) ClearSearchHistory(ctx context.Context) error {
	resp, err := c.req(ctx).Delete("/v0/search/history")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return toError(resp)
	}
	return nil
}

// SearchAnalytics returns aggregated history statistics.
func (c *Client) SearchAnalytics(ctx context.Context) (model.SearchAnalytics, error) {
	var out model.SearchAnalytics
	resp, err := c.req(ctx).SetResult(&out).Get("/v0/search/analytics")
	if err != nil {
		return model.SearchAnalytics{}, err
	}
	if resp.StatusCode() != http.StatusOK {
		return model.SearchAnalytics{}, toError(resp)
	}
	return out, nil
}

// GetSettings returns the raw settings document.
func (c *Client) GetSettings(ctx context.Context) ([]byte, error) {
	resp, err := c.req(ctx).Get("/v0/settings")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return resp.Body(), nil
}

// PutSettings replaces the settings document.
func (c *Client) PutSettings(ctx context.Context, raw []byte) error {
	resp, err := c.req(ctx).SetBody(raw).Put("/v0/settings")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return toError(resp)
	}
	return nil
}

// BackupRef identifies a created backup.
type BackupRef struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// CreateBackup snapshots the storage areas.
func (c *Client) CreateBackup(ctx context.Context, includeContent bool) (*BackupRef, error) {
	var out BackupRef
	resp, err := c.req(ctx).
		SetBody(map[string]bool{"includeContent": includeContent}).
		SetResult(&out).
		Post("/v0/backups")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, toError(resp)
	}
	return &out, nil
}

// ListBackups lists stored backups, newest first.
func (c *Client) ListBackups(ctx context.Context) ([]model.BackupInfo, error) {
	var out struct {
		Backups []model.BackupInfo `json:"backups"`
	}
	resp, err := c.req(ctx).SetResult(&out).Get("/v0/backups")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return out.Backups, nil
}

// RestoreBackup destructively replaces live state from a stored backup.
func (c *Client) RestoreBackup(ctx context.Context, id string) error {
	resp, err := c.req(ctx).Post("/v0/backups/" + id + "/restore")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return toError(resp)
	}
	return nil
}

// DeleteBackup removes a stored backup.
func (c *Client) DeleteBackup(ctx context.Context, id string) error {
	resp, err := c.req(ctx).Delete("/v0/backups/" + id)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return toError(resp)
	}
	return nil
}

// Quota returns usage for the capacity-limited areas.
func (c *Client) Quota(ctx context.Context) ([]model.QuotaUsage, error) {
	var out struct {
		Areas []model.QuotaUsage `json:"areas"`
	}
	resp, err := c.req(ctx).SetResult(&out).Get("/v0/quota")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, toError(resp)
	}
	return out.Areas, nil
}

// Healthy reports whether the service says it is healthy.
func (c *Client) Healthy(ctx context.Context) (bool, error) {
	var out struct {
		Status string `json:"status"`
	}
	resp, err := c.req(ctx).SetResult(&out).Get("/v0/health")
	if err != nil {
		return false, err
	}
	if resp.StatusCode() != http.StatusOK {
		return false, toError(resp)
	}
	return out.Status == "healthy", nil
}
