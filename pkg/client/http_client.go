package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
)

// HTTPConfig configures the dashboard REST client.
type HTTPConfig struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Validator  *dashboard.PayloadValidator
	// CatalogTTL caches the catalog across calls; zero disables caching.
	CatalogTTL time.Duration
	Clock      func() time.Time
}

// HTTPClient consumes the dashboard backend: catalog, saved config and save.
// Responses are validated before they are handed to the layout core.
type HTTPClient struct {
	baseURL   string
	token     string
	client    *http.Client
	validator *dashboard.PayloadValidator
	catalog   *CatalogCache
	clock     func() time.Time
}

// NewHTTPClient builds a client for the backend at cfg.BaseURL.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	validator := cfg.Validator
	if validator == nil {
		validator = dashboard.NewPayloadValidator()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	catalog := NewCatalogCache(cfg.CatalogTTL)
	catalog.now = clock
	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		client:    httpClient,
		validator: validator,
		catalog:   catalog,
		clock:     clock,
	}, nil
}

// FetchCatalog returns the widget type catalog. Concurrent callers share one
// request and, when a TTL is configured, later callers reuse the result.
func (c *HTTPClient) FetchCatalog(ctx context.Context) ([]dashboard.WidgetTypeMeta, error) {
	return c.catalog.GetOrFetch(ctx, func(ctx context.Context) ([]dashboard.WidgetTypeMeta, error) {
		raw, err := c.do(ctx, http.MethodGet, "/api/widgets/types", nil)
		if err != nil {
			return nil, err
		}
		if err := c.validator.ValidateJSON(dashboard.SchemaWidgetTypes, raw); err != nil {
			return nil, err
		}
		var types []dashboard.WidgetTypeMeta
		if err := json.Unmarshal(raw, &types); err != nil {
			return nil, fmt.Errorf("client: decode catalog: %w", err)
		}
		return types, nil
	})
}

// InvalidateCatalog drops the cached catalog, e.g. after a catalog.changed event.
func (c *HTTPClient) InvalidateCatalog() {
	c.catalog.Invalidate()
}

// FetchSavedConfig returns the stored dashboard, or nil when none was saved.
func (c *HTTPClient) FetchSavedConfig(ctx context.Context) (*dashboard.SavedConfig, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/dashboard/config", nil)
	if err != nil {
		return nil, err
	}
	if err := c.validator.ValidateJSON(dashboard.SchemaConfigEnvelope, raw); err != nil {
		return nil, err
	}
	var env dashboard.ConfigEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("client: decode config: %w", err)
	}
	return env.Config, nil
}

// SaveConfig overwrites the stored dashboard. A failed save leaves nothing to
// roll back; callers keep their working state and may retry.
func (c *HTTPClient) SaveConfig(ctx context.Context, name string, cfg dashboard.SavedConfig) error {
	req := dashboard.SaveConfigRequest{Name: name, Config: cfg}
	if err := c.validator.ValidateValue(dashboard.SchemaSaveRequest, req); err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("client: encode payload: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/dashboard/config", body)
	return err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s %s: remote error %d: %s", e.Method, e.Path, e.Status, e.Body)
}
