package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"oof-moments/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second
)

// HTTPOracle implements Oracle against a REST price API.
type HTTPOracle struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

// OracleOption configures HTTPOracle.
type OracleOption func(*HTTPOracle)

// WithAPIKey sets the API key sent with each request.
func WithAPIKey(key string) OracleOption {
	return func(o *HTTPOracle) {
		o.apiKey = key
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) OracleOption {
	return func(o *HTTPOracle) {
		o.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) OracleOption {
	return func(o *HTTPOracle) {
		o.maxRetries = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) OracleOption {
	return func(o *HTTPOracle) {
		o.client = client
	}
}

// NewHTTPOracle creates a new REST-backed oracle.
func NewHTTPOracle(baseURL string, opts ...OracleOption) *HTTPOracle {
	o := &HTTPOracle{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Compile-time interface check.
var _ Oracle = (*HTTPOracle)(nil)

type priceResponse struct {
	Price float64 `json:"price"`
}

type metadataResponse struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// CurrentPrice returns the token's current spot price in USD, 0 if the API
// does not know the token.
func (o *HTTPOracle) CurrentPrice(ctx context.Context, chain domain.Chain, tokenAddress string) (float64, error) {
	var resp priceResponse
	found, err := o.get(ctx, fmt.Sprintf("/v1/price/%s/%s", chain, url.PathEscape(tokenAddress)), &resp)
	if err != nil || !found {
		return 0, err
	}
	return resp.Price, nil
}

// PeakPrice returns the token's historical peak price in USD, 0 if unknown.
func (o *HTTPOracle) PeakPrice(ctx context.Context, chain domain.Chain, tokenAddress string) (float64, error) {
	var resp priceResponse
	found, err := o.get(ctx, fmt.Sprintf("/v1/peak/%s/%s", chain, url.PathEscape(tokenAddress)), &resp)
	if err != nil || !found {
		return 0, err
	}
	return resp.Price, nil
}

// TokenMetadata returns the token's symbol and name, empty if unknown.
func (o *HTTPOracle) TokenMetadata(ctx context.Context, chain domain.Chain, tokenAddress string) (TokenMetadata, error) {
	var resp metadataResponse
	found, err := o.get(ctx, fmt.Sprintf("/v1/token/%s/%s", chain, url.PathEscape(tokenAddress)), &resp)
	if err != nil || !found {
		return TokenMetadata{}, err
	}
	return TokenMetadata{Symbol: resp.Symbol, Name: resp.Name}, nil
}

// get performs a GET with retries and exponential backoff. Returns
// (false, nil) on 404 so callers degrade to zero values.
func (o *HTTPOracle) get(ctx context.Context, path string, result any) (bool, error) {
	var lastErr error
	delay := o.retryDelay

	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > o.maxDelay {
				delay = o.maxDelay
			}
		}

		found, err := o.doGet(ctx, path, result)
		if err == nil {
			return found, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
	}
	return false, fmt.Errorf("price api request failed after %d attempts: %w", o.maxRetries+1, lastErr)
}

func (o *HTTPOracle) doGet(ctx context.Context, path string, result any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if o.apiKey != "" {
		req.Header.Set("X-API-Key", o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
