package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const productPath = "/product"

// ClientOptions parameterise the vendor API client.
type ClientOptions struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	UserAgent  string
	RatePerSec float64
}

// Client fetches product payloads from the vendor HTTP API.
type Client struct {
	opts    ClientOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient constructs a vendor API client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")

	perSec := opts.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "feed_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

// FetchProduct retrieves the full history payload for one ASIN.
func (c *Client) FetchProduct(ctx context.Context, asin string) (Product, error) {
	if c.baseURL == "" {
		return Product{}, errors.New("feed base url not configured")
	}
	if asin == "" {
		return Product{}, errors.New("asin required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Product{}, err
	}

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, productPath, url.Values{"asin": {asin}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Product{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Product{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Product{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return Product{}, parseHTTPError(resp.StatusCode, payload)
	}

	var product Product
	if err := json.Unmarshal(payload, &product); err != nil {
		return Product{}, fmt.Errorf("decode product payload: %w", err)
	}
	if product.ASIN == "" {
		product.ASIN = asin
	}

	c.logger.Debug().Str("asin", product.ASIN).
		Int("csv_columns", len(product.CSV)).
		Int("offers", len(product.Offers)).
		Msg("product payload fetched")

	return product, nil
}

type errorResponse struct {
	ErrorType   string `json:"errorType"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Description != "" {
			return fmt.Errorf("feed api error (%d): %s", status, apiErr.Description)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("feed api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.ErrorType != "" {
			return fmt.Errorf("feed api error (%d): %s", status, apiErr.ErrorType)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("feed api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("feed api error (%d)", status)
}

var _ ProductFetcher = (*Client)(nil)
