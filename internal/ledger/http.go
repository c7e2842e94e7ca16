package ledger

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

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Config holds HTTP ledger client configuration.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// DefaultConfig returns a default ledger client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8081",
		Timeout: 10 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("ledger base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid ledger base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ledger base URL must be http or https, got %q", u.Scheme)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("ledger timeout must not be negative")
	}
	return nil
}

var _ Ledger = (*HTTPClient)(nil)

// HTTPClient credits accounts through the ledger's REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type creditRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

// NewHTTPClient creates a ledger client with an instrumented transport.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &HTTPClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// Credit posts a credit for accountID. Any non-2xx response is a failure.
func (c *HTTPClient) Credit(ctx context.Context, accountID string, amount int64) error {
	reference, hasReference := ReferenceFromContext(ctx)

	body, err := json.Marshal(creditRequest{Amount: amount, Reference: reference})
	if err != nil {
		return fmt.Errorf("%w: failed to encode request: %w", ErrCreditFailed, err)
	}

	endpoint := fmt.Sprintf("%s/v1/accounts/%s/credits", c.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %w", ErrCreditFailed, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if hasReference {
		req.Header.Set("Idempotency-Key", reference)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreditFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: account %s: status %d: %s",
			ErrCreditFailed, accountID, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Debug().
		Str("account_id", accountID).
		Int64("amount", amount).
		Int("status", resp.StatusCode).
		Msg("Credited account")

	return nil
}
