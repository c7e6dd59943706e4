package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HeaderIdempotencyKey lets receivers drop redelivered payloads.
const HeaderIdempotencyKey = "Idempotency-Key"

// Client posts JSON payloads to a single webhook endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// DeliverOption configures a single delivery.
type DeliverOption func(*deliverOptions)

type deliverOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey sets the Idempotency-Key header for the request.
func WithIdempotencyKey(key string) DeliverOption {
	return func(opts *deliverOptions) {
		opts.idempotencyKey = strings.TrimSpace(key)
	}
}

// NewClient instantiates the webhook client. A nil httpClient gets a traced
// client with a 5 second timeout.
func NewClient(url string, httpClient *http.Client) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("webhook URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{url: url, httpClient: httpClient}, nil
}

// Deliver posts payload as JSON. Any non-2xx answer is an error.
func (c *Client) Deliver(ctx context.Context, payload any, optFns ...DeliverOption) error {
	if c == nil || c.httpClient == nil {
		return errors.New("webhook client not configured")
	}
	var opts deliverOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.idempotencyKey != "" {
		req.Header.Set(HeaderIdempotencyKey, opts.idempotencyKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if msg := strings.TrimSpace(string(snippet)); msg != "" {
		return fmt.Errorf("webhook returned %s: %s", resp.Status, msg)
	}
	return fmt.Errorf("webhook returned %s", resp.Status)
}
