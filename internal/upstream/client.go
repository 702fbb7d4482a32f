// Package upstream forwards requests to the hosted search engine. The
// analytics core treats this as an external collaborator: it consumes
// the payload, timing, and result count and knows nothing else about the
// call.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonesrussell/search-analytics/internal/logger"
)

// maxResponseBytes caps upstream payloads read into memory.
const maxResponseBytes = 4 << 20

// ErrUpstreamStatus is returned when the search engine answers with a
// non-2xx status.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// Result is a completed upstream call.
type Result struct {
	Payload     []byte
	ResultCount int
	Duration    time.Duration
}

// Client calls the hosted search engine over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates an upstream client. Every request is bounded by the
// given timeout.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Fetch forwards the endpoint and parameters to the search engine and
// returns the raw payload with timing and a best-effort result count.
func (c *Client) Fetch(ctx context.Context, endpoint string, params map[string]string) (*Result, error) {
	values := url.Values{}
	for name, value := range params {
		values.Set(name, value)
	}

	target := c.baseURL + "/" + endpoint
	if encoded := values.Encode(); encoded != "" {
		target += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	duration := time.Since(start)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.log.Warn("Upstream search call failed",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.Duration("duration", duration),
		)
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	return &Result{
		Payload:     payload,
		ResultCount: CountResults(payload),
		Duration:    duration,
	}, nil
}

// CountResults extracts a result count from the known upstream payload
// shapes; 0 when none apply.
func CountResults(payload []byte) int {
	var envelope struct {
		Results  []json.RawMessage `json:"results"`
		Response struct {
			ResultPacket struct {
				ResultsSummary struct {
					TotalMatching int `json:"totalMatching"`
				} `json:"resultsSummary"`
			} `json:"resultPacket"`
		} `json:"response"`
	}

	if err := json.Unmarshal(payload, &envelope); err != nil {
		return 0
	}
	if total := envelope.Response.ResultPacket.ResultsSummary.TotalMatching; total > 0 {
		return total
	}
	return len(envelope.Results)
}
