// Package client posts submissions to the analysis backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"complexity-analyzer-go/logcolors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultEndpoint is the local development backend.
	DefaultEndpoint = "http://localhost:3000/api/analyze"

	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 1 << 20
)

// ErrTransport is wrapped by every failure to reach the backend or get a
// successful status from it.
var ErrTransport = errors.New("analysis request failed")

// Request is the body posted to the backend.
type Request struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// TransportError is returned for non-2xx responses.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return ErrTransport
}

// Client talks to one analysis endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New returns a Client for endpoint. A zero timeout uses 60 seconds.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Analyze posts req once and returns the raw response body. The body is not
// interpreted here.
func (c *Client) Analyze(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrTransport, err)
	}
	requestID := uuid.New().String()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	log.Debugf("%s POST %s (request %s, %d bytes)", logcolors.LogClient, c.endpoint, requestID, len(payload))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return string(body), nil
}
