package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://smart-summary-backend.onrender.com"
	defaultTimeout = 60 * time.Second
)

// StatusError is returned when the service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP error! status: %d: %s", e.StatusCode, e.Body)
}

// Health is the body of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type requestIDKey struct{}

// WithRequestID attaches an id that is sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Client talks to the summary service.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds requests whose context carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "client").Logger()
	return c
}

// BaseURL returns the service root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

var (
	transport     *http.Transport
	transportOnce sync.Once
)

// httpClient shares one transport between requests. When ctx has a
// deadline it bounds the request instead of the default timeout.
func (c *Client) httpClient(ctx context.Context) *http.Client {
	transportOnce.Do(func() {
		transport = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			MaxIdleConns:      100,
			IdleConnTimeout:   90 * time.Second,
			ForceAttemptHTTP2: true,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		}
	})

	if deadline, ok := ctx.Deadline(); ok {
		return &http.Client{Transport: transport, Timeout: time.Until(deadline)}
	}
	return &http.Client{Transport: transport, Timeout: c.timeout}
}

// Summarize posts req and returns the streamed response body. The caller
// must close it. A non-2xx answer yields a *StatusError.
func (c *Client) Summarize(ctx context.Context, req SummaryRequest) (io.ReadCloser, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summarize", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")
	if id := requestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}

	c.logger.Debug().Str("url", httpReq.URL.String()).Int("max_length", req.MaxLength).Msg("requesting summary")

	resp, err := c.httpClient(ctx).Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, errors.New("no response body")
	}
	return resp.Body, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient(ctx).Do(httpReq)
	if err != nil {
		return Health{}, fmt.Errorf("request failed: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return Health{}, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("failed to close response body")
		}
	}()

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return Health{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return health, nil
}

// checkStatus closes the body and returns a *StatusError for non-2xx responses.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
