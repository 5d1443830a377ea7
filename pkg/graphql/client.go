// Package graphql provides the request/response transport used to reach the
// catalog's remote GraphQL API.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for GraphQL requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_graphql_requests_total",
		Help: "Total GraphQL requests by operation and status",
	}, []string{"operation", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_graphql_request_duration_seconds",
		Help:    "GraphQL request duration in seconds by operation",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"operation"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_graphql_errors_total",
		Help: "Total GraphQL errors by class",
	}, []string{"class"})
)

// maxErrorBody bounds how much of a failed response body ends up in an error message.
const maxErrorBody = 512

// DefaultMaxResponseBytes caps the response body read per request.
const DefaultMaxResponseBytes int64 = 8 << 20

// Config holds the client configuration.
type Config struct {
	// Endpoint is the GraphQL HTTP endpoint (REQUIRED).
	Endpoint string

	// AdminSecret is sent as x-hasura-admin-secret when set.
	AdminSecret string

	// UserAgent header value.
	UserAgent string

	// Timeout per request.
	Timeout time.Duration

	// Headers are extra headers added to every request.
	Headers map[string]string

	// MaxResponseBytes caps the response body size (default: DefaultMaxResponseBytes).
	MaxResponseBytes int64
}

// DefaultConfig returns a default configuration for the given endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:  endpoint,
		UserAgent:        "catalog-client/0.1.0",
		Timeout:          30 * time.Second,
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// Client performs GraphQL requests over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new GraphQL client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://") {
		return nil, fmt.Errorf("endpoint must be an http(s) URL (got %q)", cfg.Endpoint)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     log.With().Str("component", "graphql-client").Logger(),
	}, nil
}

type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// ResponseError is one entry of a GraphQL errors payload.
type ResponseError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type responseBody struct {
	Data   json.RawMessage `json:"data"`
	Errors []ResponseError `json:"errors"`
}

// Do sends query with variables and returns the raw "data" object of the response.
// Every failure is returned as *Error.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	op := OperationName(query)
	requestID := ulid.Make().String()
	logger := c.logger.With().Str("operation", op).Str("request_id", requestID).Logger()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(op).Observe(time.Since(startTime).Seconds())
	}()

	payload, err := json.Marshal(requestBody{Query: query, Variables: variables})
	if err != nil {
		return nil, c.fail(op, "encode", ParseError("encode request", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail(op, "request_error", transportError("create request", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.AdminSecret != "" {
		req.Header.Set("x-hasura-admin-secret", c.config.AdminSecret)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	logger.Debug().Interface("variables", variables).Msg("Executing GraphQL request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		logger.Warn().Err(err).Msg("GraphQL request failed")
		return nil, c.fail(op, "network_error", transportError("send request", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseBytes+1))
	if err != nil {
		return nil, c.fail(op, "network_error", transportError("read response body", err))
	}
	if int64(len(body)) > c.config.MaxResponseBytes {
		logger.Warn().Int64("max_bytes", c.config.MaxResponseBytes).Msg("GraphQL response too large")
		return nil, c.fail(op, "too_large", ParseError(
			fmt.Sprintf("response body exceeds %d bytes", c.config.MaxResponseBytes), nil))
	}

	status := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn().Int("status", resp.StatusCode).Msg("GraphQL server returned error status")
		return nil, c.fail(op, status, serverError(resp.StatusCode, truncate(string(body))))
	}

	var decoded responseBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, c.fail(op, "parse_error", ParseError("decode response", err))
	}

	if len(decoded.Errors) > 0 {
		msgs := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			msgs = append(msgs, e.Message)
		}
		gqlErr := serverError(resp.StatusCode, strings.Join(msgs, "; "))
		logger.Warn().Str("message", gqlErr.Message).Msg("GraphQL errors payload")
		return nil, c.fail(op, "graphql_error", gqlErr)
	}

	if len(decoded.Data) == 0 || string(decoded.Data) == "null" {
		return nil, c.fail(op, "parse_error", ParseError("response has no data", nil))
	}

	requestsTotal.WithLabelValues(op, status).Inc()
	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("GraphQL request complete")

	return decoded.Data, nil
}

func (c *Client) fail(op, status string, err *Error) *Error {
	requestsTotal.WithLabelValues(op, status).Inc()
	errorsTotal.WithLabelValues(string(err.Class)).Inc()
	return err
}

// OperationName extracts the operation name of a GraphQL document,
// e.g. "GetBooks" for "query GetBooks($limit: Int) { ... }".
// Anonymous documents yield "anonymous".
func OperationName(query string) string {
	fields := strings.Fields(query)
	if len(fields) < 2 {
		return "anonymous"
	}
	switch fields[0] {
	case "query", "mutation", "subscription":
	default:
		return "anonymous"
	}
	name := fields[1]
	if i := strings.IndexAny(name, "({"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "anonymous"
	}
	return name
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
