// Package freshdesk is a rate-limited client for the Freshdesk REST v2 API.
//
// Every call goes through Call, which applies the local budget for its
// BudgetClass, retries 429 responses after the advertised Retry-After, and
// returns non-2xx responses to the caller rather than failing, so each
// operation can build its own error.
package freshdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vip-relay/internal/common/clock"
	apperrors "vip-relay/internal/common/errors"
	httpclient "vip-relay/internal/common/http"
	"vip-relay/internal/common/logger"
	"vip-relay/internal/common/metrics"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 5
	DefaultRetryAfter  = 5 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 4 << 20
)

var tracer = otel.Tracer("vip-relay/freshdesk")

type Config struct {
	// Domain is the account host, e.g. "acme.freshdesk.com".
	Domain string

	// BaseURL overrides https://<Domain>/api/v2.
	BaseURL string

	// APIKey is sent as the basic auth username with "X" as the password.
	APIKey string

	Timeout time.Duration

	// MaxAttempts bounds the attempts per call when the API answers 429.
	MaxAttempts int

	// FallbackRetryAfter is used when a 429 carries no usable Retry-After.
	FallbackRetryAfter time.Duration

	// Budgets maps a class to its local budget. Classes without an entry are
	// unbounded.
	Budgets map[BudgetClass]Budget

	// HTTPClient defaults to a basic-auth client built from APIKey and Timeout.
	HTTPClient httpclient.Doer

	Clock  clock.Clock
	Logger logger.Logger
}

type Client struct {
	baseURL     string
	http        httpclient.Doer
	budgets     map[BudgetClass]Budget
	maxAttempts int
	retryAfter  time.Duration
	clock       clock.Clock
	logger      logger.Logger
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		domain := strings.TrimPrefix(strings.TrimPrefix(cfg.Domain, "https://"), "http://")
		domain = strings.TrimRight(domain, "/")
		if domain == "" {
			return nil, fmt.Errorf("freshdesk: domain or base URL is required")
		}
		baseURL = "https://" + domain + "/api/v2"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.FallbackRetryAfter <= 0 {
		cfg.FallbackRetryAfter = DefaultRetryAfter
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoOpLogger()
	}

	doer := cfg.HTTPClient
	if doer == nil {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("freshdesk: API key is required")
		}
		doer = httpclient.NewClient(cfg.Timeout, httpclient.WithBasicAuth(cfg.APIKey, "X"))
	}

	budgets := make(map[BudgetClass]Budget, len(cfg.Budgets))
	for class, b := range cfg.Budgets {
		budgets[class] = b
	}

	return &Client{
		baseURL:     baseURL,
		http:        doer,
		budgets:     budgets,
		maxAttempts: cfg.MaxAttempts,
		retryAfter:  cfg.FallbackRetryAfter,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Response is a completed HTTP exchange. Body holds the decoded JSON value when
// the response declared JSON and parsed; Raw always holds the bytes read.
type Response struct {
	Status int
	Header http.Header
	Body   interface{}
	Raw    []byte
	JSON   bool
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the raw body into v. It fails for non-JSON responses.
func (r *Response) Decode(v interface{}) error {
	if !r.JSON {
		return fmt.Errorf("freshdesk: response is not JSON")
	}
	return json.Unmarshal(r.Raw, v)
}

// Text returns the raw body for diagnostics.
func (r *Response) Text() string {
	return truncate(string(r.Raw), 2048)
}

// Call sends one API request. Non-2xx responses other than 429 are returned
// as a Response. Errors are TRANSPORT_ERROR for network and cancellation
// failures and RATE_LIMIT_EXCEEDED once 429 retries are exhausted.
func (c *Client) Call(ctx context.Context, method, path string, body interface{}, class BudgetClass) (*Response, error) {
	ctx, span := tracer.Start(ctx, "freshdesk.Call", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("freshdesk.path", path),
		attribute.String("freshdesk.budget_class", string(class)),
	))
	defer span.End()

	resp, err := c.call(ctx, method, path, body, class)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	return resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, class BudgetClass) (*Response, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("encoding %s %s body: %w", method, path, err))
		}
		payload = encoded
	}

	budget := c.budgetFor(class)

	for attempt := 1; ; attempt++ {
		started := c.clock.Now()
		if err := budget.Acquire(ctx); err != nil {
			if _, ok := apperrors.AsStandard(err); ok {
				return nil, err
			}
			return nil, apperrors.NewTransportError(method, path, err)
		}
		if waited := c.clock.Now().Sub(started); waited > 0 {
			metrics.BudgetWaitSeconds.WithLabelValues(string(class)).Observe(waited.Seconds())
			c.logger.Debug("Waited for rate budget", map[string]interface{}{
				"budgetClass": string(class),
				"waited":      waited.String(),
			})
		}

		resp, err := c.send(ctx, method, path, payload)
		if err != nil {
			metrics.APIRequestsTotal.WithLabelValues(method, string(class), "error").Inc()
			return nil, apperrors.NewTransportError(method, path, err)
		}
		metrics.APIRequestsTotal.WithLabelValues(method, string(class), strconv.Itoa(resp.Status)).Inc()

		if resp.Status != http.StatusTooManyRequests {
			return resp, nil
		}

		metrics.APIRateLimitedTotal.WithLabelValues(string(class)).Inc()
		if attempt >= c.maxAttempts {
			c.logger.Warn("Rate limit retries exhausted", map[string]interface{}{
				"method":   method,
				"path":     path,
				"attempts": attempt,
			})
			return nil, apperrors.NewRateLimitExceededError(method, path, attempt)
		}

		wait := c.parseRetryAfter(resp.Header)
		c.logger.Info("Rate limited, backing off", map[string]interface{}{
			"method":   method,
			"path":     path,
			"attempt":  attempt,
			"duration": wait.String(),
		})

		select {
		case <-c.clock.After(wait):
		case <-ctx.Done():
			return nil, apperrors.NewTransportError(method, path, ctx.Err())
		}
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Raw:    raw,
	}
	if isJSONContent(httpResp.Header.Get("Content-Type")) && len(bytes.TrimSpace(raw)) > 0 {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			resp.Body = decoded
			resp.JSON = true
		}
	}
	return resp, nil
}

func (c *Client) budgetFor(class BudgetClass) Budget {
	if b, ok := c.budgets[class]; ok && b != nil {
		return b
	}
	return unlimited{}
}

// parseRetryAfter reads Retry-After as delta seconds or an HTTP date.
func (c *Client) parseRetryAfter(header http.Header) time.Duration {
	value := strings.TrimSpace(header.Get("Retry-After"))
	if value == "" {
		return c.retryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return c.retryAfter
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(c.clock.Now()); d > 0 {
			return d
		}
		return 0
	}
	return c.retryAfter
}

func isJSONContent(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
