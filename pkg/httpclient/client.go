package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	apperrors "github.com/utafrali/salesonboard/pkg/errors"
	"github.com/utafrali/salesonboard/pkg/logger"
)

const (
	// DefaultBaseURL is the onboarding backend used by every build of the app.
	DefaultBaseURL = "http://98.92.75.163:3000/api/v1"

	// DefaultTimeout bounds every request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// CorrelationHeader carries the per-request correlation id.
	CorrelationHeader = "X-Correlation-ID"

	// DefaultMaxBody caps how much of a response body is read.
	DefaultMaxBody = 32 << 20

	tracerName = "github.com/utafrali/salesonboard/pkg/httpclient"
)

// Config holds HTTP gateway configuration.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxConnsPerHost int
	UserAgent       string

	// RateLimit paces outgoing requests (requests per second). 0 disables pacing.
	RateLimit float64
	RateBurst int

	// MaxBody is the largest response body accepted, in bytes. Larger
	// bodies fail with PARSE_ERROR instead of being truncated.
	MaxBody int64
}

// DefaultConfig returns the gateway defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		Timeout:         DefaultTimeout,
		MaxConnsPerHost: 16,
		UserAgent:       "salesonboard/1.0",
		MaxBody:         DefaultMaxBody,
	}
}

// TokenSource supplies the bearer token for authenticated requests. An empty
// token means the request is sent without an Authorization header.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where authenticated requests read their token from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransportMiddleware wraps the client's round tripper.
func WithTransportMiddleware(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = wrap(c.httpClient.Transport) }
}

// WithCircuitBreaker routes every request through a circuit breaker.
func WithCircuitBreaker(cfg CircuitBreakerConfig) Option {
	return func(c *Client) { c.breaker = newBreaker(cfg, c) }
}

// Request describes one gateway call.
type Request struct {
	Method   string
	Endpoint string

	// Body is JSON-encoded when non-nil. RawBody is sent as-is and takes
	// precedence; ContentType must then describe it.
	Body        any
	RawBody     io.Reader
	ContentType string
	Header      http.Header

	RequiresAuth bool

	// Operation names the call in metrics and spans. Defaults to Method.
	Operation string
}

func (r Request) operation() string {
	if r.Operation != "" {
		return r.Operation
	}
	return r.Method
}

// Client is the single chokepoint for backend calls. It injects the bearer
// token, bounds each call with a timeout and normalizes every failure into an
// *errors.AppError.
type Client struct {
	baseURL    string
	timeout    time.Duration
	maxBody    int64
	userAgent  string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	tracer     trace.Tracer
}

// New creates a gateway client with a pooled transport.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 16
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		maxBody:    cfg.MaxBody,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Transport: transport},
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base every endpoint is appended to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes req and returns the raw JSON payload or the normalized error.
// It never returns both, and never neither.
func (c *Client) Do(ctx context.Context, req Request) Result[json.RawMessage] {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	correlationID := logger.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
		ctx = logger.WithCorrelationID(ctx, correlationID)
	}
	log := logger.WithContext(ctx, c.logger).With(
		slog.String("method", req.Method),
		slog.String("endpoint", req.Endpoint),
	)

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+req.operation(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", c.baseURL+req.Endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	data, appErr := c.do(ctx, req, correlationID, span)
	outcome := "ok"
	if appErr != nil {
		outcome = appErr.Code
		span.SetStatus(codes.Error, appErr.Message)
		span.SetAttributes(attribute.String("app.error_code", appErr.Code))
	}
	observeRequest(req.operation(), req.Method, outcome, time.Since(start))

	if appErr != nil {
		// Rejections the caller can act on stay at debug; transport and
		// server failures are raised a level.
		level := slog.LevelInfo
		if IsClientError(appErr.Status) {
			level = slog.LevelDebug
		}
		log.Log(ctx, level, "api request failed",
			slog.String("code", appErr.Code),
			slog.Int("status", appErr.Status),
			slog.String("error", appErr.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return Fail[json.RawMessage](appErr)
	}
	log.Debug("api request completed", slog.Duration("duration", time.Since(start)))
	return OK(&data)
}

func (c *Client) do(ctx context.Context, req Request, correlationID string, span trace.Span) (json.RawMessage, *apperrors.AppError) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, apperrors.Timeout(err)
		}
	}

	body := req.RawBody
	if body == nil && req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperrors.Unknown(fmt.Errorf("encode request body: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Endpoint, body)
	if err != nil {
		return nil, apperrors.Unknown(err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set(CorrelationHeader, correlationID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if req.RequiresAuth {
		if token := c.token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.send(httpReq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	text, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if int64(len(text)) > c.maxBody {
		return nil, &apperrors.AppError{
			Code:    apperrors.CodeParse,
			Message: fmt.Sprintf("Response body exceeds %d bytes", c.maxBody),
			Status:  resp.StatusCode,
		}
	}
	return normalize(resp, text)
}

// Ping reports whether the backend is reachable. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		logger.WithContext(ctx, c.logger).Warn("read auth token", slog.String("error", err.Error()))
		return ""
	}
	return token
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if errors.Is(err, errServerStatus) {
		return resp, nil
	}
	return resp, err
}

// classify maps a transport failure onto the three fixed buckets.
func classify(ctx context.Context, err error) *apperrors.AppError {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Timeout(err)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.Network(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.Network(err)
	}
	return apperrors.Unknown(err)
}
