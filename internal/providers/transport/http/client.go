package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/crmarques/harborsync/config"
	"github.com/crmarques/harborsync/debugctx"
	"github.com/crmarques/harborsync/faults"
	"github.com/crmarques/harborsync/metrics"
	"github.com/crmarques/harborsync/transport"
)

const (
	defaultMediaType = "application/json"
	requestIDHeader  = "X-Request-Id"
	maxResponseBytes = 8 << 20
	tracerName       = "github.com/crmarques/harborsync/internal/providers/transport/http"
)

var _ transport.Client = (*Client)(nil)

// Client talks to one Harbor API root. It is safe for concurrent use; the
// rate limiter is shared by every caller.
type Client struct {
	baseURL        *url.URL
	defaultHeaders map[string]string
	auth           authConfig
	client         *http.Client
	limiter        *rate.Limiter
	userAgent      string
	metrics        *metrics.Recorder
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator
	newRequestID   func() string
}

type Option func(*Client)

func WithMetrics(recorder *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = recorder
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// WithTracerProvider records one client span per request and propagates
// the W3C trace context to Harbor.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithHTTPClient replaces the underlying client, keeping its transport as is.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func NewClient(cfg config.Server, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := parseBaseURL(cfg.APIURL)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := buildTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}

	httpTransport := http.DefaultTransport.(*http.Transport).Clone()
	httpTransport.TLSClientConfig = tlsConfig

	c := &Client{
		baseURL:        baseURL,
		defaultHeaders: cloneStringMap(cfg.DefaultHeaders),
		auth:           buildAuthConfig(cfg.Auth),
		client: &http.Client{
			Timeout:   cfg.EffectiveTimeout(),
			Transport: httpTransport,
		},
		limiter:      newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		userAgent:    "harborsync",
		tracer:       noop.NewTracerProvider().Tracer(tracerName),
		propagator:   propagation.TraceContext{},
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// Do sends request and returns the raw outcome. The response is never
// classified here; a non-nil Err means no response was received.
func (c *Client) Do(ctx context.Context, request transport.Request) transport.Response {
	ctx, span := c.tracer.Start(ctx, "HTTP "+strings.ToUpper(strings.TrimSpace(request.Method)),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", strings.ToUpper(strings.TrimSpace(request.Method))),
			attribute.String("url.path", request.Path),
		),
	)
	defer span.End()

	response := c.do(ctx, request)
	if response.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", response.StatusCode))
	}
	switch {
	case response.Err != nil:
		span.RecordError(response.Err)
		span.SetStatus(codes.Error, response.Err.Error())
	case response.StatusCode >= http.StatusBadRequest:
		span.SetStatus(codes.Error, http.StatusText(response.StatusCode))
	}
	return response
}

func (c *Client) do(ctx context.Context, request transport.Request) transport.Response {
	httpRequest, err := c.newRequest(ctx, request)
	if err != nil {
		return transport.Response{Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return transport.Response{Err: err}
		}
	}

	requestID := httpRequest.Header.Get(requestIDHeader)
	redacted := debugctx.RedactURL(httpRequest.URL)
	debugctx.Printf(ctx, "http request method=%q url=%q request_id=%q", httpRequest.Method, redacted, requestID)

	response, err := c.client.Do(httpRequest)
	if err != nil {
		debugctx.Printf(ctx, "http request failed method=%q url=%q request_id=%q error=%v", httpRequest.Method, redacted, requestID, err)
		c.metrics.ObserveRequest(httpRequest.Method, "error")
		return transport.Response{Err: err}
	}
	defer response.Body.Close()

	c.metrics.ObserveRequest(httpRequest.Method, strconv.Itoa(response.StatusCode))
	debugctx.Printf(ctx, "http response method=%q url=%q request_id=%q status=%d", httpRequest.Method, redacted, requestID, response.StatusCode)

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return transport.Response{StatusCode: response.StatusCode, Err: err}
	}
	return transport.Response{StatusCode: response.StatusCode, Body: body}
}

func (c *Client) newRequest(ctx context.Context, request transport.Request) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(request.Method))
	if method == "" {
		return nil, validationError("request method is required", nil)
	}

	targetURL, err := c.resolveRequestURL(request.Path, request.Query)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if request.Body != nil {
		encoded, err := json.Marshal(request.Body)
		if err != nil {
			return nil, validationError("failed to encode request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		return nil, faults.NewTypedError(faults.UnknownError, "failed to create request", err)
	}

	if len(c.defaultHeaders) > 0 {
		keys := make([]string, 0, len(c.defaultHeaders))
		for key := range c.defaultHeaders {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			httpRequest.Header.Set(key, c.defaultHeaders[key])
		}
	}

	httpRequest.Header.Set("Accept", defaultMediaType)
	if bodyReader != nil {
		httpRequest.Header.Set("Content-Type", defaultMediaType)
	}
	if c.userAgent != "" {
		httpRequest.Header.Set("User-Agent", c.userAgent)
	}
	httpRequest.Header.Set(requestIDHeader, c.newRequestID())
	c.propagator.Inject(ctx, propagation.HeaderCarrier(httpRequest.Header))
	c.auth.apply(httpRequest)

	return httpRequest, nil
}

func (c *Client) resolveRequestURL(requestPath string, query url.Values) (string, error) {
	if parsed, err := url.Parse(requestPath); err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "", validationError("request path must be relative to server.api-url", err)
	}

	target := *c.baseURL
	target.Path = joinBaseAndRequestPath(c.baseURL.Path, requestPath)
	target.RawPath = ""

	values := target.Query()
	for key, entries := range query {
		for _, entry := range entries {
			values.Add(key, entry)
		}
	}
	target.RawQuery = values.Encode()

	return target.String(), nil
}

func joinBaseAndRequestPath(basePath string, requestPath string) string {
	base := strings.TrimRight(basePath, "/")
	trimmed := strings.TrimLeft(strings.TrimSpace(requestPath), "/")
	if trimmed == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	return base + "/" + trimmed
}

func parseBaseURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, validationError("server.api-url is invalid", err)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}

func newLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}

	cloned := make(map[string]string, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
