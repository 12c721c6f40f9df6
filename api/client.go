// Package api is the HTTP client for the library backend. Every call is
// classified into success, unauthorized, forbidden or failed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
	tracerName     = "library-admin/api"
)

// Recorder receives one observation per request. metrics.Collector
// implements it.
type Recorder interface {
	RecordRequest(method, route, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, string, time.Duration) {}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  rate.Limit // requests per second; zero disables throttling
	RateBurst  int
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    Recorder
}

// Client talks to one backend. The zero bearer means anonymous.
type Client struct {
	baseURL    string
	bearer     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    Recorder
	tracer     trace.Tracer
}

// New builds a Client from opts.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	// Copy so the timeout never leaks into a caller-owned client.
	bounded := *hc
	bounded.Timeout = timeout

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.RateLimit, burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var rec Recorder = nopRecorder{}
	if opts.Metrics != nil {
		rec = opts.Metrics
	}

	return &Client{
		baseURL:    base,
		httpClient: &bounded,
		limiter:    limiter,
		logger:     logger,
		metrics:    rec,
		tracer:     otel.Tracer(tracerName),
	}
}

// As returns a copy of c that authenticates with token.
func (c *Client) As(token string) *Client {
	cp := *c
	cp.bearer = strings.TrimSpace(token)
	return &cp
}

// request is one backend call.
type request struct {
	method string
	route  string // low-cardinality label, e.g. /api/books/{id}
	path   string
	query  url.Values
	body   any // encoded as JSON when non-nil

	raw         io.Reader // pre-encoded body, e.g. multipart
	contentType string

	public bool // login and signup never carry the bearer
}

func (c *Client) do(ctx context.Context, r request, out any) (err error) {
	start := time.Now()
	reqID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, r.method+" "+r.route, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", r.method),
		attribute.String("http.route", r.route),
		attribute.String("library_admin.request_id", reqID),
	)

	status := 0
	defer func() {
		outcome := Classify(err)
		c.metrics.RecordRequest(r.method, r.route, outcome.String(), time.Since(start))
		if status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		if err != nil {
			span.SetStatus(codes.Error, outcome.String())
		}
		span.End()
		c.logger.Debug("api request",
			slog.String("request_id", reqID),
			slog.String("method", r.method),
			slog.String("path", r.path),
			slog.Int("status", status),
			slog.String("outcome", outcome.String()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}()

	fail := func(status int, cause error) *Error {
		return &Error{Outcome: OutcomeFailed, Status: status, Method: r.method, Path: r.path, Err: cause}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fail(0, fmt.Errorf("rate limit: %w", err))
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	body := r.raw
	contentType := r.contentType
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fail(0, fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fail(0, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !r.public && c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(status, fmt.Errorf("read response: %w", err))
	}

	if outcome := outcomeForStatus(status); outcome != OutcomeSuccess {
		return &Error{
			Outcome: outcome,
			Status:  status,
			Method:  r.method,
			Path:    r.path,
			Message: backendMessage(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(status, fmt.Errorf("parse response: %w", err))
	}
	return nil
}

// backendMessage pulls {"message": "..."} or {"error": "..."} out of an
// error body, falling back to short plain text.
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
