// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gateway is the single path through which the portal talks to the
membership backend.

Every outbound call is built here: the base URL, the JSON encoding, the bearer
credential and the request ID header. Views and handlers never construct
headers or touch tokens themselves.

Lifecycle of one call:

  - Unsent: the request is encoded once into a pending request.
  - Sent: dispatched with the current access token, if any.
  - AuthFailed: a 401 for a call that carried a token triggers one refresh.
  - RetrySent: the pending request is replayed once with the new token.
  - SessionExpired: the refresh failed; the call is not replayed.

Only a 401 is recovered locally. Any other status or transport failure is
classified through [apperr] and returned to the caller.
*/
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/ctxutil"
	"github.com/taibuivan/memberportal/internal/session"
)

// maxResponseBody caps how much of a backend response is buffered.
const maxResponseBody = 4 << 20

// # Contracts

// Credentials supplies the bearer token for a call and renews it on demand.
//
// [*session.Manager] satisfies this interface. A nil Credentials sends every
// call unauthenticated.
type Credentials interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Request describes one backend call.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// Path is relative to the backend base URL (e.g. "api/cart/view/").
	Path string

	// Query is appended to the URL when non-empty.
	Query url.Values

	// Body is JSON-encoded when non-nil.
	Body any

	// Header carries extra headers. Authorization is always overwritten.
	Header http.Header
}

// Response is a fully buffered backend response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into target.
func (response *Response) Decode(target any) error {
	if len(bytes.TrimSpace(response.Body)) == 0 {
		return fmt.Errorf("gateway_decode_failed: empty body")
	}
	if err := json.Unmarshal(response.Body, target); err != nil {
		return fmt.Errorf("gateway_decode_failed: %w", err)
	}
	return nil
}

// pendingRequest is a request captured in a replayable form.
type pendingRequest struct {
	method string
	url    string
	path   string
	body   []byte
	header http.Header
}

// # Gateway

// Gateway sends requests to the backend on behalf of a session.
//
// A Gateway holds no session state and is safe for concurrent use.
type Gateway struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a [Gateway].
type Option func(*Gateway)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(gateway *Gateway) {
		if client != nil {
			gateway.client = client
		}
	}
}

// WithTimeout sets the per-attempt transport timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(gateway *Gateway) {
		if timeout > 0 {
			client := *gateway.client
			client.Timeout = timeout
			gateway.client = &client
		}
	}
}

// WithRateLimit throttles outbound calls. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(gateway *Gateway) {
		if rps <= 0 {
			gateway.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		gateway.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(gateway *Gateway) {
		if logger != nil {
			gateway.logger = logger
		}
	}
}

/*
New creates a Gateway for the backend at baseURL.

Parameters:
  - baseURL: string (e.g. "http://127.0.0.1:5000/")
  - options: ...Option

Returns:
  - *Gateway: The configured gateway
  - error: If baseURL is not an absolute URL
*/
func New(baseURL string, options ...Option) (*Gateway, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("gateway: invalid backend URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("gateway: backend URL must be absolute: %q", baseURL)
	}

	gateway := &Gateway{
		base:   base,
		client: &http.Client{},
		logger: slog.Default(),
	}

	for _, option := range options {
		option(gateway)
	}

	return gateway, nil
}

// # Dispatch

/*
Send performs one backend call with at most one refresh-and-replay.

Description: The access token from creds is attached as a bearer credential.
When a call that carried a token is answered with 401, creds.Refresh is
invoked once. On success the captured request is replayed once with the new
token and whatever the replay yields is returned. On failure the call is not
replayed: [session.ErrSessionExpired] becomes SESSION_EXPIRED, any other
refresh error (e.g. a storage failure) becomes INTERNAL_ERROR.

Returns:
  - *Response: The final backend response, also for non-2xx statuses
  - error: nil for 2xx; otherwise an [apperr.AppError] classified from the status,
    NETWORK_ERROR when no response exists, or SESSION_EXPIRED
*/
func (gateway *Gateway) Send(ctx context.Context, creds Credentials, request Request) (*Response, error) {

	// ── 1. Capture ────────────────────────────────────────────────────────
	pending, err := gateway.capture(request)
	if err != nil {
		return nil, err
	}

	token := ""
	if creds != nil {
		token, err = creds.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("gateway_token_lookup_failed: %w", err)
		}
	}

	// ── 2. First Attempt ──────────────────────────────────────────────────
	response, err := gateway.dispatch(ctx, pending, token, 1)
	if err != nil {
		return nil, err
	}

	// ── 3. Refresh Once On 401 ────────────────────────────────────────────
	if response.StatusCode == http.StatusUnauthorized && token != "" {
		renewed, err := creds.Refresh(ctx)
		if errors.Is(err, session.ErrSessionExpired) {
			gateway.logger.WarnContext(ctx, "gateway_session_expired",
				slog.String("request_id", ctxutil.GetRequestID(ctx)),
				slog.String("method", pending.method),
				slog.String("path", pending.path),
			)
			return nil, apperr.SessionExpired(err)
		}
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("gateway_refresh_failed: %w", err))
		}

		// ── 4. Replay Once ────────────────────────────────────────────────
		response, err = gateway.dispatch(ctx, pending, renewed, 2)
		if err != nil {
			return nil, err
		}
	}

	// ── 5. Classify ───────────────────────────────────────────────────────
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return response, apperr.FromResponse(response.StatusCode, response.Body)
	}

	return response, nil
}

// capture resolves the URL and encodes the body once so the call can be replayed.
func (gateway *Gateway) capture(request Request) (*pendingRequest, error) {
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := gateway.base.Parse(request.Path)
	if err != nil {
		return nil, fmt.Errorf("gateway: invalid path %q: %w", request.Path, err)
	}
	if len(request.Query) > 0 {
		target.RawQuery = request.Query.Encode()
	}

	header := request.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set(constants.HeaderAccept, constants.MIMEApplicationJSON)

	var body []byte
	if request.Body != nil {
		body, err = json.Marshal(request.Body)
		if err != nil {
			return nil, fmt.Errorf("gateway_encode_failed: %w", err)
		}
		header.Set(constants.HeaderContentType, constants.MIMEApplicationJSON)
	}

	return &pendingRequest{
		method: method,
		url:    target.String(),
		path:   target.Path,
		body:   body,
		header: header,
	}, nil
}

// dispatch sends the pending request once with the given token.
func (gateway *Gateway) dispatch(ctx context.Context, pending *pendingRequest, token string, attempt int) (*Response, error) {
	if gateway.limiter != nil {
		if err := gateway.limiter.Wait(ctx); err != nil {
			return nil, apperr.Network(fmt.Errorf("gateway_rate_limit_wait: %w", err))
		}
	}

	var body io.Reader
	if pending.body != nil {
		body = bytes.NewReader(pending.body)
	}

	outbound, err := http.NewRequestWithContext(ctx, pending.method, pending.url, body)
	if err != nil {
		return nil, fmt.Errorf("gateway_request_failed: %w", err)
	}

	outbound.Header = pending.header.Clone()
	if token != "" {
		outbound.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}
	if requestID := ctxutil.GetRequestID(ctx); requestID != "" {
		outbound.Header.Set(constants.HeaderXRequestID, requestID)
	}

	startTime := time.Now()
	inbound, err := gateway.client.Do(outbound)
	if err != nil {
		gateway.logger.WarnContext(ctx, "gateway_request_failed",
			slog.String("request_id", ctxutil.GetRequestID(ctx)),
			slog.String("method", pending.method),
			slog.String("path", pending.path),
			slog.Int("attempt", attempt),
			slog.Any("headers", RedactHeaders(outbound.Header)),
			slog.String("error", err.Error()),
		)
		return nil, apperr.Network(err)
	}
	defer inbound.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(inbound.Body, maxResponseBody))
	if err != nil {
		return nil, apperr.Network(err)
	}

	logLevel := slog.LevelInfo
	if inbound.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if inbound.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}

	gateway.logger.Log(ctx, logLevel, "gateway_request_finished",
		slog.String("request_id", ctxutil.GetRequestID(ctx)),
		slog.String("method", pending.method),
		slog.String("path", pending.path),
		slog.Int("attempt", attempt),
		slog.Int("status", inbound.StatusCode),
		slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
		slog.Any("headers", RedactHeaders(outbound.Header)),
	)

	return &Response{
		StatusCode: inbound.StatusCode,
		Header:     inbound.Header.Clone(),
		Body:       payload,
	}, nil
}
