// Package youtube is a small client for the parts of the YouTube Data API v3
// needed to find and delete comments on a channel's own videos.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pders01/ytsweep/internal/config"
	"github.com/pders01/ytsweep/internal/debuglog"
	"github.com/pders01/ytsweep/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// maxBodySize caps how much of a response is read into memory.
	maxBodySize = 8 << 20
)

// CredentialSource supplies the bearer token for each call.
type CredentialSource interface {
	AccessToken() (string, bool)
}

// QuotaRecorder accumulates quota units and returns the new total.
type QuotaRecorder interface {
	AddQuota(units int) int64
}

// Options configures a Client. Zero values fall back to the defaults noted
// on each field.
type Options struct {
	BaseURL     string       // DefaultBaseURL
	HTTPClient  *http.Client // 30s timeout
	Credentials CredentialSource
	Quota       QuotaRecorder // discarded when nil
	MaxAttempts int           // 3
	// RetryDelay is the fixed pause between attempts. Zero retries immediately.
	RetryDelay        time.Duration
	RequestsPerSecond float64 // unlimited when <= 0
	PageSize          int     // 50
	UserAgent         string
}

// OptionsFromConfig maps the [api] section onto Options.
func OptionsFromConfig(cfg config.APIConfig) Options {
	return Options{
		BaseURL:           cfg.BaseURL,
		HTTPClient:        &http.Client{Timeout: cfg.HTTPTimeout},
		MaxAttempts:       cfg.MaxAttempts,
		RetryDelay:        cfg.RetryDelay,
		RequestsPerSecond: cfg.RequestsPerSecond,
		PageSize:          cfg.PageSize,
		UserAgent:         cfg.UserAgent,
	}
}

// Client issues authenticated Data API calls. It retries server and network
// failures a fixed number of times, charges quota for every response it
// receives and paces requests through a token bucket. Safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	creds       CredentialSource
	quota       QuotaRecorder
	limiter     *rate.Limiter
	maxAttempts int
	retryDelay  time.Duration
	pageSize    int
	userAgent   string

	log     *debuglog.FieldLogger
	tracer  trace.Tracer
	calls   metric.Int64Counter
	retries metric.Int64Counter
	units   metric.Int64Counter
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.Quota == nil {
		opts.Quota = discardQuota{}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	meter := telemetry.Meter("github.com/pders01/ytsweep/youtube")
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		http:        opts.HTTPClient,
		creds:       opts.Credentials,
		quota:       opts.Quota,
		limiter:     rate.NewLimiter(limit, 1),
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		pageSize:    opts.PageSize,
		userAgent:   opts.UserAgent,
		log:         debuglog.WithFields(map[string]any{"component": "youtube"}),
		tracer:      telemetry.Tracer("github.com/pders01/ytsweep/youtube"),
		calls:       telemetry.Counter(meter, "ytsweep.api.calls", "Data API requests sent", "{request}"),
		retries:     telemetry.Counter(meter, "ytsweep.api.retries", "Data API requests retried", "{request}"),
		units:       telemetry.Counter(meter, "ytsweep.api.quota", "Quota units charged", "{unit}"),
	}
}

type discardQuota struct{}

func (discardQuota) AddQuota(int) int64 { return 0 }

// Call performs one logical request and returns the raw JSON body. A 204
// response yields "{}".
//
// Server (5xx) and network failures are retried up to MaxAttempts in total
// with RetryDelay between attempts. A 403 carrying a quota reason fails at
// once with ErrQuotaExceeded; other non-2xx statuses fail at once with
// ErrClient. Quota is charged for every attempt that receives a response.
func (c *Client) Call(ctx context.Context, endpoint Endpoint, method string, params url.Values) (json.RawMessage, error) {
	token, ok := "", false
	if c.creds != nil {
		token, ok = c.creds.AccessToken()
	}
	if !ok || token == "" {
		return nil, &APIError{Kind: KindUnauthenticated, Endpoint: endpoint, Method: method}
	}

	ctx, span := c.tracer.Start(ctx, "youtube."+string(endpoint),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("youtube.endpoint", string(endpoint)),
		))
	defer span.End()

	reqURL := c.baseURL + "/" + string(endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var (
		result  json.RawMessage
		attempt int
	)
	op := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		body, err := c.attempt(ctx, endpoint, method, reqURL, token)
		if err == nil {
			result = body
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.Attempts = attempt
			if apiErr.retryable() && ctx.Err() == nil {
				return err
			}
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		c.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("youtube.endpoint", string(endpoint))))
		c.log.Warnf("%s %s attempt %d/%d failed, retrying in %s: %v", method, endpoint, attempt, c.maxAttempts, wait, err)
	}

	err := backoff.RetryNotify(op, policy, notify)
	span.SetAttributes(attribute.Int("youtube.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Errorf("%s %s failed after %d attempt(s): %v", method, endpoint, attempt, err)
		return nil, err
	}
	return result, nil
}

func (c *Client) attempt(ctx context.Context, endpoint Endpoint, method, reqURL, token string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.log.Debugf("%s %s", method, redact(reqURL))
	c.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("youtube.endpoint", string(endpoint))))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Endpoint: endpoint, Method: method, Err: err}
	}
	defer resp.Body.Close()

	// Charged before the status is looked at: failed calls still cost quota.
	cost := Cost(endpoint, method)
	total := c.quota.AddQuota(cost)
	c.units.Add(ctx, int64(cost), metric.WithAttributes(attribute.String("youtube.endpoint", string(endpoint))))
	c.log.Debugf("%s %s -> %d (quota +%d = %d)", method, endpoint, resp.StatusCode, cost, total)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Endpoint: endpoint, Method: method, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
			return json.RawMessage("{}"), nil
		}
		return json.RawMessage(body), nil
	}

	reason, message := parseErrorBody(body)
	apiErr := &APIError{
		Endpoint: endpoint,
		Method:   method,
		Status:   resp.StatusCode,
		Reason:   reason,
		Message:  message,
	}
	switch {
	case resp.StatusCode == http.StatusForbidden && isQuotaReason(reason):
		apiErr.Kind = KindQuotaExceeded
	case resp.StatusCode >= 500:
		apiErr.Kind = KindServer
	default:
		apiErr.Kind = KindClient
	}
	return nil, apiErr
}

// get decodes a GET response into out.
func (c *Client) get(ctx context.Context, endpoint Endpoint, params url.Values, out any) error {
	raw, err := c.Call(ctx, endpoint, http.MethodGet, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// redact drops query values that should not reach a log file.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
