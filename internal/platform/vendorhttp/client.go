// Package vendorhttp is the authenticated JSON client used to reach payment platform APIs.
package vendorhttp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	obsmetrics "github.com/smallbiznis/paybridge/internal/observability/metrics"
	"github.com/smallbiznis/paybridge/internal/platform/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
	userAgent      = "paybridge/1.0"
)

var tracer = otel.Tracer("paybridge/vendorhttp")

type AuthScheme int

const (
	// AuthBearer sends "Authorization: Bearer <api key>".
	AuthBearer AuthScheme = iota
	// AuthHeaderPair sends the api key and secret key in two headers.
	AuthHeaderPair
	// AuthBasic sends the api key and secret key as basic credentials.
	AuthBasic
)

type Auth struct {
	Scheme          AuthScheme
	APIKey          string
	SecretKey       string
	APIKeyHeader    string
	SecretKeyHeader string
}

type Options struct {
	Platform   string
	BaseURL    string
	SandboxURL string
	Sandbox    bool
	Auth       Auth
	Timeout    time.Duration
	Limiter    *rate.Limiter
	HTTPClient *http.Client
	Metrics    *obsmetrics.Metrics
}

// Client is bound to one platform environment for its whole lifetime.
type Client struct {
	platform string
	baseURL  string
	auth     Auth
	timeout  time.Duration
	limiter  *rate.Limiter
	http     *http.Client
	metrics  *obsmetrics.Metrics
}

func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if opts.Sandbox && strings.TrimSpace(opts.SandboxURL) != "" {
		baseURL = opts.SandboxURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	auth := opts.Auth
	if auth.APIKeyHeader == "" {
		auth.APIKeyHeader = "X-Api-Key"
	}
	if auth.SecretKeyHeader == "" {
		auth.SecretKeyHeader = "X-Secret-Key"
	}
	return &Client{
		platform: opts.Platform,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		auth:     auth,
		timeout:  timeout,
		limiter:  opts.Limiter,
		http:     httpClient,
		metrics:  opts.Metrics,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s rate limit: %w", c.platform, err)
		}
	}

	ctx, span := tracer.Start(ctx, "vendor "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("platform", c.platform),
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	status, err := c.roundTrip(callCtx, method, path, body, out)
	if err != nil && callCtx.Err() != nil && ctx.Err() == nil {
		err = &domain.TimeoutError{
			VendorHTTPError: domain.VendorHTTPError{Platform: c.platform, Method: method, Path: path},
			After:           c.timeout.String(),
			Err:             context.DeadlineExceeded,
		}
	}
	c.metrics.RecordVendorCall(ctx, c.platform, strings.ToLower(method), status, time.Since(start))

	if status > 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vendor call failed")
		return err
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &domain.VendorHTTPError{
			Platform:   c.platform,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       domain.TruncateBody(payload),
		}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return resp.StatusCode, fmt.Errorf("%s %s %s: decode response: %w", c.platform, method, path, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) authorize(req *http.Request) {
	switch c.auth.Scheme {
	case AuthHeaderPair:
		req.Header.Set(c.auth.APIKeyHeader, c.auth.APIKey)
		req.Header.Set(c.auth.SecretKeyHeader, c.auth.SecretKey)
	case AuthBasic:
		token := base64.StdEncoding.EncodeToString([]byte(c.auth.APIKey + ":" + c.auth.SecretKey))
		req.Header.Set("Authorization", "Basic "+token)
	default:
		req.Header.Set("Authorization", "Bearer "+c.auth.APIKey)
	}
}

// IsTimeout reports whether err came from a call that hit its deadline.
func IsTimeout(err error) bool {
	var te *domain.TimeoutError
	return errors.As(err, &te)
}
