package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Options configures the HTTP client.
type Options struct {
	// BaseURL prefixes every request path.
	BaseURL string

	// Tokens supplies the bearer token and locale headers. Nil means
	// anonymous requests with the default locale.
	Tokens TokenSource

	// HTTPClient overrides the underlying client. Nil uses a client with
	// Timeout as its request timeout.
	HTTPClient *http.Client

	// Timeout bounds each individual attempt. Zero defaults to 15s.
	Timeout time.Duration

	// MaxRetries bounds retry attempts beyond the first. Zero means no retry.
	MaxRetries uint64

	// RetryBaseDelay is the initial backoff delay. Zero defaults to 250ms.
	RetryBaseDelay time.Duration

	// Logger receives retry and failure events. Nil disables logging.
	Logger *zap.Logger
}

// Client is the HTTP implementation of Doer.
type Client struct {
	base       string
	http       *http.Client
	tokens     TokenSource
	maxRetries uint64
	baseDelay  time.Duration
	logger     *zap.Logger
}

// New creates an HTTP transport client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	delay := opts.RetryBaseDelay
	if delay == 0 {
		delay = 250 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		http:       hc,
		tokens:     opts.Tokens,
		maxRetries: opts.MaxRetries,
		baseDelay:  delay,
		logger:     logger,
	}
}

// Do executes the request with bounded exponential retry. Transient failures
// (network errors, 5xx) are retried up to MaxRetries; 4xx responses are
// authoritative and returned immediately. The response body of the final
// attempt is returned raw; decoding belongs to the endpoint's transform.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	var body []byte

	attempt := 0
	op := func() error {
		attempt++
		data, err := c.once(ctx, req)
		if err != nil {
			var terr *Error
			if errors.As(err, &terr) && !terr.Retryable() {
				return backoff.Permanent(err)
			}
			c.logger.Debug("transport attempt failed",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		body = data
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.baseDelay

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return body, nil
}

// once performs a single attempt.
func (c *Client) once(ctx context.Context, req Request) ([]byte, error) {
	target := c.base + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var payload io.Reader
	contentType := ""
	if req.Body != nil {
		if req.FormEncoded {
			form, ok := req.Body.(url.Values)
			if !ok {
				return nil, &Error{cause: errNotForm}
			}
			payload = strings.NewReader(form.Encode())
			contentType = "application/x-www-form-urlencoded"
		} else {
			encoded, err := json.Marshal(req.Body)
			if err != nil {
				return nil, &Error{cause: err}
			}
			payload = bytes.NewReader(encoded)
			contentType = "application/json"
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, payload)
	if err != nil {
		return nil, &Error{cause: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
		if locale := c.tokens.Locale(); locale != "" {
			httpReq.Header.Set("Accept-Language", locale)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Status: resp.StatusCode, Body: data}
	}
	return data, nil
}

var errNotForm = &formBodyError{}

type formBodyError struct{}

func (*formBodyError) Error() string {
	return "form-encoded request body must be url.Values"
}
