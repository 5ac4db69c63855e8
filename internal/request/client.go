package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	pkgerrors "playground/pkg/errors"
	"playground/pkg/utils/logger"

	"go.uber.org/zap"
)

// Response carries response details.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Text returns the body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	TokenProvider func() string
	Jar           http.CookieJar
	// UnwrapEnvelope makes Decode strip the {code, data, message} envelope.
	UnwrapEnvelope bool
	SuccessCode    int
	// ValidateStatus reports whether a status is a success. Defaults to 2xx.
	ValidateStatus func(status int) bool
	Transport      http.RoundTripper
}

// Client wraps outbound HTTP requests. It is safe for concurrent use.
type Client struct {
	mu      sync.RWMutex
	baseURL string
	timeout time.Duration

	tokenProvider  func() string
	jar            http.CookieJar
	unwrap         bool
	successCode    int
	validateStatus func(status int) bool
	transport      http.RoundTripper
}

func New(opts Options) *Client {
	validate := opts.ValidateStatus
	if validate == nil {
		validate = defaultValidateStatus
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		timeout:        opts.Timeout,
		tokenProvider:  opts.TokenProvider,
		jar:            opts.Jar,
		unwrap:         opts.UnwrapEnvelope,
		successCode:    opts.SuccessCode,
		validateStatus: validate,
		transport:      transport,
	}
}

func defaultValidateStatus(status int) bool {
	return status >= 200 && status < 300
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	c.mu.Lock()
	c.timeout = timeout
	c.mu.Unlock()
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST request. A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

// Do sends one request. When the server answers with a status rejected by the
// validator, both the response and the error are returned.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	c.mu.RLock()
	baseURL, timeout := c.baseURL, c.timeout
	c.mu.RUnlock()

	target, err := resolveURL(baseURL, path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "invalid request url %q", path)
	}

	reader, hasBody, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "build request failed")
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range ro.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	if c.tokenProvider != nil {
		if token := c.tokenProvider(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	// Credentialed requests run with the jar attached so cookies set on
	// redirect hops are kept and resent. Other requests never send cookies and
	// only store those of the final response.
	client := &http.Client{Transport: c.transport, Timeout: timeout}
	jarAttached := ro.withCredentials && c.jar != nil
	if jarAttached {
		client.Jar = c.jar
	}
	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Warn(ctx, "http request failed",
			zap.String("method", method),
			zap.String("url", target.String()),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return nil, classifyTransportError(err, method, target)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.jar != nil && !jarAttached {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			c.jar.SetCookies(resp.Request.URL, cookies)
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.RequestFailed, "read response body failed")
	}
	info := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       bodyBytes,
		Duration:   time.Since(start),
	}
	logger.Debug(ctx, "http request completed",
		zap.String("method", method),
		zap.String("url", target.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", info.Duration),
	)

	if !c.validateStatus(resp.StatusCode) {
		return info, statusError(method, target, info)
	}
	return info, nil
}

// Decode parses the response body into out, unwrapping the envelope when the
// client is configured to.
func (c *Client) Decode(resp *Response, out interface{}) error {
	if resp == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return pkgerrors.New(pkgerrors.ResponseDecodeFailed).WithMessage("empty response body")
	}
	payload := resp.Body
	if c.unwrap {
		env, ok := parseEnvelope(resp.Body)
		if ok {
			if env.Code != c.successCode {
				return envelopeError(env)
			}
			payload = env.Data
			if len(payload) == 0 {
				payload = []byte("null")
			}
		}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.ResponseDecodeFailed, "decode response body failed")
	}
	return nil
}

func resolveURL(baseURL, path string) (*url.URL, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return url.Parse(path)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("relative path without base url")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return url.Parse(baseURL + path)
}

func encodeBody(body interface{}) (io.Reader, bool, error) {
	switch v := body.(type) {
	case nil:
		return nil, false, nil
	case []byte:
		if len(v) == 0 {
			return nil, false, nil
		}
		return bytes.NewReader(v), true, nil
	case json.RawMessage:
		if len(v) == 0 {
			return nil, false, nil
		}
		return bytes.NewReader(v), true, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, false, pkgerrors.Wrapf(err, pkgerrors.InvalidParams, "marshal request body failed")
		}
		return bytes.NewReader(data), true, nil
	}
}

func classifyTransportError(err error, method string, target *url.URL) error {
	code := pkgerrors.RequestFailed
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		code = pkgerrors.Timeout
	}
	return pkgerrors.Wrapf(err, code, "%s %s failed", method, target.Path).
		WithDetail("url", target.String())
}

func statusError(method string, target *url.URL, resp *Response) error {
	msg := fmt.Sprintf("%s %s: HTTP %d", method, target.Path, resp.StatusCode)
	if env, ok := parseEnvelope(resp.Body); ok && env.Message != "" {
		msg = fmt.Sprintf("%s (%s)", msg, env.Message)
	}
	return pkgerrors.New(pkgerrors.FromHTTPStatus(resp.StatusCode)).
		WithMessage(msg).
		WithDetail("status", resp.StatusCode).
		WithDetail("path", target.Path)
}
