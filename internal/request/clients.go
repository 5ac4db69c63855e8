package request

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

const DefaultTimeout = 10 * time.Second

// Config is shared by the pre-configured client instances.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	SuccessCode int
	Transport   http.RoundTripper
}

// NewCookieJar returns the credential store shared by the clients.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar failed: %w", err)
	}
	return jar, nil
}

func (cfg Config) timeout() time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return DefaultTimeout
}

// NewBaseClient builds the client for cross-cutting auth calls. It does not
// attach a bearer token and leaves response bodies untouched.
func NewBaseClient(cfg Config, jar http.CookieJar) *Client {
	return New(Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.timeout(),
		Jar:       jar,
		Transport: cfg.Transport,
	})
}

// NewRequestClient builds the client for authenticated API calls. It attaches
// the bearer token and unwraps the response envelope.
func NewRequestClient(cfg Config, jar http.CookieJar, tokenProvider func() string) *Client {
	return New(Options{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.timeout(),
		TokenProvider:  tokenProvider,
		Jar:            jar,
		UnwrapEnvelope: true,
		SuccessCode:    cfg.SuccessCode,
		Transport:      cfg.Transport,
	})
}

// NewBareClient builds a client without a base URL, for absolute endpoints.
func NewBareClient(cfg Config, jar http.CookieJar) *Client {
	return New(Options{
		Timeout:   cfg.timeout(),
		Jar:       jar,
		Transport: cfg.Transport,
	})
}
