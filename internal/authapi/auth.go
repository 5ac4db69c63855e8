// Package authapi wraps the backend's authentication endpoints.
package authapi

import (
	"context"

	"playground/internal/request"
)

const (
	DefaultLoginURL = "http://localhost:8000/api/login"

	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"
	codesPath   = "/auth/codes"
)

// Client issues one request per call and returns whatever the transport
// produced. Transport errors are passed through untouched.
type Client struct {
	loginURL string
	bare     *request.Client
	base     *request.Client
	api      *request.Client
}

// New binds the auth endpoints to the given client instances. bare serves the
// absolute login URL, base serves refresh and logout, api serves the codes call.
func New(loginURL string, bare, base, api *request.Client) *Client {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	return &Client{
		loginURL: loginURL,
		bare:     bare,
		base:     base,
		api:      api,
	}
}

// Login posts the credentials to the login endpoint.
func (c *Client) Login(ctx context.Context, params LoginParams) (LoginResult, error) {
	var result LoginResult
	resp, err := c.bare.Post(ctx, c.loginURL, params,
		request.WithHeader("Content-Type", "application/json"),
		request.WithHeader("Accept", "application/json"),
	)
	if err != nil {
		return result, err
	}
	if err := c.bare.Decode(resp, &result); err != nil {
		return result, err
	}
	return result, nil
}

// RefreshToken asks for a new access token using the stored credentials.
// The result carries the status and body of any response received, including
// rejected ones, which are also reported through the error.
func (c *Client) RefreshToken(ctx context.Context) (RefreshTokenResult, error) {
	resp, err := c.base.Post(ctx, refreshPath, nil, request.WithCredentials())
	if resp == nil {
		return RefreshTokenResult{}, err
	}
	return RefreshTokenResult{Status: resp.StatusCode, Data: resp.Text()}, err
}

// Logout ends the server-side session. The response has no fixed shape.
func (c *Client) Logout(ctx context.Context) (*request.Response, error) {
	return c.base.Post(ctx, logoutPath, nil, request.WithCredentials())
}

// GetAccessCodes returns the permission codes granted to the current user,
// in server order.
func (c *Client) GetAccessCodes(ctx context.Context) ([]string, error) {
	resp, err := c.api.Get(ctx, codesPath)
	if err != nil {
		return nil, err
	}
	var codes []string
	if err := c.api.Decode(resp, &codes); err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}
