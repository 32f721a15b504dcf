// Package apiclient talks to a roadmapper server over HTTP. Client
// satisfies reconcile.Remote, so the CLI can sync through the API exactly
// as it would through Redis.
package apiclient

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
	"time"

	"github.com/dyluth/roadmapper/pkg/roadmap"
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("server returned status %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Client calls the roadmapper HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080).
// timeout bounds each request; zero means no limit.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

// GetRoadmap fetches a project's roadmap. Returns roadmap.ErrNotFound when
// the server has none.
func (c *Client) GetRoadmap(ctx context.Context, projectID string) (*roadmap.Roadmap, error) {
	var r *roadmap.Roadmap
	if err := c.do(ctx, http.MethodGet, roadmapPath(projectID), nil, &r); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, roadmap.ErrNotFound
	}
	return r, nil
}

// SaveRoadmap replaces a project's roadmap on the server.
func (c *Client) SaveRoadmap(ctx context.Context, projectID string, r *roadmap.Roadmap) error {
	return c.do(ctx, http.MethodPost, roadmapPath(projectID), r, nil)
}

// Login checks project credentials. A rejection wraps
// roadmap.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password, projectID string) (*roadmap.User, error) {
	req := roadmap.User{Username: username, Password: password, ProjectID: projectID}

	var resp struct {
		Success bool         `json:"success"`
		User    roadmap.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// AdminLogin checks administrator credentials and returns the session token.
func (c *Client) AdminLogin(ctx context.Context, username, password string) (string, error) {
	req := roadmap.AdminCredentials{Username: username, Password: password}

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/admin/login", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// CreateUser registers a project user. A taken username wraps
// roadmap.ErrUserExists.
func (c *Client) CreateUser(ctx context.Context, u *roadmap.User) error {
	return c.do(ctx, http.MethodPost, "/api/admin/create-user", u, nil)
}

// Setup runs the server's setup routine.
func (c *Client) Setup(ctx context.Context) (*roadmap.SetupResult, error) {
	var resp struct {
		Migrated    bool   `json:"migrated"`
		Admin       string `json:"admin"`
		DefaultUser string `json:"defaultUser"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/admin/setup", nil, &resp); err != nil {
		return nil, err
	}
	return &roadmap.SetupResult{
		Migrated:    resp.Migrated,
		Admin:       resp.Admin,
		DefaultUser: resp.DefaultUser,
	}, nil
}

// Health checks the server's /healthz endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func roadmapPath(projectID string) string {
	return "/api/roadmap?projectId=" + url.QueryEscape(projectID)
}

// do sends body as JSON and decodes a 200 response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps an error response onto the roadmap sentinels where the
// status code identifies one.
func statusError(code int, body []byte) error {
	se := &StatusError{StatusCode: code}
	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if json.Unmarshal(body, &payload) == nil {
		se.Message, se.Details = payload.Error, payload.Details
	}

	switch code {
	case http.StatusUnauthorized:
		if strings.HasPrefix(se.Message, "Admin not initialized") {
			return fmt.Errorf("%w: %w", roadmap.ErrAdminNotInitialised, se)
		}
		return fmt.Errorf("%w: %w", roadmap.ErrInvalidCredentials, se)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", roadmap.ErrUserExists, se)
	}
	return se
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
