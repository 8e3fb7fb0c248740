// Package apiclient provides typed HTTP access to a running scout daemon.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scout/internal/api"
)

// Client talks to the daemon's localhost HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the given bind address (host:port or a full URL).
func New(addr, token string) *Client {
	base := strings.TrimSpace(addr)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned status %d", e.StatusCode)
	}
	return e.Message
}

// Status fetches aggregate daemon runtime information.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Folders fetches the two-level registry view.
func (c *Client) Folders(ctx context.Context) (*api.HierarchyResponse, error) {
	var hierarchy api.HierarchyResponse
	if err := c.do(ctx, http.MethodGet, "/api/folders", nil, &hierarchy); err != nil {
		return nil, err
	}
	return &hierarchy, nil
}

// Folder fetches a single registry entry.
func (c *Client) Folder(ctx context.Context, id string) (*api.Folder, error) {
	var resp api.FolderResponse
	if err := c.do(ctx, http.MethodGet, "/api/folders/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Folder, nil
}

// AddFolder registers a new whitelist root.
func (c *Client) AddFolder(ctx context.Context, path, alias string) (*api.MutationResponse, error) {
	var resp api.MutationResponse
	req := api.AddFolderRequest{Path: path, Alias: alias}
	if err := c.do(ctx, http.MethodPost, "/api/folders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddBlacklist registers a blacklist entry under the given root.
func (c *Client) AddBlacklist(ctx context.Context, parentID, path, alias string) (*api.MutationResponse, error) {
	var resp api.MutationResponse
	req := api.AddBlacklistRequest{Path: path, Alias: alias}
	endpoint := "/api/folders/" + url.PathEscape(parentID) + "/blacklist"
	if err := c.do(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveFolder deletes a registry entry, cascading over blacklist children.
func (c *Client) RemoveFolder(ctx context.Context, id string) (*api.MutationResponse, error) {
	var resp api.MutationResponse
	if err := c.do(ctx, http.MethodDelete, "/api/folders/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ToggleFolder flips a top-level entry between whitelist and blacklist.
func (c *Client) ToggleFolder(ctx context.Context, id string, blacklist bool) (*api.MutationResponse, error) {
	var resp api.MutationResponse
	req := api.ToggleRequest{Blacklist: blacklist}
	endpoint := "/api/folders/" + url.PathEscape(id) + "/toggle"
	if err := c.do(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Queue fetches change queue diagnostics.
func (c *Client) Queue(ctx context.Context) (*api.QueueStatus, error) {
	var status api.QueueStatus
	if err := c.do(ctx, http.MethodGet, "/api/queue", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Permission fetches the cached blanket permission state.
func (c *Client) Permission(ctx context.Context) (*api.PermissionStatus, error) {
	var status api.PermissionStatus
	if err := c.do(ctx, http.MethodGet, "/api/permission", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RequestPermission triggers the consent flow; the grant lands asynchronously.
func (c *Client) RequestPermission(ctx context.Context) (*api.PermissionStatus, error) {
	var status api.PermissionStatus
	if err := c.do(ctx, http.MethodPost, "/api/permission/request", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RestartMonitoring rebuilds the watch set from the registry.
func (c *Client) RestartMonitoring(ctx context.Context) (*api.MonitoringStatus, error) {
	var status api.MonitoringStatus
	if err := c.do(ctx, http.MethodPost, "/api/monitoring/restart", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Cleanup removes indexed content at or under the given path.
func (c *Client) Cleanup(ctx context.Context, path string) (*api.CleanupResponse, error) {
	var resp api.CleanupResponse
	if err := c.do(ctx, http.MethodPost, "/api/cleanup", api.CleanupRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshPermission asks the daemon to re-probe the OS grant.
func (c *Client) RefreshPermission(ctx context.Context) (*api.PermissionStatus, error) {
	var resp api.PermissionStatus
	if err := c.do(ctx, http.MethodPost, "/api/permission/refresh", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs fetches a chunk of the daemon log. A negative offset requests the last
// `lines` lines; wait keeps the daemon polling for new lines up to that
// duration before returning an empty chunk.
func (c *Client) Logs(ctx context.Context, offset int64, lines int, wait time.Duration) (*api.LogsResponse, error) {
	values := url.Values{}
	values.Set("offset", strconv.FormatInt(offset, 10))
	if lines > 0 {
		values.Set("lines", strconv.Itoa(lines))
	}
	if wait > 0 {
		values.Set("wait", strconv.FormatInt(wait.Milliseconds(), 10))
	}
	var resp api.LogsResponse
	if err := c.do(ctx, http.MethodGet, "/api/logs?"+values.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotify asks the daemon to send a test notification.
func (c *Client) TestNotify(ctx context.Context) (*api.NotifyTestResponse, error) {
	var resp api.NotifyTestResponse
	if err := c.do(ctx, http.MethodPost, "/api/notify/test", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("daemon address is not configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
