// Package client provides a Go SDK for the Aegis HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aegiswhistle/aegis/pkg/models"
)

// Client calls the Aegis HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://127.0.0.1:4780"
	APIKey     string       // optional; set for X-API-Key
	Actor      string       // optional user id sent as X-Actor-ID; lifecycle commands require it
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://127.0.0.1:4780").
// APIKey is optional; when set, requests carry the X-API-Key header.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

// As returns a copy of c that acts as the user with id actor.
func (c *Client) As(actor string) *Client {
	cp := *c
	cp.Actor = actor
	return &cp
}

// ConfigInfo is the /config response.
type ConfigInfo struct {
	Backend  string `json:"backend"`
	Remote   bool   `json:"remote"`
	Fallback string `json:"fallback,omitempty"`
	Home     string `json:"home"`
}

// SyncResult is the /sync response.
type SyncResult struct {
	Inserted map[string]string `json:"inserted"`
	Updated  []string          `json:"updated"`
	Failed   []string          `json:"failed"`
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	if c.Actor != "" {
		req.Header.Set("X-Actor-ID", c.Actor)
	}
	return c.client().Do(req)
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method, Path string
	StatusCode   int
	Message      string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("api %s %s: status %d", e.Method, e.Path, e.StatusCode)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: errBody.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// Config returns the /config response.
func (c *Client) Config(ctx context.Context) (*ConfigInfo, error) {
	var out ConfigInfo
	err := c.doJSON(ctx, http.MethodGet, "/config", nil, &out)
	return &out, err
}

// Reports lists reports matching search (title, summary or id) and status ("" or "all" for every status).
func (c *Client) Reports(ctx context.Context, search, status string) ([]models.Report, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if status != "" {
		q.Set("status", status)
	}
	path := "/reports"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []models.Report
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Report returns one report by id.
func (c *Client) Report(ctx context.Context, id string) (*models.Report, error) {
	var out models.Report
	err := c.doJSON(ctx, http.MethodGet, "/reports/"+url.PathEscape(id), nil, &out)
	return &out, err
}

// Counts returns the number of reports per status.
func (c *Client) Counts(ctx context.Context) (models.StatusCounts, error) {
	var out models.StatusCounts
	err := c.doJSON(ctx, http.MethodGet, "/reports/counts", nil, &out)
	return out, err
}

// Recent returns the first limit reports in collection order (limit 0 = server default).
func (c *Client) Recent(ctx context.Context, limit int) ([]models.Report, error) {
	path := "/reports/recent"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []models.Report
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Submit files a new report from an intake payload and returns it with its assigned id.
func (c *Client) Submit(ctx context.Context, payload any) (*models.Report, error) {
	var out models.Report
	err := c.doJSON(ctx, http.MethodPost, "/reports", payload, &out)
	return &out, err
}

// Assign assigns a report to an investigator (user id or display name).
func (c *Client) Assign(ctx context.Context, id, investigator string) (*models.Report, error) {
	var out models.Report
	err := c.doJSON(ctx, http.MethodPost, "/reports/"+url.PathEscape(id)+"/assign",
		map[string]string{"investigator_id": investigator}, &out)
	return &out, err
}

// ChangeStatus sets a report's status.
func (c *Client) ChangeStatus(ctx context.Context, id, status string) (*models.Report, error) {
	var out models.Report
	err := c.doJSON(ctx, http.MethodPost, "/reports/"+url.PathEscape(id)+"/status",
		map[string]string{"status": status}, &out)
	return &out, err
}

// AddNote appends a note authored by the client's actor.
func (c *Client) AddNote(ctx context.Context, id, note string) (*models.Report, error) {
	var out models.Report
	err := c.doJSON(ctx, http.MethodPost, "/reports/"+url.PathEscape(id)+"/notes",
		map[string]string{"note": note}, &out)
	return &out, err
}

// Users returns the user directory; investigatorsOnly narrows it to assignable users.
func (c *Client) Users(ctx context.Context, investigatorsOnly bool) ([]models.User, error) {
	path := "/users"
	if investigatorsOnly {
		path += "?role=" + string(models.RoleInvestigator)
	}
	var out []models.User
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// AssignedTo returns the reports assigned to the user with userID.
func (c *Client) AssignedTo(ctx context.Context, userID string) ([]models.Report, error) {
	var out []models.Report
	err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/reports", nil, &out)
	return out, err
}

// Me returns the user named by the client's actor.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	err := c.doJSON(ctx, http.MethodGet, "/me", nil, &out)
	return &out, err
}

// Sync pushes locally saved reports to the remote store.
func (c *Client) Sync(ctx context.Context) (*SyncResult, error) {
	var out SyncResult
	err := c.doJSON(ctx, http.MethodPost, "/sync", nil, &out)
	return &out, err
}
