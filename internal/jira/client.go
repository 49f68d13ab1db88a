// Package jira fetches issues from a Jira Cloud REST API and reshapes them
// into the board view model.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/joescharf/shiplog/internal/adf"
)

// Custom field IDs used by the board.
const (
	FieldDepartment = "customfield_10048"
	FieldSprint     = "customfield_10020"
)

// SearchFields is the fixed field set requested for every issue.
var SearchFields = []string{
	"summary",
	"description",
	"status",
	"subtasks",
	"comment",
	FieldDepartment,
	"created",
	FieldSprint,
}

// ErrUpstream wraps every failure talking to the tracker.
var ErrUpstream = errors.New("jira upstream error")

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds tracker credentials.
type Config struct {
	// Domain is a host such as "acme.atlassian.net" or a full base URL.
	Domain   string
	Email    string
	APIToken string
}

// Complete reports whether every credential is set.
func (c Config) Complete() bool {
	return c.Domain != "" && c.Email != "" && c.APIToken != ""
}

// BaseURL returns the API root for the configured domain.
func (c Config) BaseURL() string {
	d := strings.TrimRight(c.Domain, "/")
	if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
		return d
	}
	return "https://" + d
}

// Project is an entry of the project list.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// SearchRequest is the body of a JQL search.
type SearchRequest struct {
	JQL        string   `json:"jql"`
	Fields     []string `json:"fields"`
	MaxResults int      `json:"maxResults"`
}

// SearchResponse is a page of search results.
type SearchResponse struct {
	Total  int        `json:"total"`
	Issues []RawIssue `json:"issues"`
}

// RawIssue is an issue as returned by search.
type RawIssue struct {
	ID     string    `json:"id"`
	Key    string    `json:"key"`
	Fields RawFields `json:"fields"`
}

// RawFields holds the requested fields. Department and Sprints are kept raw
// because their shape varies between instances.
type RawFields struct {
	Summary     string          `json:"summary"`
	Description adf.RichText    `json:"description"`
	Status      *RawStatus      `json:"status"`
	Subtasks    []RawSubtask    `json:"subtasks"`
	Comment     *RawCommentPage `json:"comment"`
	Department  json.RawMessage `json:"customfield_10048"`
	Created     string          `json:"created"`
	Sprints     json.RawMessage `json:"customfield_10020"`
}

// RawStatus is a workflow status.
type RawStatus struct {
	Name string `json:"name"`
}

// RawSubtask is a child issue reference.
type RawSubtask struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary string     `json:"summary"`
		Status  *RawStatus `json:"status"`
	} `json:"fields"`
}

// RawCommentPage is the embedded comment list of an issue.
type RawCommentPage struct {
	Comments []RawComment `json:"comments"`
}

// RawComment is a single comment.
type RawComment struct {
	ID     string       `json:"id"`
	Body   adf.RichText `json:"body"`
	Author *struct {
		DisplayName string `json:"displayName"`
	} `json:"author"`
	Created string `json:"created"`
}

// RawSprint is an entry of the sprint custom field.
type RawSprint struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Client talks to the Jira REST API v3 with basic auth.
type Client struct {
	cfg  Config
	http HTTPClient
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Projects lists the projects visible to the credentials, in API order.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.doJSON(ctx, http.MethodGet, "/rest/api/3/project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Search runs a JQL search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/rest/api/3/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %w", ErrUpstream, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL()+path, r)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s %s status=%d body=%s", ErrUpstream, method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUpstream, path, err)
	}
	return nil
}
