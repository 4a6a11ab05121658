// Package copilot fetches usage-report download links from the GitHub Copilot metrics API.
package copilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	requestTimeout    = 15 * time.Second
	maxBodySize       = 1 << 20 // 1 MB
	defaultBaseURL    = "https://api.github.com"
	defaultAPIVersion = "2022-11-28"
	reportPath        = "/orgs/%s/copilot/metrics/reports/users-28-day/latest"
)

var (
	// ErrUnauthorized indicates the token is missing scopes, expired, or invalid.
	ErrUnauthorized = errors.New("copilot: unauthorized (token expired or lacks access)")
	// ErrNotFound indicates the organization or report does not exist.
	ErrNotFound = errors.New("copilot: report not found")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("copilot: rate limited")
	// ErrNoLinks indicates the response carried no download links.
	ErrNoLinks = errors.New("copilot: report has no download links")
)

// Options configures a Client.
type Options struct {
	Token      string
	Org        string
	BaseURL    string // defaults to https://api.github.com
	APIVersion string // defaults to 2022-11-28
	HTTPClient *http.Client
}

// Client fetches report links. Concurrent FetchReportLink calls share a
// single outstanding request.
type Client struct {
	token      string
	org        string
	baseURL    string
	apiVersion string
	http       *http.Client
	group      singleflight.Group
}

// NewClient creates a client. Token and org are required.
func NewClient(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("copilot: token is required")
	}
	org := strings.TrimSpace(opts.Org)
	if org == "" {
		return nil, errors.New("copilot: organization is required")
	}

	c := &Client{
		token:      token,
		org:        org,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiVersion: opts.APIVersion,
		http:       opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.apiVersion == "" {
		c.apiVersion = defaultAPIVersion
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

// Org returns the organization the client queries.
func (c *Client) Org() string { return c.org }

// FetchReportLink returns the latest 28-day users report link.
//
// The shared request is detached from any single caller's cancellation and
// bounded by requestTimeout; a caller whose ctx ends returns ctx.Err()
// while the others keep waiting.
func (c *Client) FetchReportLink(ctx context.Context) (*ReportLink, error) {
	ch := c.group.DoChan(c.org, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ReportLink), nil
	}
}

// Fetch wraps FetchReportLink into a Result.
func (c *Client) Fetch(ctx context.Context) *Result {
	link, err := c.FetchReportLink(ctx)
	return &Result{Link: link, FetchedAt: time.Now(), Error: err}
}

func (c *Client) fetch(ctx context.Context) (*ReportLink, error) {
	body, err := c.get(ctx, fmt.Sprintf(reportPath, url.PathEscape(c.org)))
	if err != nil {
		return nil, err
	}

	var link ReportLink
	if err := json.Unmarshal(body, &link); err != nil {
		return nil, fmt.Errorf("copilot: parsing report link: %w", err)
	}
	if len(link.DownloadLinks) == 0 {
		return nil, ErrNoLinks
	}
	return &link, nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("copilot: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", c.apiVersion)
	req.Header.Set("User-Agent", "github.com/theirongolddev/copilotpulse/1.0")

	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("copilot: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("copilot: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("copilot: reading response: %w", err)
	}
	return body, nil
}

// FriendlyError turns a fetch error into text for display.
func FriendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "GitHub rejected the token. Check it has the manage_billing:copilot or read:org scope."
	case errors.Is(err, ErrNotFound):
		return "No Copilot report found for this organization."
	case errors.Is(err, ErrRateLimited):
		return "GitHub rate limit hit. Try again later."
	case errors.Is(err, ErrNoLinks):
		return "The latest report has no download links yet."
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out."
	default:
		return err.Error()
	}
}
