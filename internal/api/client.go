// SPDX-License-Identifier: MPL-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
)

const (
	// DefaultURL is the base URL of the PGXN API.
	DefaultURL = "https://api.pgxn.org/"

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 5 * time.Second

	// defaultUserAgent identifies the client to mirrors.
	defaultUserAgent = "pgxnbuild/dev"

	// indexFile lists the URI templates of a mirror.
	indexFile = "index.json"

	// maxJSONResponseBytes is the upper bound on JSON response size (10 MB).
	maxJSONResponseBytes = 10 << 20
)

// templateVar matches one simple {name} expression in a URI template.
var templateVar = regexp.MustCompile(`\{([^{}]*)\}`)

type (
	// Client fetches distribution data from one PGXN mirror or API server.
	Client struct {
		base       *url.URL
		httpClient *http.Client
		timeout    time.Duration
		userAgent  string
		templates  map[string]string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout bounds each HTTP request. Zero disables the bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// New creates a Client for the mirror at rawURL and loads its index.json.
// file:, http:, and https: URLs are supported; an absolute filesystem path is
// treated as a file: URL.
func New(ctx context.Context, rawURL string, opts ...ClientOption) (*Client, error) {
	base, err := parseBaseURL(rawURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base:       base,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	idx, err := url.Parse(base.String() + indexFile)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", indexFile, err)
	}
	if c.templates, err = c.fetchTemplates(ctx, idx); err != nil {
		return nil, err
	}
	return c, nil
}

// BaseURL returns the mirror's base URL. It always ends in a slash.
func (c *Client) BaseURL() string { return c.base.String() }

// URLFor expands the template called name with vars and resolves the result
// against the base URL. Variable values are percent-encoded.
func (c *Client) URLFor(name string, vars map[string]string) (*url.URL, error) {
	tmpl, ok := c.templates[name]
	if !ok {
		return nil, &UnknownTemplateError{Name: name}
	}

	var expandErr error
	path := templateVar.ReplaceAllStringFunc(tmpl, func(expr string) string {
		key := expr[1 : len(expr)-1]
		if !isVarName(key) {
			expandErr = fmt.Errorf("template %q: unsupported expression %s", name, expr)
			return ""
		}
		return url.PathEscape(vars[key])
	})
	if expandErr != nil {
		return nil, expandErr
	}

	u, err := url.Parse(c.base.String() + path)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	slog.Debug("resolved", "template", name, "url", u.String())
	return u, nil
}

// open returns a reader for the resource at u.
func (c *Client) open(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	slog.Debug("fetching", "url", u.String())
	switch u.Scheme {
	case "file":
		f, err := os.Open(fileURLPath(u))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", u, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		return f, nil
	case "http", "https":
		resp, err := c.doRequest(ctx, u.String())
		if err != nil {
			return nil, err
		}
		switch resp.StatusCode {
		case http.StatusOK:
			return resp.Body, nil
		case http.StatusNotFound:
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%s: %w", u, ErrNotFound)
		default:
			_ = resp.Body.Close()
			return nil, &ResponseError{URL: u.String(), Status: resp.StatusCode}
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// fetchJSON decodes the JSON document at u into v.
func (c *Client) fetchJSON(ctx context.Context, u *url.URL, v any) error {
	rc, err := c.open(ctx, u)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }() // read-only body

	if err := json.NewDecoder(io.LimitReader(rc, maxJSONResponseBytes)).Decode(v); err != nil {
		return &ResponseError{URL: u.String(), Err: err}
	}
	return nil
}

// fetchTemplates loads the index at u. Leading slashes are stripped so that
// templates resolve below the base URL.
func (c *Client) fetchTemplates(ctx context.Context, u *url.URL) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := c.fetchJSON(ctx, u, &raw); err != nil {
		return nil, err
	}

	templates := make(map[string]string, len(raw))
	for name, val := range raw {
		var tmpl string
		if err := json.Unmarshal(val, &tmpl); err != nil {
			return nil, &ResponseError{URL: u.String(), Err: fmt.Errorf("template %q is not a string", name)}
		}
		if stray := templateVar.ReplaceAllString(tmpl, ""); strings.ContainsAny(stray, "{}") {
			return nil, &ResponseError{URL: u.String(), Err: fmt.Errorf("template %q has unbalanced braces", name)}
		}
		templates[name] = strings.TrimPrefix(tmpl, "/")
	}
	return templates, nil
}

// doRequest creates and executes a GET request with common headers.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// parseBaseURL parses rawURL and makes sure it ends in a slash so that it can
// be used as a base for relative references.
func parseBaseURL(rawURL string) (*url.URL, error) {
	if filepath.IsAbs(rawURL) {
		rawURL = (&url.URL{Scheme: "file", Path: filepath.ToSlash(rawURL)}).String()
	}
	if !strings.HasSuffix(rawURL, "/") {
		rawURL += "/"
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing mirror URL: %w", err)
	}
	switch u.Scheme {
	case "file", "http", "https":
		return u, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// fileURLPath returns the local path a file: URL points to.
func fileURLPath(u *url.URL) string {
	p := u.Path
	if runtime.GOOS == "windows" && len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

func isVarName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
