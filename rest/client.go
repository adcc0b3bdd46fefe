// Package rest is the HTTP transport to the backend-as-a-service: PostgREST
// collections under /rest/v1 and the identity endpoints under /auth/v1.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-core/logger"
	"storefront-core/postgrest"
)

const (
	RESTPath = "/rest/v1"
	AuthPath = "/auth/v1"
)

const userAgent = "storefront-core/1.0"

// Prefer values for write requests.
type Prefer string

const (
	ReturnMinimal        Prefer = "return=minimal"
	ReturnRepresentation Prefer = "return=representation"
)

// TokenSource yields the bearer credential of the signed-in user, or "" when
// nobody is signed in.
type TokenSource interface {
	AccessToken() string
}

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	tokens     TokenSource
	log        *slog.Logger
}

func New(cfg Config, tokens TokenSource, log *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rest: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("rest: API key is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("rest: invalid base URL: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		tokens:     tokens,
		log:        log,
	}, nil
}

// Select runs GET /rest/v1/<table> and decodes the JSON array into out.
func (c *Client) Select(ctx context.Context, table string, q postgrest.Query, out interface{}) error {
	if q.Select == "" {
		q.Select = "*"
	}
	return c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   RESTPath + "/" + table,
		Query:  q.Values(),
	}, out)
}

// Insert runs POST /rest/v1/<table>. body may be a single object or a slice
// for a batch insert. out is only decoded with ReturnRepresentation.
func (c *Client) Insert(ctx context.Context, table string, body interface{}, prefer Prefer, out interface{}) error {
	if prefer == ReturnMinimal {
		out = nil
	}
	return c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   RESTPath + "/" + table,
		Body:   body,
		Prefer: prefer,
	}, out)
}

// Update runs PATCH /rest/v1/<table> on the rows matched by q.
func (c *Client) Update(ctx context.Context, table string, q postgrest.Query, body interface{}) error {
	return c.Do(ctx, Request{
		Method: http.MethodPatch,
		Path:   RESTPath + "/" + table,
		Query:  q.Values(),
		Body:   body,
		Prefer: ReturnMinimal,
	}, nil)
}

// Delete runs DELETE /rest/v1/<table> on the rows matched by q.
func (c *Client) Delete(ctx context.Context, table string, q postgrest.Query) error {
	return c.Do(ctx, Request{
		Method: http.MethodDelete,
		Path:   RESTPath + "/" + table,
		Query:  q.Values(),
		Prefer: ReturnMinimal,
	}, nil)
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	Prefer Prefer
	// Token overrides the session's bearer credential, e.g. during sign-in.
	Token string
}

// Do sends req and decodes a 2xx JSON response into out (if non-nil).
// Non-2xx responses are returned as *Error.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) error {
	var bodyReader io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("rest: marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("rest: creating request: %w", err)
	}
	c.setHeaders(httpReq, req)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("store request failed", "method", req.Method, "path", req.Path, "err", err)
		return fmt.Errorf("rest: %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("rest: reading response: %w", err)
	}

	c.log.Debug("store request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("rest: parsing response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(httpReq *http.Request, req Request) {
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("apikey", c.apiKey)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Prefer != "" {
		httpReq.Header.Set("Prefer", string(req.Prefer))
	}

	token := req.Token
	if token == "" && c.tokens != nil {
		token = c.tokens.AccessToken()
	}
	if token == "" {
		token = c.apiKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
}
