package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/irfansharif/articles/pkg/article"
)

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is returned for an unexpected status or an undecodable
// response body.
type ServerError struct {
	Op     string
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

// NotFoundError is returned when the target article does not exist.
type NotFoundError struct {
	ID article.ID
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("article %s not found", e.ID) }

// maxErrorBody bounds how much of an error response is kept in a ServerError.
const maxErrorBody = 512

// Client talks to the articles REST API. Each call issues exactly one
// request; there are no retries and no caching.
type Client struct {
	client  *http.Client
	baseURL string
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the server at baseURL, e.g.
// "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches all articles in server order.
func (c *Client) List(ctx context.Context) ([]article.Article, error) {
	var articles []article.Article
	if err := c.do(ctx, "list", http.MethodGet, "/articles", nil, http.StatusOK, article.DraftID, &articles); err != nil {
		return nil, err
	}
	if articles == nil {
		articles = []article.Article{}
	}
	return articles, nil
}

// Get fetches one article.
func (c *Client) Get(ctx context.Context, id article.ID) (article.Article, error) {
	var a article.Article
	err := c.do(ctx, "get", http.MethodGet, "/articles/"+id.String(), nil, http.StatusOK, id, &a)
	return a, err
}

// Create stores a new article and returns it with its assigned ID.
func (c *Client) Create(ctx context.Context, f article.Fields) (article.Article, error) {
	var a article.Article
	err := c.do(ctx, "create", http.MethodPost, "/articles", f, http.StatusCreated, article.DraftID, &a)
	return a, err
}

// Update replaces the fields of an existing article.
func (c *Client) Update(ctx context.Context, id article.ID, f article.Fields) (article.Article, error) {
	var a article.Article
	err := c.do(ctx, "update", http.MethodPatch, "/articles/"+id.String(), f, http.StatusOK, id, &a)
	return a, err
}

// Remove deletes an article.
func (c *Client) Remove(ctx context.Context, id article.ID) error {
	return c.do(ctx, "remove", http.MethodDelete, "/articles/"+id.String(), nil, http.StatusNoContent, id, nil)
}

// do issues one request and decodes a response with status want into out.
// id names the target article for NotFoundError.
func (c *Client) do(
	ctx context.Context, op, method, path string, in any, want int, id article.ID, out any,
) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("Issuing request", zap.String("method", method), zap.String("path", path))
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("Request failed", zap.String("op", op), zap.Error(err))
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != want {
		err := classify(op, resp.StatusCode, data, id)
		c.log.Warn("Request rejected", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Error(err))
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ServerError{Op: op, Status: resp.StatusCode, Body: truncate(string(data))}
	}
	return nil
}

// classify maps an unexpected response onto the error taxonomy.
func classify(op string, status int, data []byte, id article.ID) error {
	switch status {
	case http.StatusNotFound:
		return &NotFoundError{ID: id}
	case http.StatusUnprocessableEntity:
		var fields map[string][]string
		if err := json.Unmarshal(data, &fields); err == nil && len(fields) > 0 {
			return &article.ValidationError{Fields: fields}
		}
	}
	return &ServerError{Op: op, Status: status, Body: truncate(strings.TrimSpace(string(data)))}
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
