// Package feedapi is a client for the minifeed HTTP API.
package feedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"minifeed/internal/model"
)

const (
	DefaultTimeout = 10 * time.Second

	idempotencyKeyHeader = "Idempotency-Key"
)

var (
	// ErrTransport wraps failures that happened before a response was read.
	// The request may or may not have reached the server, so creates should be
	// retried with the same idempotency key.
	ErrTransport = errors.New("feed api transport error")

	// ErrRejected is matched by APIErrors for 4xx responses.
	ErrRejected = errors.New("request rejected")
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feed api: status %d: %s", e.StatusCode, e.Reason)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrRejected
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type CreateComment struct {
	PostID         string  `json:"postId"`
	ParentID       *string `json:"parentId,omitempty"`
	Text           string  `json:"text,omitempty"`
	Image          string  `json:"image,omitempty"`
	GIF            string  `json:"gif,omitempty"`
	IdempotencyKey string  `json:"-"`
}

type CreatePost struct {
	Text     string `json:"text"`
	FileURL  string `json:"fileUrl,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

type CommentTree struct {
	PostID string               `json:"postId"`
	Count  int                  `json:"count"`
	Roots  []*model.CommentNode `json:"roots"`
}

func (c *Client) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	q := url.Values{"postId": {postID}}
	if err := c.do(ctx, http.MethodGet, "/api/comments?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, in CreateComment) (model.Comment, error) {
	var header http.Header
	if in.IdempotencyKey != "" {
		header = http.Header{idempotencyKeyHeader: {in.IdempotencyKey}}
	}

	var out model.Comment
	if err := c.do(ctx, http.MethodPost, "/api/comments", in, header, &out); err != nil {
		return model.Comment{}, err
	}
	return out, nil
}

func (c *Client) CommentTree(ctx context.Context, postID string) (CommentTree, error) {
	var out CommentTree
	q := url.Values{"postId": {postID}}
	if err := c.do(ctx, http.MethodGet, "/api/comments/tree?"+q.Encode(), nil, nil, &out); err != nil {
		return CommentTree{}, err
	}
	return out, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]model.Post, error) {
	out := make([]model.Post, 0)
	if err := c.do(ctx, http.MethodGet, "/api/post", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePost(ctx context.Context, in CreatePost) (model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodPost, "/api/post", in, nil, &out); err != nil {
		return model.Post{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		reason := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			reason = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Reason: reason}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
