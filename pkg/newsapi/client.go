// Package newsapi is a thin client for the NewsAPI-compatible article feed.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/newswatch/internal/resilience"
)

const (
	defaultBaseURL = "https://newsapi.org/v2"
	defaultSortBy  = "publishedAt"

	// ErrorCodeRateLimited is the application-level error code NewsAPI
	// returns when the request quota is exhausted.
	ErrorCodeRateLimited = "rateLimited"
)

// Client fetches article pages from the feed.
type Client interface {
	Everything(ctx context.Context, req EverythingRequest) (*EverythingResponse, error)
}

// EverythingRequest holds the query parameters for GET /everything.
type EverythingRequest struct {
	Query    string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
	SortBy   string
}

// EverythingResponse is the response body for GET /everything.
type EverythingResponse struct {
	Status       string    `json:"status"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Article is a raw feed entry as returned by the upstream.
type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     string    `json:"content"`
}

// Source identifies the publication an entry came from.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIError is an application-level error reported in the response body with
// status "error".
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("newsapi: %s: %s", e.Code, e.Message)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a feed client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Everything(ctx context.Context, req EverythingRequest) (*EverythingResponse, error) {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("sortBy", req.SortBy)
	if req.SortBy == "" {
		q.Set("sortBy", defaultSortBy)
	}
	if req.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(req.PageSize))
	}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if !req.From.IsZero() {
		q.Set("from", req.From.UTC().Format("2006-01-02"))
	}
	if !req.To.IsZero() {
		q.Set("to", req.To.UTC().Format("2006-01-02"))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "newsapi: create request")
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "newsapi: send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "newsapi: read response"), resp.StatusCode)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resilience.NewRateLimitError(eris.Errorf("newsapi: http 429: %s", string(respBody)))
	}
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(eris.Errorf("newsapi: http %d", resp.StatusCode), resp.StatusCode)
	}

	var result EverythingResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrapf(err, "newsapi: unmarshal response (http %d)", resp.StatusCode)
	}

	if result.Status == "error" {
		apiErr := &APIError{Code: result.Code, Message: result.Message}
		if result.Code == ErrorCodeRateLimited {
			return nil, resilience.NewRateLimitError(apiErr)
		}
		return nil, apiErr
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("newsapi: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return &result, nil
}
