package profileapi

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

	"varanasihub.com/site/internal/domain"
)

// ErrNotFound is returned when the API has no business for the slug.
var ErrNotFound = errors.New("profileapi: business not found")

const defaultTimeout = 5 * time.Second

// NetworkError reports a failed round trip: either the transport failed (Err
// set, Status zero) or the API answered with an unexpected status.
type NetworkError struct {
	Status int
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Status != 0 && e.Err != nil {
		return fmt.Sprintf("profileapi: status %d: %v", e.Status, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("profileapi: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("profileapi: request failed: %v", e.Err)
}

// Unwrap exposes the transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// IsNotFound reports false; network failures never mean the slug is absent.
func (e *NetworkError) IsNotFound() bool { return false }

// IsUnavailable reports true for every network failure.
func (e *NetworkError) IsUnavailable() bool { return true }

type notFoundError struct {
	slug string
}

func (e *notFoundError) Error() string        { return fmt.Sprintf("%v: %s", ErrNotFound, e.slug) }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *notFoundError) IsNotFound() bool     { return true }
func (e *notFoundError) IsUnavailable() bool  { return false }

// Option customises the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// Client fetches published profiles from the business API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client with the provided base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type envelope struct {
	Business *domain.BusinessProfile `json:"business"`
}

// GetBySlug performs GET {base}/business/{slug}?format=json. A 404 yields an
// error matching ErrNotFound; any other failure is a *NetworkError.
func (c *Client) GetBySlug(ctx context.Context, slug string) (domain.BusinessProfile, error) {
	slug = domain.NormalizeSlug(slug)
	if slug == "" {
		return domain.BusinessProfile{}, &notFoundError{slug: slug}
	}
	if c == nil || c.baseURL == "" {
		return domain.BusinessProfile{}, &NetworkError{Err: errors.New("base url not configured")}
	}

	endpoint, err := url.JoinPath(c.baseURL, "business", slug)
	if err != nil {
		return domain.BusinessProfile{}, &NetworkError{Err: fmt.Errorf("join path: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?format=json", nil)
	if err != nil {
		return domain.BusinessProfile{}, &NetworkError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.BusinessProfile{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.BusinessProfile{}, &notFoundError{slug: slug}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.BusinessProfile{}, &NetworkError{Status: resp.StatusCode}
	}

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.BusinessProfile{}, &NetworkError{Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	if body.Business == nil {
		return domain.BusinessProfile{}, &notFoundError{slug: slug}
	}
	return *body.Business, nil
}
