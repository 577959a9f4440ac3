package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const (
	defaultDownloadExpiry = 10 * time.Minute
	maxDownloadExpiry     = time.Hour
)

var (
	errNoSigner      = errors.New("storage: signer is required")
	errInvalidBucket = errors.New("storage: bucket name is required")
	errInvalidObject = errors.New("storage: object name is required")
	errExpiryTooLong = errors.New("storage: expiry exceeds permitted maximum")
)

// Client generates signed download URLs for media objects.
type Client struct {
	signer Signer
	now    func() time.Time
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithClock injects a custom clock.
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient constructs a signed URL client.
func NewClient(signer Signer, opts ...ClientOption) (*Client, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	client := &Client{signer: signer, now: time.Now}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DownloadOptions control the lifetime and response headers of a signed URL.
type DownloadOptions struct {
	ExpiresIn    time.Duration
	CacheControl string
	ResponseType string
}

// SignedURL is a generated download URL and its expiry.
type SignedURL struct {
	URL       string
	ExpiresAt time.Time
}

// DownloadURL signs a V4 GET URL for bucket/object.
func (c *Client) DownloadURL(ctx context.Context, bucket, object string, opts DownloadOptions) (SignedURL, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return SignedURL{}, errInvalidBucket
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return SignedURL{}, errInvalidObject
	}
	expiry := opts.ExpiresIn
	if expiry <= 0 {
		expiry = defaultDownloadExpiry
	}
	if expiry > maxDownloadExpiry {
		return SignedURL{}, errExpiryTooLong
	}

	query := url.Values{}
	if opts.CacheControl != "" {
		query.Set("response-cache-control", opts.CacheControl)
	}
	if opts.ResponseType != "" {
		query.Set("response-content-type", opts.ResponseType)
	}

	expiresAt := c.now().Add(expiry)
	urlOpts := &storage.SignedURLOptions{
		GoogleAccessID: c.signer.Email(),
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        expiresAt,
		SignBytes: func(payload []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, payload)
		},
	}
	if len(query) > 0 {
		urlOpts.QueryParameters = query
	}

	signed, err := storage.SignedURL(bucket, object, urlOpts)
	if err != nil {
		return SignedURL{}, fmt.Errorf("storage: sign download url: %w", err)
	}
	return SignedURL{URL: signed, ExpiresAt: expiresAt}, nil
}
