// Package fetch performs the single network round trip of a board list
// request and classifies it into a result.Outcome.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/caffix/cloudflare-roundtripper/cfrt"

	"github.com/zvonler/chanspy/result"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "chanspy/1.0"

	// MaxBodySize bounds how much of a response body is read.
	MaxBodySize = 16 * 1024 * 1024
)

type Options struct {
	Timeout   time.Duration
	UserAgent string

	// Transport defaults to NewTransport().
	Transport http.RoundTripper
}

type Client struct {
	http      *http.Client
	userAgent string
}

// NewTransport returns an HTTP transport that gets through Cloudflare's
// browser check, which most imageboards sit behind.
func NewTransport() (http.RoundTripper, error) {
	return cfrt.New(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 15 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	})
}

func New(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Transport == nil {
		transport, err := NewTransport()
		if err != nil {
			return nil, fmt.Errorf("creating transport: %w", err)
		}
		opts.Transport = transport
	}
	return &Client{
		http:      &http.Client{Transport: opts.Transport, Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
	}, nil
}

// Get fetches url once. A failed round trip is a TransportOrUnknownError, a
// non-2xx status a ServerError, anything else a Success carrying the body.
func (c *Client) Get(ctx context.Context, url string) result.Outcome[[]byte] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result.TransportOrUnknownError[[]byte](fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return result.TransportOrUnknownError[[]byte](fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodySize))
		return result.ServerError[[]byte](resp.StatusCode)
	}

	if resp.ContentLength > MaxBodySize {
		return result.TransportOrUnknownError[[]byte](
			fmt.Errorf("response size %d exceeds maximum allowed size %d", resp.ContentLength, MaxBodySize))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return result.TransportOrUnknownError[[]byte](fmt.Errorf("failed to read response body: %w", err))
	}
	if len(body) > MaxBodySize {
		return result.TransportOrUnknownError[[]byte](
			fmt.Errorf("response exceeds maximum allowed size %d", MaxBodySize))
	}
	return result.Success(body)
}

// Decode runs decode over the body of a successful outcome. A decoder error
// becomes a DecodeError; error outcomes pass through unchanged.
func Decode[T any](o result.Outcome[[]byte], decode func([]byte) (T, error)) result.Outcome[T] {
	body, ok := o.Value()
	if !ok {
		return result.Map(o, func([]byte) T {
			var zero T
			return zero
		})
	}
	v, err := decode(body)
	if err != nil {
		return result.DecodeError[T](err)
	}
	return result.Success(v)
}
