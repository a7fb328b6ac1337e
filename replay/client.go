// Package replay re-issues the byte ranges of an analysis log as HTTP range
// requests, one request per range, to measure what a download would cost.
package replay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/menmos/blockranges/config"
)

const userAgent = "blockranges"

// Version is reported in the User-Agent header.
const Version = "0.1.0"

const maxRedirects = 10

// Client replays ranges against a single URL.
type Client struct {
	httpClient *http.Client
	target     string
	username   string
	password   string
	userAgent  string
	log        *zap.SugaredLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithBasicAuth sends credentials with every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithTransport sets the round tripper used for requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// New returns a client for target, which must be an absolute http(s) URL.
func New(target string, opts ...Option) (*Client, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid replay URL '%s'", target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid replay URL '%s': scheme must be http or https", target)
	}

	// Block out redirections.
	// Resolve and readRange follow them by hand, bounded by maxRedirects.
	customClient := http.Client{
		CheckRedirect: func(redirRequest *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	client := &Client{
		httpClient: &customClient,
		target:     u.String(),
		userAgent:  fmt.Sprintf("%s/%s", userAgent, Version),
		log:        zap.L().Sugar().With("service", "replay"),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// NewFromProfile initializes a new client from a configured profile.
func NewFromProfile(profile *config.Profile, opts ...Option) (*Client, error) {
	if profile.URL == "" {
		return nil, errors.New("profile has no url")
	}

	profileOpts := []Option{WithUserAgent(profile.UserAgent)}
	if profile.Username != "" {
		profileOpts = append(profileOpts, WithBasicAuth(profile.Username, profile.Password))
	}

	return New(profile.URL, append(profileOpts, opts...)...)
}

// Target returns the URL ranges are requested from.
func (c *Client) Target() string {
	return c.target
}

// low-level wrapper function to create a request against the target.
func (c *Client) makeRequest(ctx context.Context, method string, target string) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s - failed to create request", method, target)
	}

	if c.username != "" {
		request.SetBasicAuth(c.username, c.password)
	}

	request.Header.Add("User-Agent", c.userAgent)

	return request, nil
}

// Resolve follows redirects of the target URL with HEAD requests and makes
// the final location the new target.
func (c *Client) Resolve(ctx context.Context) error {
	for i := 0; i < maxRedirects; i++ {
		req, err := c.makeRequest(ctx, http.MethodHead, c.target)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.Wrapf(err, "%s %s - failed to resolve redirection", req.Method, req.URL)
		}
		resp.Body.Close()

		if !isRedirect(resp.StatusCode) {
			return nil
		}

		location, err := resp.Location()
		if err != nil {
			return errors.Wrapf(err, "%s %s - failed to get redirect location", req.Method, req.URL)
		}

		c.log.Debugf("Following redirect from %s to %s", c.target, location)
		c.target = location.String()
	}

	return fmt.Errorf("%s - stopped after %d redirects", c.target, maxRedirects)
}

func (c *Client) readRange(ctx context.Context, start int64, end int64) (io.ReadCloser, error) {
	if start > end {
		return nil, fmt.Errorf("invalid range for read request: %d-%d", start, end)
	}

	target := c.target
	for i := 0; i <= maxRedirects; i++ {
		req, err := c.makeRequest(ctx, http.MethodGet, target)
		if err != nil {
			return nil, err
		}

		req.Header.Add("Range", fmt.Sprintf("bytes=%d-%d", start, end))

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s - read request failed", req.Method, req.URL)
		}

		// Some servers only redirect GET, so the HEAD pass in Resolve can miss them.
		if isRedirect(resp.StatusCode) {
			resp.Body.Close()

			location, err := resp.Location()
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s - failed to get redirect location", req.Method, req.URL)
			}

			c.log.Debugf("Following redirect from %s to %s", target, location)
			target = location.String()
			continue
		}

		if !isStatusSuccess(resp.StatusCode) {
			resp.Body.Close()
			return nil, errors.New(fmt.Sprintf("%s %s - unexpected status '%s'", req.Method, req.URL, resp.Status))
		}

		if resp.StatusCode != http.StatusPartialContent {
			c.log.Warnf("Server ignored range %d-%d and answered '%s'", start, end, resp.Status)
		}

		return resp.Body, nil
	}

	return nil, fmt.Errorf("GET %s - stopped after %d redirects", c.target, maxRedirects)
}
