package sources

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	userAgent      = "jobhound/1.0 (+https://github.com/jobhound/jobhound)"
	defaultTimeout = 30 * time.Second
	// Upper bound of a single response body.
	maxBodySize = 16 << 20
)

// Client performs the HTTP GET requests of every adapter.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string

	limiter *HostLimiter
	logger  *zap.Logger
}

func NewClient(logger *zap.Logger, limiter *HostLimiter, timeout time.Duration) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		UserAgent:  userAgent,
		limiter:    limiter,
		logger:     logger,
	}
}

// GetJSON makes a GET request and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, rawURL string, q url.Values, target any) error {
	data, err := c.Get(ctx, rawURL, q, "application/json")
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response from %s: %w", rawURL, err)
	}

	return nil
}

// Get makes a GET request and returns the (decompressed) body.
func (c *Client) Get(ctx context.Context, rawURL string, q url.Values, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(io.LimitReader(reader, maxBodySize))
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	// the query carries credentials for some sources
	c.logger.Debug("make request", zap.String("host", req.URL.Host), zap.String("path", req.URL.Path))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}
