// Package blocksource talks to the light-wallet block server: chain tip,
// compact blocks, mempool and transaction broadcast over HTTP/JSON.
package blocksource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	bridgeerr "github.com/mrz1836/litebridge/pkg/errors"
)

const (
	// defaultTimeout is the default HTTP request timeout.
	defaultTimeout = 30 * time.Second

	// maxResponseBodySize bounds decoded responses (block ranges can be large).
	maxResponseBodySize = 32 * 1024 * 1024

	// maxErrorBodySize bounds error bodies echoed into error messages.
	maxErrorBodySize = 1024
)

// Endpoint names, also used as rate limiter keys.
const (
	endpointInfo      = "/v1/info"
	endpointLatest    = "/v1/latest"
	endpointBlocks    = "/v1/blocks"
	endpointMempool   = "/v1/mempool"
	endpointBroadcast = "/v1/transactions"
)

// ErrInvalidRange is returned when a block range is inverted.
var ErrInvalidRange = errors.New("invalid block range")

// Options contains optional configuration for the client.
type Options struct {
	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// RatePerSecond and Burst configure per-endpoint rate limiting.
	RatePerSecond float64
	Burst         int

	// Retry configures backoff for retryable failures.
	Retry *RetryConfig

	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client
}

// Client is a block server client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	retry      RetryConfig
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts *Options) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    NewRateLimiter(0, 1),
		retry:      DefaultRetryConfig(),
	}

	if opts != nil {
		c.applyOptions(opts)
	}

	return c
}

func (c *Client) applyOptions(opts *Options) {
	if opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
	} else if opts.Timeout > 0 {
		c.httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.RatePerSecond > 0 {
		c.limiter = NewRateLimiter(opts.RatePerSecond, opts.Burst)
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
}

// BaseURL returns the server address this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Info returns server and chain information.
func (c *Client) Info(ctx context.Context) (*Info, error) {
	var info Info
	if err := c.getJSON(ctx, endpointInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// LatestHeight returns the height of the chain tip.
func (c *Client) LatestHeight(ctx context.Context) (uint64, error) {
	var resp latestResponse
	if err := c.getJSON(ctx, endpointLatest, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

// Blocks returns the compact blocks in [start, end].
func (c *Client) Blocks(ctx context.Context, start, end uint64) ([]Block, error) {
	if end < start {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, start, end)
	}

	query := url.Values{}
	query.Set("start", strconv.FormatUint(start, 10))
	query.Set("end", strconv.FormatUint(end, 10))

	var blocks []Block
	if err := c.getJSON(ctx, endpointBlocks, query, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Mempool returns unconfirmed transactions known to the server.
func (c *Client) Mempool(ctx context.Context) ([]Transaction, error) {
	var txs []Transaction
	if err := c.getJSON(ctx, endpointMempool, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// Broadcast submits tx and returns the id the server assigned to it.
// Broadcasts are never retried: a timed out submission may have landed.
func (c *Client) Broadcast(ctx context.Context, tx *Transaction) (string, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("encoding transaction: %w", err)
	}

	if err := c.limiter.Wait(ctx, endpointBroadcast); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpointBroadcast, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp broadcastResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", bridgeerr.ErrNetwork, resp.Error)
	}
	return resp.TxID, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	_, err := RetryWithConfig(ctx, c.retry, func() (struct{}, error) {
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return struct{}{}, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return struct{}{}, fmt.Errorf("creating request: %w", err)
		}

		return struct{}{}, c.do(req, out)
	})
	return err
}

// do executes req and decodes a JSON body into out, classifying failures.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return WrapRetryable(fmt.Errorf("%w: %w", bridgeerr.ErrNetwork, err))
		}
		return fmt.Errorf("%w: %w", bridgeerr.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		statusErr := fmt.Errorf("%w: status %d: %s", bridgeerr.ErrNetwork, resp.StatusCode, strings.TrimSpace(string(body)))

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, statusErr)
		case resp.StatusCode >= http.StatusInternalServerError:
			return WrapRetryable(statusErr)
		default:
			return statusErr
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
