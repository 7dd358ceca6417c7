// Package shorten calls the remote URL-shortening service.
package shorten

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single remote call.
const DefaultTimeout = 10 * time.Second

const statusSuccess = "success"

// Client issues single calls against the shortening service. It performs no
// retries; see Retrier for the retry policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a shortening client for the given service base URL.
// A nil httpClient falls back to a plain http.Client; timeout <= 0 falls back
// to DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}
}

type shortenResponse struct {
	Status       string `json:"status"`
	ShortenedURL string `json:"shortenedUrl"`
	Message      string `json:"message"`
}

// Shorten submits one URL for shortening, authenticated with the caller's
// API key. An optional alias requests a custom short code; pass "" to let the
// service pick one. The returned string is the shortened URL verbatim.
func (c *Client) Shorten(ctx context.Context, longURL, apiKey, alias string) (string, error) {
	query := url.Values{}
	query.Set("api", apiKey)
	query.Set("url", NormalizeURL(longURL))

	if alias != "" {
		query.Set("alias", alias)
	}

	endpoint := c.baseURL + "/api?" + query.Encode()

	var resp shortenResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}

	if resp.Status != statusSuccess {
		return "", &RemoteError{Cause: CauseApplication, Message: resp.Message}
	}

	if resp.ShortenedURL == "" {
		return "", &RemoteError{Cause: CauseMalformed, Message: "response has no shortened url"}
	}

	c.logger.Debug("url shortened",
		zap.String("url", longURL),
		zap.String("shortened", resp.ShortenedURL),
	)

	return resp.ShortenedURL, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &RemoteError{Cause: CauseTransport, Err: err}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Cause: causeOf(err), Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RemoteError{
			Cause:   CauseTransport,
			Message: fmt.Sprintf("unexpected status %d", res.StatusCode),
		}
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &RemoteError{Cause: CauseMalformed, Err: err}
	}

	return nil
}

func causeOf(err error) Cause {
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}

	return CauseTransport
}

// NormalizeURL prefixes https:// when the URL lacks a recognized scheme, so
// bare www. hosts are accepted by the service.
func NormalizeURL(raw string) string {
	lower := strings.ToLower(raw)

	for _, scheme := range []string{"http://", "https://", "ftp://"} {
		if strings.HasPrefix(lower, scheme) {
			return raw
		}
	}

	return "https://" + raw
}
