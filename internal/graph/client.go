package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// BaseURL is the production Microsoft Graph API endpoint.
const BaseURL = "https://graph.microsoft.com/v1.0"

const userAgent = "mmigration-backend/0.1"

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer
// (graph package) per Go convention "accept interfaces, return structs".
// TokenProvider is the real implementation.
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the Microsoft Graph API. It handles
// request construction, authentication, and error classification.
// Failures are fatal per attempt; the upload workflow does not retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
}

// NewClient creates a Graph API client.
// baseURL is typically graph.BaseURL.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
	}
}

// Do executes an HTTP request against the Graph API.
// The path is appended to the client's base URL.
// For non-nil bodies, Content-Type is set to application/json.
// The caller is responsible for closing the response body on success.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, method, path, "application/json", body)
}

// DoRaw executes an HTTP request with a custom content type. Used for
// content uploads where the payload is not JSON.
func (c *Client) DoRaw(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	return c.do(ctx, method, path, contentType, body)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("graph: creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("graph: obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", userAgent)

	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("graph: request canceled: %w", ctx.Err())
		}

		c.logger.Error("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("graph: %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	errBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()

	if readErr != nil {
		errBody = []byte("(failed to read response body)")
	}

	graphErr := &GraphError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
		Message:    string(errBody),
		Err:        classifyStatus(resp.StatusCode),
	}

	c.logger.Warn("request returned error status",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", graphErr.RequestID),
	)

	return nil, graphErr
}

// encodePathSegments URL-encodes each segment of a slash-separated path.
// Segments are NFC-normalized first. Graph stores names in NFC, and a
// mixed-normalization path would miss on lookup. Characters like #, ?, %,
// and spaces are encoded per-segment so the resulting path is safe for
// interpolation into Graph API URLs.
func encodePathSegments(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(norm.NFC.String(seg))
	}

	return strings.Join(segments, "/")
}
