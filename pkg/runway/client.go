package runway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/teslashibe/go-lumiere/internal/httpc"
)

// Fallback messages used when an error response carries no message field.
const (
	msgSubmitFailed = "failed to start video generation"
	msgStatusFailed = "failed to check task status"
)

// Client talks to the generation API. Every call is a single request;
// nothing is retried here.
type Client struct {
	baseURL    string
	apiKey     string
	apiVersion string
	http       *http.Client
	download   *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithAPIVersion overrides the X-Runway-Version header.
func WithAPIVersion(v string) ClientOption {
	return func(c *Client) { c.apiVersion = v }
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithDownloadClient sets the client used to fetch generated assets.
func WithDownloadClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.download = hc }
}

// WithClientLogger sets the structured logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		apiVersion: DefaultAPIVersion,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = httpc.OrDefault(c.http)
	if c.download == nil {
		c.download = httpc.NewClient(httpc.DownloadTimeout)
	}
	c.logger = c.logger.With("component", "runway.client")
	return c, nil
}

// Submit starts an image-to-video job and returns its id. The exchange is
// returned whenever a response was received, including on error.
func (c *Client) Submit(ctx context.Context, req *ImageToVideoRequest) (string, *Exchange, error) {
	payload := req.withDefaults()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("runway: marshal request: %w", err)
	}

	c.logger.Info("submitting generation",
		"model", payload.Model,
		"ratio", payload.Ratio,
		"duration", payload.Duration,
		"image_bytes", len(payload.PromptImage),
	)

	httpReq, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/image_to_video", bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	raw, ex, err := c.do(c.http, httpReq)
	if err != nil {
		return "", ex, fmt.Errorf("runway: submit: %w", err)
	}
	if !httpc.IsSuccess(ex.StatusCode) {
		return "", ex, &APIError{Op: "submit", StatusCode: ex.StatusCode, Message: errorMessage(raw, msgSubmitFailed)}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &result); err != nil || result.ID == "" {
		return "", ex, ErrNoTaskID
	}

	c.logger.Info("task created", "task_id", result.ID)
	return result.ID, ex, nil
}

// Task fetches the current state of a job.
func (c *Client) Task(ctx context.Context, id string) (*Task, *Exchange, error) {
	httpReq, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"/tasks/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, nil, err
	}

	raw, ex, err := c.do(c.http, httpReq)
	if err != nil {
		return nil, ex, fmt.Errorf("runway: task status: %w", err)
	}
	if !httpc.IsSuccess(ex.StatusCode) {
		return nil, ex, &APIError{Op: "status", StatusCode: ex.StatusCode, Message: errorMessage(raw, msgStatusFailed)}
	}

	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, ex, fmt.Errorf("runway: decode task: %w", err)
	}
	if task.ID == "" {
		task.ID = id
	}
	return &task, ex, nil
}

// Download streams the asset at assetURL into w and returns the number of
// bytes written. Bytes are copied verbatim.
func (c *Client) Download(ctx context.Context, assetURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return 0, fmt.Errorf("runway: create download request: %w", err)
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return 0, fmt.Errorf("runway: download: %w", err)
	}
	defer resp.Body.Close()

	if !httpc.IsSuccess(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return 0, &APIError{
			Op:         "download",
			StatusCode: resp.StatusCode,
			Message:    "failed to download video: " + http.StatusText(resp.StatusCode),
		}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("runway: download body: %w", err)
	}
	c.logger.Info("downloaded asset", "bytes", n, "content_type", resp.Header.Get("Content-Type"))
	return n, nil
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("runway: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Runway-Version", c.apiVersion)
	return req, nil
}

func (c *Client) do(hc *http.Client, req *http.Request) ([]byte, *Exchange, error) {
	resp, err := hc.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return raw, newExchange(resp, raw), nil
}

// errorMessage pulls a human-readable message out of an error body,
// falling back to fallback.
func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fallback
}
