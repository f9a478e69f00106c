package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-lumiere/internal/httpc"
)

// DefaultPrompt asks the workflow for a plain comma-separated label list.
const DefaultPrompt = "List the distinct everyday objects in this photo as a comma-separated list of short names. Reply with the list only."

// maxErrorBody caps how much of an error body ends up in an error message.
const maxErrorBody = 512

// Workflow calls a hosted detection workflow (for example a Roboflow
// workflow endpoint) that answers with a comma-separated label list.
type Workflow struct {
	url    string
	apiKey string
	prompt string
	http   *http.Client
	logger *slog.Logger
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithHTTPClient overrides the shared HTTP client.
func WithHTTPClient(c *http.Client) WorkflowOption {
	return func(w *Workflow) { w.http = c }
}

// WithPrompt overrides the natural-language instruction sent with the image.
func WithPrompt(prompt string) WorkflowOption {
	return func(w *Workflow) { w.prompt = prompt }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) WorkflowOption {
	return func(w *Workflow) { w.logger = l }
}

// NewWorkflow creates a detector for the workflow at url.
func NewWorkflow(url, apiKey string, opts ...WorkflowOption) (*Workflow, error) {
	if url == "" {
		return nil, ErrNoWorkflowURL
	}
	w := &Workflow{
		url:    url,
		apiKey: apiKey,
		prompt: DefaultPrompt,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.http = httpc.OrDefault(w.http)
	w.logger = w.logger.With("component", "vision.workflow")
	return w, nil
}

type workflowRequest struct {
	Image  string `json:"image"`
	Prompt string `json:"prompt,omitempty"`
}

// Detect sends the image to the workflow and parses the label list.
func (w *Workflow) Detect(ctx context.Context, image string) ([]string, error) {
	if image == "" {
		return nil, ErrNoImage
	}
	start := time.Now()

	body, err := json.Marshal(workflowRequest{Image: image, Prompt: w.prompt})
	if err != nil {
		return nil, fmt.Errorf("vision: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vision: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision: workflow request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vision: read response: %w", err)
	}

	if !httpc.IsSuccess(resp.StatusCode) {
		text := strings.TrimSpace(string(raw))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: text}
	}

	text := labelText(raw)
	labels := ParseLabels(text)

	w.logger.Info("detected objects",
		"raw", text,
		"count", len(labels),
		"latency", time.Since(start),
	)
	return labels, nil
}

// labelText extracts the label list from a response body. Workflows that
// answer with a bare JSON string are unquoted; anything else is used as is.
func labelText(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return text
}

// Verify Workflow implements Detector at compile time.
var _ Detector = (*Workflow)(nil)
