// Package runway drives image-to-video generation jobs: submit a job, poll
// it until it reaches a terminal state, then download the result.
//
// Example usage:
//
//	client, _ := runway.NewClient(os.Getenv("RUNWAYML_API_SECRET"))
//	img, _ := runway.ImageReference("starter_frame.jpg")
//	gen := runway.NewGenerator(client, runway.WithRecorder(runway.NewFileRecorder(".")))
//	res, err := gen.Run(ctx, &runway.ImageToVideoRequest{
//	    PromptImage: img,
//	    PromptText:  "The object comes alive.",
//	}, "output.mp4")
package runway

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Defaults for image-to-video requests.
const (
	DefaultBaseURL    = "https://api.dev.runwayml.com/v1"
	DefaultAPIVersion = "2024-11-06"
	DefaultModel      = "gen4_turbo"
	DefaultRatio      = "1280:720"
	DefaultDuration   = 5

	// MaxSeed bounds randomly chosen seeds.
	MaxSeed = 1_000_000_000
)

// ImageToVideoRequest is the job specification sent on submission.
type ImageToVideoRequest struct {
	Model       string `json:"model"`
	PromptImage string `json:"promptImage"`
	PromptText  string `json:"promptText,omitempty"`
	Ratio       string `json:"ratio"`
	Duration    int    `json:"duration"`
	Seed        *int64 `json:"seed,omitempty"`
}

// withDefaults fills unset fields with package defaults.
func (r ImageToVideoRequest) withDefaults() ImageToVideoRequest {
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.Ratio == "" {
		r.Ratio = DefaultRatio
	}
	if r.Duration == 0 {
		r.Duration = DefaultDuration
	}
	return r
}

// Status is the remote job state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusThrottled Status = "THROTTLED"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether polling should stop at this status.
// Everything other than SUCCEEDED and FAILED keeps the poll loop going.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Task is the remote view of a generation job.
type Task struct {
	ID          string   `json:"id"`
	Status      Status   `json:"status"`
	Output      []string `json:"output,omitempty"`
	Failure     string   `json:"failure,omitempty"`
	FailureCode string   `json:"failureCode,omitempty"`
	Progress    float64  `json:"progress,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

// Exchange is a diagnostic snapshot of one HTTP response.
type Exchange struct {
	StatusCode int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Body       json.RawMessage   `json:"body,omitempty"`
}

// newExchange captures resp and its already-read body. Bodies that are not
// JSON are stored as a JSON string.
func newExchange(resp *http.Response, body []byte) *Exchange {
	ex := &Exchange{
		StatusCode: resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    make(map[string]string, len(resp.Header)),
	}
	for k, v := range resp.Header {
		ex.Headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	switch {
	case len(body) == 0:
	case json.Valid(body):
		ex.Body = json.RawMessage(body)
	default:
		quoted, _ := json.Marshal(string(body))
		ex.Body = quoted
	}
	return ex
}
