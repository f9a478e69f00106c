package runway

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the generation workflow.
var (
	// ErrNoAPIKey is returned when the client has no credential.
	ErrNoAPIKey = errors.New("runway: API key required")

	// ErrNoTaskID is returned when a submission succeeds without an id.
	ErrNoTaskID = errors.New("runway: response did not include a task id")

	// ErrNoOutput is returned when a task succeeds without any output URL.
	ErrNoOutput = errors.New("runway: no output URL returned from successful task")

	// ErrTaskFailed matches every *TaskFailedError.
	ErrTaskFailed = errors.New("runway: video generation failed")

	// ErrPollTimeout is returned when a task is still running after MaxWait.
	ErrPollTimeout = errors.New("runway: timed out waiting for task")
)

// APIError is a non-success response from the generation API.
type APIError struct {
	// Op names the call that failed: "submit", "status", or "download".
	Op         string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("runway %s: API error %d: %s", e.Op, e.StatusCode, e.Message)
}

// TaskFailedError reports a task that reached the FAILED state.
type TaskFailedError struct {
	TaskID  string
	Failure string
	Code    string
}

// Error implements the error interface.
func (e *TaskFailedError) Error() string {
	if e.Failure != "" {
		return fmt.Sprintf("runway: video generation failed (task %s): %s", e.TaskID, e.Failure)
	}
	return fmt.Sprintf("runway: video generation failed (task %s)", e.TaskID)
}

// Is makes errors.Is(err, ErrTaskFailed) true.
func (e *TaskFailedError) Is(target error) bool {
	return target == ErrTaskFailed
}

// ErrorKind classifies an error for the diagnostic error log.
func ErrorKind(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return "api_" + apiErr.Op
	case errors.Is(err, ErrNoTaskID):
		return "no_task_id"
	case errors.Is(err, ErrNoOutput):
		return "no_output"
	case errors.Is(err, ErrTaskFailed):
		return "task_failed"
	case errors.Is(err, ErrPollTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
