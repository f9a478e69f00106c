package vision

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWorkflowURL is returned when the detector has no endpoint.
	ErrNoWorkflowURL = errors.New("vision: workflow URL required")

	// ErrNoImage is returned when Detect is called without an image.
	ErrNoImage = errors.New("vision: image required")
)

// APIError is a non-success response from the detection workflow.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("vision: workflow request failed: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("vision: workflow request failed: %s", e.Status)
}
