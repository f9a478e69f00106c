package runway

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Diagnostic file names written by FileRecorder.
const (
	SubmissionFile = "start_generation_response.json"
	PollsFile      = "polling_responses.json"
	ErrorFile      = "error_log.json"
)

// Recorder persists diagnostic snapshots of a generation run. Records are
// write-only; nothing reads them back. Recorder failures never abort a run.
type Recorder interface {
	Submission(ex *Exchange) error
	Poll(attempt int, ex *Exchange) error
	Failure(err error, elapsed time.Duration) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Submission(*Exchange) error { return nil }
func (NopRecorder) Poll(int, *Exchange) error { return nil }
func (NopRecorder) Failure(error, time.Duration) error { return nil }

// PollRecord is one entry of the cumulative poll file.
type PollRecord struct {
	PollCount int       `json:"pollCount"`
	Timestamp time.Time `json:"timestamp"`
	*Exchange
}

// FileRecorder writes each record as a whole JSON document into dir,
// replacing the previous version of the file.
type FileRecorder struct {
	dir   string
	runID string
	now   func() time.Time

	mu    sync.Mutex
	polls []PollRecord
}

// NewFileRecorder creates a recorder writing into dir.
func NewFileRecorder(dir string) *FileRecorder {
	return &FileRecorder{
		dir:   dir,
		runID: ulid.Make().String(),
		now:   time.Now,
	}
}

// RunID identifies this run in every file written.
func (r *FileRecorder) RunID() string {
	return r.runID
}

// Submission writes the submission response.
func (r *FileRecorder) Submission(ex *Exchange) error {
	return r.write(SubmissionFile, struct {
		RunID string `json:"runId"`
		*Exchange
	}{r.runID, ex})
}

// Poll appends a poll response and rewrites the cumulative poll file.
func (r *FileRecorder) Poll(attempt int, ex *Exchange) error {
	r.mu.Lock()
	r.polls = append(r.polls, PollRecord{
		PollCount: attempt,
		Timestamp: r.now().UTC(),
		Exchange:  ex,
	})
	snapshot := make([]PollRecord, len(r.polls))
	copy(snapshot, r.polls)
	r.mu.Unlock()

	return r.write(PollsFile, struct {
		RunID string       `json:"runId"`
		Polls []PollRecord `json:"polls"`
	}{r.runID, snapshot})
}

// Failure writes the error log.
func (r *FileRecorder) Failure(err error, elapsed time.Duration) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return r.write(ErrorFile, struct {
		RunID     string    `json:"runId"`
		Timestamp time.Time `json:"timestamp"`
		Duration  float64   `json:"duration"`
		Error     struct {
			Message string `json:"message"`
			Kind    string `json:"kind"`
		} `json:"error"`
	}{
		RunID:     r.runID,
		Timestamp: r.now().UTC(),
		Duration:  elapsed.Seconds(),
		Error: struct {
			Message string `json:"message"`
			Kind    string `json:"kind"`
		}{msg, ErrorKind(err)},
	})
}

func (r *FileRecorder) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("runway: encode %s: %w", name, err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("runway: create record dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("runway: write %s: %w", name, err)
	}
	return nil
}

var (
	_ Recorder = NopRecorder{}
	_ Recorder = (*FileRecorder)(nil)
)
