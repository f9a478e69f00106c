package runway

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"
)

// DefaultPollInterval is the pause between status checks.
const DefaultPollInterval = 2 * time.Second

// Generator runs the submit, poll, download workflow for one job at a time.
type Generator struct {
	client       *Client
	recorder     Recorder
	pollInterval time.Duration
	maxWait      time.Duration
	logger       *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRecorder persists diagnostics for every step.
func WithRecorder(r Recorder) GeneratorOption {
	return func(g *Generator) { g.recorder = r }
}

// WithPollInterval overrides the pause between status checks.
func WithPollInterval(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.pollInterval = d }
}

// WithMaxWait bounds the total time spent polling. Zero polls until the
// task reaches a terminal state or ctx is done.
func WithMaxWait(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.maxWait = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// NewGenerator creates a Generator over client.
func NewGenerator(client *Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:       client,
		recorder:     NopRecorder{},
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.pollInterval <= 0 {
		g.pollInterval = DefaultPollInterval
	}
	g.logger = g.logger.With("component", "runway.generator")
	return g
}

// Result describes a completed generation.
type Result struct {
	TaskID   string
	VideoURL string
	Path     string
	Bytes    int64
	Polls    int
	Elapsed  time.Duration
}

// Run submits req, waits for the task to finish and saves the first output
// to dest. Any failure aborts the whole run; the error is also written to
// the recorder.
func (g *Generator) Run(ctx context.Context, req *ImageToVideoRequest, dest string) (*Result, error) {
	start := time.Now()

	res, err := g.run(ctx, req, dest, start)
	if err != nil {
		if rerr := g.recorder.Failure(err, time.Since(start)); rerr != nil {
			g.logger.Warn("could not save error log", "error", rerr)
		}
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

func (g *Generator) run(ctx context.Context, req *ImageToVideoRequest, dest string, start time.Time) (*Result, error) {
	job := *req
	if job.Seed == nil {
		seed := rand.Int64N(MaxSeed)
		job.Seed = &seed
	}

	id, ex, err := g.client.Submit(ctx, &job)
	g.record(func() error { return g.recorder.Submission(ex) }, ex)
	if err != nil {
		return nil, err
	}

	videoURL, polls, err := g.poll(ctx, id, start)
	if err != nil {
		return nil, err
	}

	n, err := g.save(ctx, videoURL, dest)
	if err != nil {
		return nil, err
	}

	g.logger.Info("video saved", "path", dest, "bytes", n, "polls", polls)
	return &Result{
		TaskID:   id,
		VideoURL: videoURL,
		Path:     dest,
		Bytes:    n,
		Polls:    polls,
	}, nil
}

// poll checks the task until it is terminal and returns its first output.
func (g *Generator) poll(ctx context.Context, id string, start time.Time) (string, int, error) {
	for attempt := 1; ; attempt++ {
		task, ex, err := g.client.Task(ctx, id)
		g.record(func() error { return g.recorder.Poll(attempt, ex) }, ex)
		if err != nil {
			return "", attempt, err
		}

		switch task.Status {
		case StatusSucceeded:
			if len(task.Output) == 0 {
				return "", attempt, ErrNoOutput
			}
			g.logger.Info("task succeeded", "task_id", id, "url", task.Output[0])
			return task.Output[0], attempt, nil
		case StatusFailed:
			return "", attempt, &TaskFailedError{TaskID: id, Failure: task.Failure, Code: task.FailureCode}
		}

		if g.maxWait > 0 && time.Since(start)+g.pollInterval > g.maxWait {
			return "", attempt, fmt.Errorf("%w: task %s still %s after %d polls", ErrPollTimeout, id, task.Status, attempt)
		}

		g.logger.Debug("task pending",
			"task_id", id,
			"status", task.Status,
			"attempt", attempt,
			"progress", task.Progress,
		)

		timer := time.NewTimer(g.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", attempt, ctx.Err()
		case <-timer.C:
		}
	}
}

// save downloads videoURL into a temp file next to dest, then renames it
// into place so dest is never left half written.
func (g *Generator) save(ctx context.Context, videoURL, dest string) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("runway: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".lumiere-download-*")
	if err != nil {
		return 0, fmt.Errorf("runway: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := g.client.Download(ctx, videoURL, tmp)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("runway: close temp file: %w", cerr)
	}
	if err != nil {
		return 0, err
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("runway: save video: %w", err)
	}
	return n, nil
}

// record runs a recorder call when there is something to record, logging
// rather than propagating recorder failures.
func (g *Generator) record(write func() error, ex *Exchange) {
	if ex == nil {
		return
	}
	if err := write(); err != nil {
		g.logger.Warn("could not save diagnostics", "error", err)
	}
}
