package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-lumiere/internal/config"
	"github.com/teslashibe/go-lumiere/internal/log"
	"github.com/teslashibe/go-lumiere/pkg/runway"
)

// Animation defaults.
const (
	DefaultImage  = "starter_frame.jpg"
	DefaultOutput = "output.mp4"
	DefaultPrompt = "The object comes alive. On the front of the can, two large, adorable cartoonish eyes appear, slightly exaggerated for cuteness, with a glossy, animated shine and long, expressive blinks. " +
		"The eyes look around curiously, sometimes widening in surprise or narrowing in playful focus. " +
		"The can wobbles gently in place, occasionally doing a tiny hop, tilt, or spin as if reacting with childlike curiosity. " +
		"Its movements are full of charm, like a small animated character exploring its environment. " +
		"The entire scene is looped, with the can blinking, shifting, rocking, and glancing around. " +
		"Lighting and reflections on the can remain realistic, with soft shadows enhancing its lifelike appearance."
)

type animateOptions struct {
	image        string
	prompt       string
	out          string
	ratio        string
	duration     int
	model        string
	seed         int64
	pollInterval time.Duration
	maxWait      time.Duration
	debugDir     string
	noDebugFiles bool
	logLevel     string
}

func newAnimateCmd() *cobra.Command {
	var opts animateOptions

	cmd := &cobra.Command{
		Use:   "animate",
		Short: "Turn a still image into a short video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnimate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.image, "image", DefaultImage, "source image path or http(s) URL")
	f.StringVar(&opts.prompt, "prompt", DefaultPrompt, "text describing the motion")
	f.StringVar(&opts.out, "out", DefaultOutput, "destination video path")
	f.StringVar(&opts.ratio, "ratio", runway.DefaultRatio, "output aspect ratio")
	f.IntVar(&opts.duration, "duration", runway.DefaultDuration, "video duration in seconds")
	f.StringVar(&opts.model, "model", runway.DefaultModel, "generation model")
	f.Int64Var(&opts.seed, "seed", -1, "random seed, -1 picks one")
	f.DurationVar(&opts.pollInterval, "poll-interval", runway.DefaultPollInterval, "pause between status checks")
	f.DurationVar(&opts.maxWait, "max-wait", 0, "give up polling after this long, 0 waits forever")
	f.StringVar(&opts.debugDir, "debug-dir", ".", "directory for diagnostic JSON files")
	f.BoolVar(&opts.noDebugFiles, "no-debug-files", false, "do not write diagnostic JSON files")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	return cmd
}

func runAnimate(cmd *cobra.Command, opts animateOptions) error {
	rw, err := config.LoadRunway()
	if err != nil {
		return err
	}

	level := opts.logLevel
	if level == "" {
		level = config.LogLevel()
	}
	logger := log.New(cmd.ErrOrStderr(), level)

	image, err := runway.ImageReference(opts.image)
	if err != nil {
		return err
	}

	client, err := runway.NewClient(rw.APIKey,
		runway.WithBaseURL(rw.BaseURL),
		runway.WithClientLogger(logger),
	)
	if err != nil {
		return err
	}

	var recorder runway.Recorder = runway.NopRecorder{}
	if !opts.noDebugFiles {
		fr := runway.NewFileRecorder(opts.debugDir)
		logger.Info("writing diagnostics", "dir", opts.debugDir, "run_id", fr.RunID())
		recorder = fr
	}

	gen := runway.NewGenerator(client,
		runway.WithRecorder(recorder),
		runway.WithPollInterval(opts.pollInterval),
		runway.WithMaxWait(opts.maxWait),
		runway.WithLogger(logger),
	)

	req := &runway.ImageToVideoRequest{
		Model:       opts.model,
		PromptImage: image,
		PromptText:  opts.prompt,
		Ratio:       opts.ratio,
		Duration:    opts.duration,
	}
	if opts.seed >= 0 {
		seed := opts.seed
		req.Seed = &seed
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := gen.Run(ctx, req, opts.out)
	if err != nil {
		return fmt.Errorf("video generation failed: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Video saved to %s (%d bytes, task %s, %d polls, %s)\n",
		res.Path, res.Bytes, res.TaskID, res.Polls, res.Elapsed.Round(time.Millisecond))
	return err
}
