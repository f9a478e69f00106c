package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-lumiere/internal/config"
	"github.com/teslashibe/go-lumiere/internal/log"
	"github.com/teslashibe/go-lumiere/pkg/lumiere"
)

func newServeCmd() *cobra.Command {
	var (
		debug    bool
		wakeWord string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wearable session endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadServe()
			if err != nil {
				return err
			}
			cfg.Debug = debug
			if cmd.Flags().Changed("wake-word") {
				cfg.WakeWord = lumiere.CleanText(wakeWord)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			level := logLevel
			if level == "" {
				level = config.LogLevel()
			}
			if debug {
				level = "debug"
			}
			log.Init(level)

			app, err := lumiere.NewApp(cfg, log.L())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and request logs")
	cmd.Flags().StringVar(&wakeWord, "wake-word", "", "wake word (default from WAKE_WORD or \"awaken\")")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	return cmd
}
