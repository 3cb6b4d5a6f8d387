package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/scavenger/internal/common"
)

var (
	logFormat string
	logLevel  string
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "scavenger",
		Short:         "Campus food flyer extraction service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&logFormat, "log-format", envOr("LOG_FORMAT", "json"), "log format: json or text")
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level: debug, info, warn, error")

	root.AddCommand(newServeCommand(), newExtractCommand(), newIngestCommand(), newExportCommand(), newCheckCommand())
	return root
}

// setup loads configuration and installs the process logger.
func setup() (*common.Config, *slog.Logger) {
	cfg := common.LoadConfig()
	logger := newLogger(os.Stderr, logFormat, logLevel)
	slog.SetDefault(logger)
	return cfg, logger
}

func newLogger(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// reportConfigError prints the setup hint for a missing variable.
func reportConfigError(logger *slog.Logger, err error) error {
	if hint := common.SetupHint(err); hint != "" {
		logger.Error("config.missing", "error", common.Message(err), "hint", hint)
		return fmt.Errorf("%s (%s)", common.Message(err), hint)
	}
	logger.Error("config.invalid", "error", err)
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
