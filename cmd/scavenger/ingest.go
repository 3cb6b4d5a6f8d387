package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/scavenger/internal/ingest"
)

func newIngestCommand() *cobra.Command {
	var (
		watch      bool
		skipHidden bool
		debounce   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Extract every flyer image under a directory into the local records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, nil, true, logger)
			if err != nil {
				return reportConfigError(logger, err)
			}
			defer a.Close(context.Background())

			g := ingest.NewIngestor(a.feed, logger)
			if watch {
				err := g.Watch(ctx, ingest.WatchConfig{Roots: args, InitialScan: true, Debounce: debounce})
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}

			results, stats, err := g.IngestDirectory(ctx, args[0], skipHidden)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Stats   ingest.DirStats     `json:"stats"`
				Results []ingest.FileResult `json:"results"`
			}{stats, results})
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and ingest new images as they appear")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot files and directories")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait for writes to settle before ingesting (watch mode)")
	return cmd
}
