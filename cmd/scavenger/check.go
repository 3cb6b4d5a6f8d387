package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the storage backend is reachable and count stored records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := setup()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a, err := newApp(ctx, cfg, nil, false, logger)
			if err != nil {
				return reportConfigError(logger, err)
			}
			defer a.Close(context.Background())

			if err := a.store.Ping(ctx); err != nil {
				return fmt.Errorf("storage health: FAIL (%w)", err)
			}
			recs, err := a.store.ListRecords(ctx)
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "storage health: OK (%s)\nextraction records: %d\n", cfg.Storage.Backend, len(recs))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "overall deadline")
	return cmd
}
