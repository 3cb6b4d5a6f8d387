package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored extraction records to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := setup()
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, nil, false, logger)
			if err != nil {
				return reportConfigError(logger, err)
			}
			defer a.Close(ctx)

			b, err := a.export.ExtractionsXLSX(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logger.Info("export.written", "path", output, "bytes", len(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "scavenger-events.xlsx", "destination file")
	return cmd
}
