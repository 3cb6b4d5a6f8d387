package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/feed"
	"github.com/joseph-ayodele/scavenger/internal/llm"
	"github.com/joseph-ayodele/scavenger/internal/uploads"
)

func newExtractCommand() *cobra.Command {
	var (
		schemaName string
		store      bool
	)
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract an event from a flyer image and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := setup()
			ctx := cmd.Context()

			schema, ok := llm.ParseSchema(schemaName)
			if !ok {
				return fmt.Errorf("unknown schema %q (want event or legacy)", schemaName)
			}
			if store && schema != llm.SchemaEvent {
				return fmt.Errorf("--store only applies to the event schema")
			}

			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if !uploads.IsImage(b) {
				return fmt.Errorf("%s is not a supported image (%s)", args[0], uploads.DetectMime(b))
			}
			mimeType := uploads.DetectMime(b)

			a, err := newApp(ctx, cfg, nil, true, logger)
			if err != nil {
				return reportConfigError(logger, err)
			}
			defer a.Close(ctx)

			var out any
			switch {
			case store:
				out, err = a.feed.ExtractAndStore(ctx, feed.Upload{Filename: filepath.Base(args[0]), MimeType: mimeType, Bytes: b})
			case schema == llm.SchemaLegacy:
				out, err = a.extractor.ExtractLegacy(ctx, llm.ExtractRequest{ImageBytes: b, MimeType: mimeType})
			default:
				out, err = a.extractor.Extract(ctx, llm.ExtractRequest{ImageBytes: b, MimeType: mimeType})
			}
			if err != nil {
				logger.Error("extract.failed", "file", args[0], "error", err)
				return fmt.Errorf("extract: %s", common.Message(err))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&schemaName, "schema", string(llm.SchemaEvent), "output schema: event or legacy")
	cmd.Flags().BoolVar(&store, "store", false, "save the image and append an extraction record")
	return cmd
}
