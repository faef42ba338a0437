package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/ui"
)

func validateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document.json>...",
		Short: "Check mind map documents against the upload rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ui.Banner(out, "validate")

			headers := []string{"", "File", "Result"}
			var rows [][]string
			failed := 0
			for _, path := range args {
				doc, err := loadDocument(path)
				if err != nil {
					failed++
					rows = append(rows, []string{ui.StatusIcon(false), path, err.Error()})
					a.log.Debug(cmd.Context(), "document rejected",
						logging.String("path", path),
						logging.Err(err),
					)
					continue
				}
				rows = append(rows, []string{ui.StatusIcon(true), path, doc.Summary()})
			}
			ui.Table(out, headers, rows)

			if failed > 0 {
				return fmt.Errorf("%d of %d documents invalid", failed, len(args))
			}
			fmt.Fprintln(out)
			ui.Good.Fprintf(out, "  All %d documents valid\n", len(args))
			return nil
		},
	}
}
