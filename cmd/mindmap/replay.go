package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/video-mindmap/internal/replay"
	"github.com/signalsfoundry/video-mindmap/internal/ui"
	"github.com/signalsfoundry/video-mindmap/model"
)

func replayCmd(a *app) *cobra.Command {
	var (
		scriptPath string
		docPath    string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "replay --script events.toml [--document map.json]",
		Short: "Replay a timed pointer and playback script against a document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := replay.LoadFile(scriptPath)
			if err != nil {
				return err
			}

			path := docPath
			if path == "" {
				if script.Document == "" {
					return fmt.Errorf("no document: pass --document or set document in %s", scriptPath)
				}
				path = script.Document
				if !filepath.IsAbs(path) {
					path = filepath.Join(filepath.Dir(scriptPath), path)
				}
			}
			doc, err := loadDocument(path)
			if err != nil {
				return err
			}

			res, err := replay.Run(cmd.Context(), doc, script,
				replay.WithLogger(a.log),
				replay.WithSessionOptions(a.cfg.Engine.SessionOptions()...),
			)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printReplay(cmd, doc, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "TOML event script")
	cmd.Flags().StringVar(&docPath, "document", "", "Mind map document (overrides the script's document)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full result as JSON")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func printReplay(cmd *cobra.Command, doc *model.Document, res *replay.Result) {
	out := cmd.OutOrStdout()
	ui.Banner(out, "replay")

	rows := make([][]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		rows = append(rows, []string{s.At.String(), string(s.Op), s.Result})
	}
	ui.Table(out, []string{"At", "Op", "Result"}, rows)

	if len(res.ActiveChanges) > 0 {
		fmt.Fprintln(out)
		rows = rows[:0]
		for _, c := range res.ActiveChanges {
			rows = append(rows, []string{c.At.String(), strconv.Itoa(c.From), strconv.Itoa(c.To), topicName(doc, c.To)})
		}
		ui.Table(out, []string{"At", "From", "To", "Topic"}, rows)
	}

	final := res.Final
	expanded := 0
	for _, n := range final.Nodes {
		if n.Expanded {
			expanded++
		}
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Duration:     %s\n", res.Duration)
	fmt.Fprintf(out, "  Active node:  %s\n", topicName(doc, final.Active))
	fmt.Fprintf(out, "  Expanded:     %d of %d\n", expanded, len(final.Nodes))
	fmt.Fprintf(out, "  Viewport:     scale %.2f, pan (%.1f, %.1f)\n", final.Viewport.Scale, final.Viewport.Pan.X, final.Viewport.Pan.Y)
}

func topicName(doc *model.Document, i int) string {
	if doc == nil || i < 0 || i >= len(doc.Nodes) {
		return "none"
	}
	return doc.Nodes[i].Topic
}
