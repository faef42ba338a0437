package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/internal/ui"
	"github.com/signalsfoundry/video-mindmap/model"
)

type layoutNode struct {
	Index    int       `json:"index"`
	Topic    string    `json:"topic,omitempty"`
	Badge    string    `json:"badge,omitempty"`
	Ring     int       `json:"ring"`
	Position core.Vec2 `json:"position"`
}

type layoutChild struct {
	Parent   int       `json:"parent"`
	Kind     string    `json:"kind"`
	Position core.Vec2 `json:"position"`
}

type layoutReport struct {
	Nodes      int           `json:"nodes"`
	Sectors    int           `json:"sectors"`
	Rings      int           `json:"rings"`
	BaseRadius float64       `json:"base_radius"`
	ViewScale  float64       `json:"view_scale"`
	ViewPan    core.Vec2     `json:"view_pan"`
	Positions  []layoutNode  `json:"positions"`
	Children   []layoutChild `json:"children,omitempty"`
}

func layoutCmd(a *app) *cobra.Command {
	var (
		nodes  int
		expand []int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "layout [document.json]",
		Short: "Print the radial layout for a document or a node count",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc *model.Document
			switch {
			case len(args) == 1:
				d, err := loadDocument(args[0])
				if err != nil {
					return err
				}
				doc = d
				nodes = len(d.Nodes)
			case nodes <= 0:
				return fmt.Errorf("pass a document or --nodes N")
			}

			report := buildLayout(doc, nodes, expand)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printLayout(cmd, report)
			return nil
		},
	}
	cmd.Flags().IntVar(&nodes, "nodes", 0, "Lay out N placeholder nodes instead of a document")
	cmd.Flags().IntSliceVar(&expand, "expand", nil, "Node indices whose children to include")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func buildLayout(doc *model.Document, n int, expand []int) layoutReport {
	band := core.Band(n)
	sectors := core.SectorsPerRing(n)
	positions := core.LayoutTopLevel(n)

	report := layoutReport{
		Nodes:      n,
		Sectors:    sectors,
		Rings:      core.RingsNeeded(n),
		BaseRadius: band.BaseRadius,
		ViewScale:  band.ViewScale,
		ViewPan:    band.ViewPan,
		Positions:  make([]layoutNode, 0, n),
	}
	for i, pos := range positions {
		ln := layoutNode{Index: i, Ring: i / sectors, Position: pos}
		if doc != nil {
			ln.Topic = doc.Nodes[i].Topic
			ln.Badge = model.FormatTimestamp(doc.Nodes[i].Timestamp.Start())
		}
		report.Positions = append(report.Positions, ln)
	}
	for _, i := range expand {
		if i < 0 || i >= n {
			continue
		}
		c := core.LayoutChildren(positions[i], core.CanvasCenter)
		report.Children = append(report.Children,
			layoutChild{Parent: i, Kind: model.ChildSummary.String(), Position: c.Summary},
			layoutChild{Parent: i, Kind: model.ChildKeyphrase.String(), Position: c.Keyphrase},
			layoutChild{Parent: i, Kind: model.ChildEmoji.String(), Position: c.Emoji},
		)
	}
	return report
}

func printLayout(cmd *cobra.Command, r layoutReport) {
	out := cmd.OutOrStdout()
	ui.Banner(out, "layout")
	fmt.Fprintf(out, "  Nodes:        %d\n", r.Nodes)
	fmt.Fprintf(out, "  Rings:        %d × %d sectors\n", r.Rings, r.Sectors)
	fmt.Fprintf(out, "  Base radius:  %.0f\n", r.BaseRadius)
	fmt.Fprintf(out, "  Reset view:   scale %.2f, pan (%.0f, %.0f)\n\n", r.ViewScale, r.ViewPan.X, r.ViewPan.Y)

	rows := make([][]string, 0, len(r.Positions))
	for _, p := range r.Positions {
		rows = append(rows, []string{
			strconv.Itoa(p.Index), p.Badge, p.Topic, strconv.Itoa(p.Ring), fmtCoord(p.Position.X), fmtCoord(p.Position.Y),
		})
	}
	ui.Table(out, []string{"#", "Time", "Topic", "Ring", "X", "Y"}, rows)

	if len(r.Children) > 0 {
		fmt.Fprintln(out)
		rows = rows[:0]
		for _, c := range r.Children {
			rows = append(rows, []string{strconv.Itoa(c.Parent), c.Kind, fmtCoord(c.Position.X), fmtCoord(c.Position.Y)})
		}
		ui.Table(out, []string{"Parent", "Child", "X", "Y"}, rows)
	}
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
