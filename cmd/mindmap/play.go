package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/internal/session"
	"github.com/signalsfoundry/video-mindmap/internal/ui"
	"github.com/signalsfoundry/video-mindmap/model"
	"github.com/signalsfoundry/video-mindmap/timectrl"
)

func playCmd(a *app) *cobra.Command {
	var (
		rate     float64
		tick     time.Duration
		realtime bool
		fromNode int
		until    float64
	)

	cmd := &cobra.Command{
		Use:   "play <document.json>",
		Short: "Simulate video playback and print active-node highlights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			if rate <= 0 {
				return fmt.Errorf("--rate must be positive")
			}

			duration := until
			if duration <= 0 {
				duration = documentEnd(doc)
			}
			mode := timectrl.Accelerated
			if realtime {
				mode = timectrl.RealTime
			}
			pc := timectrl.NewPlaybackController(tick, mode, duration)
			pc.SetRate(rate)

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			ui.Banner(out, "play")

			var clock timectrl.Clock = timectrl.WallClock{}
			var manual *timectrl.ManualClock
			if !realtime {
				manual = timectrl.NewManualClock(time.Unix(0, 0))
				clock = manual
			}
			sched := schedule.NewEventScheduler(clock)

			var mu sync.Mutex
			changes := 0
			opts := append(a.cfg.Engine.SessionOptions(),
				session.WithLogger(a.log),
				session.WithOnActiveChange(func(prev, next int) {
					mu.Lock()
					defer mu.Unlock()
					changes++
					if next < 0 {
						fmt.Fprintf(out, "  %s  %s\n", ui.Info.Sprint(model.FormatTimestamp(pc.Position())), ui.Subtle.Sprint("no active topic"))
						return
					}
					fmt.Fprintf(out, "  %s  ▶ %s\n", ui.Info.Sprint(model.FormatTimestamp(pc.Position())), doc.Nodes[next].Topic)
				}),
				session.WithOnNodeActivated(pc.Seek),
			)
			sess, err := session.New("play", args[0], doc, sched, opts...)
			if err != nil {
				return err
			}
			defer sess.Close()

			pc.AddListener(func(seconds float64) {
				if err := sess.Tick(seconds); err != nil {
					a.log.Warn(ctx, "dropping playback tick", logging.Err(err))
					return
				}
				if manual != nil {
					manual.Advance(pc.Tick)
					sched.RunDue()
				}
			})

			if realtime {
				pumpCtx, stop := context.WithCancel(ctx)
				defer stop()
				go schedule.Pump(pumpCtx, sched, a.cfg.Engine.PumpInterval.Std())
			}

			if fromNode >= 0 {
				if _, err := sess.ActivateNode(fromNode); err != nil {
					return err
				}
			}

			<-pc.Start(ctx)
			final := sess.FlushActive()

			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Played:       %s of %s\n", model.FormatTimestamp(pc.Position()), model.FormatTimestamp(duration))
			fmt.Fprintf(out, "  Highlights:   %d\n", changes)
			fmt.Fprintf(out, "  Final topic:  %s\n", topicName(doc, final))
			return nil
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", 1, "Playback rate multiplier")
	cmd.Flags().DurationVar(&tick, "tick", 250*time.Millisecond, "Player time-update interval")
	cmd.Flags().BoolVar(&realtime, "realtime", false, "Play on the wall clock instead of as fast as possible")
	cmd.Flags().IntVar(&fromNode, "from-node", -1, "Seek to this node's start before playing")
	cmd.Flags().Float64Var(&until, "until", 0, "Stop at this many seconds (default: end of the last topic)")
	return cmd
}

func documentEnd(doc *model.Document) float64 {
	end := 0.0
	for _, n := range doc.Nodes {
		if e := n.Timestamp.End(); e > end {
			end = e
		}
	}
	return end
}
