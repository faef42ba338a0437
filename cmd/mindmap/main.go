// Command mindmap inspects mind map documents offline: validation, layout
// tables, scripted interaction replay and simulated playback.
package main

import (
	"os"

	"github.com/signalsfoundry/video-mindmap/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		ui.Bad.Fprintf(os.Stderr, "mindmap: %v\n", err)
		os.Exit(1)
	}
}
