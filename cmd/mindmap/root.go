package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/video-mindmap/internal/config"
	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/ui"
	"github.com/signalsfoundry/video-mindmap/model"
)

var version = "0.3.0"

// app carries state resolved by the root command's pre-run hook.
type app struct {
	configPath string
	noColor    bool
	logLevel   string

	cfg *config.Config
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mindmap",
		Short: "mindmap — radial video mind map tooling",
		Long: ui.Brand.Sprint(ui.Mark+" mindmap") + " — inspect and replay video mind maps\n" +
			ui.Subtle.Sprint("Validate documents, print layouts, replay pointer scripts and simulate playback"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetVersionTemplate("mindmap {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a TOML config file")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		validateCmd(a),
		layoutCmd(a),
		replayCmd(a),
		playCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	ui.SetColor(cfg.UI.Color && !a.noColor)

	a.log = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

func loadDocument(path string) (*model.Document, error) {
	if path == "-" {
		return model.Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return model.Decode(f)
}

func printErr(w io.Writer, format string, args ...any) {
	ui.Bad.Fprintf(w, "  "+format+"\n", args...)
}
