package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/internal/interaction"
	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/observability"
	"github.com/signalsfoundry/video-mindmap/internal/session"
)

// ErrInvalidConfig is wrapped by every Load and Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration is a time.Duration written as "200ms" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds mind map engine, server and telemetry settings.
type Config struct {
	Engine  EngineConfig  `toml:"engine"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
	Tracing TracingConfig `toml:"tracing"`
	UI      UIConfig      `toml:"ui"`
}

// EngineConfig tunes layout interaction and the active-node debounce.
type EngineConfig struct {
	Debounce     Duration `toml:"debounce"`
	PumpInterval Duration `toml:"pump_interval"`
	DeadZone     float64  `toml:"dead_zone"`
	MinScale     float64  `toml:"min_scale"`
	MaxScale     float64  `toml:"max_scale"`
	ZoomFactor   float64  `toml:"zoom_factor"`
	NodeWidth    float64  `toml:"node_width"`
	NodeHeight   float64  `toml:"node_height"`
	ChildWidth   float64  `toml:"child_width"`
	ChildHeight  float64  `toml:"child_height"`
}

// ServerConfig holds listen addresses for cmd/mindmap-server.
type ServerConfig struct {
	GRPCAddr    string `toml:"grpc_addr"`
	MetricsAddr string `toml:"metrics_addr"` // empty disables /metrics
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `toml:"enabled"`
	Exporter    string  `toml:"exporter"` // stdout | otlp
	Endpoint    string  `toml:"endpoint"`
	ServiceName string  `toml:"service_name"`
	SampleRatio float64 `toml:"sample_ratio"`
}

// UIConfig controls terminal output.
type UIConfig struct {
	Color bool `toml:"color"`
}

// Default returns the default configuration.
func Default() *Config {
	fp := interaction.DefaultFootprints()
	return &Config{
		Engine: EngineConfig{
			Debounce:     Duration(200 * time.Millisecond),
			PumpInterval: Duration(10 * time.Millisecond),
			DeadZone:     interaction.DefaultDeadZone,
			MinScale:     core.DefaultMinScale,
			MaxScale:     core.DefaultMaxScale,
			ZoomFactor:   core.DefaultZoomFactor,
			NodeWidth:    fp.Node.X,
			NodeHeight:   fp.Node.Y,
			ChildWidth:   fp.Child.X,
			ChildHeight:  fp.Child.Y,
		},
		Server: ServerConfig{
			GRPCAddr:    ":50051",
			MetricsAddr: ":9090",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			ServiceName: "mindmap-grpc",
			SampleRatio: 1,
		},
		UI: UIConfig{Color: true},
	}
}

// Dir returns the mindmap config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mindmap")
}

// DefaultPath returns the config file consulted when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path over the defaults, applies MINDMAP_* environment
// overrides and validates the result. An empty path reads DefaultPath if
// it exists; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ApplyEnv overrides fields from MINDMAP_* environment variables.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("MINDMAP_GRPC_ADDR", &c.Server.GRPCAddr)
	str("MINDMAP_METRICS_ADDR", &c.Server.MetricsAddr)
	str("MINDMAP_LOG_LEVEL", &c.Log.Level)
	str("MINDMAP_LOG_FORMAT", &c.Log.Format)
	str("MINDMAP_TRACING_EXPORTER", &c.Tracing.Exporter)
	str("MINDMAP_OTLP_ENDPOINT", &c.Tracing.Endpoint)
	str("MINDMAP_TRACING_SERVICE_NAME", &c.Tracing.ServiceName)

	if v, ok := os.LookupEnv("MINDMAP_TRACING_ENABLED"); ok {
		c.Tracing.Enabled = strings.EqualFold(v, "true")
	}
	if v, ok := os.LookupEnv("MINDMAP_TRACING_SAMPLE_RATIO"); ok {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: MINDMAP_TRACING_SAMPLE_RATIO: %v", ErrInvalidConfig, err)
		}
		c.Tracing.SampleRatio = ratio
	}
	if v, ok := os.LookupEnv("MINDMAP_DEBOUNCE"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: MINDMAP_DEBOUNCE: %v", ErrInvalidConfig, err)
		}
		c.Engine.Debounce = Duration(d)
	}
	return nil
}

// Validate checks ranges that would otherwise break the engine.
func (c *Config) Validate() error {
	if err := c.Engine.ViewportOptions().Validate(); err != nil {
		return fmt.Errorf("%w: engine: %v", ErrInvalidConfig, err)
	}
	if c.Engine.Debounce <= 0 {
		return fmt.Errorf("%w: engine.debounce must be > 0", ErrInvalidConfig)
	}
	if c.Engine.PumpInterval <= 0 {
		return fmt.Errorf("%w: engine.pump_interval must be > 0", ErrInvalidConfig)
	}
	if c.Engine.DeadZone < 0 {
		return fmt.Errorf("%w: engine.dead_zone must be >= 0", ErrInvalidConfig)
	}
	if c.Engine.NodeWidth <= 0 || c.Engine.NodeHeight <= 0 || c.Engine.ChildWidth <= 0 || c.Engine.ChildHeight <= 0 {
		return fmt.Errorf("%w: engine footprints must be positive", ErrInvalidConfig)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sample_ratio must be within [0, 1]", ErrInvalidConfig)
	}
	if !observability.KnownExporter(c.Tracing.Exporter) {
		return fmt.Errorf("%w: unsupported tracing exporter %q", ErrInvalidConfig, c.Tracing.Exporter)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// ViewportOptions returns the scale bounds as core options.
func (e EngineConfig) ViewportOptions() core.ViewportOptions {
	return core.ViewportOptions{
		MinScale:   e.MinScale,
		MaxScale:   e.MaxScale,
		ZoomFactor: e.ZoomFactor,
	}
}

// SessionOptions converts the engine section into session options.
func (e EngineConfig) SessionOptions() []session.Option {
	return []session.Option{
		session.WithViewportOptions(e.ViewportOptions()),
		session.WithFootprints(e.Footprints()),
		session.WithDeadZone(e.DeadZone),
		session.WithDebounce(e.Debounce.Std()),
	}
}

// Footprints returns the hit-test box sizes.
func (e EngineConfig) Footprints() interaction.Footprints {
	return interaction.Footprints{
		Node:  core.Vec2{X: e.NodeWidth, Y: e.NodeHeight},
		Child: core.Vec2{X: e.ChildWidth, Y: e.ChildHeight},
	}
}

// Observability converts the section into the tracer's configuration.
func (t TracingConfig) Observability() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     t.Enabled,
		ServiceName: t.ServiceName,
		Exporter:    t.Exporter,
		Endpoint:    t.Endpoint,
		SampleRatio: t.SampleRatio,
	}
}
