// Package replay drives a session from a scripted list of timed input
// events against a manual clock, so debounce and gesture behaviour can be
// reproduced offline.
package replay

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/signalsfoundry/video-mindmap/internal/config"
)

// ErrInvalidScript is wrapped by every script parse or validation failure.
var ErrInvalidScript = errors.New("invalid replay script")

// Op names one scripted input.
type Op string

const (
	OpPointerDown  Op = "pointer_down"
	OpPointerMove  Op = "pointer_move"
	OpPointerUp    Op = "pointer_up"
	OpPointerLeave Op = "pointer_leave"
	OpTick         Op = "tick"
	OpFlush        Op = "flush"
	OpToggle       Op = "toggle"
	OpActivate     Op = "activate"
	OpZoomIn       Op = "zoom_in"
	OpZoomOut      Op = "zoom_out"
	OpResetView    Op = "reset_view"
	OpReorganize   Op = "reorganize"
	OpToggleImages Op = "toggle_images"
	OpOrigin       Op = "origin"
)

var knownOps = map[Op]bool{
	OpPointerDown: true, OpPointerMove: true, OpPointerUp: true, OpPointerLeave: true,
	OpTick: true, OpFlush: true, OpToggle: true, OpActivate: true,
	OpZoomIn: true, OpZoomOut: true, OpResetView: true, OpReorganize: true,
	OpToggleImages: true, OpOrigin: true,
}

// DefaultSettle is how long the clock runs after the last event.
const DefaultSettle = time.Second

// Event is one scripted input. At is the offset from the start of the
// replay; X and Y are screen pixels; Time is playback seconds.
type Event struct {
	At   config.Duration `toml:"at"`
	Op   Op              `toml:"op"`
	X    float64         `toml:"x"`
	Y    float64         `toml:"y"`
	Time float64         `toml:"time"`
	Node int             `toml:"node"`
}

// Script is a replay file:
//
//	document = "forest.json"
//	settle = "1s"
//
//	[[event]]
//	at = "0s"
//	op = "tick"
//	time = 12.5
type Script struct {
	Document string          `toml:"document"`
	Settle   config.Duration `toml:"settle"`
	Events   []Event         `toml:"event"`
}

// Parse decodes and validates a TOML script.
func Parse(data []byte) (*Script, error) {
	var s Script
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidScript, strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses the script at path.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay script: %w", err)
	}
	return Parse(data)
}

// Validate checks ops are known and offsets never go backwards.
func (s *Script) Validate() error {
	if s.Settle < 0 {
		return fmt.Errorf("%w: settle must not be negative", ErrInvalidScript)
	}
	var last time.Duration
	for i, ev := range s.Events {
		if !knownOps[ev.Op] {
			return fmt.Errorf("%w: event %d has unknown op %q", ErrInvalidScript, i, ev.Op)
		}
		at := ev.At.Std()
		if at < 0 {
			return fmt.Errorf("%w: event %d has negative offset %s", ErrInvalidScript, i, at)
		}
		if at < last {
			return fmt.Errorf("%w: event %d at %s is before previous event at %s", ErrInvalidScript, i, at, last)
		}
		last = at
	}
	return nil
}

// SettleDuration returns Settle or DefaultSettle when unset.
func (s *Script) SettleDuration() time.Duration {
	if s.Settle == 0 {
		return DefaultSettle
	}
	return s.Settle.Std()
}
