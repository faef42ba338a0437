package replay

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/signalsfoundry/video-mindmap/core"
	"github.com/signalsfoundry/video-mindmap/internal/logging"
	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/internal/session"
	"github.com/signalsfoundry/video-mindmap/model"
	"github.com/signalsfoundry/video-mindmap/timectrl"
)

// DefaultResolution is the clock step used between events.
const DefaultResolution = 10 * time.Millisecond

// Step records one applied event.
type Step struct {
	At     time.Duration `json:"at"`
	Op     Op            `json:"op"`
	Result string        `json:"result,omitempty"`
}

// ActiveChange records a debounced highlight change.
type ActiveChange struct {
	At   time.Duration `json:"at"`
	From int           `json:"from"`
	To   int           `json:"to"`
}

// Result is everything a replay observed.
type Result struct {
	Steps         []Step           `json:"steps"`
	ActiveChanges []ActiveChange   `json:"active_changes"`
	Seeks         []float64        `json:"seeks"`
	Duration      time.Duration    `json:"duration"`
	Final         session.Snapshot `json:"final"`
}

type runSettings struct {
	resolution  time.Duration
	log         logging.Logger
	sessionOpts []session.Option
}

// Option customises Run.
type Option func(*runSettings)

// WithResolution sets the clock step between events.
func WithResolution(d time.Duration) Option {
	return func(s *runSettings) {
		if d > 0 {
			s.resolution = d
		}
	}
}

// WithLogger attaches a logger to the replay and its session.
func WithLogger(l logging.Logger) Option {
	return func(s *runSettings) { s.log = l }
}

// WithSessionOptions passes extra options to the replayed session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *runSettings) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// Run replays script against a fresh session on doc. The clock starts at
// the Unix epoch and advances in resolution steps, running due debounce
// events after each step.
func Run(ctx context.Context, doc *model.Document, script *Script, opts ...Option) (*Result, error) {
	if script == nil {
		return nil, fmt.Errorf("%w: nil script", ErrInvalidScript)
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}

	cfg := runSettings{resolution: DefaultResolution, log: logging.Noop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Unix(0, 0).UTC()
	clock := timectrl.NewManualClock(start)
	sched := schedule.NewEventScheduler(clock)
	res := &Result{
		Steps:         make([]Step, 0, len(script.Events)),
		ActiveChanges: []ActiveChange{},
		Seeks:         []float64{},
	}

	sessOpts := []session.Option{
		session.WithLogger(cfg.log),
		session.WithOnActiveChange(func(prev, next int) {
			res.ActiveChanges = append(res.ActiveChanges, ActiveChange{
				At: clock.Now().Sub(start), From: prev, To: next,
			})
		}),
		session.WithOnNodeActivated(func(seconds float64) {
			res.Seeks = append(res.Seeks, seconds)
		}),
	}
	sessOpts = append(sessOpts, cfg.sessionOpts...)

	sess, err := session.New("replay", "replay", doc, sched, sessOpts...)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	advanceTo := func(offset time.Duration) {
		target := start.Add(offset)
		for clock.Now().Before(target) {
			step := target.Sub(clock.Now())
			if step > cfg.resolution {
				step = cfg.resolution
			}
			clock.Advance(step)
			sched.RunDue()
		}
	}

	for i, ev := range script.Events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := ev.At.Std()
		advanceTo(at)

		result, err := apply(sess, ev)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s at %s): %w", i, ev.Op, at, err)
		}
		res.Steps = append(res.Steps, Step{At: at, Op: ev.Op, Result: result})
	}

	var last time.Duration
	if n := len(script.Events); n > 0 {
		last = script.Events[n-1].At.Std()
	}
	advanceTo(last + script.SettleDuration())

	res.Duration = clock.Now().Sub(start)
	res.Final = sess.Snapshot()
	cfg.log.Debug(ctx, "replay finished",
		logging.Int("events", len(script.Events)),
		logging.Int("active_changes", len(res.ActiveChanges)),
		logging.Duration("duration", res.Duration),
	)
	return res, nil
}

func apply(sess *session.Session, ev Event) (string, error) {
	point := core.Vec2{X: ev.X, Y: ev.Y}
	switch ev.Op {
	case OpPointerDown:
		return sess.PointerDown(point).String(), nil
	case OpPointerMove:
		if sess.PointerMove(point) {
			return "moved", nil
		}
		return "ignored", nil
	case OpPointerUp:
		if sess.PointerUp() {
			return "toggled", nil
		}
		return "", nil
	case OpPointerLeave:
		sess.PointerLeave()
		return "", nil
	case OpTick:
		return "", sess.Tick(ev.Time)
	case OpFlush:
		return strconv.Itoa(sess.FlushActive()), nil
	case OpToggle:
		expanded, applied := sess.Toggle(ev.Node)
		switch {
		case !applied:
			return "ignored", nil
		case expanded:
			return "expanded", nil
		default:
			return "collapsed", nil
		}
	case OpActivate:
		seconds, err := sess.ActivateNode(ev.Node)
		if err != nil {
			return "", err
		}
		return "seek " + model.FormatTimestamp(seconds), nil
	case OpZoomIn:
		return strconv.FormatFloat(sess.ZoomIn(), 'g', 4, 64), nil
	case OpZoomOut:
		return strconv.FormatFloat(sess.ZoomOut(), 'g', 4, 64), nil
	case OpResetView:
		sess.ResetView()
		return "", nil
	case OpReorganize:
		sess.Reorganize()
		return "", nil
	case OpToggleImages:
		if sess.ToggleImages() {
			return "images hidden", nil
		}
		return "images shown", nil
	case OpOrigin:
		sess.SetContainerOrigin(point)
		return "", nil
	default:
		return "", fmt.Errorf("%w: unknown op %q", ErrInvalidScript, ev.Op)
	}
}
