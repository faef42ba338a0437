package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/video-mindmap/internal/schedule"
)

// SchedulerCollector exposes event scheduler metrics.
type SchedulerCollector struct {
	gatherer prometheus.Gatherer

	EventsPending   prometheus.Gauge
	EventsScheduled prometheus.Counter
	EventsCancelled prometheus.Counter
	RunDueDuration  prometheus.Histogram
}

// NewSchedulerCollector registers scheduler metrics against the provided registerer.
func NewSchedulerCollector(reg prometheus.Registerer) (*SchedulerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mindmap_scheduler_events_pending",
		Help: "Number of timer events waiting in the event scheduler.",
	})
	pending, err := registerGauge(reg, pending, "mindmap_scheduler_events_pending")
	if err != nil {
		return nil, err
	}

	scheduled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindmap_scheduler_events_scheduled_total",
		Help: "Cumulative number of events handed to the scheduler.",
	})
	scheduled, err = registerCounter(reg, scheduled, "mindmap_scheduler_events_scheduled_total")
	if err != nil {
		return nil, err
	}

	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mindmap_scheduler_events_cancelled_total",
		Help: "Cumulative number of cancel requests, including superseded debounce timers.",
	})
	cancelled, err = registerCounter(reg, cancelled, "mindmap_scheduler_events_cancelled_total")
	if err != nil {
		return nil, err
	}

	runDue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mindmap_scheduler_run_due_duration_seconds",
		Help:    "Duration of one RunDue pass, including the callbacks it fired.",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})
	runDue, err = registerHistogram(reg, runDue, "mindmap_scheduler_run_due_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SchedulerCollector{
		gatherer:        gatherer,
		EventsPending:   pending,
		EventsScheduled: scheduled,
		EventsCancelled: cancelled,
		RunDueDuration:  runDue,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SchedulerCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveRunDue records a RunDue pass duration.
func (c *SchedulerCollector) ObserveRunDue(d time.Duration) {
	if c == nil || c.RunDueDuration == nil {
		return
	}
	c.RunDueDuration.Observe(d.Seconds())
}

// SetPending updates the pending-events gauge.
func (c *SchedulerCollector) SetPending(count int) {
	if c == nil || c.EventsPending == nil {
		return
	}
	c.EventsPending.Set(float64(count))
}

// Instrument wraps sched so every call updates the collector. A nil
// collector returns sched unchanged.
func (c *SchedulerCollector) Instrument(sched schedule.EventScheduler) schedule.EventScheduler {
	if c == nil || sched == nil {
		return sched
	}
	return &instrumentedScheduler{inner: sched, metrics: c}
}

type instrumentedScheduler struct {
	inner   schedule.EventScheduler
	metrics *SchedulerCollector
}

func (s *instrumentedScheduler) Schedule(at time.Time, f func()) string {
	id := s.inner.Schedule(at, f)
	s.metrics.EventsScheduled.Inc()
	s.metrics.SetPending(s.inner.Pending())
	return id
}

func (s *instrumentedScheduler) Cancel(id string) {
	s.inner.Cancel(id)
	s.metrics.EventsCancelled.Inc()
	s.metrics.SetPending(s.inner.Pending())
}

func (s *instrumentedScheduler) Now() time.Time { return s.inner.Now() }

func (s *instrumentedScheduler) RunDue() {
	start := time.Now()
	s.inner.RunDue()
	s.metrics.ObserveRunDue(time.Since(start))
	s.metrics.SetPending(s.inner.Pending())
}

func (s *instrumentedScheduler) Pending() int { return s.inner.Pending() }

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
