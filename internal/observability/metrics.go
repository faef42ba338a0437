package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// MindMapCollector bundles Prometheus metrics for the RPC surface and the
// sessions behind it. It satisfies session.MetricsRecorder.
type MindMapCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	Sessions   prometheus.Gauge
	Nodes      prometheus.Gauge
	Expansions prometheus.Gauge

	ActiveRecomputes *prometheus.CounterVec
	Transitions      *prometheus.CounterVec
	LayoutDuration   prometheus.Histogram
}

// NewMindMapCollector registers metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice reuses the
// existing collectors.
func NewMindMapCollector(reg prometheus.Registerer) (*MindMapCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_requests_total",
		Help: "Total number of handled mind map RPCs, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "mindmap_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindmap_request_duration_seconds",
		Help:    "Mind map RPC latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"service", "method"}), "mindmap_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	sessions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mindmap_sessions",
		Help: "Current number of open mind map sessions.",
	}), "mindmap_sessions")
	if err != nil {
		return nil, err
	}
	nodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mindmap_nodes",
		Help: "Topic nodes across all open sessions.",
	}), "mindmap_nodes")
	if err != nil {
		return nil, err
	}
	expansions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mindmap_expansions",
		Help: "Expanded topic nodes across all open sessions.",
	}), "mindmap_expansions")
	if err != nil {
		return nil, err
	}

	recomputes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_active_recomputes_total",
		Help: "Debounced active-node recomputes, labeled by whether the highlighted node changed.",
	}, []string{"changed"}), "mindmap_active_recomputes_total")
	if err != nil {
		return nil, err
	}

	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mindmap_interaction_transitions_total",
		Help: "Pointer state machine transitions, labeled by source and destination mode.",
	}, []string{"from", "to"}), "mindmap_interaction_transitions_total")
	if err != nil {
		return nil, err
	}

	layout, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mindmap_layout_duration_seconds",
		Help:    "Time spent computing radial layouts.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	}), "mindmap_layout_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &MindMapCollector{
		gatherer:         gatherer,
		RPCRequests:      requests,
		RPCDurations:     durations,
		Sessions:         sessions,
		Nodes:            nodes,
		Expansions:       expansions,
		ActiveRecomputes: recomputes,
		Transitions:      transitions,
		LayoutDuration:   layout,
	}, nil
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *MindMapCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, code).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}

		return resp, err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *MindMapCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SessionsChanged sets the session and node gauges.
func (c *MindMapCollector) SessionsChanged(sessions, nodes int) {
	if c == nil {
		return
	}
	c.Sessions.Set(float64(sessions))
	c.Nodes.Set(float64(nodes))
}

// ExpansionsChanged adjusts the expansion gauge by delta.
func (c *MindMapCollector) ExpansionsChanged(delta int) {
	if c == nil {
		return
	}
	c.Expansions.Add(float64(delta))
}

// ActiveResolved counts one debounced recompute.
func (c *MindMapCollector) ActiveResolved(changed bool) {
	if c == nil {
		return
	}
	c.ActiveRecomputes.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// TransitionObserved counts one interaction mode change.
func (c *MindMapCollector) TransitionObserved(from, to string) {
	if c == nil {
		return
	}
	c.Transitions.WithLabelValues(from, to).Inc()
}

// ObserveLayout records how long a layout pass took.
func (c *MindMapCollector) ObserveLayout(d time.Duration) {
	if c == nil {
		return
	}
	c.LayoutDuration.Observe(d.Seconds())
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
