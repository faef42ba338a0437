package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/video-mindmap/internal/schedule"
	"github.com/signalsfoundry/video-mindmap/timectrl"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewMindMapCollector(reg)
	if err != nil {
		t.Fatalf("NewMindMapCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/mindmap.v1.MindMapService/LoadMap"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("MindMapService", "LoadMap", "OK")); got != 1 {
		t.Fatalf("mindmap_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "mindmap_request_duration_seconds", map[string]string{
		"service": "MindMapService",
		"method":  "LoadMap",
	}); count != 1 {
		t.Fatalf("mindmap_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewMindMapCollector(reg)
	if err != nil {
		t.Fatalf("NewMindMapCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/mindmap.v1.MindMapService/Tick"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.InvalidArgument, "boom")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("MindMapService", "Tick", "InvalidArgument")); got != 1 {
		t.Fatalf("mindmap_requests_total error label = %v, want 1", got)
	}
}

func TestSessionRecorderMethods(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewMindMapCollector(reg)
	if err != nil {
		t.Fatalf("NewMindMapCollector: %v", err)
	}

	collector.SessionsChanged(2, 17)
	collector.ExpansionsChanged(3)
	collector.ExpansionsChanged(-1)
	collector.ActiveResolved(true)
	collector.ActiveResolved(false)
	collector.ActiveResolved(false)
	collector.TransitionObserved("idle", "panning")
	collector.ObserveLayout(time.Millisecond)

	if got := testutil.ToFloat64(collector.Sessions); got != 2 {
		t.Fatalf("sessions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Nodes); got != 17 {
		t.Fatalf("nodes = %v, want 17", got)
	}
	if got := testutil.ToFloat64(collector.Expansions); got != 2 {
		t.Fatalf("expansions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ActiveRecomputes.WithLabelValues("false")); got != 2 {
		t.Fatalf("recomputes{changed=false} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Transitions.WithLabelValues("idle", "panning")); got != 1 {
		t.Fatalf("transitions = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "mindmap_layout_duration_seconds", nil); count != 1 {
		t.Fatalf("layout sample_count = %d, want 1", count)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *MindMapCollector
	c.SessionsChanged(1, 1)
	c.ExpansionsChanged(1)
	c.ActiveResolved(true)
	c.TransitionObserved("idle", "panning")
	c.ObserveLayout(time.Second)
}

func TestCollectorReusesRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMindMapCollector(reg)
	if err != nil {
		t.Fatalf("first NewMindMapCollector: %v", err)
	}
	second, err := NewMindMapCollector(reg)
	if err != nil {
		t.Fatalf("second NewMindMapCollector: %v", err)
	}
	second.SessionsChanged(4, 0)
	if got := testutil.ToFloat64(first.Sessions); got != 4 {
		t.Fatalf("shared sessions gauge = %v, want 4", got)
	}
}

func TestMetricsHandlerExposesSessionGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewMindMapCollector(reg)
	if err != nil {
		t.Fatalf("NewMindMapCollector: %v", err)
	}
	collector.SessionsChanged(3, 9)
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	collector.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"mindmap_requests_total",
		"mindmap_request_duration_seconds",
		"mindmap_sessions 3",
		"mindmap_nodes 9",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output:\n%s", metric, body)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	tests := []struct {
		in      string
		service string
		method  string
	}{
		{"/mindmap.v1.MindMapService/Pointer", "MindMapService", "Pointer"},
		{"Svc/Call", "Svc", "Call"},
		{"", "unknown", "unknown"},
		{"/only", "unknown", "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			service, method := SplitMethod(tc.in)
			if service != tc.service || method != tc.method {
				t.Fatalf("SplitMethod(%q) = %q, %q; want %q, %q", tc.in, service, method, tc.service, tc.method)
			}
		})
	}
}

func TestInstrumentedSchedulerTracksPending(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSchedulerCollector(reg)
	if err != nil {
		t.Fatalf("NewSchedulerCollector: %v", err)
	}

	clock := timectrl.NewManualClock(time.Unix(0, 0))
	sched := collector.Instrument(schedule.NewEventScheduler(clock))

	fired := 0
	sched.Schedule(clock.Now().Add(time.Second), func() { fired++ })
	id := sched.Schedule(clock.Now().Add(2*time.Second), func() { fired++ })

	if got := testutil.ToFloat64(collector.EventsPending); got != 2 {
		t.Fatalf("pending = %v, want 2", got)
	}

	sched.Cancel(id)
	clock.Advance(3 * time.Second)
	sched.RunDue()

	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if got := testutil.ToFloat64(collector.EventsPending); got != 0 {
		t.Fatalf("pending after RunDue = %v, want 0", got)
	}
	if got := testutil.ToFloat64(collector.EventsScheduled); got != 2 {
		t.Fatalf("scheduled = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.EventsCancelled); got != 1 {
		t.Fatalf("cancelled = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "mindmap_scheduler_run_due_duration_seconds", nil); count != 1 {
		t.Fatalf("run_due sample_count = %d, want 1", count)
	}
}

func TestInstrumentNilCollector(t *testing.T) {
	var c *SchedulerCollector
	inner := schedule.NewEventScheduler(nil)
	if got := c.Instrument(inner); got != inner {
		t.Fatalf("nil collector should return the scheduler unchanged")
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
