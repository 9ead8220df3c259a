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
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/orbitsim.v1.MissionControl/ApplyIntent"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(10 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("MissionControl", "ApplyIntent", "OK")); got != 1 {
		t.Fatalf("orbitsim_rpc_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "orbitsim_rpc_request_duration_seconds", map[string]string{
		"service": "MissionControl",
		"method":  "ApplyIntent",
	}); count != 1 {
		t.Fatalf("orbitsim_rpc_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/orbitsim.v1.MissionControl/GetSnapshot"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "boom")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("MissionControl", "GetSnapshot", "NotFound")); got != 1 {
		t.Fatalf("orbitsim_rpc_requests_total error label = %v, want 1", got)
	}
}

func TestCollectorsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	second, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("second NewAPICollector: %v", err)
	}
	if first.RPCRequests != second.RPCRequests {
		t.Fatalf("re-registration should reuse the existing collector")
	}
}

func TestSessionCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewSessionCollector(reg)
	if err != nil {
		t.Fatalf("NewSessionCollector: %v", err)
	}

	c.ObserveCommand("iss", "applied")
	c.ObserveCommand("iss", "applied")
	c.ObserveCommand("iss", "noop")
	c.ObserveClamp("iss", "altitude_km")
	c.ObserveFrame("iss", 2*time.Millisecond)
	c.SetOrbit("iss", 420, 7.66, 20)

	if got := testutil.ToFloat64(c.Commands.WithLabelValues("iss", "applied")); got != 2 {
		t.Fatalf("orbitsim_commands_total{applied} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.Clamps.WithLabelValues("iss", "altitude_km")); got != 1 {
		t.Fatalf("orbitsim_clamps_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.AltitudeKm.WithLabelValues("iss")); got != 420 {
		t.Fatalf("orbitsim_altitude_km = %v, want 420", got)
	}
	if got := testutil.ToFloat64(c.TimeMultiplier.WithLabelValues("iss")); got != 20 {
		t.Fatalf("orbitsim_time_multiplier = %v, want 20", got)
	}
	if count := histogramSampleCount(t, c.Gatherer(), "orbitsim_frame_duration_seconds", map[string]string{"mission": "iss"}); count != 1 {
		t.Fatalf("frame duration sample_count = %d, want 1", count)
	}
}

func TestNilSessionCollectorIsSafe(t *testing.T) {
	var c *SessionCollector
	c.ObserveCommand("iss", "applied")
	c.ObserveClamp("iss", "speed_kmps")
	c.ObserveFrame("iss", time.Millisecond)
	c.SetOrbit("iss", 1, 2, 3)
	if c.Gatherer() != nil {
		t.Fatalf("nil collector should have no gatherer")
	}
}

func TestMetricsHandlerExposesMissionGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	api, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	sessions, err := NewSessionCollector(reg)
	if err != nil {
		t.Fatalf("NewSessionCollector: %v", err)
	}
	sessions.SetOrbit("hubble", 547, 7.59, 3)
	api.ObserveHTTP("/v1/missions", http.MethodGet, http.StatusOK)
	api.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	api.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"orbitsim_rpc_requests_total",
		"orbitsim_rpc_request_duration_seconds",
		"orbitsim_http_requests_total",
		`orbitsim_altitude_km{mission="hubble"} 547`,
		`orbitsim_speed_kmps{mission="hubble"} 7.59`,
		`orbitsim_time_multiplier{mission="hubble"} 3`,
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := map[string][2]string{
		"/orbitsim.v1.MissionControl/Pause": {"MissionControl", "Pause"},
		"MissionControl/Reset":              {"MissionControl", "Reset"},
		"":                                  {"unknown", "unknown"},
		"/nomethod":                         {"unknown", "unknown"},
	}
	for in, want := range cases {
		svc, m := SplitMethod(in)
		if svc != want[0] || m != want[1] {
			t.Fatalf("SplitMethod(%q) = %s/%s, want %s/%s", in, svc, m, want[0], want[1])
		}
	}
}

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("ORBITSIM_TRACING_ENABLED", "true")
	t.Setenv("ORBITSIM_TRACING_EXPORTER", "OTLP")
	t.Setenv("ORBITSIM_TRACING_SAMPLE_RATIO", "2.5")

	cfg, err := TracingConfigFromEnv()
	if err != nil {
		t.Fatalf("TracingConfigFromEnv: %v", err)
	}
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.SampleRatio != 1 || cfg.ServiceName != "mission-orbit-sim" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	ShutdownWithTimeout(context.Background(), shutdown, nil)
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	if _, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil); err == nil {
		t.Fatalf("expected error for unsupported exporter")
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
