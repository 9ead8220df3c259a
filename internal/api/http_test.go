package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/model"
)

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
}

func TestHTTPHealthAndMissions(t *testing.T) {
	svc, _ := newTestService(t)
	router := NewRouter(svc, nil, logging.Noop())

	if rr := serve(t, router, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", rr.Code)
	}

	rr := serve(t, router, http.MethodGet, "/v1/missions", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("/v1/missions status = %d", rr.Code)
	}
	var body struct {
		Missions []model.Mission `json:"missions"`
	}
	decode(t, rr, &body)
	if len(body.Missions) != 3 || body.Missions[0].ID != "hubble" {
		t.Fatalf("missions = %+v", body.Missions)
	}
}

func TestHTTPApplyIntent(t *testing.T) {
	svc, _ := newTestService(t)
	router := NewRouter(svc, nil, logging.Noop())

	rr := serve(t, router, http.MethodPost, "/v1/missions/hubble/intent", `{"intent":"update","distance_km":"420","speed_kmps":7.66}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	var res IntentResult
	decode(t, rr, &res)
	if res.Kind != "update_both" || !res.Changed {
		t.Fatalf("result = %+v", res)
	}
	if res.Snapshot.State.AngularSpeed <= 0 {
		t.Fatalf("snapshot angular speed = %v", res.Snapshot.State.AngularSpeed)
	}

	rr = serve(t, router, http.MethodPost, "/v1/missions/hubble/intent", `{"intent":"update","distance_km":"way up"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("invalid value status = %d, want 200 no-op", rr.Code)
	}
	decode(t, rr, &res)
	if res.Changed || !strings.Contains(res.Reason, "distance_km") {
		t.Fatalf("invalid value result = %+v", res)
	}
}

func TestHTTPErrors(t *testing.T) {
	svc, _ := newTestService(t)
	router := NewRouter(svc, nil, logging.Noop())

	cases := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/v1/missions/hubble/intent", `{"intent":`, http.StatusBadRequest},
		{http.MethodPost, "/v1/missions/mars/intent", `{"intent":"none"}`, http.StatusNotFound},
		{http.MethodGet, "/v1/missions/mars/snapshot", "", http.StatusNotFound},
		{http.MethodPost, "/v1/missions/hubble/timescale", `{}`, http.StatusBadRequest},
		{http.MethodPost, "/v1/missions/hubble/timescale", `nope`, http.StatusBadRequest},
		{http.MethodGet, "/v1/missions/hubble/intent", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rr := serve(t, router, tc.method, tc.path, tc.body)
		if rr.Code != tc.want {
			t.Fatalf("%s %s status = %d, want %d (body %s)", tc.method, tc.path, rr.Code, tc.want, rr.Body.String())
		}
	}
}

func TestHTTPTimeScaleEndpoints(t *testing.T) {
	svc, _ := newTestService(t)
	router := NewRouter(svc, nil, logging.Noop())

	var ts model.TimeScale
	rr := serve(t, router, http.MethodPost, "/v1/missions/hubble/timescale", `{"multiplier":0.01}`)
	decode(t, rr, &ts)
	if ts.Multiplier != 0.1 {
		t.Fatalf("multiplier = %v, want clamped 0.1", ts.Multiplier)
	}

	decode(t, serve(t, router, http.MethodPost, "/v1/missions/hubble/pause", ""), &ts)
	if !ts.Paused {
		t.Fatalf("pause returned %+v", ts)
	}
	decode(t, serve(t, router, http.MethodPost, "/v1/missions/hubble/resume", ""), &ts)
	if ts.Paused || ts.Multiplier != 0.1 {
		t.Fatalf("resume returned %+v", ts)
	}

	var snap model.Snapshot
	decode(t, serve(t, router, http.MethodPost, "/v1/missions/hubble/reset", ""), &snap)
	if snap.TimeScale != model.RunningAt(1) {
		t.Fatalf("reset time scale = %+v", snap.TimeScale)
	}
}

func TestHTTPRequestIDAndMetrics(t *testing.T) {
	svc, _ := newTestService(t)
	collector, _ := newTestCollector(t)
	router := NewRouter(svc, collector, logging.Noop())

	req := httptest.NewRequest(http.MethodGet, "/v1/missions/hubble/snapshot", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q, want abc-123", got)
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/v1/missions/{id}/snapshot", http.MethodGet, "200")); got != 1 {
		t.Fatalf("orbitsim_http_requests_total = %v, want 1", got)
	}

	rr = serve(t, router, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "orbitsim_http_requests_total") {
		t.Fatalf("/metrics status = %d", rr.Code)
	}
}

func TestHTTPStreamPushesSnapshots(t *testing.T) {
	svc, registry := newTestService(t)
	srv := httptest.NewServer(NewRouter(svc, nil, logging.Noop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/missions/hubble/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first model.Snapshot
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial frame: %v", err)
	}
	if first.MissionID != "hubble" || first.Frame != 0 {
		t.Fatalf("initial frame = %+v", first)
	}

	// The initial frame is written after subscribing, so this tick is seen.
	registry.TickAll(time.Second)

	var next model.Snapshot
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read tick frame: %v", err)
	}
	if next.Frame != 1 || next.State.Angle <= first.State.Angle {
		t.Fatalf("tick frame = %+v", next)
	}
}

func TestHTTPStreamUnknownMission(t *testing.T) {
	svc, _ := newTestService(t)
	srv := httptest.NewServer(NewRouter(svc, nil, logging.Noop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/missions/mars/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail for unknown mission")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("response = %+v, want 404", resp)
	}
}
