package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/mission-orbit-sim/internal/api"
	"github.com/signalsfoundry/mission-orbit-sim/internal/config"
	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	return lis
}

func TestMissionServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcLis, httpLis := listen(t), listen(t)
	cfg := config.Config{
		FrameInterval: 5 * time.Millisecond,
		MinTimeScale:  0.1,
		MaxTimeScale:  500,
	}
	log := logging.New(logging.Config{Level: "warn"})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, grpcLis, httpLis)
	}()

	conn, err := grpc.NewClient(grpcLis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName},
		grpc.WaitForReady(true))
	if err != nil {
		t.Fatalf("health Check: %v", err)
	}
	if health.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v, want SERVING", health.GetStatus())
	}

	client := api.NewClient(conn)
	missions, err := client.ListMissions(ctx)
	if err != nil {
		t.Fatalf("ListMissions: %v", err)
	}
	if n := len(missions.GetFields()["missions"].GetListValue().GetValues()); n < 3 {
		t.Fatalf("ListMissions returned %d missions, want the built-in catalog", n)
	}

	// The frame loop advances sessions without any client involvement.
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap, err := client.GetSnapshot(ctx, "hubble")
		if err != nil {
			t.Fatalf("GetSnapshot: %v", err)
		}
		if snap.GetFields()["frame"].GetNumberValue() > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("hubble session did not advance: %v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + httpLis.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", resp.StatusCode)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}

func TestMissionServerRejectsMissingCatalog(t *testing.T) {
	grpcLis, httpLis := listen(t), listen(t)
	defer grpcLis.Close()
	defer httpLis.Close()

	cfg := config.Config{
		FrameInterval: 5 * time.Millisecond,
		MinTimeScale:  0.1,
		MaxTimeScale:  500,
		MissionsFile:  "testdata/does-not-exist.yaml",
	}
	if err := run(context.Background(), cfg, logging.Noop(), grpcLis, httpLis); err == nil {
		t.Fatalf("run succeeded with a missing missions file")
	}
}
