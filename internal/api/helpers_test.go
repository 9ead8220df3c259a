package api

import (
	"context"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/internal/observability"
	"github.com/signalsfoundry/mission-orbit-sim/internal/sim/session"
	"github.com/signalsfoundry/mission-orbit-sim/kb"
)

// Tests use hubble: it has no TLE, so its starting orbit does not depend
// on the wall clock.
const testMission = "hubble"

func newTestService(t *testing.T) (*MissionService, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry(kb.NewDefaultKnowledgeBase(), logging.Noop())
	t.Cleanup(registry.Close)
	return NewMissionService(registry, logging.Noop()), registry
}

func newTestCollector(t *testing.T) (*observability.APICollector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := observability.NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	return c, reg
}

func newBufconnClient(t *testing.T, svc *MissionService) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RequestIDUnaryServerInterceptor(logging.Noop()),
		TracingUnaryServerInterceptor(),
		ErrorUnaryServerInterceptor(),
	))
	RegisterMissionControlServer(srv, NewGRPCServer(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}
