package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/mission-orbit-sim/internal/api"
	"github.com/signalsfoundry/mission-orbit-sim/internal/config"
	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
	"github.com/signalsfoundry/mission-orbit-sim/internal/observability"
	"github.com/signalsfoundry/mission-orbit-sim/internal/sim/session"
	"github.com/signalsfoundry/mission-orbit-sim/timectrl"
)

const shutdownTimeout = 5 * time.Second

func main() {
	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "failed to load config", logging.Err(err))
		os.Exit(1)
	}

	flag.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "TCP address the MissionControl gRPC server listens on")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP address for the REST API, websocket stream and /metrics")
	flag.StringVar(&cfg.MissionsFile, "missions", cfg.MissionsFile, "Optional YAML/JSON file overlaying the built-in mission catalog")
	flag.DurationVar(&cfg.FrameInterval, "frame-interval", cfg.FrameInterval, "Wall-clock interval between simulation frames")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "invalid flags", logging.Err(err))
		os.Exit(2)
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(stopCtx, cfg.Tracing, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}
	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = grpcLis.Close()
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(stopCtx, cfg, log, grpcLis, httpLis); err != nil {
		log.Error(ctx, "mission server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves gRPC on grpcLis and HTTP on httpLis until ctx is cancelled or
// either server fails. Both listeners are closed on return.
func run(ctx context.Context, cfg config.Config, log logging.Logger, grpcLis, httpLis net.Listener) error {
	defer grpcLis.Close()
	defer httpLis.Close()

	catalog, err := config.LoadCatalog(cfg.MissionsFile)
	if err != nil {
		return err
	}

	apiMetrics, err := observability.NewAPICollector(nil)
	if err != nil {
		return err
	}
	sessionMetrics, err := observability.NewSessionCollector(nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := timectrl.NewTimeController(time.Now().UTC(), cfg.FrameInterval, timectrl.RealTime)
	registry := session.NewRegistry(catalog, log,
		session.WithMetricsRecorder(sessionMetrics),
		session.WithScaleBounds(cfg.ScaleBounds()),
		session.WithClock(frames),
	)
	defer registry.Close()

	// Sessions are created up front so every mission advances from startup.
	for _, m := range registry.Missions() {
		if _, err := registry.Get(m.ID); err != nil {
			log.Warn(ctx, "skipping mission", logging.Mission(m.ID), logging.Err(err))
		}
	}
	frames.AddListener(func(_ time.Time, dt time.Duration) {
		registry.TickAll(dt)
	})
	frameLoop := frames.Start(ctx, 0)

	svc := api.NewMissionService(registry, log)

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			api.RequestIDUnaryServerInterceptor(log),
			api.TracingUnaryServerInterceptor(),
			apiMetrics.UnaryServerInterceptor(),
			api.ErrorUnaryServerInterceptor(),
		),
	)
	api.RegisterMissionControlServer(grpcServer, api.NewGRPCServer(svc))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	httpServer := &http.Server{
		Handler:           api.NewRouter(svc, apiMetrics, log),
		ReadHeaderTimeout: shutdownTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "starting MissionControl gRPC server", logging.String("addr", grpcLis.Addr().String()))
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		log.Info(ctx, "starting HTTP server", logging.String("addr", httpLis.Addr().String()))
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		log.Error(ctx, "server failed", logging.Err(runErr))
	}

	log.Info(context.Background(), "shutting down mission server")
	healthSrv.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "HTTP shutdown incomplete", logging.Err(err))
	}

	cancel()
	<-frameLoop
	return runErr
}
