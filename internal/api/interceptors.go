package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/mission-orbit-sim/internal/logging"
)

const requestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor takes the request_id from inbound
// metadata (or mints one) and stores a request logger on the context,
// tagged with the RPC method and the mission the request targets.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, requestIDMetadataKey); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}
		}

		fields := []logging.Field{logging.String("method", info.FullMethod)}
		if id := requestMissionID(req); id != "" {
			fields = append(fields, logging.Mission(id))
		}
		ctx, _ = logging.WithRequestLogger(ctx, base.With(fields...))
		return handler(ctx, req)
	}
}

// requestMissionID returns the mission_id of a MissionControl request, or
// "" for anything else.
func requestMissionID(req interface{}) string {
	s, ok := req.(*structpb.Struct)
	if !ok {
		return ""
	}
	return missionID(s)
}

// ErrorUnaryServerInterceptor converts handler errors into gRPC statuses.
func ErrorUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		return resp, ToStatusError(err)
	}
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
