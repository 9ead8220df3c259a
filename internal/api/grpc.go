package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/mission-orbit-sim/internal/intent"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "orbitsim.v1.MissionControl"

// Request fields.
const (
	fieldMissionID  = "mission_id"
	fieldIntent     = "intent"
	fieldMultiplier = "multiplier"
)

// MissionControlServer is the gRPC surface. Requests and responses are
// google.protobuf.Struct so the intent object passes through unchanged.
type MissionControlServer interface {
	ListMissions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyIntent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetTimeScale(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Pause(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Resume(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(MissionControlServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// MissionControlServiceDesc describes MissionControl for grpc.Server.
var MissionControlServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MissionControlServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("ListMissions", MissionControlServer.ListMissions),
		methodDesc("ApplyIntent", MissionControlServer.ApplyIntent),
		methodDesc("GetSnapshot", MissionControlServer.GetSnapshot),
		methodDesc("SetTimeScale", MissionControlServer.SetTimeScale),
		methodDesc("Pause", MissionControlServer.Pause),
		methodDesc("Resume", MissionControlServer.Resume),
		methodDesc("Reset", MissionControlServer.Reset),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterMissionControlServer registers srv on s.
func RegisterMissionControlServer(s grpc.ServiceRegistrar, srv MissionControlServer) {
	s.RegisterService(&MissionControlServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(MissionControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(MissionControlServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GRPCServer adapts MissionService to MissionControlServer.
type GRPCServer struct {
	svc *MissionService
}

var _ MissionControlServer = (*GRPCServer)(nil)

// NewGRPCServer builds the gRPC adapter.
func NewGRPCServer(svc *MissionService) *GRPCServer {
	return &GRPCServer{svc: svc}
}

// ListMissions returns {"missions": [...]}.
func (g *GRPCServer) ListMissions(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string]any{"missions": g.svc.Missions()})
}

// ApplyIntent expects {"mission_id": ..., "intent": {...}}.
func (g *GRPCServer) ApplyIntent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, ok := req.GetFields()[fieldIntent]
	if !ok {
		return nil, ToStatusError(fmt.Errorf("%w: %s is required", ErrInvalidRequest, fieldIntent))
	}
	obj := v.GetStructValue()
	if obj == nil {
		return nil, ToStatusError(fmt.Errorf("%w: %s must be an object", ErrInvalidRequest, fieldIntent))
	}
	res, err := g.svc.Apply(ctx, missionID(req), intent.FromStruct(obj))
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStruct(res)
}

// GetSnapshot expects {"mission_id": ...}.
func (g *GRPCServer) GetSnapshot(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	snap, err := g.svc.Snapshot(missionID(req))
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStruct(snap)
}

// SetTimeScale expects {"mission_id": ..., "multiplier": number}.
func (g *GRPCServer) SetTimeScale(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, ok := req.GetFields()[fieldMultiplier]
	if !ok {
		return nil, ToStatusError(fmt.Errorf("%w: %s is required", ErrInvalidRequest, fieldMultiplier))
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, ToStatusError(fmt.Errorf("%w: %s must be a number", ErrInvalidRequest, fieldMultiplier))
	}
	ts, err := g.svc.SetTimeScale(missionID(req), n.NumberValue)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStruct(ts)
}

// Pause expects {"mission_id": ...}.
func (g *GRPCServer) Pause(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ts, err := g.svc.Pause(missionID(req))
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStruct(ts)
}

// Resume expects {"mission_id": ...}.
func (g *GRPCServer) Resume(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ts, err := g.svc.Resume(missionID(req))
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStruct(ts)
}

// Reset expects {"mission_id": ...}.
func (g *GRPCServer) Reset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	snap, err := g.svc.Reset(ctx, missionID(req))
	if err != nil {
		return nil, ToStatusError(err)
	}
	return toStruct(snap)
}

func missionID(req *structpb.Struct) string {
	return req.GetFields()[fieldMissionID].GetStringValue()
}

// toStruct renders v through its JSON form so gRPC and HTTP responses
// share field names.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, ToStatusError(fmt.Errorf("encode response: %w", err))
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, ToStatusError(fmt.Errorf("encode response: %w", err))
	}
	return out, nil
}

// Client is a thin MissionControl client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func missionRequest(id string, extra map[string]*structpb.Value) *structpb.Struct {
	fields := map[string]*structpb.Value{fieldMissionID: structpb.NewStringValue(id)}
	for k, v := range extra {
		fields[k] = v
	}
	return &structpb.Struct{Fields: fields}
}

// ListMissions lists the server's mission catalog.
func (c *Client) ListMissions(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ListMissions", nil, opts...)
}

// ApplyIntent sends an intent object for mission id.
func (c *Client) ApplyIntent(ctx context.Context, id string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "ApplyIntent", missionRequest(id, map[string]*structpb.Value{
		fieldIntent: structpb.NewStructValue(in),
	}), opts...)
}

// GetSnapshot fetches the current snapshot of mission id.
func (c *Client) GetSnapshot(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "GetSnapshot", missionRequest(id, nil), opts...)
}

// SetTimeScale sets the time multiplier of mission id.
func (c *Client) SetTimeScale(ctx context.Context, id string, multiplier float64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "SetTimeScale", missionRequest(id, map[string]*structpb.Value{
		fieldMultiplier: structpb.NewNumberValue(multiplier),
	}), opts...)
}

// Pause pauses mission id.
func (c *Client) Pause(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "Pause", missionRequest(id, nil), opts...)
}

// Resume resumes mission id.
func (c *Client) Resume(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "Resume", missionRequest(id, nil), opts...)
}

// Reset restores mission id to its defaults.
func (c *Client) Reset(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, "Reset", missionRequest(id, nil), opts...)
}
