package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/offwork-lock/internal/errutil"
	"github.com/xtding233/offwork-lock/internal/offwork"
	"github.com/xtding233/offwork-lock/internal/wire"
)

// Server implements EngineServer on top of an offwork.Core.
type Server struct {
	core   *offwork.Core
	logger *slog.Logger
	health *health.Server
}

var _ EngineServer = (*Server)(nil)

func NewServer(core *offwork.Core, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{core: core, logger: logger, health: health.NewServer()}
}

// NewGRPCServer returns a grpc.Server with the engine and the standard
// health service registered and reporting SERVING.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.observe))
	g := grpc.NewServer(opts...)
	RegisterEngineServer(g, s)
	healthpb.RegisterHealthServer(g, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return g
}

// Shutdown flips every health status to NOT_SERVING.
func (s *Server) Shutdown() { s.health.Shutdown() }

// observe counts calls by method and status code.
func (s *Server) observe(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	name := info.FullMethod[strings.LastIndex(info.FullMethod, "/")+1:]
	s.core.Metrics().RecordRequest("grpc", name, status.Code(err).String())
	return resp, err
}

func (s *Server) Roll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	out, err := s.core.Rolls().Roll(ctx, ctxID, id)
	if err != nil {
		return nil, s.internal(ctx, "roll", err)
	}
	return toStruct(wire.FromOutcome(out))
}

func (s *Server) CanRoll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	ok, err := s.core.Rolls().CanRoll(ctx, ctxID, id)
	if err != nil {
		return nil, s.internal(ctx, "can roll", err)
	}
	return toStruct(wire.CanRollResp{CanRoll: ok})
}

func (s *Server) StartSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	res, err := s.core.OnPlayerJoin(ctx, ctxID, id)
	if err != nil {
		return nil, s.internal(ctx, "session start", err)
	}
	return toStruct(wire.FromStart(res))
}

func (s *Server) GracefulExit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	if err := s.core.OnPlayerGracefulExit(ctx, ctxID, id); err != nil {
		return nil, s.internal(ctx, "session exit", err)
	}
	return &structpb.Struct{}, nil
}

func (s *Server) HandleAction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	key := stringField(in, "key")
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}
	res, err := s.core.Economy().HandleAction(ctx, ctxID, id, key)
	if err != nil {
		return nil, s.internal(ctx, "action", err)
	}
	return toStruct(wire.FromAward(res))
}

func (s *Server) Exchange(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	counts, err := countsArg(in)
	if err != nil {
		return nil, err
	}
	res, err := s.core.Economy().Exchange(ctx, ctxID, id, counts)
	if err != nil {
		return nil, s.internal(ctx, "exchange", err)
	}
	return toStruct(wire.FromExchange(res))
}

func (s *Server) Status(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	st, err := s.core.PlayerStatus(ctx, ctxID, id)
	if err != nil {
		return nil, s.internal(ctx, "status", err)
	}
	return toStruct(st)
}

func (s *Server) ExitDecision(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ctxID, id, err := playerArgs(in)
	if err != nil {
		return nil, err
	}
	zone := stringField(in, "zone")
	if zone == "" {
		return nil, status.Error(codes.InvalidArgument, "zone is required")
	}
	d, err := s.core.ExitDecision(ctx, ctxID, id, zone)
	if err != nil {
		return nil, s.internal(ctx, "exit decision", err)
	}
	return toStruct(d)
}

func (s *Server) Rewards(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(struct {
		Rewards []wire.RewardResp `json:"rewards"`
	}{wire.FromDisplays(s.core.Rolls().RewardDisplays())})
}

func (s *Server) ReloadConfig(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.core.ReloadConfig(); err != nil {
		errutil.LogError(ctx, s.logger, "config reload failed", err)
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return &structpb.Struct{}, nil
}

func (s *Server) internal(ctx context.Context, op string, err error) error {
	errutil.LogError(ctx, s.logger, op+" failed", err)
	return status.Errorf(codes.Internal, "%s: %v", op, err)
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func playerArgs(in *structpb.Struct) (string, uuid.UUID, error) {
	raw := stringField(in, "player")
	if raw == "" {
		return "", uuid.Nil, status.Error(codes.InvalidArgument, "player is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid player %q", raw)
	}
	return stringField(in, "context"), id, nil
}

// countsArg reads the "counts" object. Values must be whole numbers.
func countsArg(in *structpb.Struct) (map[string]int, error) {
	fields := in.GetFields()["counts"].GetStructValue().GetFields()
	out := make(map[string]int, len(fields))
	for k, v := range fields {
		n := v.GetNumberValue()
		if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok || n != math.Trunc(n) {
			return nil, status.Errorf(codes.InvalidArgument, "count for %q must be an integer", k)
		}
		out[k] = int(max(math.MinInt32, min(n, math.MaxInt32)))
	}
	return out, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// Decode unpacks a response Struct into one of the wire types.
func Decode(in *structpb.Struct, v any) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
