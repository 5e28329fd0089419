package grpcapi

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-simulator/internal/service"
	"github.com/xtding233/gacha-simulator/internal/session"
	"github.com/xtding233/gacha-simulator/internal/wire"
)

// Options configures the gRPC API. Limits mirror the HTTP API.
type Options struct {
	AutoReset        bool
	MaxSinglePull    int
	MaxReturnResults int
	MaxHistory       int

	Locker    *session.Locker       // shared with other transports, optional
	Snapshots session.SnapshotStore // optional
	Logger    *zap.Logger
}

// Server implements GachaServiceServer over a service.Service. Requests name
// their session in "session_id"; an empty id starts a new session whose id is
// returned in every response.
type Server struct {
	svc    *service.Service
	opts   Options
	logger *zap.Logger
}

var _ GachaServiceServer = (*Server)(nil)

func NewServer(svc *service.Service, opts Options) *Server {
	if opts.MaxSinglePull <= 0 {
		opts.MaxSinglePull = 100000
	}
	if opts.MaxReturnResults <= 0 {
		opts.MaxReturnResults = 100
	}
	if opts.Locker == nil {
		opts.Locker = session.NewLocker()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{svc: svc, opts: opts, logger: opts.Logger.Named("grpc")}
}

// NewGRPCServer returns a grpc.Server with the service and the logging
// interceptor installed.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(s.logger)))
	gs := grpc.NewServer(opts...)
	RegisterGachaServiceServer(gs, s)
	return gs
}

// Serve runs gs on lis until ctx is cancelled.
func Serve(ctx context.Context, gs *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- gs.Serve(lis) }()
	logger.Info("starting grpc server", zap.String("addr", lis.Addr().String()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	stopped := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		gs.Stop()
	}
	logger.Info("grpc server exited")
	return nil
}

func loggingInterceptor(l *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			l.Warn("grpc request", append(fields, zap.Error(err))...)
		} else {
			l.Info("grpc request", fields...)
		}
		return resp, err
	}
}

// inSession runs fn under the lock of the request's session and answers
// with fn's document plus the session id.
func (s *Server) inSession(ctx context.Context, in *structpb.Struct, fn func(id string, req map[string]any) (map[string]any, error)) (*structpb.Struct, error) {
	req := wire.FromStruct(in)
	id, _ := req["session_id"].(string)
	if id == "" {
		id = session.NewID()
	}

	unlock := s.opts.Locker.Lock(id)
	defer unlock()

	if err := s.svc.RestoreFrom(ctx, s.opts.Snapshots, id); err != nil {
		s.logger.Warn("session restore failed", zap.String("session_id", id), zap.Error(err))
	}
	out, err := fn(id, req)
	if err != nil {
		return nil, err
	}
	if err := s.svc.SaveTo(context.WithoutCancel(ctx), s.opts.Snapshots, id); err != nil {
		s.logger.Warn("session save failed", zap.String("session_id", id), zap.Error(err))
	}
	out["session_id"] = id
	return encode(out)
}

func encode(m map[string]any) (*structpb.Struct, error) {
	out, err := wire.ToStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// number reads a numeric request field; ok is false when absent.
func number(req map[string]any, key string) (int, bool, error) {
	v, present := req[key]
	if !present {
		return 0, false, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	return int(f), true, nil
}

// switchPool applies an optional "pool_id" of a pull request.
func (s *Server) switchPool(id string, req map[string]any) error {
	poolID, _ := req["pool_id"].(string)
	if poolID == "" {
		return nil
	}
	if !s.svc.SetCurrentPool(id, poolID, s.opts.AutoReset) {
		return status.Errorf(codes.NotFound, "pool %q not found", poolID)
	}
	return nil
}

func (s *Server) GetPools(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	pools := s.svc.GetAllPools()
	list := make([]any, len(pools))
	for i, p := range pools {
		list[i] = wire.PoolToMap(p)
	}
	return encode(map[string]any{"pools": list, "default_pool_id": s.svc.Catalog().DefaultPoolID()})
}

func (s *Server) SetPool(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, req map[string]any) (map[string]any, error) {
		poolID, _ := req["pool_id"].(string)
		if poolID == "" {
			return nil, status.Error(codes.InvalidArgument, "pool_id is required")
		}
		autoReset := s.opts.AutoReset
		if v, ok := req["auto_reset"].(bool); ok {
			autoReset = v
		}
		if !s.svc.SetCurrentPool(id, poolID, autoReset) {
			return nil, status.Errorf(codes.NotFound, "pool %q not found", poolID)
		}
		pool, _ := s.svc.GetCurrentPool(id)
		return map[string]any{"pool": wire.PoolToMap(pool)}, nil
	})
}

func (s *Server) GetCurrentPool(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, _ map[string]any) (map[string]any, error) {
		pool, ok := s.svc.GetCurrentPool(id)
		if !ok {
			return nil, status.Error(codes.NotFound, "no pool selected")
		}
		return map[string]any{"pool": wire.PoolToMap(pool)}, nil
	})
}

func (s *Server) PullSingle(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, req map[string]any) (map[string]any, error) {
		if err := s.switchPool(id, req); err != nil {
			return nil, err
		}
		rec := s.svc.PullSingle(id)
		return map[string]any{
			"result":       wire.RecordToMap(rec),
			"stats":        wire.StatisticsToMap(s.svc.GetStatistics(id)),
			"tokens_spent": s.svc.TokensFor(1),
		}, nil
	})
}

func (s *Server) PullMulti(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, req map[string]any) (map[string]any, error) {
		count, present, err := number(req, "count")
		if err != nil {
			return nil, err
		}
		if !present {
			count = 10
		}
		count = max(1, min(count, s.opts.MaxSinglePull))
		if err := s.switchPool(id, req); err != nil {
			return nil, err
		}

		recs := s.svc.PullMulti(id, count)
		truncated := len(recs) > s.opts.MaxReturnResults
		if truncated {
			recs = recs[len(recs)-s.opts.MaxReturnResults:]
		}
		return map[string]any{
			"count":        count,
			"results":      wire.RecordsToList(recs),
			"truncated":    truncated,
			"stats":        wire.StatisticsToMap(s.svc.GetStatistics(id)),
			"tokens_spent": s.svc.TokensFor(count),
		}, nil
	})
}

func (s *Server) GetStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, _ map[string]any) (map[string]any, error) {
		return map[string]any{"stats": wire.StatisticsToMap(s.svc.GetStatistics(id))}, nil
	})
}

func (s *Server) GetHistory(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, req map[string]any) (map[string]any, error) {
		limit, _, err := number(req, "limit")
		if err != nil {
			return nil, err
		}
		if limit < 0 {
			return nil, status.Error(codes.InvalidArgument, "limit must be >= 0")
		}
		if s.opts.MaxHistory > 0 && (limit == 0 || limit > s.opts.MaxHistory) {
			limit = s.opts.MaxHistory
		}
		return map[string]any{"history": wire.RecordsToList(s.svc.GetPullHistory(id, limit))}, nil
	})
}

func (s *Server) Export(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, _ map[string]any) (map[string]any, error) {
		return map[string]any{"data": s.svc.Export(id)}, nil
	})
}

func (s *Server) Reset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.inSession(ctx, in, func(id string, _ map[string]any) (map[string]any, error) {
		s.svc.Reset(id)
		return map[string]any{"message": "pull data reset"}, nil
	})
}
