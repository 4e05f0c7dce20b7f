package rpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sajjad-MoBe/logkv/internal/command"
	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
	"github.com/sajjad-MoBe/logkv/internal/logger"
	"github.com/sajjad-MoBe/logkv/internal/shared"
)

// Store is the set of store operations the gRPC service serves
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Dispatch(op shared.Operation) ([]byte, error)
}

// Server implements KVServer on top of a Store
type Server struct {
	store Store
}

// NewServer creates a new gRPC service instance
func NewServer(store Store) *Server {
	return &Server{store: store}
}

// Get implements the Get RPC method
func (s *Server) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	if err := before(ctx, req.Key); err != nil {
		return nil, err
	}
	value, err := s.store.Get(req.Key)
	if err != nil {
		return nil, err
	}
	return &GetResponse{Value: value}, nil
}

// Set implements the Set RPC method
func (s *Server) Set(ctx context.Context, req *SetRequest) (*SetResponse, error) {
	if err := before(ctx, req.Key); err != nil {
		return nil, err
	}
	if err := s.store.Set(req.Key, req.Value); err != nil {
		return nil, err
	}
	return &SetResponse{}, nil
}

// Remove implements the Remove RPC method
func (s *Server) Remove(ctx context.Context, req *RemoveRequest) (*RemoveResponse, error) {
	if err := before(ctx, req.Key); err != nil {
		return nil, err
	}
	if err := s.store.Remove(req.Key); err != nil {
		return nil, err
	}
	return &RemoveResponse{}, nil
}

// Dispatch parses a text command and executes it
func (s *Server) Dispatch(ctx context.Context, req *DispatchRequest) (*DispatchResponse, error) {
	op := command.Parse(req.Command)
	if key, ok := operationKey(op); ok {
		if err := before(ctx, key); err != nil {
			return nil, err
		}
	}
	value, err := s.store.Dispatch(op)
	if err != nil {
		return nil, err
	}
	return &DispatchResponse{Value: value}, nil
}

// before validates key and refuses requests whose context is already done
func before(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return status.FromContextError(err).Err()
	}
	return shared.ValidateKey(key)
}

func operationKey(op shared.Operation) (string, bool) {
	switch op := op.(type) {
	case shared.Read:
		return op.Key, true
	case shared.Insert:
		return op.Key, true
	case shared.Update:
		return op.Key, true
	case shared.Remove:
		return op.Key, true
	default:
		return "", false
	}
}

// UnaryErrorInterceptor converts errors to gRPC status errors and turns
// panics into Internal errors
func UnaryErrorInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, status.Error(codes.Internal, kvErr.RecoverError(r).Error())
		}
	}()

	resp, err = handler(ctx, req)
	if err != nil {
		return nil, convertError(err)
	}
	return resp, nil
}

// LoggingInterceptor logs every unary call
func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("%s %s %s", info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}

// convertError converts a KVError to a gRPC status error
func convertError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case kvErr.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case kvErr.IsInvalidInput(err), kvErr.IsInvalidCommand(err), kvErr.IsInvalidFileHeader(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// NewGRPCServer creates a grpc.Server with the logkv service and interceptors
// installed
func NewGRPCServer(store Store, log *logger.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(LoggingInterceptor(log), UnaryErrorInterceptor),
	}, opts...)

	s := grpc.NewServer(opts...)
	RegisterKVServer(s, NewServer(store))
	return s
}

// Serve accepts connections on ln until ctx is cancelled, then stops
// gracefully
func Serve(ctx context.Context, s *grpc.Server, ln net.Listener, log *logger.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.GracefulStop()
	}()

	log.Info("gRPC server listening on %s", ln.Addr())
	if err := s.Serve(ln); err != nil {
		return err
	}
	<-done
	return nil
}
