package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "logkv.KV"

type GetRequest struct {
	Key string `json:"key"`
}

type GetResponse struct {
	Value []byte `json:"value"`
}

type SetRequest struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

type SetResponse struct{}

type RemoveRequest struct {
	Key string `json:"key"`
}

type RemoveResponse struct{}

// DispatchRequest carries one text command, e.g. "set a 1"
type DispatchRequest struct {
	Command string `json:"command"`
}

// DispatchResponse holds the value for read commands and is empty otherwise
type DispatchResponse struct {
	Value []byte `json:"value,omitempty"`
}

// KVServer is the server API for the logkv.KV service
type KVServer interface {
	Get(context.Context, *GetRequest) (*GetResponse, error)
	Set(context.Context, *SetRequest) (*SetResponse, error)
	Remove(context.Context, *RemoveRequest) (*RemoveResponse, error)
	Dispatch(context.Context, *DispatchRequest) (*DispatchResponse, error)
}

// ServiceDesc describes the logkv.KV service
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KVServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Get", KVServer.Get),
		unaryMethod("Set", KVServer.Set),
		unaryMethod("Remove", KVServer.Remove),
		unaryMethod("Dispatch", KVServer.Dispatch),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "logkv/kv",
}

// RegisterKVServer registers srv on s
func RegisterKVServer(s grpc.ServiceRegistrar, srv KVServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unaryMethod[Req, Resp any](name string, call func(KVServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(KVServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(KVServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
