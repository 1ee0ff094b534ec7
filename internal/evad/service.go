package evad

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// EvolutionServiceName is the fully qualified gRPC service name.
const EvolutionServiceName = "eva.v1.EvolutionService"

const (
	methodStartRun = "/" + EvolutionServiceName + "/StartRun"
	methodGetRun   = "/" + EvolutionServiceName + "/GetRun"
	methodStopRun  = "/" + EvolutionServiceName + "/StopRun"
	methodListRuns = "/" + EvolutionServiceName + "/ListRuns"
)

// EvolutionServiceServer is the server API for EvolutionService. Requests and
// responses are google.protobuf.Struct messages:
//
//	StartRun  {run_id?, config_yaml} -> {run}
//	GetRun    {run_id}               -> {run}
//	StopRun   {run_id}               -> {run}
//	ListRuns  {limit?}               -> {runs}
type EvolutionServiceServer interface {
	StartRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StopRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterEvolutionServiceServer registers srv with s.
func RegisterEvolutionServiceServer(s grpc.ServiceRegistrar, srv EvolutionServiceServer) {
	s.RegisterService(&EvolutionServiceDesc, srv)
}

type unaryMethod func(srv EvolutionServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EvolutionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(EvolutionServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// EvolutionServiceDesc is the grpc.ServiceDesc for EvolutionService.
var EvolutionServiceDesc = grpc.ServiceDesc{
	ServiceName: EvolutionServiceName,
	HandlerType: (*EvolutionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartRun", Handler: unaryHandler(methodStartRun, EvolutionServiceServer.StartRun)},
		{MethodName: "GetRun", Handler: unaryHandler(methodGetRun, EvolutionServiceServer.GetRun)},
		{MethodName: "StopRun", Handler: unaryHandler(methodStopRun, EvolutionServiceServer.StopRun)},
		{MethodName: "ListRuns", Handler: unaryHandler(methodListRuns, EvolutionServiceServer.ListRuns)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eva/v1/evolution.proto",
}
