package evad

import (
	"context"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// EvolutionGRPCServer implements EvolutionServiceServer on top of a RunStore
// and RunExecutor.
type EvolutionGRPCServer struct {
	store    *RunStore
	Executor *RunExecutor
}

func NewEvolutionGRPCServer(store *RunStore, executor *RunExecutor) *EvolutionGRPCServer {
	return &EvolutionGRPCServer{
		store:    store,
		Executor: executor,
	}
}

func runResponse(run Run) (*structpb.Struct, error) {
	s, err := runToStruct(run)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldRun: structpb.NewStructValue(s),
	}}, nil
}

func requireRunID(req *structpb.Struct) (string, error) {
	runID := req.GetFields()[fieldRunID].GetStringValue()
	if runID == "" {
		return "", status.Error(codes.InvalidArgument, "run_id is required")
	}
	return runID, nil
}

func (s *EvolutionGRPCServer) StartRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	configYAML := fields[fieldConfigYAML].GetStringValue()
	if configYAML == "" {
		return nil, status.Error(codes.InvalidArgument, "config_yaml is required")
	}

	run, err := s.Executor.SubmitWithCallback(fields[fieldRunID].GetStringValue(), configYAML, Callback{
		URL:    fields[fieldCallbackURL].GetStringValue(),
		Secret: fields[fieldCallbackSecret].GetStringValue(),
	})
	if err != nil {
		return nil, statusError(err)
	}

	logger.Info("run started (executor)", "run_id", run.ID)
	return runResponse(run)
}

func (s *EvolutionGRPCServer) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runID, err := requireRunID(req)
	if err != nil {
		return nil, err
	}
	run, ok := s.store.Get(runID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	return runResponse(run)
}

func (s *EvolutionGRPCServer) StopRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	runID, err := requireRunID(req)
	if err != nil {
		return nil, err
	}
	run, err := s.Executor.Stop(runID)
	if err != nil {
		return nil, statusError(err)
	}
	logger.Info("run cancelled", "run_id", runID)
	return runResponse(run)
}

func (s *EvolutionGRPCServer) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := 50
	if l := int(req.GetFields()[fieldLimit].GetNumberValue()); l > 0 {
		limit = l
	}
	out, err := runsToStruct(s.store.List(limit))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

