package evad

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a typed client for EvolutionService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invokeRun(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (Run, error) {
	out, err := c.invoke(ctx, method, req, opts...)
	if err != nil {
		return Run{}, err
	}
	return runFromStruct(out.GetFields()[fieldRun].GetStructValue()), nil
}

// StartRun submits a run config. An empty runID lets the server pick one.
func (c *Client) StartRun(ctx context.Context, runID, configYAML string, opts ...grpc.CallOption) (Run, error) {
	return c.invokeRun(ctx, methodStartRun, map[string]any{
		fieldRunID:      runID,
		fieldConfigYAML: configYAML,
	}, opts...)
}

// StartRunWithCallback is StartRun with a callback notified when the run
// reaches a terminal status.
func (c *Client) StartRunWithCallback(ctx context.Context, runID, configYAML string, cb Callback, opts ...grpc.CallOption) (Run, error) {
	return c.invokeRun(ctx, methodStartRun, map[string]any{
		fieldRunID:          runID,
		fieldConfigYAML:     configYAML,
		fieldCallbackURL:    cb.URL,
		fieldCallbackSecret: cb.Secret,
	}, opts...)
}

// GetRun fetches the current snapshot of a run.
func (c *Client) GetRun(ctx context.Context, runID string, opts ...grpc.CallOption) (Run, error) {
	return c.invokeRun(ctx, methodGetRun, map[string]any{fieldRunID: runID}, opts...)
}

// StopRun cancels a run.
func (c *Client) StopRun(ctx context.Context, runID string, opts ...grpc.CallOption) (Run, error) {
	return c.invokeRun(ctx, methodStopRun, map[string]any{fieldRunID: runID}, opts...)
}

// ListRuns returns up to limit runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int, opts ...grpc.CallOption) ([]Run, error) {
	out, err := c.invoke(ctx, methodListRuns, map[string]any{fieldLimit: limit}, opts...)
	if err != nil {
		return nil, err
	}
	return runsFromStruct(out), nil
}
