package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"investment-dashboard/src/client"
	"investment-dashboard/src/helpers"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/views"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ControlService implements the ControlServer interface
type ControlService struct {
	Views  *views.Registry
	API    *client.EndpointClient
	Logger *logger.Logger
}

// NewControlService creates a new instance of ControlService
func NewControlService(registry *views.Registry, api *client.EndpointClient, log *logger.Logger) *ControlService {
	return &ControlService{
		Views:  registry,
		API:    api,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListViews(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{"views": s.Views.States()})
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetView(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	ctrl, err := s.controller(req)
	if err != nil {
		return nil, err
	}
	return toStruct(ctrl.State())
}

// -----------------------------------------------------------------------------

func (s *ControlService) RefreshView(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	ctrl, err := s.controller(req)
	if err != nil {
		return nil, err
	}

	state, err := ctrl.Refresh(ctx)
	if err != nil && !errors.Is(err, views.ErrSuperseded) {
		return nil, status.Errorf(codes.Internal, "refresh %s: %v", req.GetValue(), err)
	}
	s.Logger.Info("gRPC: refreshed %s (generation %d, %s)", state.View, state.Generation, state.Status)
	return toStruct(state)
}

// -----------------------------------------------------------------------------

func (s *ControlService) TriggerSync(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	job, err := s.API.TriggerSync(ctx)
	if err != nil {
		var te *helpers.TransportError
		if errors.As(err, &te) && te.Status == 0 {
			return nil, status.Error(codes.Unavailable, helpers.Reason(err))
		}
		return nil, status.Error(codes.Internal, helpers.Reason(err))
	}
	s.Logger.Info("gRPC: sync job %s %s", job.SyncJobID, job.Status)
	return toStruct(job)
}

// -----------------------------------------------------------------------------

func (s *ControlService) controller(req *wrapperspb.StringValue) (*views.Controller, error) {
	name := req.GetValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "view name is required")
	}
	ctrl, ok := s.Views.Get(name)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "view %s not found", name)
	}
	return ctrl, nil
}

// toStruct goes through JSON so the message carries the same shape as the REST API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode: %v", err))
	}
	return st, nil
}
