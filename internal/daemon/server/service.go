package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/superclaude/superclaude/internal/buildinfo"
	"github.com/superclaude/superclaude/internal/daemon/execution"
	"github.com/superclaude/superclaude/internal/daemon/obsidian"
	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

// service implements rpc.Server on top of the execution manager.
type service struct {
	manager     *execution.Manager
	validator   *safety.Validator
	scoringMode string
	startedAt   time.Time
	log         zerolog.Logger

	obsMu    sync.RWMutex
	obsidian models.ObsidianConfig
}

var _ rpc.Server = (*service)(nil)

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var denial *safety.Denial
	switch {
	case errors.As(err, &denial):
		return status.Error(codes.PermissionDenied, denial.Error())
	case errors.Is(err, execution.ErrNotFound), errors.Is(err, obsidian.ErrNoteNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, execution.ErrInvalidState), errors.Is(err, obsidian.ErrNotConfigured):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, execution.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *service) StartExecution(ctx context.Context, req *rpc.StartExecutionRequest) (*rpc.StartExecutionResponse, error) {
	if req.Config != nil {
		if err := validateConfig(*req.Config); err != nil {
			return nil, err
		}
	}
	e, err := s.manager.Start(ctx, execution.StartRequest{
		Task:        req.Task,
		ProjectRoot: req.ProjectRoot,
		Config:      req.Config,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("project_root", req.ProjectRoot).Msg("Failed to start execution")
		return nil, toStatus(err)
	}
	return &rpc.StartExecutionResponse{
		ExecutionID: e.ID,
		State:       e.State(),
		StartedAt:   e.StartedAt,
	}, nil
}

func (s *service) StopExecution(_ context.Context, req *rpc.StopExecutionRequest) (*rpc.ActionResponse, error) {
	cancelled, err := s.manager.Stop(req.ExecutionID, req.Force)
	if err != nil {
		return nil, toStatus(err)
	}
	if !cancelled {
		return &rpc.ActionResponse{Success: true, Message: fmt.Sprintf("Execution %s removed", req.ExecutionID)}, nil
	}
	return &rpc.ActionResponse{Success: true, Message: fmt.Sprintf("Execution %s stopped", req.ExecutionID)}, nil
}

func (s *service) PauseExecution(_ context.Context, req *rpc.ExecutionIDRequest) (*rpc.ActionResponse, error) {
	if err := s.manager.Pause(req.ExecutionID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ActionResponse{Success: true, Message: fmt.Sprintf("Execution %s paused", req.ExecutionID)}, nil
}

func (s *service) ResumeExecution(_ context.Context, req *rpc.ExecutionIDRequest) (*rpc.ActionResponse, error) {
	if err := s.manager.Resume(req.ExecutionID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ActionResponse{Success: true, Message: fmt.Sprintf("Execution %s resumed", req.ExecutionID)}, nil
}

func (s *service) GetStatus(_ context.Context, req *rpc.ExecutionIDRequest) (*models.ExecutionStatus, error) {
	e, err := s.manager.Get(req.ExecutionID)
	if err != nil {
		return nil, toStatus(err)
	}
	st := e.Status()
	return &st, nil
}

func (s *service) ListExecutions(_ context.Context, req *rpc.ListExecutionsRequest) (*rpc.ListExecutionsResponse, error) {
	return &rpc.ListExecutionsResponse{
		Executions: s.manager.List(req.IncludeCompleted, req.Limit),
	}, nil
}

func (s *service) GetExecutionDetail(_ context.Context, req *rpc.ExecutionIDRequest) (*rpc.ExecutionDetailResponse, error) {
	e, err := s.manager.Get(req.ExecutionID)
	if err != nil {
		return nil, toStatus(err)
	}
	d := e.Detail()
	return &rpc.ExecutionDetailResponse{
		Status:          d.Status,
		Events:          d.Events,
		RunInstructions: d.RunInstructions,
		ScoreBreakdown:  d.ScoreBreakdown,
	}, nil
}

// StreamEvents replays history when asked, then forwards live events until
// the execution's bus closes or the client goes away.
func (s *service) StreamEvents(req *rpc.StreamEventsRequest, stream rpc.EventSender) error {
	e, err := s.manager.Get(req.ExecutionID)
	if err != nil {
		return toStatus(err)
	}

	replay, sub := e.Bus().Subscribe(req.IncludeHistory)
	defer sub.Close()

	log := s.log.With().Str("execution_id", req.ExecutionID).Str("subscription", sub.ID).Logger()
	log.Debug().Int("replay", len(replay)).Msg("Event stream attached")

	for i := range replay {
		if err := stream.Send(&replay[i]); err != nil {
			return err
		}
	}

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Event stream client went away")
			return nil
		case ev, ok := <-sub.Events():
			if !ok {
				if n := sub.Dropped(); n > 0 {
					log.Warn().Uint64("dropped", n).Msg("Subscriber lagged and lost live events")
				}
				return nil
			}
			if err := stream.Send(&ev); err != nil {
				return err
			}
		}
	}
}

func (s *service) configuration() *rpc.Configuration {
	s.obsMu.RLock()
	obs := s.obsidian
	s.obsMu.RUnlock()
	return &rpc.Configuration{
		Defaults:        s.manager.Defaults(),
		AvailableModels: slices.Clone(models.AvailableModels),
		Obsidian:        obs,
		ScoringMode:     s.scoringMode,
	}
}

func (s *service) GetConfiguration(context.Context, *emptypb.Empty) (*rpc.Configuration, error) {
	return s.configuration(), nil
}

func validateConfig(cfg models.ExecutionConfig) error {
	if cfg.Model != "" && !slices.Contains(models.AvailableModels, cfg.Model) {
		return status.Errorf(codes.InvalidArgument, "unknown model %q (available: %v)", cfg.Model, models.AvailableModels)
	}
	if cfg.QualityThreshold < 0 || cfg.QualityThreshold > 100 {
		return status.Errorf(codes.InvalidArgument, "quality_threshold %.1f outside 0-100", cfg.QualityThreshold)
	}
	if cfg.MaxIterations < 0 {
		return status.Errorf(codes.InvalidArgument, "max_iterations must not be negative")
	}
	return nil
}

// UpdateConfiguration changes the in-memory defaults and Obsidian config.
// Nothing is written back to settings.yaml.
func (s *service) UpdateConfiguration(_ context.Context, req *rpc.UpdateConfigurationRequest) (*rpc.Configuration, error) {
	if req.Defaults != nil {
		if err := validateConfig(*req.Defaults); err != nil {
			return nil, err
		}
		s.manager.SetDefaults(req.Defaults.WithDefaults(s.manager.Defaults()))
		s.log.Info().Interface("defaults", s.manager.Defaults()).Msg("Execution defaults updated")
	}
	if req.Obsidian != nil {
		s.obsMu.Lock()
		s.obsidian = *req.Obsidian
		s.obsMu.Unlock()
		s.log.Info().Str("vault", req.Obsidian.VaultPath).Bool("enabled", req.Obsidian.Enabled).Msg("Obsidian config updated")
	}
	return s.configuration(), nil
}

func (s *service) vault() (*obsidian.Vault, error) {
	s.obsMu.RLock()
	cfg := s.obsidian
	s.obsMu.RUnlock()
	return obsidian.NewVault(cfg, s.validator)
}

func (s *service) ListObsidianNotes(_ context.Context, req *rpc.ListObsidianNotesRequest) (*rpc.ListObsidianNotesResponse, error) {
	v, err := s.vault()
	if err != nil {
		return nil, toStatus(err)
	}
	notes, err := v.List(req.Folder)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ListObsidianNotesResponse{Notes: notes}, nil
}

func (s *service) GetObsidianNote(_ context.Context, req *rpc.GetObsidianNoteRequest) (*models.ObsidianNoteContent, error) {
	v, err := s.vault()
	if err != nil {
		return nil, toStatus(err)
	}
	note, err := v.Read(req.RelativePath)
	if err != nil {
		return nil, toStatus(err)
	}
	return note, nil
}

func (s *service) Ping(context.Context, *emptypb.Empty) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{
		Version:          buildinfo.Version,
		ActiveExecutions: s.manager.ActiveCount(),
		UptimeSince:      s.startedAt,
	}, nil
}
