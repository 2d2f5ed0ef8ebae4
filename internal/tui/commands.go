package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/superclaude/superclaude/internal/rpc"
)

const (
	rpcTimeout   = 5 * time.Second
	pollInterval = time.Second
	listLimit    = 50
)

func loadExecutionsCmd(client *rpc.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		resp, err := client.ListExecutions(ctx, &rpc.ListExecutionsRequest{IncludeCompleted: true, Limit: listLimit})
		if err != nil {
			if isConnectionLost(err) {
				return DaemonDisconnectedMsg{}
			}
			return ErrorMsg{Err: fmt.Errorf("failed to list executions: %w", err)}
		}
		return ExecutionsLoadedMsg{Executions: resp.Executions}
	}
}

func loadStatusCmd(client *rpc.Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		st, err := client.GetStatus(ctx, &rpc.ExecutionIDRequest{ExecutionID: id})
		if err != nil {
			// The list poll reports connection loss.
			return nil
		}
		return StatusLoadedMsg{Status: st}
	}
}

func actionCmd(verb string, call func(ctx context.Context) (*rpc.ActionResponse, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		resp, err := call(ctx)
		if err != nil {
			if st, ok := status.FromError(err); ok {
				return ErrorMsg{Err: fmt.Errorf("failed to %s: %s", verb, st.Message())}
			}
			return ErrorMsg{Err: fmt.Errorf("failed to %s: %w", verb, err)}
		}
		return ActionDoneMsg{Message: resp.Message}
	}
}

func pauseExecutionCmd(client *rpc.Client, id string) tea.Cmd {
	return actionCmd("pause", func(ctx context.Context) (*rpc.ActionResponse, error) {
		return client.PauseExecution(ctx, &rpc.ExecutionIDRequest{ExecutionID: id})
	})
}

func resumeExecutionCmd(client *rpc.Client, id string) tea.Cmd {
	return actionCmd("resume", func(ctx context.Context) (*rpc.ActionResponse, error) {
		return client.ResumeExecution(ctx, &rpc.ExecutionIDRequest{ExecutionID: id})
	})
}

func stopExecutionCmd(client *rpc.Client, id string) tea.Cmd {
	return actionCmd("stop", func(ctx context.Context) (*rpc.ActionResponse, error) {
		return client.StopExecution(ctx, &rpc.StopExecutionRequest{ExecutionID: id})
	})
}

// subscribeEventsCmd forwards the execution's events to the program until
// the stream ends or ctx is cancelled.
func subscribeEventsCmd(ctx context.Context, client *rpc.Client, id string, program *programRef) tea.Cmd {
	return func() tea.Msg {
		stream, err := client.StreamEvents(ctx, &rpc.StreamEventsRequest{ExecutionID: id, IncludeHistory: true})
		if err != nil {
			return ErrorMsg{Err: fmt.Errorf("failed to subscribe to events: %w", err)}
		}
		for {
			ev, err := stream.Recv()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(err, io.EOF) {
					return StreamEndedMsg{ExecutionID: id}
				}
				if isConnectionLost(err) {
					return DaemonDisconnectedMsg{}
				}
				return ErrorMsg{Err: fmt.Errorf("event stream failed: %w", err)}
			}
			program.Send(EventMsg{ExecutionID: id, Event: ev})
		}
	}
}

func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func isConnectionLost(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unavailable
}
