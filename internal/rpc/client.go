package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/superclaude/superclaude/internal/models"
)

// Client is a typed client for the daemon service. Calls use the JSON
// codec regardless of the connection's defaults.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *Client) StartExecution(ctx context.Context, in *StartExecutionRequest, opts ...grpc.CallOption) (*StartExecutionResponse, error) {
	out := new(StartExecutionResponse)
	if err := c.invoke(ctx, "StartExecution", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StopExecution(ctx context.Context, in *StopExecutionRequest, opts ...grpc.CallOption) (*ActionResponse, error) {
	out := new(ActionResponse)
	if err := c.invoke(ctx, "StopExecution", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PauseExecution(ctx context.Context, in *ExecutionIDRequest, opts ...grpc.CallOption) (*ActionResponse, error) {
	out := new(ActionResponse)
	if err := c.invoke(ctx, "PauseExecution", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResumeExecution(ctx context.Context, in *ExecutionIDRequest, opts ...grpc.CallOption) (*ActionResponse, error) {
	out := new(ActionResponse)
	if err := c.invoke(ctx, "ResumeExecution", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStatus(ctx context.Context, in *ExecutionIDRequest, opts ...grpc.CallOption) (*models.ExecutionStatus, error) {
	out := new(models.ExecutionStatus)
	if err := c.invoke(ctx, "GetStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListExecutions(ctx context.Context, in *ListExecutionsRequest, opts ...grpc.CallOption) (*ListExecutionsResponse, error) {
	out := new(ListExecutionsResponse)
	if err := c.invoke(ctx, "ListExecutions", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetExecutionDetail(ctx context.Context, in *ExecutionIDRequest, opts ...grpc.CallOption) (*ExecutionDetailResponse, error) {
	out := new(ExecutionDetailResponse)
	if err := c.invoke(ctx, "GetExecutionDetail", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetConfiguration(ctx context.Context, opts ...grpc.CallOption) (*Configuration, error) {
	out := new(Configuration)
	if err := c.invoke(ctx, "GetConfiguration", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateConfiguration(ctx context.Context, in *UpdateConfigurationRequest, opts ...grpc.CallOption) (*Configuration, error) {
	out := new(Configuration)
	if err := c.invoke(ctx, "UpdateConfiguration", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListObsidianNotes(ctx context.Context, in *ListObsidianNotesRequest, opts ...grpc.CallOption) (*ListObsidianNotesResponse, error) {
	out := new(ListObsidianNotesResponse)
	if err := c.invoke(ctx, "ListObsidianNotes", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetObsidianNote(ctx context.Context, in *GetObsidianNoteRequest, opts ...grpc.CallOption) (*models.ObsidianNoteContent, error) {
	out := new(models.ObsidianNoteContent)
	if err := c.invoke(ctx, "GetObsidianNote", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ping(ctx context.Context, opts ...grpc.CallOption) (*PingResponse, error) {
	out := new(PingResponse)
	if err := c.invoke(ctx, "Ping", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// EventStream receives events from StreamEvents.
type EventStream struct {
	grpc.ClientStream
}

// Recv blocks for the next event. It returns io.EOF once the execution's
// event stream ends.
func (s *EventStream) Recv() (*models.AgentEvent, error) {
	ev := new(models.AgentEvent)
	if err := s.ClientStream.RecvMsg(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// StreamEvents opens a server stream of events for one execution.
func (c *Client) StreamEvents(ctx context.Context, in *StreamEventsRequest, opts ...grpc.CallOption) (*EventStream, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/StreamEvents", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &EventStream{ClientStream: stream}, nil
}
