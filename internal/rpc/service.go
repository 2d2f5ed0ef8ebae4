package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/superclaude/superclaude/internal/models"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "superclaude.v1.SuperClaudeService"

// Server is implemented by the daemon.
type Server interface {
	StartExecution(context.Context, *StartExecutionRequest) (*StartExecutionResponse, error)
	StopExecution(context.Context, *StopExecutionRequest) (*ActionResponse, error)
	PauseExecution(context.Context, *ExecutionIDRequest) (*ActionResponse, error)
	ResumeExecution(context.Context, *ExecutionIDRequest) (*ActionResponse, error)
	GetStatus(context.Context, *ExecutionIDRequest) (*models.ExecutionStatus, error)
	ListExecutions(context.Context, *ListExecutionsRequest) (*ListExecutionsResponse, error)
	GetExecutionDetail(context.Context, *ExecutionIDRequest) (*ExecutionDetailResponse, error)
	StreamEvents(*StreamEventsRequest, EventSender) error
	GetConfiguration(context.Context, *emptypb.Empty) (*Configuration, error)
	UpdateConfiguration(context.Context, *UpdateConfigurationRequest) (*Configuration, error)
	ListObsidianNotes(context.Context, *ListObsidianNotesRequest) (*ListObsidianNotesResponse, error)
	GetObsidianNote(context.Context, *GetObsidianNoteRequest) (*models.ObsidianNoteContent, error)
	Ping(context.Context, *emptypb.Empty) (*PingResponse, error)
}

// EventSender is the server side of StreamEvents.
type EventSender interface {
	Send(*models.AgentEvent) error
	Context() context.Context
}

type eventSender struct {
	grpc.ServerStream
}

func (s *eventSender) Send(ev *models.AgentEvent) error {
	return s.ServerStream.SendMsg(ev)
}

// RegisterServer registers srv on s.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a method handler that decodes Req and calls call on the
// registered Server.
func unary[Req any, Resp any](method string, call func(Server, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(Server), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func streamEventsHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(StreamEventsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(Server).StreamEvents(in, &eventSender{stream})
}

// ServiceDesc describes the service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartExecution", Server.StartExecution),
		unary("StopExecution", Server.StopExecution),
		unary("PauseExecution", Server.PauseExecution),
		unary("ResumeExecution", Server.ResumeExecution),
		unary("GetStatus", Server.GetStatus),
		unary("ListExecutions", Server.ListExecutions),
		unary("GetExecutionDetail", Server.GetExecutionDetail),
		unary("GetConfiguration", Server.GetConfiguration),
		unary("UpdateConfiguration", Server.UpdateConfiguration),
		unary("ListObsidianNotes", Server.ListObsidianNotes),
		unary("GetObsidianNote", Server.GetObsidianNote),
		unary("Ping", Server.Ping),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamEvents",
			Handler:       streamEventsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "superclaude/v1/superclaude.proto",
}
