// Package server exposes the execution manager over gRPC on a unix socket
// and, optionally, a TCP port that also speaks grpc-web and serves /metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"

	"github.com/superclaude/superclaude/internal/daemon/execution"
	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/daemon/telemetry"
	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

// GracefulTimeout bounds GracefulStop before open streams are cut.
const GracefulTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	SocketPath string
	// TCPAddr is the secondary listener; empty disables it.
	TCPAddr string
	GRPCWeb bool

	Manager     *execution.Manager
	Validator   *safety.Validator
	Obsidian    models.ObsidianConfig
	ScoringMode string
	Metrics     *telemetry.Metrics
	Tracer      *telemetry.Tracer
}

// Server is the daemon's gRPC server.
type Server struct {
	opts       Options
	log        zerolog.Logger
	grpcServer *grpc.Server
	service    *service

	unixListener net.Listener
	tcpListener  net.Listener
	httpServer   *http.Server

	stopOnce sync.Once
}

// New binds the listeners. Failing to bind the unix socket is an error;
// failing to bind TCP only disables it.
func New(opts Options) (*Server, error) {
	if opts.Manager == nil {
		return nil, errors.New("server: manager is required")
	}
	if opts.Validator == nil {
		opts.Validator = safety.NewValidator()
	}
	logger := log.With().Str("component", "server").Logger()

	s := &Server{
		opts: opts,
		log:  logger,
		service: &service{
			manager:     opts.Manager,
			validator:   opts.Validator,
			scoringMode: opts.ScoringMode,
			startedAt:   time.Now().UTC(),
			obsidian:    opts.Obsidian,
			log:         logger,
		},
	}
	s.grpcServer = newGRPCServer(s.service, opts.Tracer, logger)

	if err := removeStaleSocket(opts.SocketPath); err != nil {
		return nil, err
	}
	unixListener, err := (&net.ListenConfig{}).Listen(context.TODO(), "unix", opts.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", opts.SocketPath, err)
	}
	s.unixListener = unixListener

	if opts.TCPAddr != "" {
		tcpListener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", opts.TCPAddr)
		if err != nil {
			logger.Warn().Err(err).Str("addr", opts.TCPAddr).Msg("TCP listener unavailable, serving on unix socket only")
		} else {
			s.tcpListener = tcpListener
			s.httpServer = &http.Server{
				Handler:           h2c.NewHandler(s.httpHandler(), &http2.Server{}),
				ReadHeaderTimeout: 10 * time.Second,
			}
		}
	}
	return s, nil
}

func newGRPCServer(svc rpc.Server, tracer *telemetry.Tracer, logger zerolog.Logger) *grpc.Server {
	gs := grpc.NewServer(
		grpc.ForceServerCodec(rpc.Codec{}),
		grpc.ChainUnaryInterceptor(unaryInterceptor(tracer, logger)),
		grpc.ChainStreamInterceptor(streamInterceptor(tracer, logger)),
	)
	rpc.RegisterServer(gs, svc)
	return gs
}

func unaryInterceptor(tracer *telemetry.Tracer, logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, span := tracer.StartSpan(ctx, "rpc", telemetry.AttrMethod.String(info.FullMethod))
		defer span.End()

		start := time.Now()
		resp, err := handler(ctx, req)
		ev := logger.Debug()
		if err != nil {
			span.RecordError(err)
			ev = logger.Info().Err(err)
		}
		ev.Str("method", info.FullMethod).Dur("duration", time.Since(start)).Msg("RPC")
		return resp, err
	}
}

func streamInterceptor(tracer *telemetry.Tracer, logger zerolog.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		_, span := tracer.StartSpan(ss.Context(), "rpc", telemetry.AttrMethod.String(info.FullMethod))
		defer span.End()

		err := handler(srv, ss)
		if err != nil {
			span.RecordError(err)
			logger.Info().Err(err).Str("method", info.FullMethod).Msg("Stream ended")
		}
		return err
	}
}

// httpHandler multiplexes grpc-web, native gRPC over h2c and /metrics.
func (s *Server) httpHandler() http.Handler {
	var web *grpcweb.WrappedGrpcServer
	if s.opts.GRPCWeb {
		web = grpcweb.WrapServer(s.grpcServer,
			grpcweb.WithOriginFunc(func(string) bool { return true }),
		)
	}
	var metrics http.Handler
	if s.opts.Metrics != nil {
		metrics = promhttp.HandlerFor(s.opts.Metrics.Registry, promhttp.HandlerOpts{})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case web != nil && (web.IsGrpcWebRequest(r) || web.IsAcceptableGrpcCorsRequest(r)):
			web.ServeHTTP(w, r)
		case r.ProtoMajor == 2 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc"):
			s.grpcServer.ServeHTTP(w, r)
		case r.URL.Path == "/metrics" && metrics != nil:
			metrics.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// removeStaleSocket deletes a leftover socket file. Anything else at the
// path is left alone.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove stale socket %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Removed stale socket")
	return nil
}

// SocketPath returns the unix socket path.
func (s *Server) SocketPath() string { return s.opts.SocketPath }

// TCPAddr returns the bound TCP address, or "" when TCP is not serving.
func (s *Server) TCPAddr() string {
	if s.tcpListener == nil {
		return ""
	}
	return s.tcpListener.Addr().String()
}

// Serve blocks serving the unix socket. The TCP listener runs alongside and
// its failure is only logged.
func (s *Server) Serve() error {
	if s.httpServer != nil {
		go func() {
			s.log.Info().Str("addr", s.TCPAddr()).Bool("grpc_web", s.opts.GRPCWeb).Msg("Serving TCP")
			if err := s.httpServer.Serve(s.tcpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Warn().Err(err).Msg("TCP listener failed, unix socket still serving")
			}
		}()
	}
	s.log.Info().Str("socket", s.opts.SocketPath).Msg("Serving unix socket")
	err := s.grpcServer.Serve(s.unixListener)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop drains RPCs for up to GracefulTimeout, then closes everything and
// removes the socket file.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), GracefulTimeout)
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.log.Warn().Err(err).Msg("TCP shutdown incomplete")
				_ = s.httpServer.Close()
			}
			cancel()
		}

		done := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(GracefulTimeout):
			s.log.Warn().Msg("Graceful stop timed out, closing open streams")
			s.grpcServer.Stop()
			<-done
		}

		if err := os.Remove(s.opts.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Msg("Failed to remove socket")
		}
	})
}
