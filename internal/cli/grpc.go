package cli

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/rpc"
)

// callTimeout bounds unary calls; streams are unbounded.
const callTimeout = 15 * time.Second

// daemonSocket resolves the socket from --socket or daemon.yaml.
func daemonSocket() (string, error) {
	if globalFlags.socket != "" {
		return globalFlags.socket, nil
	}
	info, err := config.LoadDaemonInfo()
	if err != nil {
		return "", fmt.Errorf("failed to load daemon info: %w", err)
	}
	if info == nil {
		return "", fmt.Errorf("daemon not running. Start it with 'superclaude daemon start'")
	}
	return info.SocketPath, nil
}

// connectDaemon establishes a gRPC connection to the running daemon.
func connectDaemon() (*grpc.ClientConn, error) {
	socket, err := daemonSocket()
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient("unix://"+socket, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}

// withClient runs fn against a fresh connection with a bounded context.
func withClient(fn func(ctx context.Context, c *rpc.Client) error) error {
	conn, err := connectDaemon()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return rpcError(fn(ctx, rpc.NewClient(conn)))
}

// rpcError strips the transport wrapping so users see the daemon's message.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok {
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
	return err
}
