package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/superclaude/superclaude/internal/buildinfo"
	"github.com/superclaude/superclaude/internal/daemon/execution"
	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/daemon/telemetry"
	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

const agentScript = `#!/bin/sh
cat <<'JSON'
{"type":"system","subtype":"init","session_id":"s-1"}
{"type":"assistant","message":{"content":[{"type":"tool_use","id":"tu-1","name":"Write","input":{"file_path":"src/app.go","content":"package app\n"}}]}}
{"type":"result","subtype":"success","is_error":false,"num_turns":1,"result":"done"}
JSON
sleep 0.2
`

func fakeAgent(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script agent requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

type harness struct {
	client  *rpc.Client
	manager *execution.Manager
}

func newHarness(t *testing.T, script string) *harness {
	t.Helper()
	agent := fakeAgent(t, script)
	mgr := execution.NewManager(execution.Options{
		ResolveAgent: func() (string, error) { return agent, nil },
	})
	svc := &service{
		manager:     mgr,
		validator:   safety.NewValidator(),
		scoringMode: models.ScoringWeighted,
		startedAt:   time.Now().UTC(),
		log:         zerolog.Nop(),
	}

	lis := bufconn.Listen(1 << 20)
	gs := newGRPCServer(svc, telemetry.NewTracer(), zerolog.Nop())
	go func() { _ = gs.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		gs.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mgr.Shutdown(ctx)
	})
	return &harness{client: rpc.NewClient(conn), manager: mgr}
}

func code(err error) codes.Code {
	return status.Code(err)
}

func TestPing(t *testing.T) {
	h := newHarness(t, agentScript)

	resp, err := h.client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, buildinfo.Version, resp.Version)
	assert.Zero(t, resp.ActiveExecutions)
	assert.False(t, resp.UptimeSince.IsZero())
}

func TestExecutionLifecycleOverRPC(t *testing.T) {
	h := newHarness(t, agentScript)
	ctx := context.Background()

	started, err := h.client.StartExecution(ctx, &rpc.StartExecutionRequest{
		Task:        "write the app",
		ProjectRoot: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateRunning, started.State)
	assert.NotEmpty(t, started.ExecutionID)

	stream, err := h.client.StreamEvents(ctx, &rpc.StreamEventsRequest{ExecutionID: started.ExecutionID, IncludeHistory: true})
	require.NoError(t, err)

	var events []*models.AgentEvent
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	first, last := events[0], events[len(events)-1]
	require.NotNil(t, first.StateChanged)
	assert.Equal(t, models.StateRunning, first.StateChanged.NewState)
	require.NotNil(t, last.StateChanged)
	assert.Equal(t, models.StateCompleted, last.StateChanged.NewState)

	st, err := h.client.GetStatus(ctx, &rpc.ExecutionIDRequest{ExecutionID: started.ExecutionID})
	require.NoError(t, err)
	assert.Equal(t, models.StateCompleted, st.State)
	assert.Equal(t, []string{"src/app.go"}, st.Evidence.FilesWritten)

	detail, err := h.client.GetExecutionDetail(ctx, &rpc.ExecutionIDRequest{ExecutionID: started.ExecutionID})
	require.NoError(t, err)
	assert.Len(t, detail.Events, len(events))
	assert.NotEmpty(t, detail.ScoreBreakdown)

	list, err := h.client.ListExecutions(ctx, &rpc.ListExecutionsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Executions)
	list, err = h.client.ListExecutions(ctx, &rpc.ListExecutionsRequest{IncludeCompleted: true})
	require.NoError(t, err)
	assert.Len(t, list.Executions, 1)

	_, err = h.client.PauseExecution(ctx, &rpc.ExecutionIDRequest{ExecutionID: started.ExecutionID})
	assert.Equal(t, codes.FailedPrecondition, code(err))
	resp, err := h.client.StopExecution(ctx, &rpc.StopExecutionRequest{ExecutionID: started.ExecutionID})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "removed")
	_, err = h.client.GetStatus(ctx, &rpc.ExecutionIDRequest{ExecutionID: started.ExecutionID})
	assert.Equal(t, codes.NotFound, code(err))
}

func TestStopPauseResumeOverRPC(t *testing.T) {
	h := newHarness(t, "#!/bin/sh\nsleep 2\n")
	ctx := context.Background()

	started, err := h.client.StartExecution(ctx, &rpc.StartExecutionRequest{Task: "t", ProjectRoot: t.TempDir()})
	require.NoError(t, err)
	id := &rpc.ExecutionIDRequest{ExecutionID: started.ExecutionID}

	resp, err := h.client.PauseExecution(ctx, id)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	_, err = h.client.PauseExecution(ctx, id)
	assert.Equal(t, codes.FailedPrecondition, code(err))

	resp, err = h.client.ResumeExecution(ctx, id)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	ping, err := h.client.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ping.ActiveExecutions)

	resp, err = h.client.StopExecution(ctx, &rpc.StopExecutionRequest{ExecutionID: started.ExecutionID, Force: true})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = h.client.GetStatus(ctx, id)
	assert.Equal(t, codes.NotFound, code(err))
	_, err = h.client.StopExecution(ctx, &rpc.StopExecutionRequest{ExecutionID: started.ExecutionID})
	assert.Equal(t, codes.NotFound, code(err))

	stream, err := h.client.StreamEvents(ctx, &rpc.StreamEventsRequest{ExecutionID: "missing"})
	require.NoError(t, err)
	_, err = stream.Recv()
	assert.Equal(t, codes.NotFound, code(err))
}

func TestStartValidation(t *testing.T) {
	h := newHarness(t, agentScript)
	ctx := context.Background()

	_, err := h.client.StartExecution(ctx, &rpc.StartExecutionRequest{Task: "", ProjectRoot: t.TempDir()})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = h.client.StartExecution(ctx, &rpc.StartExecutionRequest{
		Task:        "t",
		ProjectRoot: t.TempDir(),
		Config:      &models.ExecutionConfig{Model: "gpt"},
	})
	assert.Equal(t, codes.InvalidArgument, code(err))

	missing := &service{
		manager: execution.NewManager(execution.Options{
			ResolveAgent: func() (string, error) { return "", execution.ErrAgentNotFound },
		}),
		log: zerolog.Nop(),
	}
	_, err = missing.StartExecution(ctx, &rpc.StartExecutionRequest{Task: "t", ProjectRoot: t.TempDir()})
	assert.Equal(t, codes.Internal, code(err))
}

func TestConfiguration(t *testing.T) {
	h := newHarness(t, agentScript)
	ctx := context.Background()

	cfg, err := h.client.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AvailableModels, cfg.AvailableModels)
	assert.Equal(t, models.DefaultModel, cfg.Defaults.Model)
	assert.Equal(t, models.ScoringWeighted, cfg.ScoringMode)

	cfg, err = h.client.UpdateConfiguration(ctx, &rpc.UpdateConfigurationRequest{
		Defaults: &models.ExecutionConfig{Model: "opus", QualityThreshold: 90},
	})
	require.NoError(t, err)
	assert.Equal(t, "opus", cfg.Defaults.Model)
	assert.Equal(t, 90.0, cfg.Defaults.QualityThreshold)
	assert.Equal(t, models.DefaultMaxIterations, cfg.Defaults.MaxIterations)
	assert.Equal(t, "opus", h.manager.Defaults().Model)

	_, err = h.client.UpdateConfiguration(ctx, &rpc.UpdateConfigurationRequest{
		Defaults: &models.ExecutionConfig{QualityThreshold: 150},
	})
	assert.Equal(t, codes.InvalidArgument, code(err))
}

func TestObsidianNotes(t *testing.T) {
	h := newHarness(t, agentScript)
	ctx := context.Background()

	_, err := h.client.ListObsidianNotes(ctx, &rpc.ListObsidianNotesRequest{})
	assert.Equal(t, codes.FailedPrecondition, code(err))

	vault := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(vault, "Daily"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(vault, "Daily", "today.md"), []byte("# Today\n\n## Done\n"), 0o644))

	_, err = h.client.UpdateConfiguration(ctx, &rpc.UpdateConfigurationRequest{
		Obsidian: &models.ObsidianConfig{Enabled: true, VaultPath: vault},
	})
	require.NoError(t, err)

	notes, err := h.client.ListObsidianNotes(ctx, &rpc.ListObsidianNotesRequest{Folder: "Daily"})
	require.NoError(t, err)
	require.Len(t, notes.Notes, 1)
	assert.Equal(t, "Daily/today.md", notes.Notes[0].RelativePath)
	assert.Equal(t, "Today", notes.Notes[0].Title)

	note, err := h.client.GetObsidianNote(ctx, &rpc.GetObsidianNoteRequest{RelativePath: "Daily/today.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Today", "Done"}, note.Headings)

	_, err = h.client.GetObsidianNote(ctx, &rpc.GetObsidianNoteRequest{RelativePath: "../../etc/passwd"})
	assert.Equal(t, codes.PermissionDenied, code(err))
	_, err = h.client.GetObsidianNote(ctx, &rpc.GetObsidianNoteRequest{RelativePath: "Daily/missing.md"})
	assert.Equal(t, codes.NotFound, code(err))
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{execution.ErrNotFound, codes.NotFound},
		{execution.ErrInvalidState, codes.FailedPrecondition},
		{execution.ErrInvalidRequest, codes.InvalidArgument},
		{execution.ErrAgentNotFound, codes.Internal},
		{&safety.Denial{Category: safety.CategorySystemPath, Description: "System directory", Severity: 5}, codes.PermissionDenied},
		{status.Error(codes.Unavailable, "x"), codes.Unavailable},
		{errors.New("spawn failed"), codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, code(toStatus(tt.err)), "%v", tt.err)
	}
	assert.NoError(t, toStatus(nil))
}

func TestServerListeners(t *testing.T) {
	agent := fakeAgent(t, agentScript)
	mgr := execution.NewManager(execution.Options{ResolveAgent: func() (string, error) { return agent, nil }})

	dir, err := os.MkdirTemp("", "sc")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	socket := filepath.Join(dir, "d.sock")

	// A leftover socket from a crashed daemon is replaced.
	stale, err := net.Listen("unix", socket)
	require.NoError(t, err)
	stale.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, stale.Close())

	// An occupied TCP port only disables the TCP listener.
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	srv, err := New(Options{SocketPath: socket, TCPAddr: busy.Addr().String(), Manager: mgr, Metrics: telemetry.NewMetrics()})
	require.NoError(t, err)
	assert.Empty(t, srv.TCPAddr())

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	conn, err := grpc.NewClient("unix://"+socket, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	_, err = rpc.NewClient(conn).Ping(context.Background())
	require.NoError(t, err)

	srv.Stop()
	require.NoError(t, <-served)
	_, err = os.Stat(socket)
	assert.True(t, os.IsNotExist(err))
}

func TestServerTCPMetricsAndGRPC(t *testing.T) {
	agent := fakeAgent(t, agentScript)
	mgr := execution.NewManager(execution.Options{ResolveAgent: func() (string, error) { return agent, nil }})

	dir, err := os.MkdirTemp("", "sc")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	srv, err := New(Options{
		SocketPath: filepath.Join(dir, "d.sock"),
		TCPAddr:    "127.0.0.1:0",
		GRPCWeb:    true,
		Manager:    mgr,
		Metrics:    telemetry.NewMetrics(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, srv.TCPAddr())
	go func() { _ = srv.Serve() }()
	defer srv.Stop()

	resp, err := http.Get("http://" + srv.TCPAddr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "superclaude_active_executions")

	resp, err = http.Get("http://" + srv.TCPAddr() + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	conn, err := grpc.NewClient(srv.TCPAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	ping, err := rpc.NewClient(conn).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, buildinfo.Version, ping.Version)
}
