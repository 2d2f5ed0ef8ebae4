package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/superclaude/superclaude/internal/config"
)

const (
	daemonBinary = "superclauded"

	startTimeout = 5 * time.Second
	// stopTimeout covers the daemon's own shutdown: graceful RPC
	// drain plus agent termination.
	stopTimeout = 15 * time.Second
)

// EnsureDaemon makes sure the daemon is running, starting it if necessary.
func EnsureDaemon() error {
	if globalFlags.socket != "" {
		// An explicit socket means the caller manages the daemon.
		return nil
	}
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return nil
	}
	if info != nil {
		_ = config.RemoveDaemonInfo()
	}
	return startDaemon()
}

// startDaemon launches superclauded detached, with output appended to
// daemon.log, and waits for it to publish daemon.yaml.
func startDaemon() error {
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}
	if err := config.EnsureGlobalDir(); err != nil {
		return err
	}
	logPath, err := config.GlobalDaemonLog()
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(daemonPath, "serve", "--log-format", "json")
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	ready := waitUntil(startTimeout, func() bool {
		select {
		case <-exited:
			return true
		default:
		}
		running, _, err := config.IsDaemonRunning()
		return err == nil && running
	})
	select {
	case <-exited:
		return fmt.Errorf("daemon exited during startup%s", logTail(logPath))
	default:
	}
	if !ready {
		return fmt.Errorf("daemon failed to start within %s%s", startTimeout, logTail(logPath))
	}
	return nil
}

// waitUntil polls cond every 100ms until it holds or timeout passes.
func waitUntil(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return cond()
}

// logTail returns the last line of the daemon log, formatted for an error.
func logTail(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	data = bytes.TrimSpace(data)
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	}
	if len(data) == 0 {
		return ""
	}
	return ": " + string(data)
}

// findDaemonBinary locates superclauded next to this binary or on PATH.
func findDaemonBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(execPath), daemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	if path, err := exec.LookPath(daemonBinary); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("%s not found next to superclaude or on PATH", daemonBinary)
}
