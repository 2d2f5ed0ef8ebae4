package execution

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// killGrace is how long a stopped process gets between SIGTERM and SIGKILL.
const killGrace = 5 * time.Second

// Process supervises one agent subprocess with piped stdout and stderr.
// Each stream is delivered line by line to its handler; the process is
// reaped only after both streams reach EOF.
type Process struct {
	cmd       *exec.Cmd
	done      chan struct{}
	exitErr   error
	startedAt time.Time
	stopOnce  sync.Once
}

// LineHandler receives one line without its trailing newline. eof is set on
// the final call for a stream, with an empty line.
type LineHandler func(line string, eof bool)

// StartProcess starts cmd and begins reading its output. Stdin is left
// unset so the child reads from the null device.
func StartProcess(cmd *exec.Cmd, onStdout, onStderr LineHandler) (*Process, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}
	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	p := &Process{
		cmd:       cmd,
		done:      make(chan struct{}),
		startedAt: time.Now().UTC(),
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		readLines(stdout, onStdout)
	}()
	go func() {
		defer readers.Done()
		readLines(stderr, onStderr)
	}()

	go func() {
		readers.Wait()
		p.exitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

// readLines splits r on newlines without any line-length limit.
func readLines(r io.Reader, fn LineHandler) {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			n := len(line)
			if line[n-1] == '\n' {
				n--
				if n > 0 && line[n-1] == '\r' {
					n--
				}
			}
			fn(line[:n], false)
		}
		if err != nil {
			fn("", true)
			return
		}
	}
}

// Done is closed once the process has exited and its output is drained.
func (p *Process) Done() <-chan struct{} { return p.done }

// Pid returns the OS process id.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// StartedAt returns when the process was spawned.
func (p *Process) StartedAt() time.Time { return p.startedAt }

// IsRunning reports whether the process has not yet been reaped.
func (p *Process) IsRunning() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitCode is the process exit status, valid after Done. A process killed
// by a signal reports -1.
func (p *Process) ExitCode() int {
	if p.exitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(p.exitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Stop sends SIGTERM to the process group, waits up to killGrace, then kills
// the group. It blocks until the process is reaped.
func (p *Process) Stop() {
	p.stopOnce.Do(func() {
		if p.cmd.Process == nil || !p.IsRunning() {
			return
		}
		_ = signalGroup(p.cmd.Process, syscall.SIGTERM)

		select {
		case <-p.done:
			return
		case <-time.After(killGrace):
		}

		_ = signalGroup(p.cmd.Process, syscall.SIGKILL)
		<-p.done
	})
}
