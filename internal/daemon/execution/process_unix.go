//go:build !windows

package execution

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the agent in its own group so helpers it spawns are
// signalled with it and terminal signals aimed at the daemon skip it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	if err := syscall.Kill(-p.Pid, sig); err != nil {
		return p.Signal(sig)
	}
	return nil
}
