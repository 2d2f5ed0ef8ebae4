package models

import "time"

// DaemonInfo represents the daemon connection information.
// This corresponds to ~/.superclaude/daemon.yaml.
type DaemonInfo struct {
	Version    int       `yaml:"version"`
	SocketPath string    `yaml:"socket_path"`
	TCPAddr    string    `yaml:"tcp_addr,omitempty"`
	PID        int       `yaml:"pid"`
	StartedAt  time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(socketPath, tcpAddr string, pid int) *DaemonInfo {
	return &DaemonInfo{
		Version:    1,
		SocketPath: socketPath,
		TCPAddr:    tcpAddr,
		PID:        pid,
		StartedAt:  time.Now().UTC(),
	}
}
