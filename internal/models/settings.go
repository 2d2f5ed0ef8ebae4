package models

import "time"

// AgentConfig holds configuration for a specific coding agent.
type AgentConfig struct {
	Path string `yaml:"path"` // empty = lookup in PATH, or absolute path
}

// DaemonConfig holds listener and runtime settings for superclauded.
type DaemonConfig struct {
	SocketPath        string        `yaml:"socket_path"`
	TCPAddr           string        `yaml:"tcp_addr"` // empty disables the TCP listener
	GRPCWeb           bool          `yaml:"grpc_web"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HistoryLimit      int           `yaml:"history_limit"` // 0 = unbounded
	SubscriberBuffer  int           `yaml:"subscriber_buffer"`
}

// ScoringConfig selects the quality scorer used on the live execution path.
type ScoringConfig struct {
	Mode        string  `yaml:"mode"` // "weighted" | "heuristic"
	MinCoverage float64 `yaml:"min_coverage"`
}

// ArchiveConfig controls the SQLite archive of finished executions.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty = ~/.superclaude/archive.db
}

// LoggingConfig controls daemon log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "console" | "json"
}

// Settings represents global application settings.
// This corresponds to ~/.superclaude/settings.yaml.
type Settings struct {
	Version  int                     `yaml:"version"`
	Agents   map[string]*AgentConfig `yaml:"agents"`
	Defaults ExecutionConfig         `yaml:"defaults"`
	Daemon   DaemonConfig            `yaml:"daemon"`
	Scoring  ScoringConfig           `yaml:"scoring"`
	Obsidian ObsidianConfig          `yaml:"obsidian"`
	Archive  ArchiveConfig           `yaml:"archive"`
	Logging  LoggingConfig           `yaml:"logging"`
}

// Scoring modes.
const (
	ScoringWeighted  = "weighted"
	ScoringHeuristic = "heuristic"
)

// DefaultAgent is the settings key of the supervised agent binary.
const DefaultAgent = "claude-code"

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Agents: map[string]*AgentConfig{
			DefaultAgent: {Path: ""},
		},
		Defaults: DefaultExecutionConfig(),
		Daemon: DaemonConfig{
			SocketPath:        "/tmp/superclaude.sock",
			TCPAddr:           "127.0.0.1:50051",
			GRPCWeb:           true,
			HeartbeatInterval: 5 * time.Second,
			HistoryLimit:      0,
			SubscriberBuffer:  1024,
		},
		Scoring: ScoringConfig{
			Mode:        ScoringWeighted,
			MinCoverage: 80,
		},
		Archive: ArchiveConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ApplyDefaults fills zero-valued fields left out of a partial settings file.
func (s *Settings) ApplyDefaults() {
	def := NewSettings()
	if s.Version == 0 {
		s.Version = def.Version
	}
	if s.Agents == nil {
		s.Agents = def.Agents
	}
	s.Defaults = s.Defaults.WithDefaults(def.Defaults)
	if s.Daemon.SocketPath == "" {
		s.Daemon.SocketPath = def.Daemon.SocketPath
	}
	if s.Daemon.HeartbeatInterval <= 0 {
		s.Daemon.HeartbeatInterval = def.Daemon.HeartbeatInterval
	}
	if s.Daemon.SubscriberBuffer <= 0 {
		s.Daemon.SubscriberBuffer = def.Daemon.SubscriberBuffer
	}
	if s.Scoring.Mode == "" {
		s.Scoring.Mode = def.Scoring.Mode
	}
	if s.Scoring.MinCoverage <= 0 {
		s.Scoring.MinCoverage = def.Scoring.MinCoverage
	}
	if s.Logging.Level == "" {
		s.Logging.Level = def.Logging.Level
	}
	if s.Logging.Format == "" {
		s.Logging.Format = def.Logging.Format
	}
}
