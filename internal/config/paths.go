// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
)

const (
	// GlobalDirName is the name of the global SuperClaude directory.
	GlobalDirName = ".superclaude"

	// MetricsDirName is the project-relative directory agents write event logs to.
	MetricsDirName = ".superclaude_metrics"

	// HomeEnv overrides the global directory location.
	HomeEnv = "SUPERCLAUDE_HOME"
)

// File names
const (
	DaemonFileName   = "daemon.yaml"
	SettingsFileName = "settings.yaml"
	LockFileName     = "daemon.lock"
	ArchiveFileName  = "archive.db"
	DaemonLogName    = "daemon.log"

	// EventsFileName is the tailed JSON-lines file inside MetricsDirName.
	EventsFileName = "events.jsonl"
)

// GlobalDir returns the path to the global SuperClaude directory (~/.superclaude/).
func GlobalDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

func globalFile(name string) (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// GlobalDaemonFile returns the path to the daemon.yaml file.
func GlobalDaemonFile() (string, error) { return globalFile(DaemonFileName) }

// GlobalSettingsFile returns the path to the settings.yaml file.
func GlobalSettingsFile() (string, error) { return globalFile(SettingsFileName) }

// GlobalLockFile returns the path to the daemon single-instance lock.
func GlobalLockFile() (string, error) { return globalFile(LockFileName) }

// GlobalDaemonLog returns where a CLI-spawned daemon writes its output.
func GlobalDaemonLog() (string, error) { return globalFile(DaemonLogName) }

// GlobalArchiveFile returns the default archive database path.
func GlobalArchiveFile() (string, error) { return globalFile(ArchiveFileName) }

// MetricsDir returns a project's metrics directory.
func MetricsDir(projectRoot string) string {
	return filepath.Join(projectRoot, MetricsDirName)
}

// EventsFile returns the tailed events log of a project.
func EventsFile(projectRoot string) string {
	return filepath.Join(MetricsDir(projectRoot), EventsFileName)
}

// JournalFile returns the daemon-owned event journal for one execution.
// It lives next to EventsFile but under a different name so the metrics
// watcher never re-ingests it.
func JournalFile(projectRoot, executionID string) string {
	return filepath.Join(MetricsDir(projectRoot), "daemon-"+executionID+".jsonl")
}

// EnsureGlobalDir creates the global SuperClaude directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureMetricsDir creates the project's metrics directory.
func EnsureMetricsDir(projectRoot string) error {
	return os.MkdirAll(MetricsDir(projectRoot), 0755)
}
