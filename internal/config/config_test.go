package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superclaude/superclaude/internal/models"
)

func TestLoadSettingsMissingFileReturnsDefaults(t *testing.T) {
	s, err := LoadSettingsFrom(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/superclaude.sock", s.Daemon.SocketPath)
	assert.Equal(t, "127.0.0.1:50051", s.Daemon.TCPAddr)
	assert.True(t, s.Daemon.GRPCWeb)
	assert.Equal(t, 5*time.Second, s.Daemon.HeartbeatInterval)
	assert.Equal(t, models.ScoringWeighted, s.Scoring.Mode)
	assert.Equal(t, "sonnet", s.Defaults.Model)
}

func TestLoadSettingsPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
defaults:
  model: opus
daemon:
  tcp_addr: ""
  heartbeat_interval: 2s
scoring:
  mode: heuristic
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := LoadSettingsFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "opus", s.Defaults.Model)
	assert.Equal(t, 3, s.Defaults.MaxIterations)
	assert.Empty(t, s.Daemon.TCPAddr)
	assert.Equal(t, 2*time.Second, s.Daemon.HeartbeatInterval)
	assert.Equal(t, "/tmp/superclaude.sock", s.Daemon.SocketPath)
	assert.Equal(t, models.ScoringHeuristic, s.Scoring.Mode)
}

func TestLoadSettingsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults: [unterminated"), 0644))

	_, err := LoadSettingsFrom(path)
	assert.Error(t, err)
}

func TestSaveSettingsKeepsOtherSections(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	s, err := LoadSettings()
	require.NoError(t, err)
	s.Defaults.Model = "haiku"
	s.Obsidian = models.ObsidianConfig{Enabled: true, VaultPath: "/notes"}
	require.NoError(t, SaveSettings(s))

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "haiku", loaded.Defaults.Model)
	assert.Equal(t, "/notes", loaded.Obsidian.VaultPath)
	assert.Equal(t, s.Daemon.TCPAddr, loaded.Daemon.TCPAddr)

	path, err := GlobalSettingsFile()
	require.NoError(t, err)
	assert.NoFileExists(t, path+".tmp")
}

func TestDaemonInfoRoundTrip(t *testing.T) {
	t.Setenv(HomeEnv, t.TempDir())

	info := models.NewDaemonInfo("/tmp/test.sock", "127.0.0.1:0", os.Getpid())
	require.NoError(t, SaveDaemonInfo(info))

	running, loaded, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, "/tmp/test.sock", loaded.SocketPath)

	require.NoError(t, RemoveDaemonInfo())
	loaded, err = LoadDaemonInfo()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestInstanceLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)

	first, err := AcquireInstanceLock(path)
	require.NoError(t, err)

	_, err = AcquireInstanceLock(path)
	assert.ErrorIs(t, err, ErrDaemonLocked)

	require.NoError(t, first.Release())

	again, err := AcquireInstanceLock(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestJournalFileIsNotEventsFile(t *testing.T) {
	assert.NotEqual(t, EventsFile("/p"), JournalFile("/p", "abc"))
	assert.Equal(t, filepath.Join("/p", ".superclaude_metrics", "events.jsonl"), EventsFile("/p"))
}

func TestSetupLoggingJSON(t *testing.T) {
	prev := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	SetupLoggingTo(&buf, "warn", "json")

	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"component":"test"`)
}
