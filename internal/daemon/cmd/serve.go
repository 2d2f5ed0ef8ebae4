package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/buildinfo"
	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/daemon/archive"
	"github.com/superclaude/superclaude/internal/daemon/execution"
	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/daemon/server"
	"github.com/superclaude/superclaude/internal/daemon/telemetry"
	"github.com/superclaude/superclaude/internal/models"
)

// shutdownTimeout bounds how long agents get to exit once the daemon stops.
const shutdownTimeout = 10 * time.Second

var serveFlags struct {
	socket    string
	tcp       string
	logLevel  string
	logFormat string
	noGRPCWeb bool
	settings  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon in the foreground",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(c *cobra.Command) {
	c.Flags().StringVar(&serveFlags.socket, "socket", "", "unix socket path (overrides settings)")
	c.Flags().StringVar(&serveFlags.tcp, "tcp", "", `TCP listen address, "off" disables (overrides settings)`)
	c.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "debug, info, warn or error")
	c.Flags().StringVar(&serveFlags.logFormat, "log-format", "", "console or json")
	c.Flags().BoolVar(&serveFlags.noGRPCWeb, "no-grpc-web", false, "disable grpc-web on the TCP listener")
	c.Flags().StringVar(&serveFlags.settings, "settings", "", "settings file (default ~/.superclaude/settings.yaml)")
}

func loadSettings() (*models.Settings, error) {
	var (
		s   *models.Settings
		err error
	)
	if serveFlags.settings != "" {
		s, err = config.LoadSettingsFrom(serveFlags.settings)
	} else {
		s, err = config.LoadSettings()
	}
	if err != nil {
		return nil, err
	}

	if serveFlags.socket != "" {
		s.Daemon.SocketPath = serveFlags.socket
	}
	switch serveFlags.tcp {
	case "":
	case "off":
		s.Daemon.TCPAddr = ""
	default:
		s.Daemon.TCPAddr = serveFlags.tcp
	}
	if serveFlags.noGRPCWeb {
		s.Daemon.GRPCWeb = false
	}
	if serveFlags.logLevel != "" {
		s.Logging.Level = serveFlags.logLevel
	}
	if serveFlags.logFormat != "" {
		s.Logging.Format = serveFlags.logFormat
	}
	return s, nil
}

func openArchive(settings *models.Settings) *archive.Store {
	if !settings.Archive.Enabled {
		return nil
	}
	path, err := config.ArchivePath(settings)
	if err != nil {
		log.Warn().Err(err).Msg("Archive disabled")
		return nil
	}
	store, err := archive.NewStore(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Archive disabled")
		return nil
	}
	log.Info().Str("path", store.Path()).Msg("Archiving finished executions")
	return store
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	config.SetupLogging(settings.Logging.Level, settings.Logging.Format)

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}
	lockPath, err := config.GlobalLockFile()
	if err != nil {
		return err
	}
	lock, err := config.AcquireInstanceLock(lockPath)
	if err != nil {
		if errors.Is(err, config.ErrDaemonLocked) {
			if running, info, _ := config.IsDaemonRunning(); running {
				return fmt.Errorf("daemon already running on %s (PID %d)", info.SocketPath, info.PID)
			}
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn().Err(err).Msg("Failed to release instance lock")
		}
	}()

	metrics := telemetry.NewMetrics()
	tracer := telemetry.NewTracer()
	validator := safety.NewValidator()

	store := openArchive(settings)
	var archiver execution.Archiver
	if store != nil {
		archiver = store
		defer store.Close()
	}

	manager := execution.NewManager(execution.Options{
		ResolveAgent:      func() (string, error) { return execution.ResolveAgentPath(settings) },
		Defaults:          settings.Defaults,
		Scoring:           settings.Scoring,
		HeartbeatInterval: settings.Daemon.HeartbeatInterval,
		HistoryLimit:      settings.Daemon.HistoryLimit,
		SubscriberBuffer:  settings.Daemon.SubscriberBuffer,
		Validator:         validator,
		Metrics:           metrics,
		Tracer:            tracer,
		Archive:           archiver,
	})

	srv, err := server.New(server.Options{
		SocketPath:  settings.Daemon.SocketPath,
		TCPAddr:     settings.Daemon.TCPAddr,
		GRPCWeb:     settings.Daemon.GRPCWeb,
		Manager:     manager,
		Validator:   validator,
		Obsidian:    settings.Obsidian,
		ScoringMode: settings.Scoring.Mode,
		Metrics:     metrics,
		Tracer:      tracer,
	})
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	info := models.NewDaemonInfo(srv.SocketPath(), srv.TCPAddr(), os.Getpid())
	if err := config.SaveDaemonInfo(info); err != nil {
		srv.Stop()
		return fmt.Errorf("failed to write daemon info: %w", err)
	}
	defer func() {
		if err := config.RemoveDaemonInfo(); err != nil {
			log.Warn().Err(err).Msg("Failed to remove daemon info")
		}
	}()

	log.Info().
		Str("version", buildinfo.Version).
		Str("socket", srv.SocketPath()).
		Str("tcp", srv.TCPAddr()).
		Int("pid", info.PID).
		Msg("Daemon started")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("Server stopped unexpectedly")
	}

	srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	manager.Shutdown(ctx)

	log.Info().Msg("Daemon stopped")
	return serveErr
}
