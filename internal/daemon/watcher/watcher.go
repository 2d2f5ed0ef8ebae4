// Package watcher tails a project's metrics event log and forwards decoded
// events to an execution.
package watcher

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/models"
)

// DebounceWindow coalesces bursts of write notifications.
const DebounceWindow = 100 * time.Millisecond

// Sink receives decoded events.
type Sink func(models.AgentEvent)

// MetricsWatcher follows <dir>/events.jsonl from a byte offset, decoding
// each complete line as it is appended.
type MetricsWatcher struct {
	dir         string
	file        string
	executionID string
	sink        Sink
	log         zerolog.Logger

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once

	debounceMu sync.Mutex
	timer      *time.Timer

	readMu sync.Mutex
	offset int64
}

// New creates a watcher for the metrics directory dir.
func New(dir, executionID string, sink Sink) *MetricsWatcher {
	return &MetricsWatcher{
		dir:         dir,
		file:        filepath.Join(dir, config.EventsFileName),
		executionID: executionID,
		sink:        sink,
		log:         log.With().Str("component", "watcher").Str("execution_id", executionID).Logger(),
		done:        make(chan struct{}),
	}
}

// Start attaches the watch and then drains whatever the file already holds.
// Reads are serialized on the offset, so a write racing the drain is read
// exactly once.
func (w *MetricsWatcher) Start() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsWatcher.Add(w.dir); err != nil {
		_ = fsWatcher.Close()
		return err
	}
	w.fsWatcher = fsWatcher

	w.wg.Add(1)
	go w.processEvents()

	w.readNew()
	w.log.Info().Str("path", w.dir).Msg("Started metrics watcher")
	return nil
}

// Stop detaches the watch and waits for the event loop to exit.
func (w *MetricsWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsWatcher != nil {
			_ = w.fsWatcher.Close()
		}
		w.debounceMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.debounceMu.Unlock()
		w.wg.Wait()
	})
}

// Offset reports how many bytes of the file have been consumed.
func (w *MetricsWatcher) Offset() int64 {
	w.readMu.Lock()
	defer w.readMu.Unlock()
	return w.offset
}

func (w *MetricsWatcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != config.EventsFileName {
				continue
			}
			w.debounce()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("Metrics watcher error")
		}
	}
}

func (w *MetricsWatcher) debounce() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(DebounceWindow, func() {
		select {
		case <-w.done:
			return
		default:
		}
		w.readNew()
	})
}

// readNew decodes every complete line past the current offset. A partial
// trailing line is left for the next read. A file shorter than the offset
// was truncated or replaced and is read again from the start.
func (w *MetricsWatcher) readNew() {
	w.readMu.Lock()
	defer w.readMu.Unlock()

	f, err := os.Open(w.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.offset = 0
		} else {
			w.log.Warn().Err(err).Msg("Failed to open events file")
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to stat events file")
		return
	}
	if info.Size() < w.offset {
		w.log.Debug().Int64("size", info.Size()).Int64("offset", w.offset).Msg("Events file truncated, rereading")
		w.offset = 0
	}
	if info.Size() == w.offset {
		return
	}

	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		w.log.Warn().Err(err).Msg("Failed to seek events file")
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		w.log.Warn().Err(err).Msg("Failed to read events file")
		return
	}

	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return
	}
	complete := data[:end+1]
	w.offset += int64(len(complete))

	for _, line := range bytes.Split(complete, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		ev, ok := DecodeLine(line, w.executionID)
		if !ok {
			w.log.Debug().Msg("Skipping unrecognised metrics line")
			continue
		}
		w.sink(ev)
	}
}
