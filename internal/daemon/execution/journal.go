package execution

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/models"
)

// journal appends every emitted event to the project's metrics directory.
// It writes to its own daemon-<id>.jsonl file, never the tailed events file.
type journal struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func openJournal(projectRoot, executionID string) (*journal, error) {
	if err := config.EnsureMetricsDir(projectRoot); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(config.JournalFile(projectRoot, executionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &journal{f: f, enc: json.NewEncoder(f)}, nil
}

func (j *journal) write(ev models.AgentEvent) error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f == nil {
		return nil
	}
	return j.enc.Encode(ev)
}

func (j *journal) close() {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
}
