package execution

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/superclaude/superclaude/internal/daemon/stream"
	"github.com/superclaude/superclaude/internal/models"
)

const (
	stderrBatchLines   = 5
	stderrBatchWindow  = 500 * time.Millisecond
	stderrMessageLimit = 1000
	stderrTailLines    = 50
	stderrReasonLimit  = 500
)

var stderrErrorPattern = regexp.MustCompile(`(?i)error|panic|fatal`)

// stderrMonitor keeps a tail of agent stderr for failure reasons, batches
// error-looking lines into ErrorOccurred events and reports each auth or
// rate-limit issue once.
type stderrMonitor struct {
	emit func(models.Payload)

	mu       sync.Mutex
	tail     []string
	batch    []string
	timer    *time.Timer
	reported map[IssueType]bool
}

func newStderrMonitor(emit func(models.Payload)) *stderrMonitor {
	return &stderrMonitor{emit: emit, reported: make(map[IssueType]bool)}
}

func (s *stderrMonitor) line(line string, eof bool) {
	if eof {
		s.flush()
		return
	}
	if strings.TrimSpace(line) == "" {
		return
	}

	var issue *Issue
	s.mu.Lock()
	s.tail = append(s.tail, line)
	if len(s.tail) > stderrTailLines {
		s.tail = s.tail[len(s.tail)-stderrTailLines:]
	}
	if i := DetectIssue(line); i != nil && !s.reported[i.Type] {
		s.reported[i.Type] = true
		issue = i
	}
	full := false
	if stderrErrorPattern.MatchString(line) {
		s.batch = append(s.batch, line)
		full = len(s.batch) >= stderrBatchLines
		if !full && s.timer == nil {
			s.timer = time.AfterFunc(stderrBatchWindow, s.flush)
		}
	}
	s.mu.Unlock()

	if issue != nil {
		s.emit(issue.Payload())
	}
	if full {
		s.flush()
	}
}

func (s *stderrMonitor) flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	lines := s.batch
	s.batch = nil
	s.mu.Unlock()

	if len(lines) == 0 {
		return
	}
	s.emit(&models.ErrorOccurred{
		ErrorType:   "stderr",
		Message:     stream.Truncate(strings.Join(lines, "\n"), stderrMessageLimit),
		Recoverable: true,
	})
}

// tailText returns the retained stderr, truncated for use in a reason.
func (s *stderrMonitor) tailText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stream.Truncate(strings.Join(s.tail, "\n"), stderrReasonLimit)
}
