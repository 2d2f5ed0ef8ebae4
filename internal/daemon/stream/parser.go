// Package stream decodes the Claude CLI's stream-json output into domain
// events, feeding evidence and scores as it goes.
package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/superclaude/superclaude/internal/daemon/evidence"
	"github.com/superclaude/superclaude/internal/daemon/quality"
	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/models"
)

const (
	maxSummaryCommand = 100
	maxTextLog        = 200
	maxToolOutput     = 2000
	maxResultLog      = 2000
	maxErrorReason    = 500
	maxSubagentResult = 200
)

// Config wires a Parser to its collaborators.
type Config struct {
	ExecutionID string
	// ProjectRoot is the agent's working directory. Absolute tool paths
	// under it are validated relative to it.
	ProjectRoot string
	Evidence    *evidence.Collector
	Validator   *safety.Validator
	Scorer      quality.Scorer

	// OnDenial is called for every tool call the validator rejects.
	OnDenial func(*safety.Denial)
	// OnSkip is called for every line that could not be decoded.
	OnSkip func(reason string)
}

// State is a snapshot of what the parser has learned so far.
type State struct {
	Iteration         int
	Score             float64
	Assessment        quality.Assessment
	TotalCostUSD      float64
	InputTokens       int64
	OutputTokens      int64
	NumTurns          int
	TerminationReason string
	RunInstructions   *models.RunInstructions
	SessionID         string
}

type pendingTool struct {
	name    string
	input   json.RawMessage
	command int // evidence handle for Bash, -1 otherwise
	cmdText string
}

// Parser turns stream-json lines into events. ParseLine is meant to be
// driven by a single reader goroutine; State may be called concurrently.
type Parser struct {
	cfg Config
	log zerolog.Logger

	mu      sync.Mutex
	state   State
	pending map[string]pendingTool
	scanned map[string]struct{}
	// denied holds tool_use ids the validator rejected; their results are
	// never read.
	denied map[string]struct{}
}

// NewParser creates a parser. A nil Validator or Scorer gets the defaults.
func NewParser(cfg Config) *Parser {
	if cfg.Validator == nil {
		cfg.Validator = safety.NewValidator()
	}
	if cfg.Scorer == nil {
		cfg.Scorer = quality.New(models.ScoringWeighted, quality.DefaultConfig())
	}
	if cfg.Evidence == nil {
		cfg.Evidence = evidence.NewCollector(cfg.ExecutionID)
	}
	if cfg.ProjectRoot != "" {
		if abs, err := filepath.Abs(cfg.ProjectRoot); err == nil {
			cfg.ProjectRoot = abs
		}
	}
	return &Parser{
		cfg:     cfg,
		log:     log.With().Str("component", "stream").Str("execution_id", cfg.ExecutionID).Logger(),
		pending: make(map[string]pendingTool),
		scanned: make(map[string]struct{}),
		denied:  make(map[string]struct{}),
	}
}

// State returns a copy of the parser's accumulated state.
func (p *Parser) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Evidence returns the collector the parser records into.
func (p *Parser) Evidence() *evidence.Collector { return p.cfg.Evidence }

type envelope struct {
	Type          string          `json:"type"`
	Subtype       string          `json:"subtype"`
	SessionID     string          `json:"session_id"`
	Model         string          `json:"model"`
	Message       *message        `json:"message"`
	ToolUseResult json.RawMessage `json:"tool_use_result"`
	Result        string          `json:"result"`
	IsError       bool            `json:"is_error"`
	NumTurns      int             `json:"num_turns"`
	TotalCostUSD  float64         `json:"total_cost_usd"`
	DurationMS    float64         `json:"duration_ms"`
}

type message struct {
	Content json.RawMessage `json:"content"`
	Usage   *usage          `json:"usage"`
}

type usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	Text      string          `json:"text"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

type toolInput struct {
	FilePath     string `json:"file_path"`
	Path         string `json:"path"`
	Pattern      string `json:"pattern"`
	Command      string `json:"command"`
	Content      string `json:"content"`
	OldString    string `json:"old_string"`
	NewString    string `json:"new_string"`
	Description  string `json:"description"`
	SubagentType string `json:"subagent_type"`
}

func (in toolInput) target() string {
	switch {
	case in.FilePath != "":
		return in.FilePath
	case in.Path != "":
		return in.Path
	}
	return in.Pattern
}

// ParseLine decodes one line of CLI output. Blank lines, non-JSON lines and
// unknown message types yield no events.
func (p *Parser) ParseLine(line string) []models.AgentEvent {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "{") {
		if line != "" {
			p.skip("not json")
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		p.log.Debug().Err(err).Msg("Skipping undecodable stream line")
		p.skip("decode")
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var out emitter
	out.id = p.cfg.ExecutionID

	switch env.Type {
	case "system":
		p.handleSystem(&out, &env)
	case "assistant":
		p.handleAssistant(&out, &env)
	case "user":
		p.handleUser(&out, &env)
	case "result":
		p.handleResult(&out, &env)
	}
	return out.events
}

func (p *Parser) skip(reason string) {
	if p.cfg.OnSkip != nil {
		p.cfg.OnSkip(reason)
	}
}

type emitter struct {
	id     string
	events []models.AgentEvent
}

func (e *emitter) add(payload models.Payload) {
	e.events = append(e.events, models.NewEvent(e.id, payload))
}

func (p *Parser) handleSystem(out *emitter, env *envelope) {
	if env.Subtype != "init" {
		return
	}
	p.state.SessionID = env.SessionID
	out.add(&models.LogMessage{
		Level:   models.LogInfo,
		Message: "Claude session initialised",
		Source:  "claude-cli",
	})
}

func (p *Parser) handleAssistant(out *emitter, env *envelope) {
	if env.Message == nil {
		return
	}
	if u := env.Message.Usage; u != nil {
		p.state.InputTokens += u.InputTokens
		p.state.OutputTokens += u.OutputTokens
	}

	p.state.Iteration++
	iterNode := fmt.Sprintf("iter-%d", p.state.Iteration)
	out.add(&models.IterationStarted{
		Iteration: p.state.Iteration,
		Depth:     0,
		NodeID:    iterNode,
	})

	for _, block := range decodeBlocks(env.Message.Content) {
		switch block.Type {
		case "tool_use":
			p.handleToolUse(out, block, iterNode)
		case "text":
			if text := strings.TrimSpace(block.Text); text != "" {
				out.add(&models.LogMessage{
					Level:   models.LogInfo,
					Message: Truncate(text, maxTextLog),
					Source:  "assistant",
				})
			}
		case "tool_result":
			p.handleToolResult(out, block)
		}
	}

	p.progressiveScore(out)
}

func (p *Parser) handleToolUse(out *emitter, block contentBlock, parentNode string) {
	var in toolInput
	if len(block.Input) > 0 {
		_ = json.Unmarshal(block.Input, &in)
	}
	target := in.target()

	summary := block.Name
	switch {
	case block.Name == "Bash" && in.Command != "":
		summary = "Bash: " + Truncate(in.Command, maxSummaryCommand)
	case block.Name != "Bash" && target != "":
		summary = block.Name + ": " + target
	}

	invoked := &models.ToolInvoked{
		ToolName:     block.Name,
		Summary:      summary,
		Depth:        1,
		NodeID:       block.ID,
		ParentNodeID: parentNode,
		ToolInput:    string(block.Input),
		ToolUseID:    block.ID,
	}

	if denial := p.gate(block.Name, in, target); denial != nil {
		invoked.Blocked = true
		invoked.BlockReason = denial.Reason()
		out.add(invoked)
		if block.ID != "" {
			p.denied[block.ID] = struct{}{}
		}
		p.log.Warn().
			Str("tool", block.Name).
			Str("category", string(denial.Category)).
			Msg("Tool call denied by safety policy")
		return
	}

	pending := pendingTool{name: block.Name, input: block.Input, command: -1}
	out.add(invoked)

	switch block.Name {
	case "Write":
		lines := countLines(in.Content)
		p.cfg.Evidence.RecordFileWrite(target, lines)
		out.add(&models.FileChanged{Path: target, Action: models.FileWrite, LinesAdded: lines, NodeID: block.ID})
		if isNoteArtifact(target) {
			out.add(&models.ArtifactWritten{
				Path:         target,
				ArtifactType: "document",
				Title:        strings.TrimSuffix(filepath.Base(target), filepath.Ext(target)),
			})
		}
	case "Edit", "MultiEdit":
		added, removed := countLines(in.NewString), countLines(in.OldString)
		p.cfg.Evidence.RecordFileEdit(target, added)
		out.add(&models.FileChanged{
			Path:         target,
			Action:       models.FileEdit,
			LinesAdded:   added,
			LinesRemoved: removed,
			NodeID:       block.ID,
		})
	case "Read", "Glob", "Grep":
		if target != "" {
			p.cfg.Evidence.RecordFileRead(target)
			out.add(&models.FileChanged{Path: target, Action: models.FileRead, NodeID: block.ID})
		}
	case "Bash":
		pending.command = p.cfg.Evidence.RecordCommandStarted(in.Command)
		pending.cmdText = in.Command
	case "Task":
		p.cfg.Evidence.RecordSubagentSpawned()
		subType := in.SubagentType
		if subType == "" {
			subType = "unknown"
		}
		out.add(&models.SubagentSpawned{
			SubagentID:   block.ID,
			SubagentType: subType,
			TaskSummary:  in.Description,
			Depth:        1,
			NodeID:       "subagent-" + block.ID,
			ParentNodeID: parentNode,
		})
	}

	if block.ID != "" {
		p.pending[block.ID] = pending
	}
}

// gate runs the safety validator over anything the tool call would let
// evidence observe.
func (p *Parser) gate(tool string, in toolInput, target string) *safety.Denial {
	var err error
	switch tool {
	case "Bash":
		if in.Command != "" {
			err = p.cfg.Validator.ValidateCommand(in.Command)
		}
	case "Write", "Edit", "MultiEdit", "Read":
		if target != "" {
			err = p.validatePath(target)
		}
	}
	return p.denial(err)
}

// validatePath checks an absolute path inside the project root in its
// project-relative form, so a project living under /tmp or /var is usable.
// The raw remainder is checked, keeping "../" and sensitive names visible.
func (p *Parser) validatePath(path string) error {
	if root := p.cfg.ProjectRoot; root != "" && filepath.IsAbs(path) {
		if rel, ok := strings.CutPrefix(path, root+string(filepath.Separator)); ok && rel != "" {
			path = rel
		}
	}
	return p.cfg.Validator.ValidatePath(path)
}

func (p *Parser) denial(err error) *safety.Denial {
	if err == nil {
		return nil
	}
	var d *safety.Denial
	if !errors.As(err, &d) {
		d = &safety.Denial{Description: err.Error()}
	}
	if p.cfg.OnDenial != nil {
		p.cfg.OnDenial(d)
	}
	return d
}

func (p *Parser) handleToolResult(out *emitter, block contentBlock) {
	if _, ok := p.denied[block.ToolUseID]; ok {
		return
	}
	text := extractText(block.Content)
	command := p.pending[block.ToolUseID].cmdText
	p.correlate(out, block.ToolUseID, text, block.IsError)
	p.detectTests(out, block.ToolUseID, command, text)
}

func (p *Parser) correlate(out *emitter, toolUseID, output string, isError bool) {
	if toolUseID == "" {
		return
	}
	pending, ok := p.pending[toolUseID]
	if !ok {
		return
	}
	delete(p.pending, toolUseID)

	output = Truncate(output, maxToolOutput)
	p.cfg.Evidence.RecordToolInvocation(pending.name, pending.input, output)
	if pending.command >= 0 {
		exitCode := 0
		if isError {
			exitCode = 1
		}
		p.cfg.Evidence.AttachCommandOutput(pending.command, pending.cmdText, output, exitCode)
	}

	if output != "" {
		out.add(&models.ToolInvoked{
			ToolName:   pending.name,
			Summary:    "(result)",
			NodeID:     toolUseID + "-result",
			ToolInput:  string(pending.input),
			ToolOutput: output,
			ToolUseID:  toolUseID,
		})
	}
	if pending.name == "Task" {
		out.add(&models.SubagentCompleted{
			SubagentID:    toolUseID,
			Success:       !isError,
			ResultSummary: Truncate(output, maxSubagentResult),
			NodeID:        "subagent-" + toolUseID,
		})
	}
}

// detectTests looks for a test summary in tool output. The framework
// grammars keyed on the Bash command are tried first, then the generic
// summary patterns. Each tool_use_id is scanned at most once so totals are
// not double counted.
func (p *Parser) detectTests(out *emitter, toolUseID, command, text string) {
	if text == "" {
		return
	}
	if toolUseID != "" {
		if _, seen := p.scanned[toolUseID]; seen {
			return
		}
	}
	result, ok := evidence.ParseTestOutput(command, text)
	if !ok || result.Passed+result.Failed+result.Skipped+result.Errors == 0 {
		summary, found := DetectTestSummary(text)
		if !found {
			return
		}
		result = evidence.TestResult{
			Framework: summary.Framework,
			Passed:    summary.Passed,
			Failed:    summary.Failed,
			Skipped:   summary.Skipped,
		}
	}
	if toolUseID != "" {
		p.scanned[toolUseID] = struct{}{}
	}

	p.cfg.Evidence.RecordTestResult(result)
	out.add(&models.TestResult{
		Framework: result.Framework,
		Passed:    result.Passed,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
		Errors:    result.Errors,
		Coverage:  result.Coverage,
		NodeID:    "test-" + uuid.NewString(),
	})
}

type toolUseResult struct {
	Type     string          `json:"type"`
	Path     string          `json:"path"`
	FilePath string          `json:"filePath"`
	Content  json.RawMessage `json:"content"`
	Stdout   string          `json:"stdout"`
}

func (p *Parser) handleUser(out *emitter, env *envelope) {
	var blocks []contentBlock
	if env.Message != nil {
		blocks = decodeBlocks(env.Message.Content)
	}
	// The structured result belongs to the first tool_result in the message.
	resultID := ""
	for _, b := range blocks {
		if b.Type == "tool_result" {
			resultID = b.ToolUseID
			break
		}
	}

	_, denied := p.denied[resultID]
	if !denied && len(env.ToolUseResult) > 0 && env.ToolUseResult[0] == '{' {
		var tur toolUseResult
		if err := json.Unmarshal(env.ToolUseResult, &tur); err == nil {
			path := tur.Path
			if path == "" {
				path = tur.FilePath
			}
			if path != "" && (tur.Type == "create" || tur.Type == "update") {
				if d := p.denial(p.validatePath(path)); d == nil {
					p.recordFileHint(out, path, tur.Type == "create")
				}
			}
			text := extractText(tur.Content)
			if text == "" {
				text = tur.Stdout
			}
			p.detectTests(out, resultID, p.pending[resultID].cmdText, text)
		}
	}

	for _, b := range blocks {
		if b.Type == "tool_result" {
			p.handleToolResult(out, b)
		}
	}
}

// recordFileHint records a file the CLI reported as created or updated. The
// event is only emitted for paths evidence had not seen, since the Write or
// Edit tool_use already announced the others.
func (p *Parser) recordFileHint(out *emitter, path string, created bool) {
	if created {
		if p.cfg.Evidence.RecordFileWrite(path, 0) {
			out.add(&models.FileChanged{Path: path, Action: models.FileWrite})
		}
		return
	}
	if p.cfg.Evidence.RecordFileEdit(path, 0) {
		out.add(&models.FileChanged{Path: path, Action: models.FileEdit})
	}
}

func (p *Parser) handleResult(out *emitter, env *envelope) {
	p.state.NumTurns = env.NumTurns
	p.state.TotalCostUSD = env.TotalCostUSD
	if ri := ExtractRunInstructions(env.Result); ri != nil {
		p.state.RunInstructions = ri
	}

	text := strings.TrimSpace(env.Result)
	if env.IsError {
		switch {
		case text != "":
			p.state.TerminationReason = Truncate(text, maxErrorReason)
		case env.Subtype != "":
			p.state.TerminationReason = "Agent reported error: " + env.Subtype
		}
	}
	if text != "" {
		level := models.LogInfo
		if env.IsError {
			level = models.LogError
		}
		out.add(&models.LogMessage{
			Level:   level,
			Message: Truncate(text, maxResultLog),
			Source:  "result",
		})
	}

	old := p.state.Score
	a := p.assess()

	out.add(&models.IterationCompleted{
		Iteration: p.state.Iteration,
		Score:     a.Score,
		Improvements: []string{
			fmt.Sprintf("turns=%d", env.NumTurns),
			fmt.Sprintf("cost=$%.4f", env.TotalCostUSD),
			fmt.Sprintf("duration=%.0fms", env.DurationMS),
		},
		Dimensions:      a.Dimensions,
		DurationSeconds: env.DurationMS / 1000,
		NodeID:          fmt.Sprintf("iter-%d", p.state.Iteration),
		TotalCostUSD:    env.TotalCostUSD,
		InputTokens:     p.state.InputTokens,
		OutputTokens:    p.state.OutputTokens,
		NumTurns:        env.NumTurns,
	})

	ev := p.cfg.Evidence.Snapshot()
	out.add(&models.ScoreUpdated{
		OldScore: old,
		NewScore: a.Score,
		Reason: fmt.Sprintf("%s: %d files, %d cmds, tests_run=%t",
			scorerLabel(p.cfg.Scorer), ev.TotalFilesModified(), ev.CommandsRun(), ev.TestsRun),
		Dimensions: a.Dimensions,
	})
}

func (p *Parser) progressiveScore(out *emitter) {
	old := p.state.Score
	a := p.assess()
	if a.Score == old {
		return
	}
	out.add(&models.ScoreUpdated{
		OldScore:   old,
		NewScore:   a.Score,
		Reason:     "Progressive evidence update",
		Dimensions: a.Dimensions,
	})
}

func (p *Parser) assess() quality.Assessment {
	a := p.cfg.Scorer.Assess(p.cfg.Evidence.Snapshot())
	p.state.Assessment = a
	p.state.Score = a.Score
	return a
}

func scorerLabel(s quality.Scorer) string {
	name := s.Name()
	if name == "" {
		return "Score"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func decodeBlocks(raw json.RawMessage) []contentBlock {
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil
	}
	return blocks
}

// extractText flattens tool output that is either a string or an array of
// text blocks.
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '[':
		var parts []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &parts); err == nil {
			texts := make([]string, 0, len(parts))
			for _, part := range parts {
				if part.Text != "" {
					texts = append(texts, part.Text)
				}
			}
			return strings.Join(texts, "\n")
		}
	}
	return ""
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// isNoteArtifact reports whether a written file is a markdown document
// destined for a notes vault or the metrics directory.
func isNoteArtifact(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		lp := strings.ToLower(part)
		if strings.Contains(lp, "obsidian") || strings.Contains(lp, "vault") || lp == ".superclaude_metrics" {
			return true
		}
	}
	return false
}
