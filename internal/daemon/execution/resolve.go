package execution

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/superclaude/superclaude/internal/models"
)

// AgentBinary is the executable name looked up on PATH.
const AgentBinary = "claude"

// ResolveAgentPath finds the agent binary: the settings path first, then
// PATH, then well-known install locations.
func ResolveAgentPath(settings *models.Settings) (string, error) {
	if settings != nil {
		if agent, ok := settings.Agents[models.DefaultAgent]; ok && agent != nil && agent.Path != "" {
			if _, err := os.Stat(agent.Path); err == nil {
				return agent.Path, nil
			}
		}
	}

	if path, err := exec.LookPath(AgentBinary); err == nil {
		return path, nil
	}

	var fallbacks []string
	if home, err := os.UserHomeDir(); err == nil {
		fallbacks = append(fallbacks,
			filepath.Join(home, ".claude", "local", AgentBinary),
			filepath.Join(home, ".local", "bin", AgentBinary),
		)
	}
	if runtime.GOOS == "darwin" {
		fallbacks = append(fallbacks, "/opt/homebrew/bin/claude", "/usr/local/bin/claude")
	}
	for _, p := range fallbacks {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: install Claude Code or set agents.%s.path in settings.yaml", ErrAgentNotFound, models.DefaultAgent)
}
