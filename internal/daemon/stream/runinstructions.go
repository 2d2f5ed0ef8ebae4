package stream

import (
	"encoding/json"
	"strings"

	"github.com/superclaude/superclaude/internal/models"
)

const runInstructionsMarker = `{"run_instructions"`

// ExtractRunInstructions finds a {"run_instructions": {...}} object embedded
// in the agent's final text. The longest candidate that decodes wins.
func ExtractRunInstructions(text string) *models.RunInstructions {
	start := strings.Index(text, runInstructionsMarker)
	if start < 0 {
		return nil
	}
	tail := text[start:]

	for end := len(tail); end > 0; {
		i := strings.LastIndexByte(tail[:end], '}')
		if i < 0 {
			return nil
		}
		var wrapper struct {
			RunInstructions *models.RunInstructions `json:"run_instructions"`
		}
		if err := json.Unmarshal([]byte(tail[:i+1]), &wrapper); err == nil && wrapper.RunInstructions != nil {
			return wrapper.RunInstructions
		}
		end = i
	}
	return nil
}
