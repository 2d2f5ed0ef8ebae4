package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/superclaude/superclaude/internal/models"
)

// Adaptive colors.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Semantic styles for CLI output.
var (
	styleBrand   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleVersion = lipgloss.NewStyle().Foreground(colorGreen)
	styleLabel   = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleWarning = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	styleHint    = lipgloss.NewStyle().Foreground(colorDim)
	styleCommand = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	styleBlocked = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
)

// State badge styles.
var (
	badgePending   = lipgloss.NewStyle().Foreground(colorDim)
	badgeRunning   = lipgloss.NewStyle().Foreground(colorCyan)
	badgePaused    = lipgloss.NewStyle().Foreground(colorYellow)
	badgeCompleted = lipgloss.NewStyle().Foreground(colorGreen)
	badgeFailed    = lipgloss.NewStyle().Foreground(colorRed)
	badgeCancelled = lipgloss.NewStyle().Foreground(colorOrange)
)

func stateBadge(s models.ExecutionState) string {
	style := badgePending
	switch s {
	case models.StateRunning:
		style = badgeRunning
	case models.StatePaused:
		style = badgePaused
	case models.StateCompleted:
		style = badgeCompleted
	case models.StateFailed:
		style = badgeFailed
	case models.StateCancelled:
		style = badgeCancelled
	}
	return style.Render(string(s))
}

// scoreStyle colours a score against its threshold.
func scoreStyle(score, threshold float64) lipgloss.Style {
	switch {
	case score >= threshold:
		return styleSuccess
	case score >= threshold*0.7:
		return styleWarning
	default:
		return styleError
	}
}
