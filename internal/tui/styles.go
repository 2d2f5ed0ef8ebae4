package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/superclaude/superclaude/internal/models"
)

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite  = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}
	colorOrange = lipgloss.AdaptiveColor{Light: "166", Dark: "208"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

// Layout styles.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(lipgloss.AdaptiveColor{Light: "235", Dark: "236"})

	focusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorWhite)

	unfocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim)

	selectedItemStyle = lipgloss.NewStyle().
				Background(lipgloss.AdaptiveColor{Light: "254", Dark: "237"})

	dimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// Key hint styles for status bar.
var (
	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	hintStyle = lipgloss.NewStyle().Foreground(colorDim)
)

func stateStyle(s models.ExecutionState) lipgloss.Style {
	switch s {
	case models.StateRunning:
		return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	case models.StatePaused:
		return lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	case models.StateCompleted:
		return lipgloss.NewStyle().Foreground(colorCyan)
	case models.StateFailed:
		return lipgloss.NewStyle().Foreground(colorRed)
	case models.StateCancelled:
		return lipgloss.NewStyle().Foreground(colorOrange)
	default:
		return dimStyle
	}
}

func scoreStyle(score, threshold float64) lipgloss.Style {
	switch {
	case score >= threshold:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case score >= threshold/2:
		return lipgloss.NewStyle().Foreground(colorYellow)
	default:
		return lipgloss.NewStyle().Foreground(colorRed)
	}
}
