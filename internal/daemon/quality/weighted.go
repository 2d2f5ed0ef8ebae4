package quality

import (
	"fmt"
	"strings"

	"github.com/superclaude/superclaude/internal/daemon/evidence"
	"github.com/superclaude/superclaude/internal/models"
)

// Config holds the weighted scorer's weights and thresholds.
type Config struct {
	WeightCodeChanges float64
	WeightTestsRun    float64
	WeightTestsPass   float64
	WeightCoverage    float64
	WeightNoErrors    float64
	MinCoverage       float64
	QualityThreshold  float64
}

// DefaultConfig returns the standard weights (30/25/25/10/10).
func DefaultConfig() Config {
	return Config{
		WeightCodeChanges: 0.30,
		WeightTestsRun:    0.25,
		WeightTestsPass:   0.25,
		WeightCoverage:    0.10,
		WeightNoErrors:    0.10,
		MinCoverage:       80,
		QualityThreshold:  models.DefaultQualityThreshold,
	}
}

// majorityFailingCap bounds the score when failing tests outnumber passing ones.
const majorityFailingCap = 40.0

var errorMarkers = []string{"error:", "exception:", "traceback:", "failed:"}

// Weighted is the canonical five-dimension scorer.
type Weighted struct {
	Config Config
}

func (w *Weighted) Name() string { return models.ScoringWeighted }

func (w *Weighted) Assess(ev *evidence.Evidence) Assessment {
	cfg := w.Config
	var improvements []string

	dims := models.QualityDimensions{
		CodeChanges: scoreCodeChanges(ev),
		TestsRun:    scoreTestsRun(ev),
		TestsPass:   scoreTestsPass(ev),
		Coverage:    scoreCoverage(ev, cfg.MinCoverage),
		NoErrors:    scoreNoErrors(ev),
	}

	if len(ev.FilesWritten) == 0 && len(ev.FilesEdited) == 0 {
		improvements = append(improvements, "No code changes detected - verify implementation")
	}
	if dims.TestsRun < 100 {
		improvements = append(improvements, "Run tests to verify changes work correctly")
	}
	if failed := ev.TotalTestsFailed(); ev.TestsRun && failed > 0 {
		improvements = append(improvements, fmt.Sprintf("Fix %d failing test(s)", failed))
	}
	if dims.Coverage < 100 && ev.TestsRun {
		if avg := ev.AverageCoverage(); avg > 0 {
			improvements = append(improvements, fmt.Sprintf("Increase test coverage from %.1f%% to %.1f%%", avg, cfg.MinCoverage))
		}
	}
	if dims.NoErrors < 100 {
		improvements = append(improvements, "Fix errors in test or command output")
	}

	score := dims.CodeChanges*cfg.WeightCodeChanges +
		dims.TestsRun*cfg.WeightTestsRun +
		dims.TestsPass*cfg.WeightTestsPass +
		dims.Coverage*cfg.WeightCoverage +
		dims.NoErrors*cfg.WeightNoErrors

	if ev.TestsRun && ev.TotalTestsFailed() > ev.TotalTestsPassed() {
		if score > majorityFailingCap {
			score = majorityFailingCap
		}
		improvements = append([]string{"CRITICAL: Majority of tests failing"}, improvements...)
	}

	score = clamp(round1(score))
	if len(improvements) > maxImprovements {
		improvements = improvements[:maxImprovements]
	}

	return Assessment{
		Score:        score,
		Passed:       score >= cfg.QualityThreshold,
		Band:         BandFor(score),
		Improvements: improvements,
		Dimensions:   &dims,
		Breakdown: []models.ScoreDimension{
			{Name: "code_changes", Score: dims.CodeChanges, MaxScore: 100, Weight: cfg.WeightCodeChanges},
			{Name: "tests_run", Score: dims.TestsRun, MaxScore: 100, Weight: cfg.WeightTestsRun},
			{Name: "tests_pass", Score: dims.TestsPass, MaxScore: 100, Weight: cfg.WeightTestsPass},
			{Name: "coverage", Score: dims.Coverage, MaxScore: 100, Weight: cfg.WeightCoverage},
			{Name: "no_errors", Score: dims.NoErrors, MaxScore: 100, Weight: cfg.WeightNoErrors},
		},
	}
}

func scoreCodeChanges(ev *evidence.Evidence) float64 {
	switch n := ev.TotalFilesModified(); {
	case n >= 3:
		return 100
	case n >= 1:
		return 80
	}
	return 0
}

func scoreTestsRun(ev *evidence.Evidence) float64 {
	if ev.TestsRun {
		return 100
	}
	return 0
}

func scoreTestsPass(ev *evidence.Evidence) float64 {
	if !ev.TestsRun {
		return 50
	}
	passed, failed := ev.TotalTestsPassed(), ev.TotalTestsFailed()
	if passed+failed == 0 {
		return 50
	}
	return float64(passed) / float64(passed+failed) * 100
}

func scoreCoverage(ev *evidence.Evidence, minCoverage float64) float64 {
	if !ev.TestsRun {
		return 50
	}
	avg := ev.AverageCoverage()
	if avg <= 0 {
		return 50
	}
	if avg >= minCoverage {
		return 100
	}
	return avg / minCoverage * 100
}

func scoreNoErrors(ev *evidence.Evidence) float64 {
	if ev.TotalTestErrors() > 0 {
		return 0
	}
	for _, cmd := range ev.Commands {
		out := strings.ToLower(cmd.Output)
		for _, marker := range errorMarkers {
			if strings.Contains(out, marker) {
				return 50
			}
		}
	}
	return 100
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
