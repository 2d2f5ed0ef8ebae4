package quality

import (
	"fmt"

	"github.com/superclaude/superclaude/internal/daemon/evidence"
	"github.com/superclaude/superclaude/internal/models"
)

// Heuristic is the simpler additive scorer: files produced, tests, commands
// and a completion bonus. It is an alternative to Weighted and its output is
// never blended with it.
type Heuristic struct {
	Threshold float64
}

func (h *Heuristic) Name() string { return models.ScoringHeuristic }

func (h *Heuristic) Assess(ev *evidence.Evidence) Assessment {
	files := len(ev.FilesWritten) + len(ev.FilesEdited)
	passed, failed := ev.TotalTestsPassed(), ev.TotalTestsFailed()

	var filePts, testPts, cmdPts, donePts float64
	if files > 0 {
		filePts = 30 + minf(float64(files)*5, 20)
	}
	if ev.TestsRun {
		testPts = 10
		if failed == 0 && passed > 0 {
			testPts += 10
		}
	}
	cmdPts = minf(float64(ev.CommandsRun())*2, 10)
	if files > 0 && ev.AllTestsPassing() {
		donePts = 20
	}

	score := clamp(round1(minf(filePts+testPts+cmdPts+donePts, 100)))

	var improvements []string
	if files == 0 {
		improvements = append(improvements, "No code changes detected - verify implementation")
	}
	if !ev.TestsRun {
		improvements = append(improvements, "Run tests to verify changes work correctly")
	} else if failed > 0 {
		improvements = append(improvements, fmt.Sprintf("Fix %d failing test(s)", failed))
	}

	return Assessment{
		Score:        score,
		Passed:       score >= h.Threshold,
		Band:         BandFor(score),
		Improvements: improvements,
		Breakdown: []models.ScoreDimension{
			{Name: "files_produced", Score: filePts, MaxScore: 50, Detail: fmt.Sprintf("%d files", files)},
			{Name: "tests", Score: testPts, MaxScore: 20, Detail: fmt.Sprintf("%d passed, %d failed", passed, failed)},
			{Name: "commands", Score: cmdPts, MaxScore: 10, Detail: fmt.Sprintf("%d commands", ev.CommandsRun())},
			{Name: "completion", Score: donePts, MaxScore: 20},
		},
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
