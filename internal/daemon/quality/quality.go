// Package quality turns collected evidence into a deterministic 0-100 score.
package quality

import (
	"math"

	"github.com/superclaude/superclaude/internal/daemon/evidence"
	"github.com/superclaude/superclaude/internal/models"
)

// Band is the coarse category of a score.
type Band string

const (
	BandExcellent  Band = "excellent"
	BandGood       Band = "good"
	BandAcceptable Band = "acceptable"
	BandNeedsWork  Band = "needs_work"
	BandPoor       Band = "poor"
)

// BandFor maps a score to its band.
func BandFor(score float64) Band {
	switch {
	case score >= 90:
		return BandExcellent
	case score >= 70:
		return BandGood
	case score >= 50:
		return BandAcceptable
	case score >= 30:
		return BandNeedsWork
	}
	return BandPoor
}

const maxImprovements = 5

// Assessment is the result of scoring one evidence snapshot.
type Assessment struct {
	Score        float64                   `json:"score"`
	Passed       bool                      `json:"passed"`
	Band         Band                      `json:"band"`
	Improvements []string                  `json:"improvements_needed"`
	Dimensions   *models.QualityDimensions `json:"dimensions,omitempty"`
	Breakdown    []models.ScoreDimension   `json:"breakdown"`
}

// Scorer assesses an evidence snapshot.
type Scorer interface {
	Name() string
	Assess(ev *evidence.Evidence) Assessment
}

// New returns the scorer selected by mode. Unknown modes fall back to the
// weighted scorer.
func New(mode string, cfg Config) Scorer {
	if mode == models.ScoringHeuristic {
		return &Heuristic{Threshold: cfg.QualityThreshold}
	}
	return &Weighted{Config: cfg}
}

// Comparison describes progress between two assessments.
type Comparison struct {
	Delta        float64 `json:"score_delta"`
	Improved     bool    `json:"improved"`
	Regressed    bool    `json:"regressed"`
	Stagnant     bool    `json:"stagnant"`
	CurrentBand  Band    `json:"current_band"`
	PreviousBand Band    `json:"previous_band"`
	BandChanged  bool    `json:"band_changed"`
}

// Compare reports how current moved relative to previous. Moves smaller than
// two points count as stagnant.
func Compare(current, previous Assessment) Comparison {
	delta := current.Score - previous.Score
	return Comparison{
		Delta:        round1(delta),
		Improved:     delta > 0,
		Regressed:    delta < 0,
		Stagnant:     math.Abs(delta) < 2,
		CurrentBand:  current.Band,
		PreviousBand: previous.Band,
		BandChanged:  current.Band != previous.Band,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
