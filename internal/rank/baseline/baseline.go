package baseline

import (
	"math"
	"time"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/domain"
)

// Signal is a team's recency-weighted base performance. A nil Signal means
// the team has zero qualifying matches in the window, which is deliberately
// distinct from a bad-but-measured team.
type Signal struct {
	TeamID string

	// Offense is the recency-weighted mean of capped goals scored per game.
	Offense float64
	// Defense is the negated recency-weighted mean of capped goals conceded,
	// so higher is better for every raw signal and one percentile routine
	// serves them all.
	Defense float64
	// Seed is the initial strength estimate in [0,1] feeding SOS propagation.
	Seed float64
	// PerfCentered is recent form minus the team's own season baseline,
	// clamped to [-0.5, +0.5].
	PerfCentered float64

	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int
}

// Calculator converts a team's match window into base performance signals.
type Calculator struct {
	cfg config.RankingConfig
}

// NewCalculator creates a base performance calculator.
func NewCalculator(cfg config.RankingConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// CappedFor returns goals scored, capped at the opponent's total plus the
// goal-differential cap. A 20-0 win scores the same as 6-0.
func CappedFor(gf, ga, cap int) float64 {
	if gf > ga+cap {
		return float64(ga + cap)
	}
	return float64(gf)
}

// CappedAgainst returns goals conceded with the same cap from the other side.
func CappedAgainst(gf, ga, cap int) float64 {
	if ga > gf+cap {
		return float64(gf + cap)
	}
	return float64(ga)
}

// CappedDiff returns the goal differential clamped to ±cap.
func CappedDiff(gf, ga, cap int) float64 {
	d := gf - ga
	if d > cap {
		return float64(cap)
	}
	if d < -cap {
		return float64(-cap)
	}
	return float64(d)
}

// RecencyWeight decays by half-life in days, floored so old results never
// reach zero influence.
func (c *Calculator) RecencyWeight(matchDate, asOf time.Time) float64 {
	ageDays := asOf.Sub(matchDate).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	w := math.Pow(0.5, ageDays/c.cfg.HalfLifeDays)
	if w < c.cfg.MinRecencyWeight {
		return c.cfg.MinRecencyWeight
	}
	return w
}

// matchPerformance is a single game's outcome-plus-margin score in [0,1].
func (c *Calculator) matchPerformance(pm domain.PerspectiveMatch) float64 {
	margin01 := (CappedDiff(pm.GoalsFor, pm.GoalsAgainst, c.cfg.GoalDiffCap)/float64(c.cfg.GoalDiffCap) + 1) / 2
	return 0.5*pm.Outcome() + 0.5*margin01
}

// Compute aggregates one team's window into a Signal. Returns nil when the
// window holds no qualifying matches.
func (c *Calculator) Compute(w *domain.TeamWindow, asOf time.Time) *Signal {
	if w == nil || len(w.Matches) == 0 {
		return nil
	}

	s := &Signal{TeamID: w.TeamID, GamesPlayed: len(w.Matches)}

	var sumW, sumFor, sumAgainst, sumOutcome, sumMargin float64
	var seasonPerf float64

	for _, pm := range w.Matches {
		weight := c.RecencyWeight(pm.Date, asOf)
		sumW += weight
		sumFor += weight * CappedFor(pm.GoalsFor, pm.GoalsAgainst, c.cfg.GoalDiffCap)
		sumAgainst += weight * CappedAgainst(pm.GoalsFor, pm.GoalsAgainst, c.cfg.GoalDiffCap)
		sumOutcome += weight * pm.Outcome()
		margin01 := (CappedDiff(pm.GoalsFor, pm.GoalsAgainst, c.cfg.GoalDiffCap)/float64(c.cfg.GoalDiffCap) + 1) / 2
		sumMargin += weight * margin01
		seasonPerf += c.matchPerformance(pm)

		switch {
		case pm.GoalsFor > pm.GoalsAgainst:
			s.Wins++
		case pm.GoalsFor < pm.GoalsAgainst:
			s.Losses++
		default:
			s.Draws++
		}
	}

	s.Offense = sumFor / sumW
	s.Defense = -(sumAgainst / sumW)
	s.Seed = clamp01(0.6*(sumOutcome/sumW) + 0.4*(sumMargin/sumW))
	s.PerfCentered = c.perfCentered(w.Matches, asOf, seasonPerf/float64(len(w.Matches)))

	return s
}

// perfCentered compares the recency-weighted performance of the newest games
// against the unweighted season mean. Windows are newest-first.
func (c *Calculator) perfCentered(matches []domain.PerspectiveMatch, asOf time.Time, seasonMean float64) float64 {
	n := c.cfg.RecentFormGames
	if n > len(matches) {
		n = len(matches)
	}

	var sumW, sum float64
	for _, pm := range matches[:n] {
		weight := c.RecencyWeight(pm.Date, asOf)
		sumW += weight
		sum += weight * c.matchPerformance(pm)
	}

	centered := sum/sumW - seasonMean
	if centered > 0.5 {
		return 0.5
	}
	if centered < -0.5 {
		return -0.5
	}
	return centered
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
