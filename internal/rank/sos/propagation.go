package sos

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/rank/baseline"
)

// Result carries the converged schedule-strength estimates for one cohort.
// Teams with no qualifying matches appear in neither map.
type Result struct {
	// SOS is the final sos_raw per team.
	SOS map[string]float64
	// Strength is the final per-team strength estimate, kept for diagnostics.
	Strength map[string]float64
}

// Engine estimates each team's opponent-strength exposure over a fixed number
// of passes. Every pass reads only the previous pass's snapshot and writes a
// fresh map, so iteration order can never leak into results and per-team work
// inside a pass is free to run in any order.
type Engine struct {
	cfg  config.RankingConfig
	calc *baseline.Calculator
}

// NewEngine creates a propagation engine sharing the baseline calculator's
// recency decay.
func NewEngine(cfg config.RankingConfig, calc *baseline.Calculator) *Engine {
	return &Engine{cfg: cfg, calc: calc}
}

// weightedMatch is one qualifying match with its final SOS weight applied.
type weightedMatch struct {
	opponentID string
	weight     float64
	date       time.Time
	matchID    string
}

// Propagate runs the fixed-point iteration. seeds holds the baseline strength
// estimate for every team with a signal; opponents absent from the current
// strength snapshot count at the configured neutral seed, never at zero.
func (e *Engine) Propagate(windows map[string]*domain.TeamWindow, seeds map[string]float64, asOf time.Time) Result {
	strength := make(map[string]float64, len(seeds))
	for id, s := range seeds {
		strength[id] = s
	}

	teamIDs := make([]string, 0, len(windows))
	for id := range windows {
		teamIDs = append(teamIDs, id)
	}
	sort.Strings(teamIDs)

	var direct map[string]float64
	var prevDirect map[string]float64
	var sos map[string]float64

	for pass := 1; pass <= e.cfg.SOSPasses; pass++ {
		nextStrength := make(map[string]float64, len(strength))
		direct = make(map[string]float64, len(teamIDs))
		sos = make(map[string]float64, len(teamIDs))
		maxDelta := 0.0

		for _, teamID := range teamIDs {
			w := windows[teamID]
			kept := e.selectMatches(w, strength, asOf)
			if len(kept) == 0 {
				continue
			}

			var sumW, sumDirect, sumTransitive float64
			for _, wm := range kept {
				oppStrength := e.lookup(strength, wm.opponentID)
				sumW += wm.weight
				sumDirect += wm.weight * oppStrength

				// Opponents' own direct SOS from the previous pass; before
				// one exists, their strength stands in for it.
				oppDirect, ok := prevDirect[wm.opponentID]
				if !ok {
					oppDirect = oppStrength
				}
				sumTransitive += wm.weight * oppDirect
			}

			d := sumDirect / sumW
			t := sumTransitive / sumW
			direct[teamID] = d
			sos[teamID] = (1-e.cfg.TransitiveWeight)*d + e.cfg.TransitiveWeight*t

			seed, ok := seeds[teamID]
			if !ok {
				seed = e.cfg.NeutralSeed
			}
			updated := clamp01(0.6*seed + 0.4*sos[teamID])
			nextStrength[teamID] = updated

			if delta := math.Abs(updated - e.lookup(strength, teamID)); delta > maxDelta {
				maxDelta = delta
			}
		}

		// Carry forward strengths for teams that sat this pass out so their
		// opponents keep reading a stable value.
		for id, s := range strength {
			if _, ok := nextStrength[id]; !ok {
				nextStrength[id] = s
			}
		}

		strength = nextStrength
		prevDirect = direct

		log.Debug().
			Int("pass", pass).
			Float64("max_delta", maxDelta).
			Int("teams", len(teamIDs)).
			Msg("sos propagation pass complete")
	}

	return Result{SOS: sos, Strength: strength}
}

// selectMatches weights a team's window and applies the repeat-opponent cap:
// only the top-K highest-weighted matches against any single opponent count
// toward schedule strength. Excluded repeats still count in W/L/D totals,
// which are tallied elsewhere.
func (e *Engine) selectMatches(w *domain.TeamWindow, strength map[string]float64, asOf time.Time) []weightedMatch {
	if w == nil {
		return nil
	}

	ownStrength := e.lookup(strength, w.TeamID)

	byOpponent := make(map[string][]weightedMatch)
	for _, pm := range w.Matches {
		weight := e.calc.RecencyWeight(pm.Date, asOf) * e.blowoutAdjust(pm, ownStrength, e.lookup(strength, pm.OpponentID))
		byOpponent[pm.OpponentID] = append(byOpponent[pm.OpponentID], weightedMatch{
			opponentID: pm.OpponentID,
			weight:     weight,
			date:       pm.Date,
			matchID:    pm.MatchID,
		})
	}

	oppIDs := make([]string, 0, len(byOpponent))
	for id := range byOpponent {
		oppIDs = append(oppIDs, id)
	}
	sort.Strings(oppIDs)

	var kept []weightedMatch
	for _, oppID := range oppIDs {
		group := byOpponent[oppID]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].weight != group[j].weight {
				return group[i].weight > group[j].weight
			}
			if !group[i].date.Equal(group[j].date) {
				return group[i].date.After(group[j].date)
			}
			return group[i].matchID < group[j].matchID
		})
		if len(group) > e.cfg.RepeatOpponentCap {
			group = group[:e.cfg.RepeatOpponentCap]
		}
		kept = append(kept, group...)
	}

	return kept
}

// blowoutAdjust reduces the weight of lopsided results between mismatched
// opponents, so one blowout cannot skew schedule strength. Close games and
// blowouts between near-equals keep full weight.
func (e *Engine) blowoutAdjust(pm domain.PerspectiveMatch, ownStrength, oppStrength float64) float64 {
	diff := math.Abs(baseline.CappedDiff(pm.GoalsFor, pm.GoalsAgainst, e.cfg.GoalDiffCap))
	if diff <= 3 {
		return 1
	}
	if math.Abs(ownStrength-oppStrength) <= 0.20 {
		return 1
	}
	return 1 - 0.5*math.Min(1, (diff-3)/3)
}

// lookup reads a team's strength, falling back to the neutral seed for
// unranked or unknown opponents.
func (e *Engine) lookup(strength map[string]float64, teamID string) float64 {
	if s, ok := strength[teamID]; ok {
		return s
	}
	return e.cfg.NeutralSeed
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
