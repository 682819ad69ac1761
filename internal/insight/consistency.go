package insight

import (
	"math"

	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/rank/baseline"
)

// Consistency sub-metric weights: margin variance 50%, streak fragmentation
// 30%, PowerScore volatility 20%. Sub-metrics without enough sample drop out
// and the remaining weights are rescaled.
const (
	marginWeight = 0.50
	streakWeight = 0.30
	powerWeight  = 0.20
)

// consistencyBands maps a 0-100 score to its qualitative label, highest band
// first.
var consistencyBands = []struct {
	threshold float64
	label     string
}{
	{75, "very reliable"},
	{55, "moderately reliable"},
	{35, "unpredictable"},
	{0, "highly volatile"},
}

// Consistency scores how repeatable a team's results are, 0-100. Higher means
// a scout can trust one viewing to represent the team.
func Consistency(window *domain.TeamWindow, history []domain.RankingSnapshot, goalDiffCap int) domain.ConsistencyScore {
	var score domain.ConsistencyScore
	var totalWeight, weighted float64

	if m, ok := marginStability(window, goalDiffCap); ok {
		score.MarginStability = m
		weighted += marginWeight * m
		totalWeight += marginWeight
	}
	if s, ok := streakStability(window); ok {
		score.StreakStability = s
		weighted += streakWeight * s
		totalWeight += streakWeight
	}
	if p, ok := powerStability(history); ok {
		score.PowerStability = p
		weighted += powerWeight * p
		totalWeight += powerWeight
	}

	if totalWeight == 0 {
		score.Score = 0
		score.Label = "highly volatile"
		return score
	}

	score.Score = weighted / totalWeight
	for _, band := range consistencyBands {
		if score.Score >= band.threshold {
			score.Label = band.label
			break
		}
	}

	return score
}

// marginStability is the inverse standard deviation of capped goal
// differential, scaled so a full-cap swing scores zero.
func marginStability(window *domain.TeamWindow, cap int) (float64, bool) {
	if window == nil || len(window.Matches) < 2 {
		return 0, false
	}

	diffs := make([]float64, len(window.Matches))
	for i, pm := range window.Matches {
		diffs[i] = baseline.CappedDiff(pm.GoalsFor, pm.GoalsAgainst, cap)
	}

	sd := stddev(diffs)
	return 100 * (1 - math.Min(1, sd/float64(cap))), true
}

// streakStability is the inverse fraction of game-to-game result changes.
func streakStability(window *domain.TeamWindow) (float64, bool) {
	if window == nil || len(window.Matches) < 2 {
		return 0, false
	}

	flips := 0
	for i := 1; i < len(window.Matches); i++ {
		if window.Matches[i].Outcome() != window.Matches[i-1].Outcome() {
			flips++
		}
	}

	fragmentation := float64(flips) / float64(len(window.Matches)-1)
	return 100 * (1 - fragmentation), true
}

// powerStability is the inverse coefficient of variation of PowerScore across
// the team's snapshot history; a CV of 0.5 or worse scores zero.
func powerStability(history []domain.RankingSnapshot) (float64, bool) {
	var powers []float64
	for _, s := range history {
		if s.PowerScore != nil {
			powers = append(powers, *s.PowerScore)
		}
	}
	if len(powers) < 2 {
		return 0, false
	}

	mean := meanOf(powers)
	if mean <= 0 {
		return 0, false
	}

	cv := stddev(powers) / mean
	return 100 * (1 - math.Min(1, cv/0.5)), true
}

func meanOf(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64) float64 {
	mean := meanOf(vals)
	sumSq := 0.0
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(vals)))
}
