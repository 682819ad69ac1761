package blend

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/scoutrank/internal/adjust"
	"github.com/pitchside/scoutrank/internal/config/profile"
	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/metrics"
)

// Input is one team's normalized signal set ready for blending.
type Input struct {
	TeamID       string
	Cohort       string
	OffenseNorm  float64
	DefenseNorm  float64
	SOSNorm      float64
	PerfCentered float64
	GamesPlayed  int
}

// Blender combines normalized signals into one bounded PowerScore. The
// optional adjuster nudges the blend; any adjuster failure falls back to the
// unadjusted score and is surfaced as a degraded-but-successful metric.
type Blender struct {
	weights  profile.Weights
	adjuster adjust.Adjuster
	metrics  *metrics.Registry
}

// NewBlender creates a blender. adjuster may be nil when the learned layer is
// disabled, and m may be nil in library use.
func NewBlender(weights profile.Weights, adjuster adjust.Adjuster, m *metrics.Registry) *Blender {
	return &Blender{weights: weights, adjuster: adjuster, metrics: m}
}

// Score computes the bounded PowerScore for one team.
func (b *Blender) Score(ctx context.Context, in Input) float64 {
	norm := b.weights.Offense + b.weights.Defense + b.weights.SOS
	raw := (b.weights.Offense*in.OffenseNorm +
		b.weights.Defense*in.DefenseNorm +
		b.weights.SOS*in.SOSNorm +
		b.weights.Form*in.PerfCentered) / norm

	if raw < 0 || raw > 1 {
		// Never silently accepted: the form term can push the blend past the
		// bound, and operators watch this counter for anything worse.
		if b.metrics != nil {
			b.metrics.CalcAnomalies.WithLabelValues("power_score").Inc()
		}
		log.Warn().
			Str("team_id", in.TeamID).
			Str("cohort", in.Cohort).
			Float64("raw_score", raw).
			Msg("power score outside [0,1] before clamping")
	}
	score := clamp01(raw)

	if b.adjuster == nil {
		return score
	}

	nudge, err := b.adjuster.Nudge(ctx, adjust.Request{
		TeamID:       in.TeamID,
		Cohort:       in.Cohort,
		OffenseNorm:  in.OffenseNorm,
		DefenseNorm:  in.DefenseNorm,
		SOSNorm:      in.SOSNorm,
		PerfCentered: in.PerfCentered,
		BlendedScore: score,
		GamesPlayed:  in.GamesPlayed,
	})
	if err != nil {
		if b.metrics != nil {
			b.metrics.AdjustmentFallbacks.WithLabelValues("call_failed").Inc()
		}
		log.Warn().
			Err(err).
			Str("team_id", in.TeamID).
			Msg("adjustment layer unavailable, using unadjusted blend")
		return score
	}

	return clamp01(score + nudge)
}

// AssignRanks orders ranked teams by PowerScore descending with ties broken
// by team ID, writing 1..N onto teams with sufficient data. Teams without a
// PowerScore keep a nil rank and their explicit status.
func AssignRanks(snapshots []*domain.RankingSnapshot) {
	ranked := make([]*domain.RankingSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if s.Status == domain.StatusOK && s.PowerScore != nil {
			ranked = append(ranked, s)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if *ranked[i].PowerScore != *ranked[j].PowerScore {
			return *ranked[i].PowerScore > *ranked[j].PowerScore
		}
		return ranked[i].TeamID < ranked[j].TeamID
	})

	for i, s := range ranked {
		rank := i + 1
		s.RankInCohort = &rank
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
