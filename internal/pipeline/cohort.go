package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/config/profile"
	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/metrics"
	"github.com/pitchside/scoutrank/internal/rank/baseline"
	"github.com/pitchside/scoutrank/internal/rank/blend"
	"github.com/pitchside/scoutrank/internal/rank/cohort"
	"github.com/pitchside/scoutrank/internal/rank/sos"
)

// Options carries per-run collaborators into a cohort computation. When
// Blender is nil one is built from Weights with no adjustment layer; Metrics
// may be nil in library use.
type Options struct {
	RunID   string
	AsOf    time.Time
	Weights profile.Weights
	Blender *blend.Blender
	Metrics *metrics.Registry
}

// ComputeCohortSnapshot is the core batch entry point: it transforms one
// cohort's teams and matches into one RankingSnapshot per team. It performs
// no I/O; inputs are loaded up front by the caller and outputs are written
// afterwards, so cohorts can run in parallel with no shared mutable state.
//
// Only structural failures return an error (empty cohort, bad config,
// cancelled context). Per-record data problems are counted and logged.
func ComputeCohortSnapshot(ctx context.Context, key domain.CohortKey, teams []domain.Team, matches []domain.Match, cfg config.Config, opts Options) ([]domain.RankingSnapshot, error) {
	if len(teams) == 0 {
		return nil, fmt.Errorf("cohort %s: %w", key, domain.ErrEmptyCohort)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Blender == nil {
		opts.Blender = blend.NewBlender(opts.Weights, nil, opts.Metrics)
	}

	windows, skips := domain.BuildWindows(matches, opts.AsOf, cfg.Ranking.WindowDays, cfg.Ranking.MaxGames)
	recordSkips(opts.Metrics, skips)
	if skips.Total() > 0 {
		log.Info().
			Str("cohort", key.String()).
			Int("missing_scores", skips.MissingScores).
			Int("missing_opponent", skips.MissingOpponent).
			Int("outside_window", skips.OutsideWindow).
			Msg("skipped match records")
	}

	// Deterministic team order everywhere downstream.
	sorted := make([]domain.Team, len(teams))
	copy(sorted, teams)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	calc := baseline.NewCalculator(cfg.Ranking)
	signals := make(map[string]*baseline.Signal, len(sorted))
	seeds := make(map[string]float64)
	for _, t := range sorted {
		sig := calc.Compute(windows[t.ID], opts.AsOf)
		if sig != nil {
			signals[t.ID] = sig
			seeds[t.ID] = sig.Seed
		}
	}

	engine := sos.NewEngine(cfg.Ranking, calc)
	propagated := engine.Propagate(cohortWindows(windows, sorted), seeds, opts.AsOf)

	// Percentile populations hold only teams with full signals and enough
	// games; everyone else is reported with an explicit status instead.
	offenseRaw := make(map[string]float64)
	defenseRaw := make(map[string]float64)
	sosRaw := make(map[string]float64)
	for id, sig := range signals {
		if sig.GamesPlayed < cfg.Ranking.MinGames {
			continue
		}
		sosVal, ok := propagated.SOS[id]
		if !ok {
			continue
		}
		offenseRaw[id] = sig.Offense
		defenseRaw[id] = sig.Defense
		sosRaw[id] = sosVal
	}

	offenseNorm := cohort.Percentiles(offenseRaw)
	defenseNorm := cohort.Percentiles(defenseRaw)
	sosNorm := cohort.Percentiles(sosRaw)

	snapshots := make([]domain.RankingSnapshot, 0, len(sorted))
	ptrs := make([]*domain.RankingSnapshot, 0, len(sorted))
	for _, t := range sorted {
		snap := domain.RankingSnapshot{
			RunID:      opts.RunID,
			TeamID:     t.ID,
			Cohort:     key,
			ComputedAt: opts.AsOf,
		}

		sig := signals[t.ID]
		switch {
		case sig == nil:
			snap.Status = domain.StatusNoData
		case sig.GamesPlayed < cfg.Ranking.MinGames:
			snap.Status = domain.StatusInsufficientData
			fillCounts(&snap, sig)
			if v, ok := propagated.SOS[t.ID]; ok {
				snap.SOSRaw = ptr(v)
			}
		default:
			snap.Status = domain.StatusOK
			fillCounts(&snap, sig)
			snap.OffenseNorm = ptr(offenseNorm[t.ID])
			snap.DefenseNorm = ptr(defenseNorm[t.ID])
			snap.SOSRaw = ptr(sosRaw[t.ID])
			snap.SOSNorm = ptr(sosNorm[t.ID])
			snap.PerfCentered = ptr(sig.PerfCentered)

			score := opts.Blender.Score(ctx, blend.Input{
				TeamID:       t.ID,
				Cohort:       key.String(),
				OffenseNorm:  *snap.OffenseNorm,
				DefenseNorm:  *snap.DefenseNorm,
				SOSNorm:      *snap.SOSNorm,
				PerfCentered: *snap.PerfCentered,
				GamesPlayed:  sig.GamesPlayed,
			})
			snap.PowerScore = ptr(score)
		}

		snapshots = append(snapshots, snap)
		ptrs = append(ptrs, &snapshots[len(snapshots)-1])
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blend.AssignRanks(ptrs)

	// Ranked teams first in rank order, then the rest by team ID.
	sort.SliceStable(snapshots, func(i, j int) bool {
		ri, rj := snapshots[i].RankInCohort, snapshots[j].RankInCohort
		switch {
		case ri != nil && rj != nil:
			return *ri < *rj
		case ri != nil:
			return true
		case rj != nil:
			return false
		default:
			return snapshots[i].TeamID < snapshots[j].TeamID
		}
	})

	return snapshots, nil
}

// cohortWindows restricts windows to the cohort's own teams so a stray
// cross-cohort record cannot join the propagation.
func cohortWindows(windows map[string]*domain.TeamWindow, teams []domain.Team) map[string]*domain.TeamWindow {
	out := make(map[string]*domain.TeamWindow, len(teams))
	for _, t := range teams {
		if w, ok := windows[t.ID]; ok {
			out[t.ID] = w
		}
	}
	return out
}

func fillCounts(snap *domain.RankingSnapshot, sig *baseline.Signal) {
	snap.GamesPlayed = sig.GamesPlayed
	snap.Wins = sig.Wins
	snap.Losses = sig.Losses
	snap.Draws = sig.Draws
}

func recordSkips(m *metrics.Registry, skips domain.SkipSummary) {
	if m == nil {
		return
	}
	m.SkippedRecords.WithLabelValues("missing_scores").Add(float64(skips.MissingScores))
	m.SkippedRecords.WithLabelValues("missing_opponent").Add(float64(skips.MissingOpponent))
	m.SkippedRecords.WithLabelValues("outside_window").Add(float64(skips.OutsideWindow))
}

func ptr(v float64) *float64 {
	return &v
}
