package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pitchside/scoutrank/internal/adjust"
	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/config/profile"
	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/metrics"
	"github.com/pitchside/scoutrank/internal/persistence"
	"github.com/pitchside/scoutrank/internal/rank/blend"
)

// Runner drives one full scheduled recomputation: every cohort, loaded once,
// computed in parallel, written all-or-nothing per cohort. One cohort's
// failure never aborts the others.
type Runner struct {
	cfg       config.Config
	weights   profile.Weights
	feed      persistence.MatchFeed
	store     persistence.SnapshotStore
	publisher persistence.LeaderboardPublisher
	adjuster  adjust.Adjuster
	metrics   *metrics.Registry
}

// RunReport summarizes one full pipeline run.
type RunReport struct {
	RunID         string        `json:"run_id"`
	Cohorts       int           `json:"cohorts"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	TeamsRanked   int           `json:"teams_ranked"`
	TeamsReported int           `json:"teams_reported"`
	Elapsed       time.Duration `json:"elapsed"`
}

// NewRunner wires a pipeline runner. publisher and adjuster may be nil when
// those layers are disabled.
func NewRunner(cfg config.Config, weights profile.Weights, feed persistence.MatchFeed, store persistence.SnapshotStore, publisher persistence.LeaderboardPublisher, adjuster adjust.Adjuster, m *metrics.Registry) *Runner {
	return &Runner{
		cfg:       cfg,
		weights:   weights,
		feed:      feed,
		store:     store,
		publisher: publisher,
		adjuster:  adjuster,
		metrics:   m,
	}
}

// Run executes the batch recomputation across all cohorts.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	started := time.Now()
	report := RunReport{RunID: uuid.New().String()}
	asOf := started.UTC()

	cohorts, err := r.feed.ListCohorts(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list cohorts: %w", err)
	}
	report.Cohorts = len(cohorts)

	log.Info().
		Str("run_id", report.RunID).
		Int("cohorts", len(cohorts)).
		Msg("starting ranking run")

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Pipeline.MaxConcurrentCohorts)

	for _, key := range cohorts {
		key := key
		g.Go(func() error {
			ranked, reported, err := r.runCohort(gctx, key, report.RunID, asOf)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				r.countRun("failed")
				log.Error().Err(err).Str("cohort", key.String()).Msg("cohort run failed")
				// A failed cohort is reported, not propagated: the other
				// cohorts keep running.
				return nil
			}
			report.Succeeded++
			report.TeamsRanked += ranked
			report.TeamsReported += reported
			r.countRun("ok")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Elapsed = time.Since(started)
	log.Info().
		Str("run_id", report.RunID).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("teams_ranked", report.TeamsRanked).
		Dur("elapsed", report.Elapsed).
		Msg("ranking run complete")

	return report, nil
}

// runCohort loads, computes and persists a single cohort. Snapshots are
// written in one transaction; a cancelled or failed cohort leaves no trace.
func (r *Runner) runCohort(ctx context.Context, key domain.CohortKey, runID string, asOf time.Time) (ranked, reported int, err error) {
	cohortStart := time.Now()
	if r.cfg.Pipeline.CohortTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Pipeline.CohortTimeout.Std())
		defer cancel()
	}

	teams, err := r.feed.ListTeams(ctx, key)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load teams for %s: %w", key, err)
	}
	matches, err := r.feed.ListMatches(ctx, key, asOf.AddDate(0, 0, -r.cfg.Ranking.WindowDays))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load matches for %s: %w", key, err)
	}

	snapshots, err := ComputeCohortSnapshot(ctx, key, teams, matches, r.cfg, Options{
		RunID:   runID,
		AsOf:    asOf,
		Weights: r.weights,
		Blender: blend.NewBlender(r.weights, r.adjuster, r.metrics),
		Metrics: r.metrics,
	})
	if err != nil {
		return 0, 0, err
	}

	if err := r.store.WriteCohort(ctx, key, snapshots); err != nil {
		return 0, 0, fmt.Errorf("failed to write snapshots for %s: %w", key, err)
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, key, snapshots); err != nil {
			// Best-effort hot path; the committed snapshots are authoritative.
			log.Warn().Err(err).Str("cohort", key.String()).Msg("leaderboard publish failed")
		}
	}

	for _, s := range snapshots {
		if s.RankInCohort != nil {
			ranked++
		}
	}
	reported = len(snapshots)

	if r.metrics != nil {
		r.metrics.CohortDuration.Observe(time.Since(cohortStart).Seconds())
		r.metrics.TeamsRanked.WithLabelValues(key.String()).Set(float64(ranked))
	}

	log.Info().
		Str("cohort", key.String()).
		Int("teams", reported).
		Int("ranked", ranked).
		Dur("elapsed", time.Since(cohortStart)).
		Msg("cohort computed")

	return ranked, reported, nil
}

func (r *Runner) countRun(status string) {
	if r.metrics != nil {
		r.metrics.CohortRuns.WithLabelValues(status).Inc()
	}
}
