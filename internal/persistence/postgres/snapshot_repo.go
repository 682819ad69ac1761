package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/persistence"
)

// snapshotRepo implements SnapshotStore for PostgreSQL. Snapshots are
// insert-only: a new run supersedes the previous one, nothing is edited.
type snapshotRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSnapshotStore creates a PostgreSQL snapshot store.
func NewSnapshotStore(db *sqlx.DB, timeout time.Duration) persistence.SnapshotStore {
	return &snapshotRepo{db: db, timeout: timeout}
}

const insertSnapshot = `
	INSERT INTO ranking_snapshots
	(run_id, team_id, age_bracket, gender, region, status, computed_at,
	 offense_norm, defense_norm, sos_raw, sos_norm, perf_centered, power_score,
	 rank_in_cohort, games_played, wins, losses, draws)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

// WriteCohort persists one cohort's snapshots in a single transaction so a
// half-written cohort is never visible to readers.
func (r *snapshotRepo) WriteCohort(ctx context.Context, cohort domain.CohortKey, snapshots []domain.RankingSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, s := range snapshots {
		_, err := tx.ExecContext(ctx, insertSnapshot,
			s.RunID, s.TeamID, cohort.AgeBracket, cohort.Gender, cohort.Region,
			s.Status, s.ComputedAt,
			s.OffenseNorm, s.DefenseNorm, s.SOSRaw, s.SOSNorm, s.PerfCentered,
			s.PowerScore, s.RankInCohort,
			s.GamesPlayed, s.Wins, s.Losses, s.Draws)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot for team %s: %w", s.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cohort %s snapshots: %w", cohort, err)
	}

	return nil
}

const selectSnapshot = `
	SELECT run_id, team_id, age_bracket, gender, COALESCE(region, '') AS region,
	       status, computed_at, offense_norm, defense_norm, sos_raw, sos_norm,
	       perf_centered, power_score, rank_in_cohort,
	       games_played, wins, losses, draws
	FROM ranking_snapshots`

// ListTeamHistory returns a team's snapshots newest first, forming its
// ranking history for consistency scoring.
func (r *snapshotRepo) ListTeamHistory(ctx context.Context, teamID string, limit int) ([]domain.RankingSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := selectSnapshot + `
	WHERE team_id = $1
	ORDER BY computed_at DESC
	LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for team %s: %w", teamID, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetCohortRun returns every snapshot of one cohort for one run, in rank
// order with unranked teams last.
func (r *snapshotRepo) GetCohortRun(ctx context.Context, cohort domain.CohortKey, runID string) ([]domain.RankingSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := selectSnapshot + `
	WHERE run_id = $1 AND age_bracket = $2 AND gender = $3 AND COALESCE(region, '') = $4
	ORDER BY rank_in_cohort NULLS LAST, team_id`

	rows, err := r.db.QueryxContext(ctx, query, runID, cohort.AgeBracket, cohort.Gender, cohort.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort run %s/%s: %w", cohort, runID, err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows *sqlx.Rows) ([]domain.RankingSnapshot, error) {
	var snapshots []domain.RankingSnapshot
	for rows.Next() {
		var s domain.RankingSnapshot
		err := rows.Scan(
			&s.RunID, &s.TeamID,
			&s.Cohort.AgeBracket, &s.Cohort.Gender, &s.Cohort.Region,
			&s.Status, &s.ComputedAt,
			&s.OffenseNorm, &s.DefenseNorm, &s.SOSRaw, &s.SOSNorm,
			&s.PerfCentered, &s.PowerScore, &s.RankInCohort,
			&s.GamesPlayed, &s.Wins, &s.Losses, &s.Draws)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
