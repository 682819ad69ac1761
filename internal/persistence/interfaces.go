package persistence

import (
	"context"
	"time"

	"github.com/pitchside/scoutrank/internal/domain"
)

// MatchFeed is the read-only boundary to the external match acquisition
// collaborator. Records arrive deduplicated with identity merges already
// resolved to canonical team IDs; the core never mutates them.
type MatchFeed interface {
	// ListCohorts returns every cohort with at least one registered team.
	ListCohorts(ctx context.Context) ([]domain.CohortKey, error)

	// ListTeams returns the canonical teams of one cohort.
	ListTeams(ctx context.Context, cohort domain.CohortKey) ([]domain.Team, error)

	// ListMatches returns the cohort's match records newer than since,
	// including unscored rows so diagnostics can still see them.
	ListMatches(ctx context.Context, cohort domain.CohortKey, since time.Time) ([]domain.Match, error)
}

// SnapshotStore persists ranking snapshots. A cohort's snapshots are written
// in one transaction: readers never observe a half-written cohort, and an
// aborted run simply discards the cohort's partial results.
type SnapshotStore interface {
	// WriteCohort atomically persists one cohort's snapshots for one run.
	WriteCohort(ctx context.Context, cohort domain.CohortKey, snapshots []domain.RankingSnapshot) error

	// ListTeamHistory returns a team's snapshots newest first, up to limit.
	ListTeamHistory(ctx context.Context, teamID string, limit int) ([]domain.RankingSnapshot, error)

	// GetCohortRun returns every snapshot of a cohort for a given run.
	GetCohortRun(ctx context.Context, cohort domain.CohortKey, runID string) ([]domain.RankingSnapshot, error)
}

// LeaderboardPublisher pushes a committed cohort ranking to a hot read path.
// Publishing is best-effort: a failed publish degrades reads, not the run.
type LeaderboardPublisher interface {
	Publish(ctx context.Context, cohort domain.CohortKey, snapshots []domain.RankingSnapshot) error
}
