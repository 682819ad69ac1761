package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/domain"
)

var computedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func scoredMatch(id, home, away string, hs, as, daysAgo int) domain.Match {
	return domain.Match{
		ID: id, HomeID: home, AwayID: away,
		HomeScore: &hs, AwayScore: &as,
		Date: computedAt.AddDate(0, 0, -daysAgo),
	}
}

func cohortSnap(teamID string, power float64) domain.RankingSnapshot {
	return domain.RankingSnapshot{TeamID: teamID, Status: domain.StatusOK, PowerScore: &power}
}

func TestDerive_FullArtifact(t *testing.T) {
	d := NewDeriver(config.Default())

	snap := domain.RankingSnapshot{
		RunID:        "run-9",
		TeamID:       "hawks",
		Cohort:       domain.CohortKey{AgeBracket: "U14", Gender: "M"},
		Status:       domain.StatusOK,
		ComputedAt:   computedAt,
		PowerScore:   fptr(0.50),
		PerfCentered: fptr(0.20),
		RankInCohort: iptr(5),
		GamesPlayed:  4, Wins: 3, Losses: 1,
	}

	// Three wins over clearly stronger sides and one loss to a weaker one.
	matches := []domain.Match{
		scoredMatch("m1", "hawks", "titans", 2, 1, 10),
		scoredMatch("m2", "hawks", "giants", 1, 0, 20),
		scoredMatch("m3", "rovers", "hawks", 3, 1, 30),
		scoredMatch("m4", "hawks", "united", 2, 0, 40),
	}
	cohort := []domain.RankingSnapshot{
		cohortSnap("titans", 0.70),
		cohortSnap("giants", 0.65),
		cohortSnap("united", 0.62),
		cohortSnap("rovers", 0.30),
	}

	insight, err := d.Derive(snap, nil, cohort, matches)
	require.NoError(t, err)

	assert.Equal(t, "hawks", insight.TeamID)
	assert.Equal(t, "run-9", insight.RunID)
	assert.Equal(t, snap.Cohort, insight.Cohort)
	assert.False(t, insight.GeneratedAt.IsZero())

	assert.Equal(t, PersonaGiantKiller, insight.Persona.Label)
	assert.Equal(t, 3, insight.Persona.Tiers.StrongerGames)
	assert.Equal(t, 3, insight.Persona.Tiers.StrongerWins)

	assert.Equal(t, TrajectoryRising, insight.Narrative.Trajectory)
	assert.Contains(t, insight.Narrative.Text, "ranked #5")

	assert.GreaterOrEqual(t, insight.Consistency.Score, 0.0)
	assert.LessOrEqual(t, insight.Consistency.Score, 100.0)
	assert.NotEmpty(t, insight.Consistency.Label)
}

func TestDerive_OwnSnapshotExcludedFromOpponentPowers(t *testing.T) {
	d := NewDeriver(config.Default())

	snap := domain.RankingSnapshot{
		RunID: "run-9", TeamID: "hawks", ComputedAt: computedAt,
		Status: domain.StatusOK, PowerScore: fptr(0.50),
	}
	// A malformed self-match must not produce a self-tier.
	matches := []domain.Match{scoredMatch("m1", "hawks", "hawks", 1, 0, 5)}
	cohort := []domain.RankingSnapshot{snap}

	insight, err := d.Derive(snap, nil, cohort, matches)
	require.NoError(t, err)

	tiers := insight.Persona.Tiers
	assert.Zero(t, tiers.StrongerGames+tiers.SimilarGames+tiers.WeakerGames)
}

func TestDerive_UnrankedTeamGetsWildcard(t *testing.T) {
	d := NewDeriver(config.Default())

	snap := domain.RankingSnapshot{
		RunID: "run-9", TeamID: "hawks", ComputedAt: computedAt,
		Status: domain.StatusInsufficientData, GamesPlayed: 1,
	}

	insight, err := d.Derive(snap, nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, PersonaWildcard, insight.Persona.Label)
	assert.Contains(t, insight.Narrative.Text, "Not enough scored games")
}

func TestDerive_RejectsAnonymousSnapshot(t *testing.T) {
	_, err := NewDeriver(config.Default()).Derive(domain.RankingSnapshot{}, nil, nil, nil)
	assert.Error(t, err)
}
