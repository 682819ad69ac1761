package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/config/profile"
	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/metrics"
	"github.com/pitchside/scoutrank/internal/rank/blend"
)

var (
	testAsOf = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	testKey  = domain.CohortKey{AgeBracket: "U14", Gender: "M", Region: "northeast"}
)

func iptr(v int) *int { return &v }

func scored(id, home, away string, hs, as, daysAgo int) domain.Match {
	return domain.Match{
		ID: id, HomeID: home, AwayID: away,
		HomeScore: iptr(hs), AwayScore: iptr(as),
		Date: testAsOf.AddDate(0, 0, -daysAgo),
	}
}

// fixture is a small cohort: four teams with a full round robin, one team with
// a single game, one team with none, plus three bad records.
func fixture() ([]domain.Team, []domain.Match) {
	teams := []domain.Team{
		{ID: "alpha"}, {ID: "bravo"}, {ID: "charlie"}, {ID: "delta"},
		{ID: "echo"},    // one game only
		{ID: "foxtrot"}, // never played
	}
	matches := []domain.Match{
		scored("m01", "alpha", "bravo", 2, 1, 10),
		scored("m02", "alpha", "charlie", 3, 0, 20),
		scored("m03", "alpha", "delta", 1, 1, 30),
		scored("m04", "bravo", "charlie", 2, 2, 15),
		scored("m05", "bravo", "delta", 0, 2, 25),
		scored("m06", "charlie", "delta", 1, 4, 35),
		scored("m07", "echo", "alpha", 0, 5, 12),

		// Bad records: unscored, missing opponent, outside the window.
		{ID: "m08", HomeID: "alpha", AwayID: "bravo", Date: testAsOf.AddDate(0, 0, -2)},
		{ID: "m09", HomeID: "bravo", HomeScore: iptr(1), AwayScore: iptr(0), Date: testAsOf.AddDate(0, 0, -4)},
		scored("m10", "charlie", "delta", 0, 1, 500),
	}
	return teams, matches
}

func options(m *metrics.Registry) Options {
	weights := profile.Weights{Offense: 0.25, Defense: 0.25, SOS: 0.50, Form: 0.15}
	return Options{
		RunID:   "run-test",
		AsOf:    testAsOf,
		Weights: weights,
		Blender: blend.NewBlender(weights, nil, m),
		Metrics: m,
	}
}

func TestComputeCohortSnapshot_FullCohort(t *testing.T) {
	teams, matches := fixture()
	m := metrics.NewRegistry()

	snaps, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, config.Default(), options(m))
	require.NoError(t, err)
	require.Len(t, snaps, 6)

	byID := map[string]domain.RankingSnapshot{}
	for _, s := range snaps {
		byID[s.TeamID] = s
		assert.Equal(t, "run-test", s.RunID)
		assert.Equal(t, testKey, s.Cohort)
		assert.Equal(t, testAsOf, s.ComputedAt)
	}

	// Four teams rank; their ranks are exactly 1..4 and scores are bounded.
	seen := map[int]string{}
	for _, id := range []string{"alpha", "bravo", "charlie", "delta"} {
		s := byID[id]
		require.Equal(t, domain.StatusOK, s.Status, id)
		require.NotNil(t, s.PowerScore, id)
		require.NotNil(t, s.RankInCohort, id)
		assert.GreaterOrEqual(t, *s.PowerScore, 0.0, id)
		assert.LessOrEqual(t, *s.PowerScore, 1.0, id)
		assert.GreaterOrEqual(t, *s.SOSNorm, 0.0, id)
		assert.LessOrEqual(t, *s.SOSNorm, 1.0, id)
		seen[*s.RankInCohort] = id
	}
	assert.Len(t, seen, 4)
	for rank := 1; rank <= 4; rank++ {
		assert.Contains(t, seen, rank)
	}

	// One game is below min_games: reported, never ranked.
	echo := byID["echo"]
	assert.Equal(t, domain.StatusInsufficientData, echo.Status)
	assert.Equal(t, 1, echo.GamesPlayed)
	assert.Nil(t, echo.PowerScore)
	assert.Nil(t, echo.RankInCohort)
	assert.NotNil(t, echo.SOSRaw)

	// No games at all: nothing to report beyond the status.
	foxtrot := byID["foxtrot"]
	assert.Equal(t, domain.StatusNoData, foxtrot.Status)
	assert.Nil(t, foxtrot.SOSRaw)
	assert.Nil(t, foxtrot.PowerScore)
}

func TestComputeCohortSnapshot_OrderedRankedFirst(t *testing.T) {
	teams, matches := fixture()

	snaps, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, config.Default(), options(metrics.NewRegistry()))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NotNil(t, snaps[i].RankInCohort)
		assert.Equal(t, i+1, *snaps[i].RankInCohort)
	}
	assert.Equal(t, "echo", snaps[4].TeamID)
	assert.Equal(t, "foxtrot", snaps[5].TeamID)
}

func TestComputeCohortSnapshot_Idempotent(t *testing.T) {
	teams, matches := fixture()
	opts := options(metrics.NewRegistry())

	first, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, config.Default(), opts)
	require.NoError(t, err)
	second, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, config.Default(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeCohortSnapshot_SkipsCounted(t *testing.T) {
	teams, matches := fixture()
	m := metrics.NewRegistry()

	_, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, config.Default(), options(m))
	require.NoError(t, err)

	for reason, want := range map[string]float64{
		"missing_scores":   1,
		"missing_opponent": 1,
		"outside_window":   1,
	} {
		got, err := m.CounterValue("scoutrank_skipped_records_total", map[string]string{"reason": reason})
		require.NoError(t, err)
		assert.Equal(t, want, got, reason)
	}
}

func TestComputeCohortSnapshot_BlenderBuiltFromWeights(t *testing.T) {
	teams, matches := fixture()

	// Library callers can pass weights alone; results must match an
	// explicitly wired blender.
	bare := Options{RunID: "run-test", AsOf: testAsOf, Weights: testWeights()}
	fromWeights, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, config.Default(), bare)
	require.NoError(t, err)

	wired, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, config.Default(), options(metrics.NewRegistry()))
	require.NoError(t, err)

	assert.Equal(t, wired, fromWeights)
}

func TestComputeCohortSnapshot_EmptyCohort(t *testing.T) {
	_, err := ComputeCohortSnapshot(context.Background(), testKey, nil, nil, config.Default(), options(nil))
	assert.ErrorIs(t, err, domain.ErrEmptyCohort)
}

func TestComputeCohortSnapshot_InvalidConfig(t *testing.T) {
	teams, matches := fixture()
	cfg := config.Default()
	cfg.Ranking.SOSPasses = 0

	_, err := ComputeCohortSnapshot(context.Background(), testKey, teams, matches, cfg, options(nil))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestComputeCohortSnapshot_CancelledContext(t *testing.T) {
	teams, matches := fixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComputeCohortSnapshot(ctx, testKey, teams, matches, config.Default(), options(nil))
	assert.ErrorIs(t, err, context.Canceled)
}
