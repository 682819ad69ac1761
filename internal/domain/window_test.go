package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBuildWindows_SkipsAndCounts(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	matches := []Match{
		// Valid scored match
		{ID: "m1", HomeID: "a", AwayID: "b", HomeScore: intPtr(2), AwayScore: intPtr(1), Date: asOf.AddDate(0, 0, -10)},
		// Unscored: skipped but counted
		{ID: "m2", HomeID: "a", AwayID: "b", Date: asOf.AddDate(0, 0, -5)},
		// Missing away identity: skipped but counted
		{ID: "m3", HomeID: "a", HomeScore: intPtr(1), AwayScore: intPtr(1), Date: asOf.AddDate(0, 0, -3)},
		// Two years old: outside window
		{ID: "m4", HomeID: "a", AwayID: "b", HomeScore: intPtr(0), AwayScore: intPtr(3), Date: asOf.AddDate(-2, 0, 0)},
	}

	windows, skips := BuildWindows(matches, asOf, 365, 30)

	assert.Equal(t, 1, skips.MissingScores)
	assert.Equal(t, 1, skips.MissingOpponent)
	assert.Equal(t, 1, skips.OutsideWindow)
	assert.Equal(t, 3, skips.Total())

	require.Contains(t, windows, "a")
	require.Contains(t, windows, "b")
	require.Len(t, windows["a"].Matches, 1)

	// Both perspectives of the same match
	assert.Equal(t, 2, windows["a"].Matches[0].GoalsFor)
	assert.Equal(t, 1, windows["a"].Matches[0].GoalsAgainst)
	assert.Equal(t, 1, windows["b"].Matches[0].GoalsFor)
	assert.Equal(t, 2, windows["b"].Matches[0].GoalsAgainst)
}

func TestBuildWindows_NewestFirstAndCapped(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	var matches []Match
	for i := 0; i < 40; i++ {
		matches = append(matches, Match{
			ID:        string(rune('a'+i%26)) + "-m",
			HomeID:    "team",
			AwayID:    "opp",
			HomeScore: intPtr(i % 4),
			AwayScore: intPtr(1),
			Date:      asOf.AddDate(0, 0, -i),
		})
	}

	windows, _ := BuildWindows(matches, asOf, 365, 30)

	require.Len(t, windows["team"].Matches, 30)
	for i := 1; i < len(windows["team"].Matches); i++ {
		assert.False(t, windows["team"].Matches[i].Date.After(windows["team"].Matches[i-1].Date),
			"window must be ordered newest first")
	}
}

func TestBuildWindows_SameDayOrderedByMatchID(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	day := asOf.AddDate(0, 0, -1)

	matches := []Match{
		{ID: "m2", HomeID: "a", AwayID: "b", HomeScore: intPtr(1), AwayScore: intPtr(0), Date: day},
		{ID: "m1", HomeID: "a", AwayID: "c", HomeScore: intPtr(2), AwayScore: intPtr(0), Date: day},
	}

	windows, _ := BuildWindows(matches, asOf, 365, 30)

	require.Len(t, windows["a"].Matches, 2)
	assert.Equal(t, "m1", windows["a"].Matches[0].MatchID)
	assert.Equal(t, "m2", windows["a"].Matches[1].MatchID)
}

func TestPerspectiveMatch_Outcome(t *testing.T) {
	assert.Equal(t, 1.0, PerspectiveMatch{GoalsFor: 2, GoalsAgainst: 0}.Outcome())
	assert.Equal(t, 0.5, PerspectiveMatch{GoalsFor: 1, GoalsAgainst: 1}.Outcome())
	assert.Equal(t, 0.0, PerspectiveMatch{GoalsFor: 0, GoalsAgainst: 4}.Outcome())
}

func TestCohortKey_String(t *testing.T) {
	assert.Equal(t, "U14:M", CohortKey{AgeBracket: "U14", Gender: "M"}.String())
	assert.Equal(t, "U16:F:northeast", CohortKey{AgeBracket: "U16", Gender: "F", Region: "northeast"}.String())
}
