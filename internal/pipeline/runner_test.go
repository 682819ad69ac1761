package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/scoutrank/internal/config"
	"github.com/pitchside/scoutrank/internal/config/profile"
	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/metrics"
)

type fakeFeed struct {
	cohorts  []domain.CohortKey
	teams    map[string][]domain.Team
	matches  map[string][]domain.Match
	teamsErr map[string]error
}

func (f *fakeFeed) ListCohorts(context.Context) ([]domain.CohortKey, error) {
	return f.cohorts, nil
}

func (f *fakeFeed) ListTeams(_ context.Context, cohort domain.CohortKey) ([]domain.Team, error) {
	if err := f.teamsErr[cohort.String()]; err != nil {
		return nil, err
	}
	return f.teams[cohort.String()], nil
}

func (f *fakeFeed) ListMatches(_ context.Context, cohort domain.CohortKey, _ time.Time) ([]domain.Match, error) {
	return f.matches[cohort.String()], nil
}

type memStore struct {
	mu      sync.Mutex
	written map[string][]domain.RankingSnapshot
	err     error
}

func (s *memStore) WriteCohort(_ context.Context, cohort domain.CohortKey, snaps []domain.RankingSnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written == nil {
		s.written = map[string][]domain.RankingSnapshot{}
	}
	s.written[cohort.String()] = snaps
	return nil
}

func (s *memStore) ListTeamHistory(context.Context, string, int) ([]domain.RankingSnapshot, error) {
	return nil, nil
}

func (s *memStore) GetCohortRun(context.Context, domain.CohortKey, string) ([]domain.RankingSnapshot, error) {
	return nil, nil
}

type memPublisher struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (p *memPublisher) Publish(_ context.Context, cohort domain.CohortKey, _ []domain.RankingSnapshot) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, cohort.String())
	return nil
}

func twoCohortFeed() *fakeFeed {
	teams, matches := fixture()
	boys := domain.CohortKey{AgeBracket: "U14", Gender: "M"}
	girls := domain.CohortKey{AgeBracket: "U14", Gender: "F"}
	return &fakeFeed{
		cohorts: []domain.CohortKey{boys, girls},
		teams: map[string][]domain.Team{
			boys.String():  teams,
			girls.String(): teams,
		},
		matches: map[string][]domain.Match{
			boys.String():  matches,
			girls.String(): matches,
		},
		teamsErr: map[string]error{},
	}
}

func testWeights() profile.Weights {
	return profile.Weights{Offense: 0.25, Defense: 0.25, SOS: 0.50, Form: 0.15}
}

func TestRun_AllCohortsSucceed(t *testing.T) {
	feed := twoCohortFeed()
	store := &memStore{}
	pub := &memPublisher{}
	m := metrics.NewRegistry()

	runner := NewRunner(config.Default(), testWeights(), feed, store, pub, nil, m)
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Cohorts)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 8, report.TeamsRanked)
	assert.Equal(t, 12, report.TeamsReported)

	require.Len(t, store.written, 2)
	assert.ElementsMatch(t, []string{"U14:M", "U14:F"}, pub.published)

	// Both cohorts wrote the run's ID on every snapshot.
	for _, snaps := range store.written {
		for _, s := range snaps {
			assert.Equal(t, report.RunID, s.RunID)
		}
	}

	ok, err := m.CounterValue("scoutrank_cohort_runs_total", map[string]string{"status": "ok"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, ok)
}

func TestRun_OneCohortFailureDoesNotAbortOthers(t *testing.T) {
	feed := twoCohortFeed()
	feed.teamsErr["U14:F"] = errors.New("feed unavailable")
	store := &memStore{}

	runner := NewRunner(config.Default(), testWeights(), feed, store, nil, nil, metrics.NewRegistry())
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, store.written, "U14:M")
	assert.NotContains(t, store.written, "U14:F")
}

func TestRun_PublisherFailureIsBestEffort(t *testing.T) {
	feed := twoCohortFeed()
	store := &memStore{}
	pub := &memPublisher{err: errors.New("redis down")}

	runner := NewRunner(config.Default(), testWeights(), feed, store, pub, nil, metrics.NewRegistry())
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	// The authoritative writes landed even though the hot path did not.
	assert.Equal(t, 2, report.Succeeded)
	assert.Len(t, store.written, 2)
}

func TestRun_StoreFailureFailsTheCohort(t *testing.T) {
	feed := twoCohortFeed()
	store := &memStore{err: errors.New("tx aborted")}

	runner := NewRunner(config.Default(), testWeights(), feed, store, nil, nil, metrics.NewRegistry())
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 0, report.Succeeded)
}

func TestRun_NoCohorts(t *testing.T) {
	runner := NewRunner(config.Default(), testWeights(), &fakeFeed{}, &memStore{}, nil, nil, metrics.NewRegistry())

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Cohorts)
	assert.Equal(t, 0, report.Failed)
}
