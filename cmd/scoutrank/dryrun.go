package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/scoutrank/internal/domain"
)

// discardStore satisfies SnapshotStore for dry runs: computed snapshots are
// logged and dropped, nothing is persisted.
type discardStore struct{}

func (discardStore) WriteCohort(_ context.Context, cohort domain.CohortKey, snapshots []domain.RankingSnapshot) error {
	log.Info().Str("cohort", cohort.String()).Int("snapshots", len(snapshots)).Msg("dry run: discarding cohort snapshots")
	return nil
}

func (discardStore) ListTeamHistory(context.Context, string, int) ([]domain.RankingSnapshot, error) {
	return nil, nil
}

func (discardStore) GetCohortRun(context.Context, domain.CohortKey, string) ([]domain.RankingSnapshot, error) {
	return nil, nil
}
