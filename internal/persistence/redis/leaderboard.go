package redis

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/pitchside/scoutrank/internal/domain"
	"github.com/pitchside/scoutrank/internal/persistence"
)

// Publisher pushes committed cohort rankings into Redis sorted sets so
// downstream readers get a cheap hot path. The Postgres snapshots stay
// authoritative; a failed publish only degrades reads.
type Publisher struct {
	client redis.Cmdable
}

// NewPublisher creates a leaderboard publisher over any Redis client.
func NewPublisher(client redis.Cmdable) persistence.LeaderboardPublisher {
	return &Publisher{client: client}
}

// Key returns the sorted-set key for one cohort's leaderboard.
func Key(cohort domain.CohortKey) string {
	return "scoutrank:lb:" + cohort.String()
}

// Publish replaces the cohort's leaderboard with the ranked teams of this
// run. Teams without a PowerScore never appear on the hot path; their
// explicit status lives in the snapshot store.
func (p *Publisher) Publish(ctx context.Context, cohort domain.CohortKey, snapshots []domain.RankingSnapshot) error {
	key := Key(cohort)

	members := make([]*redis.Z, 0, len(snapshots))
	for _, s := range snapshots {
		if s.RankInCohort == nil || s.PowerScore == nil {
			continue
		}
		members = append(members, &redis.Z{
			Score:  *s.PowerScore,
			Member: s.TeamID,
		})
	}

	pipe := p.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, key, members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish leaderboard %s: %w", key, err)
	}

	return nil
}
