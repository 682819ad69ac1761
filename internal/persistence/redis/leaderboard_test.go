package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/scoutrank/internal/domain"
)

var cohort = domain.CohortKey{AgeBracket: "U14", Gender: "M", Region: "northeast"}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestKey(t *testing.T) {
	assert.Equal(t, "scoutrank:lb:U14:M:northeast", Key(cohort))
	assert.Equal(t, "scoutrank:lb:U16:F", Key(domain.CohortKey{AgeBracket: "U16", Gender: "F"}))
}

func TestPublish_RankedTeamsOnly(t *testing.T) {
	client, mock := redismock.NewClientMock()

	snapshots := []domain.RankingSnapshot{
		{TeamID: "alpha", Status: domain.StatusOK, PowerScore: fptr(0.91), RankInCohort: iptr(1)},
		{TeamID: "bravo", Status: domain.StatusOK, PowerScore: fptr(0.64), RankInCohort: iptr(2)},
		{TeamID: "thin", Status: domain.StatusInsufficientData},
	}

	mock.ExpectTxPipeline()
	mock.ExpectDel(Key(cohort)).SetVal(1)
	mock.ExpectZAdd(Key(cohort),
		&redis.Z{Score: 0.91, Member: "alpha"},
		&redis.Z{Score: 0.64, Member: "bravo"},
	).SetVal(2)
	mock.ExpectTxPipelineExec()

	err := NewPublisher(client).Publish(context.Background(), cohort, snapshots)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_EmptyCohortClearsBoard(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectTxPipeline()
	mock.ExpectDel(Key(cohort)).SetVal(1)
	mock.ExpectTxPipelineExec()

	err := NewPublisher(client).Publish(context.Background(), cohort, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublish_PropagatesError(t *testing.T) {
	client, mock := redismock.NewClientMock()

	mock.ExpectTxPipeline()
	mock.ExpectDel(Key(cohort)).SetErr(errors.New("connection reset"))

	err := NewPublisher(client).Publish(context.Background(), cohort, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish leaderboard")
}
