package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
)

type cachedGoal struct {
	GroupID string `json:"group_id"`
	Steps   int64  `json:"steps"`
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	srv, client := newRedis(t)
	repo := NewCacheRepository(client)
	ctx := context.Background()

	var out cachedGoal
	assert.ErrorIs(t, repo.Get(ctx, "goal:current:g1:2024-06-03", &out), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "goal:current:g1:2024-06-03", cachedGoal{GroupID: "g1", Steps: 12100}, time.Minute))
	require.NoError(t, repo.Get(ctx, "goal:current:g1:2024-06-03", &out))
	assert.Equal(t, int64(12100), out.Steps)

	srv.FastForward(2 * time.Minute)
	assert.ErrorIs(t, repo.Get(ctx, "goal:current:g1:2024-06-03", &out), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	srv, client := newRedis(t)
	repo := NewCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "goal:current:g1:2024-06-03", cachedGoal{GroupID: "g1"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "goal:current:g1:2024-06-10", cachedGoal{GroupID: "g1"}, time.Minute))
	require.NoError(t, repo.Set(ctx, "goal:current:g2:2024-06-03", cachedGoal{GroupID: "g2"}, time.Minute))

	require.NoError(t, repo.DeleteByPattern(ctx, "goal:current:g1:*"))
	assert.False(t, srv.Exists("goal:current:g1:2024-06-03"))
	assert.False(t, srv.Exists("goal:current:g1:2024-06-10"))
	assert.True(t, srv.Exists("goal:current:g2:2024-06-03"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil)
	var out cachedGoal
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", out, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "k*"))
}
