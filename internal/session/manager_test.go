package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnquest/internal/adapter"
	"learnquest/internal/cache"
	"learnquest/internal/domain"
)

func newRedisManager(t *testing.T, cfg ManagerConfig) (*Manager, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	m := NewManager(adapter.NewRedisCacheAdapter(client), cfg)
	m.SetClock(clock.AfterFunc, clock.Now)
	return m, mr, clock
}

func TestManager_CreateWritesLiveMarker(t *testing.T) {
	ctx := context.Background()
	m, mr, _ := newRedisManager(t, ManagerConfig{TTL: 10 * time.Minute})

	s, err := m.Create(ctx, testQuiz(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, AwaitingAnswer, s.State())

	key := cache.SessionMarkerKey(s.ID())
	assert.True(t, mr.Exists(key))
	assert.Equal(t, "quiz-1", mr.HGet(key, "quizId"))
	assert.Equal(t, "u-1", mr.HGet(key, "userId"))
	assert.Equal(t, 10*time.Minute, mr.TTL(key))

	live, err := m.IsLive(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, live)

	got, err := m.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestManager_RemoveAbandonsAndClearsMarker(t *testing.T) {
	ctx := context.Background()
	m, mr, _ := newRedisManager(t, ManagerConfig{})

	s, err := m.Create(ctx, testQuiz(), "")
	require.NoError(t, err)

	m.Remove(ctx, s.ID())
	assert.Equal(t, Abandoned, s.State())
	assert.False(t, mr.Exists(cache.SessionMarkerKey(s.ID())))
	assert.Equal(t, 0, m.Len())

	_, err = m.Get(ctx, s.ID())
	assert.True(t, domain.HasCode(err, domain.CodeSessionNotFound))

	live, err := m.IsLive(ctx, s.ID())
	require.NoError(t, err)
	assert.False(t, live)
}

func TestManager_IdleSessionsExpire(t *testing.T) {
	ctx := context.Background()
	m, _, clock := newRedisManager(t, ManagerConfig{TTL: time.Minute})

	s, err := m.Create(ctx, testQuiz(), "u-1")
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = m.Get(ctx, s.ID())
	require.NoError(t, err, "access refreshes the idle deadline")

	clock.Advance(45 * time.Second)
	_, err = m.Get(ctx, s.ID())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = m.Get(ctx, s.ID())
	assert.True(t, domain.HasCode(err, domain.CodeSessionNotFound))
	assert.Equal(t, Abandoned, s.State())
}

func TestManager_PurgeOnCreate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(cache.NewMemoryCache(), ManagerConfig{TTL: time.Minute})
	clock := newFakeClock()
	m.SetClock(clock.AfterFunc, clock.Now)

	_, err := m.Create(ctx, testQuiz(), "u-1")
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = m.Create(ctx, testQuiz(), "u-2")
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len())
}

func TestManager_DefaultQuestionLimit(t *testing.T) {
	ctx := context.Background()
	m := NewManager(nil, ManagerConfig{QuestionTimeLimit: 45 * time.Second})
	clock := newFakeClock()
	m.SetClock(clock.AfterFunc, clock.Now)

	q := testQuiz()
	q.QuestionTimeLimit = 0
	s, err := m.Create(ctx, q, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, s.Snapshot().Remaining)

	s2, err := m.Create(ctx, testQuiz(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, s2.Snapshot().Remaining, "the quiz's own limit wins")

	live, err := m.IsLive(ctx, s.ID())
	require.NoError(t, err)
	assert.True(t, live)

	m.Close(ctx)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, Abandoned, s2.State())
}

func TestManager_CreateRejectsEmptyQuiz(t *testing.T) {
	m := NewManager(nil, ManagerConfig{})
	_, err := m.Create(context.Background(), domain.NewQuiz("empty", "Empty", nil), "u-1")
	assert.True(t, domain.HasCode(err, domain.CodeInvalidQuiz))
	assert.Equal(t, 0, m.Len())
}
