package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnquest/internal/domain"
)

func (e *testEnv) addReward(t *testing.T, r *domain.Reward) {
	t.Helper()
	r.IsActive = true
	require.NoError(t, e.store.SaveReward(context.Background(), r))
}

func TestRewardGrant_OncePerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "u1")
	env.addReward(t, &domain.Reward{ID: "r1", Title: "Explorer", Icon: "🧭", MinXP: 5000, MaxClaims: 1})

	resp, err := env.rewards.Grant(ctx, "r1", "u1")
	require.NoError(t, err, "grants ignore thresholds")
	assert.Equal(t, "🧭 Explorer", resp.Badge)
	assert.True(t, resp.BadgeAdded)
	assert.Equal(t, 1, resp.TotalClaimed)

	_, err = env.rewards.Grant(ctx, "r1", "u1")
	assert.True(t, domain.HasCode(err, domain.CodeAlreadyClaimed))

	reward, err := env.store.GetRewardByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, reward.TotalClaimed)
	assert.Equal(t, []string{"🧭 Explorer"}, env.user(t, "u1").Badges)
	assert.Len(t, env.events.OfType(domain.EventRewardGranted), 1)
}

func TestRewardGrant_UnknownTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "u1")
	env.addReward(t, &domain.Reward{ID: "r1", Title: "Explorer"})

	_, err := env.rewards.Grant(ctx, "missing", "u1")
	assert.True(t, domain.HasCode(err, domain.CodeRewardNotFound))

	_, err = env.rewards.Grant(ctx, "r1", "ghost")
	assert.True(t, domain.HasCode(err, domain.CodeUserNotFound))
}

func TestRewardClaim_Thresholds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "u1")
	env.addReward(t, &domain.Reward{ID: "r1", Title: "Century", MinXP: 100})

	_, err := env.rewards.Claim(ctx, "r1", "u1")
	assert.True(t, domain.HasCode(err, domain.CodeNotEligible))

	require.NoError(t, env.gamification.ApplyXPDelta(ctx, "u1", 100))
	resp, err := env.rewards.Claim(ctx, "r1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Century", resp.Badge)

	_, err = env.rewards.Claim(ctx, "r1", "u1")
	assert.True(t, domain.HasCode(err, domain.CodeAlreadyClaimed))

	_, err = env.rewards.Claim(ctx, "r1", "")
	assert.True(t, domain.HasCode(err, domain.CodeUnauthorized))
}

func TestRewardClaim_Availability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "u1")
	expired := time.Now().Add(-time.Hour)
	env.addReward(t, &domain.Reward{ID: "old", Title: "Old", ExpiresAt: &expired})

	_, err := env.rewards.Claim(ctx, "old", "u1")
	assert.True(t, domain.HasCode(err, domain.CodeRewardUnavailable))

	inactive := &domain.Reward{ID: "off", Title: "Off"}
	require.NoError(t, env.store.SaveReward(ctx, inactive))
	_, err = env.rewards.Claim(ctx, "off", "u1")
	assert.True(t, domain.HasCode(err, domain.CodeRewardUnavailable))
}

func TestRewardClaim_LimitUnderContention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addReward(t, &domain.Reward{ID: "r1", Title: "First Three", MaxClaims: 3})
	for i := 0; i < 10; i++ {
		env.addUser(t, fmt.Sprintf("u%d", i))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.rewards.Claim(ctx, "r1", fmt.Sprintf("u%d", i))
			if err == nil {
				mu.Lock()
				granted++
				mu.Unlock()
				return
			}
			assert.True(t, domain.HasCode(err, domain.CodeRewardUnavailable), err.Error())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, granted)
	reward, _ := env.store.GetRewardByID(ctx, "r1")
	assert.Equal(t, 3, reward.TotalClaimed)
}

func TestRewardList_Flags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "u1")
	env.addReward(t, &domain.Reward{ID: "a", Title: "Easy"})
	env.addReward(t, &domain.Reward{ID: "b", Title: "Hard", MinStreak: 30})
	_, err := env.rewards.Grant(ctx, "a", "u1")
	require.NoError(t, err)

	list, err := env.rewards.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	byID := map[string]bool{}
	for _, r := range list {
		byID[r.ID+".claimed"] = r.Claimed
		byID[r.ID+".eligible"] = r.Eligible
	}
	assert.True(t, byID["a.claimed"])
	assert.False(t, byID["a.eligible"])
	assert.False(t, byID["b.claimed"])
	assert.False(t, byID["b.eligible"])

	anon, err := env.rewards.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, anon, 2)
}
