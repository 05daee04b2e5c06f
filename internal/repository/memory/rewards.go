package memory

import (
	"context"
	"sort"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/util"
)

func copyReward(r *domain.Reward) *domain.Reward {
	c := *r
	c.ClaimedBy = cloneStrings(r.ClaimedBy)
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

func (s *Store) GetRewardByID(_ context.Context, id string) (*domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rewards[id]
	if !ok {
		return nil, nil
	}
	return copyReward(r), nil
}

func (s *Store) ListRewards(_ context.Context, activeOnly bool) ([]*domain.Reward, error) {
	s.mu.RLock()
	out := []*domain.Reward{}
	for _, r := range s.rewards {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, copyReward(r))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveReward upserts the definition and keeps existing claim bookkeeping.
func (s *Store) SaveReward(_ context.Context, reward *domain.Reward) error {
	if reward.ID == "" {
		reward.ID = util.NewULID()
	}
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := copyReward(reward)
	if existing, ok := s.rewards[reward.ID]; ok {
		c.TotalClaimed = existing.TotalClaimed
		c.ClaimedBy = cloneStrings(existing.ClaimedBy)
	} else {
		c.TotalClaimed = 0
		c.ClaimedBy = []string{}
	}
	s.rewards[reward.ID] = c
	return nil
}

func (s *Store) AddClaim(_ context.Context, rewardID, userID string, enforceLimit bool, _ time.Time) (domain.ClaimOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rewards[rewardID]
	if !ok {
		return domain.ClaimRecorded, domain.NewRewardNotFoundError(rewardID)
	}
	if r.IsClaimedBy(userID) {
		return domain.ClaimDuplicate, nil
	}
	if enforceLimit && r.MaxClaims > 0 && r.TotalClaimed >= r.MaxClaims {
		return domain.ClaimLimitReached, nil
	}
	r.ClaimedBy = append(r.ClaimedBy, userID)
	r.TotalClaimed++
	return domain.ClaimRecorded, nil
}
