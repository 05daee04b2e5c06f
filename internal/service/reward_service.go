package service

import (
	"context"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"
	"learnquest/internal/metrics"

	"go.uber.org/zap"
)

// RewardService grants and claims badges. Each user holds a reward at most once.
type RewardService interface {
	// Grant is the admin path: no thresholds and no claim limit.
	Grant(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error)
	// Claim is the self-service path: availability and thresholds apply.
	Claim(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error)
	// List returns active rewards; userID may be empty for anonymous callers.
	List(ctx context.Context, userID string) ([]dto.RewardResponse, error)
}

type rewardService struct {
	rewardRepo domain.RewardRepository
	userRepo   domain.UserRepository
	txManager  domain.TransactionManager
	publisher  domain.EventPublisher
	now        func() time.Time
}

// NewRewardService creates a new RewardService.
func NewRewardService(
	rewardRepo domain.RewardRepository,
	userRepo domain.UserRepository,
	txManager domain.TransactionManager,
	publisher domain.EventPublisher,
) RewardService {
	return &rewardService{
		rewardRepo: rewardRepo,
		userRepo:   userRepo,
		txManager:  txManager,
		publisher:  publisher,
		now:        time.Now,
	}
}

func (s *rewardService) loadReward(ctx context.Context, rewardID string) (*domain.Reward, error) {
	reward, err := s.rewardRepo.GetRewardByID(ctx, rewardID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load reward", err)
	}
	if reward == nil {
		return nil, domain.NewRewardNotFoundError(rewardID)
	}
	return reward, nil
}

func (s *rewardService) loadUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, domain.ValidationErrors{domain.NewMissingFieldError("userId")}
	}
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, domain.NewUserNotFoundError(userID)
	}
	return user, nil
}

func (s *rewardService) Grant(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error) {
	reward, err := s.loadReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.record(ctx, reward, userID, false, "grant")
}

func (s *rewardService) Claim(ctx context.Context, rewardID, userID string) (*dto.RewardClaimResponse, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}
	reward, err := s.loadReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}
	if reward.IsClaimedBy(userID) {
		metrics.RewardClaim("duplicate")
		return nil, domain.NewAlreadyClaimedError(rewardID, userID)
	}
	if reason := reward.Availability(s.now()); reason != "" {
		metrics.RewardClaim("unavailable")
		return nil, domain.NewRewardUnavailableError(rewardID, reason)
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if unmet := reward.UnmetRequirement(user); unmet != "" {
		metrics.RewardClaim("not_eligible")
		return nil, domain.NewNotEligibleError(rewardID, unmet)
	}
	return s.record(ctx, reward, userID, true, "claim")
}

// record inserts the claim and the badge in one transaction. The claim insert
// is the check-and-set; a lost race surfaces as ALREADY_CLAIMED or
// REWARD_UNAVAILABLE, never as a second claim.
func (s *rewardService) record(ctx context.Context, reward *domain.Reward, userID string, enforceLimit bool, via string) (*dto.RewardClaimResponse, error) {
	badge := reward.BadgeLabel()
	var (
		outcome    domain.ClaimOutcome
		badgeAdded bool
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		outcome, err = s.rewardRepo.AddClaim(txCtx, reward.ID, userID, enforceLimit, s.now())
		if err != nil || outcome != domain.ClaimRecorded {
			return err
		}
		badgeAdded, err = s.userRepo.AddBadge(txCtx, userID, badge)
		return err
	})
	if err != nil {
		return nil, asDomainError("failed to record reward claim", err)
	}

	metrics.RewardClaim(outcome.String())
	switch outcome {
	case domain.ClaimDuplicate:
		return nil, domain.NewAlreadyClaimedError(reward.ID, userID)
	case domain.ClaimLimitReached:
		return nil, domain.NewRewardUnavailableError(reward.ID, "reward has no claims left")
	}

	total := reward.TotalClaimed + 1
	if fresh, err := s.rewardRepo.GetRewardByID(ctx, reward.ID); err == nil && fresh != nil {
		total = fresh.TotalClaimed
	}
	logger.Get().Info("Reward recorded",
		zap.String("rewardID", reward.ID),
		zap.String("userID", userID),
		zap.String("via", via))
	publish(ctx, s.publisher, domain.NewEvent(domain.EventRewardGranted, userID, map[string]interface{}{
		"rewardId": reward.ID,
		"badge":    badge,
		"via":      via,
	}))
	return &dto.RewardClaimResponse{
		RewardID:     reward.ID,
		UserID:       userID,
		Badge:        badge,
		BadgeAdded:   badgeAdded,
		TotalClaimed: total,
	}, nil
}

func (s *rewardService) List(ctx context.Context, userID string) ([]dto.RewardResponse, error) {
	rewards, err := s.rewardRepo.ListRewards(ctx, true)
	if err != nil {
		return nil, domain.NewInternalError("failed to list rewards", err)
	}
	var user *domain.User
	if userID != "" {
		if user, err = s.userRepo.GetUserByID(ctx, userID); err != nil {
			return nil, domain.NewInternalError("failed to load user", err)
		}
	}

	now := s.now()
	out := make([]dto.RewardResponse, 0, len(rewards))
	for _, r := range rewards {
		resp := dto.RewardResponse{
			ID:           r.ID,
			Title:        r.Title,
			Description:  r.Description,
			Icon:         r.Icon,
			Type:         r.Type,
			MinXP:        r.MinXP,
			MinStreak:    r.MinStreak,
			MinCourses:   r.MinCourses,
			MinQuizzes:   r.MinQuizzes,
			MaxClaims:    r.MaxClaims,
			TotalClaimed: r.TotalClaimed,
			ExpiresAt:    r.ExpiresAt,
		}
		if user != nil {
			resp.Claimed = r.IsClaimedBy(user.ID)
			resp.Eligible = !resp.Claimed && r.Availability(now) == "" && r.UnmetRequirement(user) == ""
		}
		out = append(out, resp)
	}
	return out, nil
}
