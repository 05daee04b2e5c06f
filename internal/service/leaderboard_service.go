package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"learnquest/internal/cache"
	"learnquest/internal/config"
	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultLeaderboardLimit = 50
	wilayaStandingsLimit    = 20
)

// LeaderboardService is a read-only ranking over user XP.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, wilaya string) (*dto.LeaderboardResponse, error)
	GetWilayaStandings(ctx context.Context) (*dto.WilayaLeaderboardResponse, error)
}

type leaderboardService struct {
	userRepo domain.UserRepository
	cache    domain.Cache
	ladder   domain.LevelLadder
	limit    int
	ttl      time.Duration
}

// NewLeaderboardService creates a LeaderboardService. A nil cache or a zero
// TTL disables caching.
func NewLeaderboardService(userRepo domain.UserRepository, c domain.Cache, cfg config.LeaderboardConfig) LeaderboardService {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	return &leaderboardService{
		userRepo: userRepo,
		cache:    c,
		ladder:   domain.DefaultLadder,
		limit:    limit,
		ttl:      cfg.CacheTTL,
	}
}

func (s *leaderboardService) cached(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil || s.ttl <= 0 {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return json.Unmarshal([]byte(data), out) == nil
}

func (s *leaderboardService) remember(ctx context.Context, key string, v interface{}) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Warn("Leaderboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, wilaya string) (*dto.LeaderboardResponse, error) {
	key := cache.LeaderboardKey(wilaya)

	var resp dto.LeaderboardResponse
	if s.cached(ctx, key, &resp) {
		return &resp, nil
	}

	users, err := s.userRepo.ListLeaderboard(ctx, wilaya, s.limit)
	if err != nil {
		return nil, domain.NewInternalError("failed to load leaderboard", err)
	}
	resp = dto.LeaderboardResponse{Wilaya: wilaya, Entries: make([]domain.LeaderboardEntry, 0, len(users))}
	for i, u := range users {
		resp.Entries = append(resp.Entries, domain.LeaderboardEntry{
			Rank:             i + 1,
			UserID:           u.ID,
			Name:             u.Name,
			ProfilePicture:   u.ProfilePictureURL,
			Wilaya:           u.Wilaya,
			XP:               u.XP,
			Streak:           u.Streak,
			CoursesCompleted: u.CoursesCompleted,
			QuizzesCompleted: u.QuizzesCompleted,
			Accuracy:         u.Accuracy(),
			Level:            s.ladder.LevelFor(u.XP),
		})
	}
	s.remember(ctx, key, resp)
	return &resp, nil
}

func (s *leaderboardService) GetWilayaStandings(ctx context.Context) (*dto.WilayaLeaderboardResponse, error) {
	key := cache.WilayaStandingsKey()

	var resp dto.WilayaLeaderboardResponse
	if s.cached(ctx, key, &resp) {
		return &resp, nil
	}
	standings, err := s.userRepo.ListWilayaStandings(ctx, wilayaStandingsLimit)
	if err != nil {
		return nil, domain.NewInternalError("failed to load wilaya standings", err)
	}
	if standings == nil {
		standings = []domain.WilayaStanding{}
	}
	resp = dto.WilayaLeaderboardResponse{Standings: standings}
	s.remember(ctx, key, resp)
	return &resp, nil
}
