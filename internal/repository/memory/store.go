// Package memory keeps the whole ledger in process memory. It backs the
// "memory" database driver for demos and is the fixture used by service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/util"
)

type txKey struct{}

// Store implements every repository port plus domain.TransactionManager.
// Each method is atomic; WithTransaction serialises whole transactions but
// does not roll back on error.
type Store struct {
	txMu sync.Mutex

	mu          sync.RWMutex
	users       map[string]*domain.User
	googleIndex map[string]string
	quizzes     map[string]*domain.Quiz
	courses     map[string]*domain.Course
	progress    map[string]*domain.Progress          // by progress ID
	progressKey map[[2]string]string                 // (user, course) -> progress ID
	submissions map[[2]string]*domain.QuizSubmission // (user, submission ID)
	rewards     map[string]*domain.Reward
}

var (
	_ domain.UserRepository       = (*Store)(nil)
	_ domain.QuizRepository       = (*Store)(nil)
	_ domain.CourseRepository     = (*Store)(nil)
	_ domain.ProgressRepository   = (*Store)(nil)
	_ domain.SubmissionRepository = (*Store)(nil)
	_ domain.RewardRepository     = (*Store)(nil)
	_ domain.TransactionManager   = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		googleIndex: make(map[string]string),
		quizzes:     make(map[string]*domain.Quiz),
		courses:     make(map[string]*domain.Course),
		progress:    make(map[string]*domain.Progress),
		progressKey: make(map[[2]string]string),
		submissions: make(map[[2]string]*domain.QuizSubmission),
		rewards:     make(map[string]*domain.Reward),
	}
}

// WithTransaction runs fn while holding the store's transaction lock.
// Nested calls join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Badges = cloneStrings(u.Badges)
	if u.LastActiveAt != nil {
		t := *u.LastActiveAt
		c.LastActiveAt = &t
	}
	return &c
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = util.NewULID()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = domain.RoleStudent
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return domain.NewInvalidInputError("user already exists: " + user.ID)
	}
	if _, ok := s.googleIndex[user.GoogleID]; ok {
		return domain.NewInvalidInputError("google account already registered")
	}
	s.users[user.ID] = copyUser(user)
	s.googleIndex[user.GoogleID] = user.ID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (s *Store) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	s.mu.RLock()
	id, ok := s.googleIndex[googleID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return s.GetUserByID(ctx, id)
}

// UpdateUser changes profile fields only.
func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[user.ID]
	if !ok {
		return domain.NewUserNotFoundError(user.ID)
	}
	u.Email = user.Email
	u.Name = user.Name
	u.ProfilePictureURL = user.ProfilePictureURL
	u.Role = user.Role
	u.Wilaya = user.Wilaya
	u.IsActive = user.IsActive
	u.UpdatedAt = time.Now()
	user.UpdatedAt = u.UpdatedAt
	return nil
}

func (s *Store) ApplyStatsDelta(_ context.Context, userID string, delta domain.StatsDelta) error {
	if err := delta.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.NewUserNotFoundError(userID)
	}
	u.XP += delta.XP
	u.CoursesCompleted += delta.CoursesCompleted
	u.QuizzesCompleted += delta.QuizzesCompleted
	u.CorrectAnswers += delta.CorrectAnswers
	u.TotalAnswers += delta.TotalAnswers
	u.TotalTimeSpent += delta.TimeSpent
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Store) UpdateActivity(_ context.Context, userID string, streak int, lastActiveAt time.Time, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.ActivityVersion != expectedVersion {
		return false, nil
	}
	u.Streak = streak
	u.LastActiveAt = &lastActiveAt
	u.ActivityVersion++
	u.UpdatedAt = time.Now()
	return true, nil
}

func (s *Store) AddBadge(_ context.Context, userID, badge string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, domain.NewUserNotFoundError(userID)
	}
	if u.HasBadge(badge) {
		return false, nil
	}
	u.Badges = append(u.Badges, badge)
	return true, nil
}

func (s *Store) GetBadges(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return []string{}, nil
	}
	return cloneStrings(u.Badges), nil
}

func (s *Store) rankedStudents(wilaya string) []*domain.User {
	var out []*domain.User
	for _, u := range s.users {
		if u.Role != domain.RoleStudent || !u.IsActive {
			continue
		}
		if wilaya != "" && u.Wilaya != wilaya {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListLeaderboard(_ context.Context, wilaya string, limit int) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ranked := s.rankedStudents(wilaya)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]*domain.User, 0, len(ranked))
	for _, u := range ranked {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func (s *Store) ListWilayaStandings(_ context.Context, limit int) ([]domain.WilayaStanding, error) {
	s.mu.RLock()
	byWilaya := make(map[string]*domain.WilayaStanding)
	for _, u := range s.rankedStudents("") {
		if u.Wilaya == "" {
			continue
		}
		st, ok := byWilaya[u.Wilaya]
		if !ok {
			st = &domain.WilayaStanding{Wilaya: u.Wilaya}
			byWilaya[u.Wilaya] = st
		}
		st.TotalXP += u.XP
		st.StudentCount++
	}
	s.mu.RUnlock()

	out := make([]domain.WilayaStanding, 0, len(byWilaya))
	for _, st := range byWilaya {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalXP != out[j].TotalXP {
			return out[i].TotalXP > out[j].TotalXP
		}
		return out[i].Wilaya < out[j].Wilaya
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
