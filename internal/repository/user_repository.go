package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/repository/models"
	"learnquest/internal/util"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, google_id, email, name, profile_picture_url, role, wilaya, is_active,
	xp, streak, last_active_at, activity_version, courses_completed, quizzes_completed,
	correct_answers, total_answers, total_time_spent, created_at, updated_at`

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db      *sqlx.DB
	dialect Dialect
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db, dialect: DialectFor(db.DriverName())}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	u := &domain.User{
		ID:                m.ID,
		GoogleID:          m.GoogleID,
		Email:             m.Email,
		Name:              m.Name.String,
		ProfilePictureURL: m.ProfilePictureURL.String,
		Role:              m.Role,
		Wilaya:            m.Wilaya.String,
		IsActive:          m.IsActive != 0,
		XP:                m.XP,
		Streak:            m.Streak,
		ActivityVersion:   m.ActivityVersion,
		CoursesCompleted:  m.CoursesCompleted,
		QuizzesCompleted:  m.QuizzesCompleted,
		CorrectAnswers:    m.CorrectAnswers,
		TotalAnswers:      m.TotalAnswers,
		TotalTimeSpent:    m.TotalTimeSpent,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	u.LastActiveAt = util.TimePtr(m.LastActiveAt)
	return u
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	m := &models.User{
		ID:                u.ID,
		GoogleID:          u.GoogleID,
		Email:             u.Email,
		Name:              util.NullString(u.Name),
		ProfilePictureURL: util.NullString(u.ProfilePictureURL),
		Role:              u.Role,
		Wilaya:            util.NullString(u.Wilaya),
		IsActive:          boolToInt(u.IsActive),
		XP:                u.XP,
		Streak:            u.Streak,
		ActivityVersion:   u.ActivityVersion,
		CoursesCompleted:  u.CoursesCompleted,
		QuizzesCompleted:  u.QuizzesCompleted,
		CorrectAnswers:    u.CorrectAnswers,
		TotalAnswers:      u.TotalAnswers,
		TotalTimeSpent:    u.TotalTimeSpent,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
	m.LastActiveAt = util.NullTime(u.LastActiveAt)
	if m.Role == "" {
		m.Role = domain.RoleStudent
	}
	return m
}

// CreateUser inserts a new user. Counters start from the values on the domain object.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = util.NewULID()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	m := fromDomainUser(user)

	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exec.ExecContext(ctx, query,
		m.ID, m.GoogleID, m.Email, m.Name, m.ProfilePictureURL, m.Role, m.Wilaya, m.IsActive,
		m.XP, m.Streak, m.LastActiveAt, m.ActivityVersion, m.CoursesCompleted, m.QuizzesCompleted,
		m.CorrectAnswers, m.TotalAnswers, m.TotalTimeSpent, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqlxUserRepository) getUser(ctx context.Context, where string, arg string) (*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	var m models.User
	query := exec.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = ?`)
	if err := exec.GetContext(ctx, &m, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Return nil, nil for not found, services can handle this
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", where, err)
	}
	user := toDomainUser(&m)
	badges, err := r.GetBadges(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Badges = badges
	return user, nil
}

// GetUserByID retrieves a user with badges by internal ID.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getUser(ctx, "id", userID)
}

// GetUserByGoogleID retrieves a user with badges by Google ID.
func (r *sqlxUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getUser(ctx, "google_id", googleID)
}

// UpdateUser updates profile fields only. Gamification counters are changed
// through ApplyStatsDelta and UpdateActivity.
func (r *sqlxUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()
	m := fromDomainUser(user)

	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE users SET email = ?, name = ?, profile_picture_url = ?, role = ?,
		wilaya = ?, is_active = ?, updated_at = ? WHERE id = ?`)
	result, err := exec.ExecContext(ctx, query,
		m.Email, m.Name, m.ProfilePictureURL, m.Role, m.Wilaya, m.IsActive, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	updated, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !updated {
		return domain.NewUserNotFoundError(user.ID)
	}
	return nil
}

// ApplyStatsDelta adds the delta to the user's counters in a single statement.
func (r *sqlxUserRepository) ApplyStatsDelta(ctx context.Context, userID string, delta domain.StatsDelta) error {
	if err := delta.Validate(); err != nil {
		return err
	}
	if delta.IsZero() {
		return nil
	}

	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE users SET xp = xp + ?, courses_completed = courses_completed + ?,
		quizzes_completed = quizzes_completed + ?, correct_answers = correct_answers + ?,
		total_answers = total_answers + ?, total_time_spent = total_time_spent + ?, updated_at = ?
		WHERE id = ?`)
	result, err := exec.ExecContext(ctx, query,
		delta.XP, delta.CoursesCompleted, delta.QuizzesCompleted, delta.CorrectAnswers,
		delta.TotalAnswers, delta.TimeSpent, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to apply stats delta: %w", err)
	}
	updated, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !updated {
		return domain.NewUserNotFoundError(userID)
	}
	return nil
}

// UpdateActivity writes the streak only if activity_version still matches.
func (r *sqlxUserRepository) UpdateActivity(ctx context.Context, userID string, streak int, lastActiveAt time.Time, expectedVersion int64) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`UPDATE users SET streak = ?, last_active_at = ?, activity_version = activity_version + 1,
		updated_at = ? WHERE id = ? AND activity_version = ?`)
	result, err := exec.ExecContext(ctx, query, streak, lastActiveAt, time.Now(), userID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update activity: %w", err)
	}
	return affectedOne(result)
}

// AddBadge records the badge once per user. It reports whether the badge was new.
func (r *sqlxUserRepository) AddBadge(ctx context.Context, userID, badge string) (bool, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(r.dialect.InsertIgnore("user_badges",
		[]string{"user_id", "badge"}, []string{"user_id", "badge", "awarded_at"}))
	result, err := exec.ExecContext(ctx, query, userID, badge, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to add badge: %w", err)
	}
	return affectedOne(result)
}

// GetBadges lists a user's badges in award order.
func (r *sqlxUserRepository) GetBadges(ctx context.Context, userID string) ([]string, error) {
	exec := GetExecutor(ctx, r.db)
	badges := []string{}
	query := exec.Rebind(`SELECT badge FROM user_badges WHERE user_id = ? ORDER BY awarded_at, badge`)
	if err := exec.SelectContext(ctx, &badges, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}
	return badges, nil
}

// ListLeaderboard returns active students ordered by XP, optionally filtered by wilaya.
func (r *sqlxUserRepository) ListLeaderboard(ctx context.Context, wilaya string, limit int) ([]*domain.User, error) {
	exec := GetExecutor(ctx, r.db)
	base := `SELECT ` + userColumns + ` FROM users WHERE role = ? AND is_active = 1`
	args := []interface{}{domain.RoleStudent}
	if wilaya != "" {
		base += ` AND wilaya = ?`
		args = append(args, wilaya)
	}
	base += ` ORDER BY xp DESC, id`

	var rows []models.User
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(r.dialect.Paginate(base, limit, 0)), args...); err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, toDomainUser(&rows[i]))
	}
	return users, nil
}

// ListWilayaStandings aggregates student XP per wilaya.
func (r *sqlxUserRepository) ListWilayaStandings(ctx context.Context, limit int) ([]domain.WilayaStanding, error) {
	exec := GetExecutor(ctx, r.db)
	base := `SELECT wilaya, SUM(xp) AS total_xp, COUNT(*) AS student_count FROM users
		WHERE role = ? AND is_active = 1 AND wilaya IS NOT NULL
		GROUP BY wilaya ORDER BY total_xp DESC, wilaya`

	var rows []models.WilayaStanding
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(r.dialect.Paginate(base, limit, 0)), domain.RoleStudent); err != nil {
		return nil, fmt.Errorf("failed to list wilaya standings: %w", err)
	}

	standings := make([]domain.WilayaStanding, 0, len(rows))
	for _, row := range rows {
		standings = append(standings, domain.WilayaStanding{
			Wilaya:       row.Wilaya,
			TotalXP:      row.TotalXP,
			StudentCount: row.StudentCount,
		})
	}
	return standings, nil
}
