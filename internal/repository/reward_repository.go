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

const rewardColumns = `id, title, description, icon, reward_type, min_xp, min_streak, min_courses,
	min_quizzes, max_claims, total_claimed, is_active, expires_at, created_at`

type sqlxRewardRepository struct {
	db      *sqlx.DB
	dialect Dialect
	tx      domain.TransactionManager
}

// NewSQLXRewardRepository creates a reward repository.
func NewSQLXRewardRepository(db *sqlx.DB) domain.RewardRepository {
	return &sqlxRewardRepository{
		db:      db,
		dialect: DialectFor(db.DriverName()),
		tx:      NewTxManager(db),
	}
}

func toDomainReward(m *models.Reward, claimedBy []string) *domain.Reward {
	rw := &domain.Reward{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description.String,
		Icon:         m.Icon.String,
		Type:         m.Type.String,
		MinXP:        m.MinXP,
		MinStreak:    m.MinStreak,
		MinCourses:   m.MinCourses,
		MinQuizzes:   m.MinQuizzes,
		MaxClaims:    m.MaxClaims,
		TotalClaimed: m.TotalClaimed,
		ClaimedBy:    claimedBy,
		IsActive:     m.IsActive != 0,
		CreatedAt:    m.CreatedAt,
	}
	rw.ExpiresAt = util.TimePtr(m.ExpiresAt)
	return rw
}

func (r *sqlxRewardRepository) claimants(ctx context.Context, exec DBTX, rewardID string) ([]string, error) {
	users := []string{}
	query := exec.Rebind(`SELECT user_id FROM reward_claims WHERE reward_id = ? ORDER BY claimed_at, user_id`)
	if err := exec.SelectContext(ctx, &users, query, rewardID); err != nil {
		return nil, fmt.Errorf("failed to get reward claims: %w", err)
	}
	return users, nil
}

func (r *sqlxRewardRepository) GetRewardByID(ctx context.Context, id string) (*domain.Reward, error) {
	exec := GetExecutor(ctx, r.db)
	var m models.Reward
	if err := exec.GetContext(ctx, &m, exec.Rebind(`SELECT `+rewardColumns+` FROM rewards WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reward by id: %w", err)
	}
	claimedBy, err := r.claimants(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	return toDomainReward(&m, claimedBy), nil
}

func (r *sqlxRewardRepository) ListRewards(ctx context.Context, activeOnly bool) ([]*domain.Reward, error) {
	exec := GetExecutor(ctx, r.db)
	query := `SELECT ` + rewardColumns + ` FROM rewards`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at, id`

	var rows []models.Reward
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(query)); err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}

	rewards := make([]*domain.Reward, 0, len(rows))
	for i := range rows {
		claimedBy, err := r.claimants(ctx, exec, rows[i].ID)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, toDomainReward(&rows[i], claimedBy))
	}
	return rewards, nil
}

// SaveReward upserts the reward definition. Claim bookkeeping is never overwritten.
func (r *sqlxRewardRepository) SaveReward(ctx context.Context, reward *domain.Reward) error {
	if reward.ID == "" {
		reward.ID = util.NewULID()
	}
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now()
	}
	expiresAt := util.NullTime(reward.ExpiresAt)

	exec := GetExecutor(ctx, r.db)
	update := exec.Rebind(`UPDATE rewards SET title = ?, description = ?, icon = ?, reward_type = ?, min_xp = ?,
		min_streak = ?, min_courses = ?, min_quizzes = ?, max_claims = ?, is_active = ?, expires_at = ? WHERE id = ?`)
	result, err := exec.ExecContext(ctx, update,
		reward.Title, util.NullString(reward.Description), util.NullString(reward.Icon),
		util.NullString(reward.Type), reward.MinXP, reward.MinStreak, reward.MinCourses, reward.MinQuizzes,
		reward.MaxClaims, boolToInt(reward.IsActive), expiresAt, reward.ID)
	if err != nil {
		return fmt.Errorf("failed to update reward: %w", err)
	}
	if updated, err := affectedOne(result); err != nil || updated {
		return err
	}

	insert := exec.Rebind(`INSERT INTO rewards (` + rewardColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := exec.ExecContext(ctx, insert,
		reward.ID, reward.Title, util.NullString(reward.Description), util.NullString(reward.Icon),
		util.NullString(reward.Type), reward.MinXP, reward.MinStreak, reward.MinCourses, reward.MinQuizzes,
		reward.MaxClaims, 0, boolToInt(reward.IsActive), expiresAt, reward.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert reward: %w", err)
	}
	return nil
}

// AddClaim inserts the (reward, user) claim and bumps total_claimed in one
// transaction. A limit violation removes the claim row again.
func (r *sqlxRewardRepository) AddClaim(ctx context.Context, rewardID, userID string, enforceLimit bool, now time.Time) (domain.ClaimOutcome, error) {
	outcome := domain.ClaimRecorded
	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, r.db)

		var id string
		lock := exec.Rebind(`SELECT id FROM rewards WHERE id = ?` + r.dialect.ForUpdate())
		if err := exec.GetContext(ctx, &id, lock, rewardID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NewRewardNotFoundError(rewardID)
			}
			return fmt.Errorf("failed to lock reward: %w", err)
		}

		insert := exec.Rebind(r.dialect.InsertIgnore("reward_claims", []string{"reward_id", "user_id"},
			[]string{"reward_id", "user_id", "claimed_at"}))
		result, err := exec.ExecContext(ctx, insert, rewardID, userID, now)
		if err != nil {
			return fmt.Errorf("failed to insert reward claim: %w", err)
		}
		inserted, err := affectedOne(result)
		if err != nil {
			return err
		}
		if !inserted {
			outcome = domain.ClaimDuplicate
			return nil
		}

		bump := `UPDATE rewards SET total_claimed = total_claimed + 1 WHERE id = ?`
		if enforceLimit {
			bump += ` AND (max_claims = 0 OR total_claimed < max_claims)`
		}
		result, err = exec.ExecContext(ctx, exec.Rebind(bump), rewardID)
		if err != nil {
			return fmt.Errorf("failed to increment reward claims: %w", err)
		}
		bumped, err := affectedOne(result)
		if err != nil {
			return err
		}
		if bumped {
			return nil
		}

		outcome = domain.ClaimLimitReached
		undo := exec.Rebind(`DELETE FROM reward_claims WHERE reward_id = ? AND user_id = ?`)
		if _, err := exec.ExecContext(ctx, undo, rewardID, userID); err != nil {
			return fmt.Errorf("failed to remove reward claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.ClaimRecorded, err
	}
	return outcome, nil
}
