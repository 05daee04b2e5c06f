package repository

import (
	"context"
	"errors"
	"fmt"

	"learnquest/internal/domain"
	"learnquest/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type txKey struct{}

// TxFromContext returns the transaction opened by TxManager, if any.
func TxFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// GetExecutor returns the ambient transaction or falls back to db.
func GetExecutor(ctx context.Context, db DBTX) DBTX {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db
}

// TxManager runs ledger mutations inside a single sqlx transaction. Every
// repository built on the same *sqlx.DB joins it through GetExecutor.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) domain.TransactionManager {
	return &TxManager{db: db}
}

// WithTransaction commits when fn returns nil and rolls back otherwise.
// Nested calls join the outer transaction.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		p := recover()
		if p == nil && err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, context.Canceled) {
			logger.Get().Error("Transaction rollback failed", zap.Error(rbErr))
			if p == nil {
				err = fmt.Errorf("rollback: %v (cause: %w)", rbErr, err)
			}
		}
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
