package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/abhijeets54/feedback-backend/internal/repository"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// maxTxAttempts 乐观锁冲突时整个事务的最大执行次数
const maxTxAttempts = 3

// withRetry 乐观锁冲突时整体重跑 fn，重跑时重新读取已提交状态
func withRetry(ctx context.Context, logger *zap.Logger, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		logger.Debug("乐观锁冲突，重试事务", zap.String("op", op), zap.Int("attempt", attempt))
	}
	return err
}

// inTx 在单个事务内执行 fn；fn 返回错误或 panic 时回滚
// mock 聚合（无数据库连接）下 BeginTx 返回 nil，fn 直接作用于原聚合
func inTx(ctx context.Context, repo *repository.Repository, fn func(txRepo *repository.Repository) error) error {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		return pkgerrors.Store(err)
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			return pkgerrors.Store(err)
		}
	}
	return nil
}

// runInTx 事务 + 乐观锁重试
func runInTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, op string, fn func(txRepo *repository.Repository) error) error {
	return withRetry(ctx, logger, op, func() error {
		return inTx(ctx, repo, fn)
	})
}
