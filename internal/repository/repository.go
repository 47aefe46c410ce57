package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User      UserRepository
	Feedback  FeedbackRepository
	Request   FeedbackRequestRepository
	Comment   CommentRepository
	Dashboard DashboardRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:        db,
		User:      NewUserRepo(db),
		Feedback:  NewFeedbackRepo(db),
		Request:   NewFeedbackRequestRepo(db),
		Comment:   NewCommentRepo(db),
		Dashboard: NewDashboardRepo(db),
	}
}

// BeginTx 开启读写事务（READ COMMITTED + 行锁 + 乐观版本）
// 未注入数据库连接时（单元测试中的 mock 聚合）返回 nil，调用方按 nil 事务处理
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// BeginSnapshot 开启只读 REPEATABLE READ 事务，事务内所有查询读取同一快照
func (r *Repository) BeginSnapshot(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
