package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EdgeRepository 有向关系边：只有存在/不存在两种状态
type EdgeRepository[T comparable] interface {
	// Add 插入边，返回是否由本次调用插入；已存在时返回 false
	Add(ctx context.Context, actorID string, target T) (bool, error)
	// Remove 删除边，返回是否由本次调用删除
	Remove(ctx context.Context, actorID string, target T) (bool, error)
	Exists(ctx context.Context, actorID string, target T) (bool, error)
}

type edgeRepository[T comparable, M any] struct {
	db        *gorm.DB
	actorCol  string
	targetCol string
	newRow    func(actorID string, target T) *M
}

func (r *edgeRepository[T, M]) pair(db *gorm.DB, actorID string, target T) *gorm.DB {
	return db.Where(r.actorCol+" = ? AND "+r.targetCol+" = ?", actorID, target)
}

func (r *edgeRepository[T, M]) Add(ctx context.Context, actorID string, target T) (bool, error) {
	// 唯一索引兜底：并发插入只有一方 RowsAffected == 1
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(r.newRow(actorID, target))
	if res.Error != nil {
		if IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *edgeRepository[T, M]) Remove(ctx context.Context, actorID string, target T) (bool, error) {
	res := r.pair(r.db.WithContext(ctx), actorID, target).Delete(new(M))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *edgeRepository[T, M]) Exists(ctx context.Context, actorID string, target T) (bool, error) {
	var cnt int64
	if err := r.pair(r.db.WithContext(ctx).Model(new(M)), actorID, target).
		Limit(1).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
