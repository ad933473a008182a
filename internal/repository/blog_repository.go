package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/internal/model"
)

// BlogRepository 博文由内容服务写入，这里只做存在性校验
type BlogRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, b *model.Blog) error
}

type blogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) BlogRepository { return &blogRepository{db: db} }

func (r *blogRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Blog{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *blogRepository) Create(ctx context.Context, b *model.Blog) error {
	return r.db.WithContext(ctx).Create(b).Error
}
