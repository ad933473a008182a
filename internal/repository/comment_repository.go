package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	// ListByBlog 最新在前，附带作者信息
	ListByBlog(ctx context.Context, blogID int64, limit int) ([]model.CommentView, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository { return &commentRepository{db: db} }

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *commentRepository) ListByBlog(ctx context.Context, blogID int64, limit int) ([]model.CommentView, error) {
	var res []model.CommentView
	err := r.db.WithContext(ctx).
		Table("comments AS c").
		Select("c.id, c.blog_id, c.text, c.created_at, c.user_id, COALESCE(u.username, '') AS username, u.name").
		Joins("JOIN users AS u ON u.id = c.user_id").
		Where("c.blog_id = ?", blogID).
		Order("c.created_at DESC").Order("c.id DESC").
		Limit(limit).
		Scan(&res).Error
	return res, err
}
