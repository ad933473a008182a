package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/internal/model"
)

// LikeRepository likes 表；actor 是用户，target 是博文 id
type LikeRepository interface {
	EdgeRepository[int64]
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &edgeRepository[int64, model.Like]{
		db:        db,
		actorCol:  "user_id",
		targetCol: "blog_id",
		newRow: func(userID string, blogID int64) *model.Like {
			return &model.Like{ID: uuid.New().String(), UserID: userID, BlogID: blogID}
		},
	}
}
