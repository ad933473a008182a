package model

import "time"

// Like 点赞（User 点赞 Blog），只有存在与否两种状态
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);not null;index:idx_like_pair,unique,priority:1"`
	BlogID    int64     `gorm:"not null;index:idx_like_pair,unique,priority:2;index:idx_like_blog"`
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
