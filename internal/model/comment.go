package model

import "time"

type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	BlogID    int64     `gorm:"not null;index:idx_comment_blog" json:"blogId"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"userId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_comment_created" json:"createdAt"`
}

func (Comment) TableName() string { return "comments" }

// CommentView 评论 + 作者展示信息
type CommentView struct {
	ID        int64     `json:"id"`
	BlogID    int64     `json:"blogId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
}
