package model

import "time"

// Blog 博文（由内容服务维护，这里只关心 id 与作者）
type Blog struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	AuthorID  string `gorm:"type:varchar(36);index:idx_blog_author;not null"`
	Title     string `gorm:"type:varchar(255)"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Blog) TableName() string { return "blogs" }
