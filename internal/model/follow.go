package model

import (
	"time"
)

// Follow 关注关系（Follower 关注 Following）
type Follow struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID  string `gorm:"type:varchar(36);not null;index:idx_follow_pair,unique,priority:1"`
	FollowingID string `gorm:"type:varchar(36);not null;index:idx_follow_pair,unique,priority:2;index:idx_follow_following"`
	// 复合唯一键 idx_follow_pair = (follower_id, following_id)
	// 并发 toggle 依赖它判定竞争
	CreatedAt time.Time `gorm:"index:idx_follow_created"`
}

func (Follow) TableName() string { return "follows" }
