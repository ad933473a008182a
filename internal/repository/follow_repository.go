package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/internal/model"
)

// FollowRepository follows 表；边的 actor 是 follower，target 是 following
type FollowRepository interface {
	EdgeRepository[string]
	ListFollowers(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error)
	ListFollowings(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error)
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	// FollowedAmong 返回 targets 中被 followerID 关注的集合
	FollowedAmong(ctx context.Context, followerID string, targets []string) (map[string]bool, error)
	Counts(ctx context.Context, userID string) (followers, following int64, err error)
}

type followRepository struct {
	EdgeRepository[string]
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{
		EdgeRepository: &edgeRepository[string, model.Follow]{
			db:        db,
			actorCol:  "follower_id",
			targetCol: "following_id",
			newRow: func(followerID, followingID string) *model.Follow {
				return &model.Follow{ID: uuid.New().String(), FollowerID: followerID, FollowingID: followingID}
			},
		},
		db: db,
	}
}

func (r *followRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("following_id = ?", userID).
		Order("created_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *followRepository) ListFollowings(ctx context.Context, userID string, offset, limit int) ([]*model.Follow, error) {
	var res []*model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ?", userID).
		Order("created_at DESC").Order("id").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *followRepository) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	return ids, err
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

func (r *followRepository) FollowedAmong(ctx context.Context, followerID string, targets []string) (map[string]bool, error) {
	out := make(map[string]bool, len(targets))
	if followerID == "" || len(targets) == 0 {
		return out, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND following_id IN ?", followerID, targets).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *followRepository) Counts(ctx context.Context, userID string) (int64, int64, error) {
	var followers, following int64
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}
