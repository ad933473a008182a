package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/internal/model"
)

// MentionScope 候选与查看者之间的关注关系
type MentionScope int

const (
	MentionAnyone MentionScope = iota
	// MentionConnected 与查看者存在任一方向的关注
	MentionConnected
	// MentionUnconnected 与查看者没有关注关系
	MentionUnconnected
)

// MentionFilter 关注关系在 SQL 里用子查询表达，不把 id 集合拉进内存。
// ViewerID 非空时始终排除查看者本人
type MentionFilter struct {
	ViewerID string
	Scope    MentionScope
}

const (
	connectedClause   = "(id IN (SELECT following_id FROM follows WHERE follower_id = ?) OR id IN (SELECT follower_id FROM follows WHERE following_id = ?))"
	unconnectedClause = "id NOT IN (SELECT following_id FROM follows WHERE follower_id = ?) AND id NOT IN (SELECT follower_id FROM follows WHERE following_id = ?)"
)

type UserRepository interface {
	// Create 插入账号，邮箱冲突返回 ErrDuplicate
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	// ClaimUsername 以写代查：在 savepoint 内直接写入，唯一索引冲突视为已占用
	ClaimUsername(ctx context.Context, id, username string) (bool, error)
	UpdateProvider(ctx context.Context, id, provider string) error
	UpdateProfile(ctx context.Context, id string, name, image *string) error
	SearchMentionable(ctx context.Context, query string, filter MentionFilter, limit int) ([]*model.User, error)
	// Transaction fn 内只能使用传入的 repo
	Transaction(ctx context.Context, fn func(repo UserRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", ErrDuplicate)
		}
		return err
	}
	return nil
}

func (r *userRepository) first(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var res []*model.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&res).Error
	return res, err
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) ClaimUsername(ctx context.Context, id, username string) (bool, error) {
	// 外层已在事务中时 gorm 使用 SAVEPOINT，冲突只回滚这一次尝试
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("id = ?", id).Update("username", username)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	switch {
	case err == nil:
		return true, nil
	case IsUniqueViolation(err):
		return false, nil
	default:
		return false, err
	}
}

func (r *userRepository) UpdateProvider(ctx context.Context, id, provider string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("provider", provider).Error
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, name, image *string) error {
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if image != nil {
		updates["image"] = *image
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *userRepository) SearchMentionable(ctx context.Context, query string, filter MentionFilter, limit int) ([]*model.User, error) {
	if limit <= 0 || (filter.Scope == MentionConnected && filter.ViewerID == "") {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Model(&model.User{}).Where("username IS NOT NULL")
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		pattern := "%" + likeEscaper.Replace(query) + "%"
		q = q.Where("(LOWER(username) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!')", pattern, pattern)
	}
	if viewer := filter.ViewerID; viewer != "" {
		q = q.Where("id <> ?", viewer)
		switch filter.Scope {
		case MentionConnected:
			q = q.Where(connectedClause, viewer, viewer)
		case MentionUnconnected:
			q = q.Where(unconnectedClause, viewer, viewer)
		}
	}
	var res []*model.User
	err := q.Order("username").Order("id").Limit(limit).Find(&res).Error
	return res, err
}

func (r *userRepository) Transaction(ctx context.Context, fn func(repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&userRepository{db: tx})
	})
}
