package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/repository"
	"github.com/d60-Lab/zingg/pkg/logger"
	"github.com/d60-Lab/zingg/pkg/telemetry"
)

// FollowDirection 关注列表方向
type FollowDirection string

const (
	DirectionFollowers FollowDirection = "followers"
	DirectionFollowing FollowDirection = "following"
)

func ParseFollowDirection(s string) (FollowDirection, error) {
	switch d := FollowDirection(s); d {
	case DirectionFollowers, DirectionFollowing:
		return d, nil
	default:
		return "", ErrInvalidFollowType
	}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// maxPage 之后直接返回空页，offset 不会溢出
	maxPage         = 10000
)

type FollowPage struct {
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
	Items    []model.FollowEntry `json:"items"`
}

// RelationshipService 关系链服务：关注与点赞都是幂等的 toggle
type RelationshipService interface {
	// ToggleFollow 返回操作后的状态：true 表示已关注
	ToggleFollow(ctx context.Context, actorID, targetUserID string) (bool, error)
	IsFollowing(ctx context.Context, actorID, targetUserID string) (bool, error)
	ToggleLike(ctx context.Context, actorID string, blogID int64) (bool, error)
	IsLiked(ctx context.Context, actorID string, blogID int64) (bool, error)
	ListFollows(ctx context.Context, viewerID, userID string, dir FollowDirection, page, pageSize int) (*FollowPage, error)
}

// toggler 一类关系边的 toggle 逻辑
type toggler[T comparable] struct {
	kind         string
	edges        repository.EdgeRepository[T]
	targetExists func(ctx context.Context, target T) (bool, error)
	notFound     error
	races        *rate.Sometimes
	log          *zap.Logger
}

func newToggler[T comparable](kind string, edges repository.EdgeRepository[T], exists func(context.Context, T) (bool, error), notFound error) *toggler[T] {
	return &toggler[T]{
		kind:         kind,
		edges:        edges,
		targetExists: exists,
		notFound:     notFound,
		races:        &rate.Sometimes{First: 3, Interval: 10 * time.Second},
		log:          logger.Named("relationship").With(zap.String("kind", kind)),
	}
}

func (t *toggler[T]) toggle(ctx context.Context, actorID string, target T) (on bool, err error) {
	ctx, span := telemetry.StartSpan(ctx, "relationship.toggle", attribute.String("kind", t.kind))
	defer func() {
		span.SetAttributes(attribute.Bool("on", on))
		telemetry.End(span, err)
	}()

	if actorID == "" {
		return false, ErrUnauthenticated
	}
	// 客户端断开不应让写入半途而废
	ctx = context.WithoutCancel(ctx)

	exists, err := t.targetExists(ctx, target)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, t.notFound
	}

	// 先删：删到了说明原来存在，结果为 off
	removed, err := t.edges.Remove(ctx, actorID, target)
	if err != nil {
		return false, fmt.Errorf("remove %s edge: %w", t.kind, err)
	}
	if removed {
		return false, nil
	}

	added, err := t.edges.Add(ctx, actorID, target)
	if err != nil {
		return false, fmt.Errorf("add %s edge: %w", t.kind, err)
	}
	if !added {
		// 并发的另一个请求抢先插入，边已存在，收敛为 on
		t.races.Do(func() {
			t.log.Warn("concurrent toggle converged", zap.String("actor", actorID), zap.Any("target", target))
		})
	}
	return true, nil
}

func (t *toggler[T]) isSet(ctx context.Context, actorID string, target T) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	return t.edges.Exists(ctx, actorID, target)
}

type relationshipService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	follow  *toggler[string]
	like    *toggler[int64]
}

func NewRelationshipService(users repository.UserRepository, follows repository.FollowRepository, likes repository.LikeRepository, blogs repository.BlogRepository) RelationshipService {
	return &relationshipService{
		users:   users,
		follows: follows,
		follow:  newToggler[string]("follow", follows, users.Exists, ErrUserNotFound),
		like:    newToggler[int64]("like", likes, blogs.Exists, ErrBlogNotFound),
	}
}

func (s *relationshipService) ToggleFollow(ctx context.Context, actorID, targetUserID string) (bool, error) {
	if actorID != "" && actorID == targetUserID {
		return false, ErrFollowSelf
	}
	return s.follow.toggle(ctx, actorID, targetUserID)
}

func (s *relationshipService) IsFollowing(ctx context.Context, actorID, targetUserID string) (bool, error) {
	return s.follow.isSet(ctx, actorID, targetUserID)
}

func (s *relationshipService) ToggleLike(ctx context.Context, actorID string, blogID int64) (bool, error) {
	return s.like.toggle(ctx, actorID, blogID)
}

func (s *relationshipService) IsLiked(ctx context.Context, actorID string, blogID int64) (bool, error) {
	return s.like.isSet(ctx, actorID, blogID)
}

func (s *relationshipService) ListFollows(ctx context.Context, viewerID, userID string, dir FollowDirection, page, pageSize int) (*FollowPage, error) {
	if viewerID == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := ParseFollowDirection(string(dir)); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	if page > maxPage {
		return &FollowPage{Page: page, PageSize: pageSize, Items: []model.FollowEntry{}}, nil
	}

	offset := (page - 1) * pageSize
	var edges []*model.Follow
	switch dir {
	case DirectionFollowers:
		edges, err = s.follows.ListFollowers(ctx, userID, offset, pageSize)
	case DirectionFollowing:
		edges, err = s.follows.ListFollowings(ctx, userID, offset, pageSize)
	default:
		return nil, ErrInvalidFollowType
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(edges))
	for i, e := range edges {
		if dir == DirectionFollowers {
			ids[i] = e.FollowerID
		} else {
			ids[i] = e.FollowingID
		}
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	followed, err := s.follows.FollowedAmong(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]model.FollowEntry, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		items = append(items, model.FollowEntry{
			ID:       u.ID,
			Username: u.UsernameOrEmpty(),
			Name:     u.Name,
			Image:    u.Image,
			Followed: followed[u.ID],
		})
	}
	return &FollowPage{Page: page, PageSize: pageSize, Items: items}, nil
}
