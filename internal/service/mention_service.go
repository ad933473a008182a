package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/repository"
	"github.com/d60-Lab/zingg/pkg/telemetry"
)

// MentionService @提及搜索：与查看者有关注关系的人排在前面
type MentionService interface {
	Search(ctx context.Context, viewerID, query string, limit int) ([]model.MentionCandidate, error)
}

type mentionService struct {
	users repository.UserRepository
}

func NewMentionService(users repository.UserRepository) MentionService {
	return &mentionService{users: users}
}

func (s *mentionService) Search(ctx context.Context, viewerID, query string, limit int) (res []model.MentionCandidate, err error) {
	if viewerID == "" {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		return []model.MentionCandidate{}, nil
	}
	ctx, span := telemetry.StartSpan(ctx, "mention.search", attribute.Int("limit", limit))
	defer func() {
		span.SetAttributes(attribute.Int("results", len(res)))
		telemetry.End(span, err)
	}()

	prioritized, err := s.users.SearchMentionable(ctx, query, repository.MentionFilter{
		ViewerID: viewerID,
		Scope:    repository.MentionConnected,
	}, limit)
	if err != nil {
		return nil, err
	}
	res = make([]model.MentionCandidate, 0, limit)
	for _, u := range prioritized {
		res = append(res, candidate(u, true))
	}
	if len(res) >= limit {
		return res, nil
	}

	// 补位：排除查看者与所有有关注关系的人，避免与优先结果重复
	rest, err := s.users.SearchMentionable(ctx, query, repository.MentionFilter{
		ViewerID: viewerID,
		Scope:    repository.MentionUnconnected,
	}, limit-len(res))
	if err != nil {
		return nil, err
	}
	for _, u := range rest {
		res = append(res, candidate(u, false))
	}
	return res, nil
}

func candidate(u *model.User, priority bool) model.MentionCandidate {
	return model.MentionCandidate{
		ID:       u.ID,
		Username: u.UsernameOrEmpty(),
		Name:     u.Name,
		Image:    u.Image,
		Priority: priority,
	}
}
