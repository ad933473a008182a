package service

import (
	"context"
	"strings"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/repository"
)

const commentListLimit = 200

type CommentService interface {
	Add(ctx context.Context, actorID string, blogID int64, text string) (*model.Comment, error)
	List(ctx context.Context, blogID int64) ([]model.CommentView, error)
}

type commentService struct {
	comments repository.CommentRepository
	blogs    repository.BlogRepository
}

func NewCommentService(comments repository.CommentRepository, blogs repository.BlogRepository) CommentService {
	return &commentService{comments: comments, blogs: blogs}
}

func (s *commentService) Add(ctx context.Context, actorID string, blogID int64, text string) (*model.Comment, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentEmpty
	}
	exists, err := s.blogs.Exists(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrBlogNotFound
	}
	c := &model.Comment{BlogID: blogID, UserID: actorID, Text: text}
	if err := s.comments.Create(context.WithoutCancel(ctx), c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *commentService) List(ctx context.Context, blogID int64) ([]model.CommentView, error) {
	list, err := s.comments.ListByBlog(ctx, blogID, commentListLimit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.CommentView{}
	}
	return list, nil
}
