package service

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/zingg/internal/repository"
	"github.com/d60-Lab/zingg/internal/testutil"
)

type fixture struct {
	db        *gorm.DB
	users     repository.UserRepository
	follows   repository.FollowRepository
	likes     repository.LikeRepository
	blogs     repository.BlogRepository
	identity  IdentityService
	relations RelationshipService
	mentions  MentionService
	comments  CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:      db,
		users:   repository.NewUserRepository(db),
		follows: repository.NewFollowRepository(db),
		likes:   repository.NewLikeRepository(db),
		blogs:   repository.NewBlogRepository(db),
	}
	f.identity = NewIdentityService(f.users, f.follows, NewUsernameAllocator("zingg"), bcrypt.MinCost)
	f.relations = NewRelationshipService(f.users, f.follows, f.likes, f.blogs)
	f.mentions = NewMentionService(f.users)
	f.comments = NewCommentService(repository.NewCommentRepository(db), f.blogs)
	return f
}
