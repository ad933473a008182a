package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/repository"
	"github.com/d60-Lab/zingg/internal/testutil"
)

func TestEdge_AddRemoveExists(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewFollowRepository(db)
	ctx := context.Background()

	added, err := repo.Add(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, added, "second insert hits the unique pair")

	ok, err := repo.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")

	removed, err := repo.Remove(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEdge_ConcurrentAddInsertsOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewLikeRepository(db)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			added, err := repo.Add(ctx, "u1", 42)
			assert.NoError(t, err)
			results[i] = added
		}(i)
	}
	wg.Wait()

	inserted := 0
	for _, r := range results {
		if r {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)

	var cnt int64
	require.NoError(t, db.Model(&model.Like{}).Where("user_id = ? AND blog_id = ?", "u1", 42).Count(&cnt).Error)
	assert.EqualValues(t, 1, cnt)
}

func TestFollow_ListsAndCounts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewFollowRepository(db)
	ctx := context.Background()

	for _, pair := range [][2]string{{"a", "c"}, {"b", "c"}, {"c", "a"}, {"c", "d"}} {
		_, err := repo.Add(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	followers, following, err := repo.Counts(ctx, "c")
	require.NoError(t, err)
	assert.EqualValues(t, 2, followers)
	assert.EqualValues(t, 2, following)

	ids, err := repo.FollowerIDs(ctx, "c")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	ids, err = repo.FollowingIDs(ctx, "c")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "d"}, ids)

	list, err := repo.ListFollowers(ctx, "c", 0, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	among, err := repo.FollowedAmong(ctx, "c", []string{"a", "b", "d"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true, "d": true}, among)

	among, err = repo.FollowedAmong(ctx, "", []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, among)
}

func TestUser_CreateDuplicateEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	email := "ann@example.com"
	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Email: &email, Provider: "google"}))

	err := repo.Create(ctx, &model.User{ID: "u2", Email: &email, Provider: "google"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.True(t, repository.IsUniqueViolation(err))

	got, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUser_ClaimUsername(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.User{ID: "u1", Provider: "google"}))
	require.NoError(t, repo.Create(ctx, &model.User{ID: "u2", Provider: "google"}))

	ok, err := repo.ClaimUsername(ctx, "u1", "annlee")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimUsername(ctx, "u2", "annlee")
	require.NoError(t, err)
	assert.False(t, ok, "taken by u1")

	_, err = repo.ClaimUsername(ctx, "ghost", "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// 事务内冲突只回滚当次尝试
	err = repo.Transaction(ctx, func(tx repository.UserRepository) error {
		taken, err := tx.ClaimUsername(ctx, "u2", "annlee")
		if err != nil || taken {
			return fmt.Errorf("expected collision, got taken=%v err=%v", taken, err)
		}
		ok, err := tx.ClaimUsername(ctx, "u2", "annlee_2")
		if err != nil || !ok {
			return fmt.Errorf("expected claim, got ok=%v err=%v", ok, err)
		}
		return nil
	})
	require.NoError(t, err)

	u2, err := repo.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "annlee_2", u2.UsernameOrEmpty())
}

func TestUser_SearchMentionable(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "1", "ann_lee", "Ann Lee")
	testutil.SeedUser(t, db, "2", "annie", "Annie Hall")
	testutil.SeedUser(t, db, "3", "bob", "Bob Annison")
	testutil.SeedUser(t, db, "4", "annxlee", "Other")
	require.NoError(t, repo.Create(ctx, &model.User{ID: "5", Name: "Ann Pending", Provider: "google"}))

	// 1 关注 2，3 关注 1：对 1 而言 2、3 有关系，4 没有
	follows := repository.NewFollowRepository(db)
	for _, p := range [][2]string{{"1", "2"}, {"3", "1"}} {
		_, err := follows.Add(ctx, p[0], p[1])
		require.NoError(t, err)
	}

	usernames := func(us []*model.User) []string {
		out := make([]string, len(us))
		for i, u := range us {
			out[i] = u.UsernameOrEmpty()
		}
		return out
	}

	tests := []struct {
		name   string
		query  string
		filter repository.MentionFilter
		limit  int
		want   []string
	}{
		{name: "case insensitive on username and name", query: "ANN", limit: 10, want: []string{"ann_lee", "annie", "annxlee", "bob"}},
		{name: "underscore is literal", query: "ann_", limit: 10, want: []string{"ann_lee"}},
		{name: "connected either direction", query: "ann", filter: repository.MentionFilter{ViewerID: "1", Scope: repository.MentionConnected}, limit: 10, want: []string{"annie", "bob"}},
		{name: "unconnected", query: "", filter: repository.MentionFilter{ViewerID: "1", Scope: repository.MentionUnconnected}, limit: 10, want: []string{"annxlee"}},
		{name: "anyone excludes viewer", query: "", filter: repository.MentionFilter{ViewerID: "1"}, limit: 10, want: []string{"annie", "annxlee", "bob"}},
		{name: "connected without viewer matches nothing", query: "", filter: repository.MentionFilter{Scope: repository.MentionConnected}, limit: 10, want: []string{}},
		{name: "limit", query: "", limit: 2, want: []string{"ann_lee", "annie"}},
		{name: "zero limit", query: "ann", limit: 0, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.SearchMentionable(ctx, tt.query, tt.filter, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, usernames(got))
		})
	}
}

func TestComment_ListByBlogNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewCommentRepository(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "u1", "ann", "Ann")
	blog := testutil.SeedBlog(t, db, "u1", "hello")

	require.NoError(t, repo.Create(ctx, &model.Comment{BlogID: blog.ID, UserID: "u1", Text: "first"}))
	require.NoError(t, repo.Create(ctx, &model.Comment{BlogID: blog.ID, UserID: "u1", Text: "second"}))

	list, err := repo.ListByBlog(ctx, blog.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Text)
	assert.Equal(t, "ann", list[0].Username)
	assert.Equal(t, "Ann", list[0].Name)

	exists, err := repository.NewBlogRepository(db).Exists(ctx, blog.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}
