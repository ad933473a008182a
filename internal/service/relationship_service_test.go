package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/testutil"
)

func TestToggleFollow_Involution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedUser(t, f.db, "a", "ann", "Ann")
	testutil.SeedUser(t, f.db, "b", "bob", "Bob")

	on, err := f.relations.ToggleFollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, on)

	following, err := f.relations.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, following)

	on, err = f.relations.ToggleFollow(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, on)

	following, err = f.relations.IsFollowing(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, following, "two toggles restore the initial state")
}

func TestToggleFollow_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedUser(t, f.db, "a", "ann", "Ann")

	_, err := f.relations.ToggleFollow(ctx, "", "a")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.relations.ToggleFollow(ctx, "a", "a")
	assert.ErrorIs(t, err, ErrFollowSelf)

	_, err = f.relations.ToggleFollow(ctx, "a", "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	require.NoError(t, f.db.Model(&model.Follow{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestToggleFollow_Concurrent(t *testing.T) {
	for _, n := range []int{2, 7, 16} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			testutil.SeedUser(t, f.db, "a", "ann", "Ann")
			testutil.SeedUser(t, f.db, "b", "bob", "Bob")

			results := make([]bool, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					on, err := f.relations.ToggleFollow(ctx, "a", "b")
					assert.NoError(t, err)
					results[i] = on
				}(i)
			}
			wg.Wait()

			var count int64
			require.NoError(t, f.db.Model(&model.Follow{}).Where("follower_id = ? AND following_id = ?", "a", "b").Count(&count).Error)
			assert.LessOrEqual(t, count, int64(1))

			following, err := f.relations.IsFollowing(ctx, "a", "b")
			require.NoError(t, err)
			assert.Equal(t, count == 1, following)

			var ons, offs int
			for _, on := range results {
				if on {
					ons++
				} else {
					offs++
				}
			}
			// 初始无边：第一个落库的操作一定是插入
			assert.Positive(t, ons, "some call must have created the edge")
			if !following {
				assert.Positive(t, offs, "edge is gone, so some call must have removed it")
			}
		})
	}
}

func TestToggle_SurvivesCancelledRequest(t *testing.T) {
	f := newFixture(t)
	testutil.SeedUser(t, f.db, "a", "ann", "Ann")
	blog := testutil.SeedBlog(t, f.db, "a", "post")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	on, err := f.relations.ToggleLike(ctx, "a", blog.ID)
	require.NoError(t, err)
	assert.True(t, on)

	liked, err := f.relations.IsLiked(context.Background(), "a", blog.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestToggleLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedUser(t, f.db, "a", "ann", "Ann")
	blog := testutil.SeedBlog(t, f.db, "a", "post")

	on, err := f.relations.ToggleLike(ctx, "a", blog.ID)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = f.relations.ToggleLike(ctx, "a", blog.ID)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = f.relations.ToggleLike(ctx, "a", blog.ID+100)
	assert.ErrorIs(t, err, ErrBlogNotFound)

	_, err = f.relations.ToggleLike(ctx, "", blog.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	liked, err := f.relations.IsLiked(ctx, "", blog.ID)
	require.NoError(t, err)
	assert.False(t, liked, "anonymous viewers never like")
}

func TestListFollows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, u := range []string{"ann", "bob", "cat", "dan"} {
		testutil.SeedUser(t, f.db, u, u, u)
	}
	// bob, cat -> ann; ann -> dan; viewer cat follows bob
	for _, p := range [][2]string{{"bob", "ann"}, {"cat", "ann"}, {"ann", "dan"}, {"cat", "bob"}} {
		_, err := f.relations.ToggleFollow(ctx, p[0], p[1])
		require.NoError(t, err)
	}

	page, err := f.relations.ListFollows(ctx, "cat", "ann", DirectionFollowers, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	byID := map[string]model.FollowEntry{}
	for _, e := range page.Items {
		byID[e.ID] = e
	}
	assert.True(t, byID["bob"].Followed)
	assert.False(t, byID["cat"].Followed)

	page, err = f.relations.ListFollows(ctx, "cat", "ann", DirectionFollowing, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, defaultPageSize, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "dan", page.Items[0].Username)

	// 超大页码不溢出 offset，返回空页而不是第一页
	page, err = f.relations.ListFollows(ctx, "cat", "ann", DirectionFollowers, math.MaxInt, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)

	page, err = f.relations.ListFollows(ctx, "cat", "ann", DirectionFollowers, maxPage+1, maxPageSize)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = f.relations.ListFollows(ctx, "cat", "ghost", DirectionFollowers, 1, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.relations.ListFollows(ctx, "cat", "ann", FollowDirection("friends"), 1, 10)
	assert.ErrorIs(t, err, ErrInvalidFollowType)

	_, err = f.relations.ListFollows(ctx, "", "ann", DirectionFollowers, 1, 10)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestParseFollowDirection(t *testing.T) {
	d, err := ParseFollowDirection("followers")
	require.NoError(t, err)
	assert.Equal(t, DirectionFollowers, d)

	_, err = ParseFollowDirection("")
	assert.ErrorIs(t, err, ErrInvalidFollowType)
}
