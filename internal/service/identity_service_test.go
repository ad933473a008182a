package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/zingg/internal/model"
	"github.com/d60-Lab/zingg/internal/testutil"
	appErrors "github.com/d60-Lab/zingg/pkg/errors"
)

func TestSignUp_AllocatesFromDisplayName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.identity.SignUp(ctx, SignUpInput{Name: "Ann Lee", Email: "Ann@Example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "annlee", first.Username)
	assert.Equal(t, "ann@example.com", first.Email)

	second, err := f.identity.SignUp(ctx, SignUpInput{Name: "Ann Lee", Email: "ann2@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Regexp(t, `^annlee_[0-9a-z]{5}$`, second.Username)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSignUp_ExplicitUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.identity.SignUp(ctx, SignUpInput{Name: "Ann", Username: "Ann_Writes", Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ann_writes", id.Username)

	_, err = f.identity.SignUp(ctx, SignUpInput{Name: "Other", Username: "ann_writes", Email: "other@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// 失败的注册整体回滚
	u, err := f.users.GetByEmail(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSignUp_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.identity.SignUp(ctx, SignUpInput{Name: "Ann", Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"missing password", SignUpInput{Name: "A", Email: "a@example.com"}, ErrMissingFields},
		{"blank name", SignUpInput{Name: "  ", Email: "a@example.com", Password: "pw"}, ErrMissingFields},
		{"bad email", SignUpInput{Name: "A", Email: "not-an-email", Password: "pw"}, ErrInvalidEmail},
		{"bad username", SignUpInput{Name: "A", Username: "a b", Email: "a@example.com", Password: "pw"}, ErrInvalidUsername},
		{"short username", SignUpInput{Name: "A", Username: "ab", Email: "a@example.com", Password: "pw"}, ErrInvalidUsername},
		{"duplicate email", SignUpInput{Name: "A", Email: " ANN@example.com ", Password: "pw"}, ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.identity.SignUp(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResolve_Credentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.identity.SignUp(ctx, SignUpInput{Name: "Ann Lee", Email: "ann@example.com", Password: "correct horse"})
	require.NoError(t, err)

	got, err := f.identity.Resolve(ctx, CredentialEvent{Username: "annlee", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, created, got)

	for name, ev := range map[string]CredentialEvent{
		"wrong password": {Username: "annlee", Password: "nope"},
		"unknown user":   {Username: "ghost", Password: "correct horse"},
		"empty":          {},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.identity.Resolve(ctx, ev)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, appErrors.CodeUnauthorized, appErrors.CodeOf(err))
		})
	}
}

func TestResolve_CredentialsOnProviderAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.identity.Resolve(ctx, ProviderEvent{ProviderName: "google", Email: "g@example.com", DisplayName: "Gee"})
	require.NoError(t, err)

	_, err = f.identity.Resolve(ctx, CredentialEvent{Username: id.Username, Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolve_ProviderCreatesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := ProviderEvent{ProviderName: "google", Email: "ann@example.com", DisplayName: "Ann Lee", ImageURL: "https://img/ann.png"}

	first, err := f.identity.Resolve(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, "annlee", first.Username)
	assert.Equal(t, "https://img/ann.png", first.Image)

	second, err := f.identity.Resolve(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolve_ProviderBlankNameFallsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.identity.Resolve(ctx, ProviderEvent{ProviderName: "linkedin", Email: "someone@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "user", id.Username)

	next, err := f.identity.Resolve(ctx, ProviderEvent{ProviderName: "linkedin", Email: "other@example.com"})
	require.NoError(t, err)
	assert.Regexp(t, `^user_[0-9a-z]{5}$`, next.Username)
}

func TestResolve_ProviderRelinksExistingEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.identity.SignUp(ctx, SignUpInput{Name: "Ann Lee", Email: "ann@example.com", Password: "pw"})
	require.NoError(t, err)

	linked, err := f.identity.Resolve(ctx, ProviderEvent{ProviderName: "Google", Email: "ANN@example.com", DisplayName: "Someone Else"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, linked.ID)
	assert.Equal(t, "annlee", linked.Username)

	u, err := f.users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "google", u.Provider)
	assert.NotNil(t, u.PasswordHash, "password survives linking")

	_, err = f.identity.Resolve(ctx, ProviderEvent{ProviderName: "linkedin", Email: "ann@example.com"})
	require.NoError(t, err)
	u, err = f.users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "linkedin", u.Provider, "last provider wins")

	again, err := f.identity.Resolve(ctx, CredentialEvent{Username: "annlee", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

func TestResolve_ProviderWithoutEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.identity.Resolve(ctx, ProviderEvent{ProviderName: "google", Email: "  ", DisplayName: "Ann"})
	assert.ErrorIs(t, err, ErrEmailRequired)

	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestResolve_ConcurrentSameNameDistinctUsernames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	got := make([]model.AuthenticatedIdentity, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := f.identity.Resolve(ctx, ProviderEvent{
				ProviderName: "google",
				Email:        fmt.Sprintf("john%d@example.com", i),
				DisplayName:  "John Doe",
			})
			assert.NoError(t, err)
			got[i] = id
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range got {
		require.NotEmpty(t, id.Username)
		assert.False(t, seen[id.Username], "duplicate username %q", id.Username)
		seen[id.Username] = true
	}
	assert.True(t, seen["johndoe"])
}

func TestResolve_ConcurrentSameEmailConverges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 6
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := f.identity.Resolve(ctx, ProviderEvent{ProviderName: "google", Email: "race@example.com", DisplayName: "Race"})
			assert.NoError(t, err)
			ids[i] = id.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	var count int64
	require.NoError(t, f.db.Model(&model.User{}).Where("email = ?", "race@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := testutil.SeedUser(t, f.db, "ann", "ann", "Ann")
	testutil.SeedUser(t, f.db, "bob", "bob", "Bob")
	testutil.SeedUser(t, f.db, "cat", "cat", "Cat")

	_, err := f.relations.ToggleFollow(ctx, "bob", "ann")
	require.NoError(t, err)
	_, err = f.relations.ToggleFollow(ctx, "ann", "cat")
	require.NoError(t, err)

	p, err := f.identity.Profile(ctx, "bob", "ann")
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.FollowersCount)
	assert.EqualValues(t, 1, p.FollowingCount)
	assert.True(t, p.Followed)
	assert.Empty(t, p.Email, "email is private")

	p, err = f.identity.Profile(ctx, "ann", "ANN")
	require.NoError(t, err)
	assert.Equal(t, ann.EmailOrEmpty(), p.Email)
	assert.False(t, p.Followed)

	p, err = f.identity.Profile(ctx, "cat", "ann")
	require.NoError(t, err)
	assert.False(t, p.Followed)

	_, err = f.identity.Profile(ctx, "bob", "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.identity.Profile(ctx, "bob", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedUser(t, f.db, "ann", "ann", "Ann")

	name := "  Ann Lee "
	id, err := f.identity.UpdateProfile(ctx, "ann", ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", id.Name)

	image := "https://cdn.example.com/ann.png"
	id, err = f.identity.UpdateProfile(ctx, "ann", ProfileUpdate{Image: &image})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", id.Name)
	assert.Equal(t, image, id.Image)

	bad := "not a url"
	_, err = f.identity.UpdateProfile(ctx, "ann", ProfileUpdate{Image: &bad})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = f.identity.UpdateProfile(ctx, "ghost", ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.identity.UpdateProfile(ctx, "", ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
