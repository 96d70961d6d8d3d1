package service

import (
	"context"
	"strings"
	"testing"

	"pixelgram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t)

	tests := []struct {
		name    string
		input   CreatePostInput
		wantErr string
	}{
		{"empty", CreatePostInput{UserID: u.ID, Content: "  "}, models.CodeValidation},
		{"blank photos only", CreatePostInput{UserID: u.ID, Photos: []string{" ", ""}}, models.CodeValidation},
		{"too long", CreatePostInput{UserID: u.ID, Content: strings.Repeat("a", MaxPostLength+1)}, models.CodeValidation},
		{"photo only", CreatePostInput{UserID: u.ID, Photos: []string{"https://cdn.example.com/1.jpg"}}, ""},
		{"text only", CreatePostInput{UserID: u.ID, Content: "sunset"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := e.post.CreatePost(ctx, tt.input)
			if tt.wantErr != "" {
				requireCode(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, post.ID)
			assert.Equal(t, u.Username, post.User.Username)
		})
	}
}

func TestPostService_TooManyPhotos(t *testing.T) {
	e := newTestEnv(t)
	u := e.user(t)
	photos := make([]string, MaxPhotosPerPost+1)
	for i := range photos {
		photos[i] = "https://cdn.example.com/p.jpg"
	}

	_, err := e.post.CreatePost(context.Background(), CreatePostInput{UserID: u.ID, Photos: photos})
	requireCode(t, err, models.CodeValidation)
}

func TestPostService_DeletePost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner, other := e.user(t), e.user(t)
	post := e.newPost(t, owner.ID)

	requireCode(t, e.post.DeletePost(ctx, other.ID, post.ID), models.CodeUnauthorized)
	require.NoError(t, e.post.DeletePost(ctx, owner.ID, post.ID))

	_, err := e.post.GetPost(ctx, post.ID, owner.ID)
	requireCode(t, err, models.CodeNotFound)
	requireCode(t, e.post.DeletePost(ctx, owner.ID, post.ID), models.CodeNotFound)
}

func TestPostService_ListUserPostsAndComments(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner, reader := e.user(t), e.user(t)
	first := e.newPost(t, owner.ID)
	second := e.newPost(t, owner.ID)

	user, posts, err := e.post.ListUserPosts(ctx, owner.Username, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	_, _, err = e.post.ListUserPosts(ctx, "nobody_at_all", 10, 0)
	requireCode(t, err, models.CodeNotFound)

	_, err = e.social.AddComment(ctx, reader.ID, first.ID, "one")
	require.NoError(t, err)
	_, err = e.social.AddComment(ctx, owner.ID, first.ID, "two")
	require.NoError(t, err)

	comments, err := e.post.ListComments(ctx, first.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "one", comments[0].Content)
	assert.Equal(t, "two", comments[1].Content)

	_, err = e.post.ListComments(ctx, 9999, 0, 0)
	requireCode(t, err, models.CodeNotFound)
}

func TestPostService_UpdatePost(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	author, other := e.user(t), e.user(t)
	post, err := e.post.CreatePost(ctx, CreatePostInput{
		UserID:  author.ID,
		Content: "first draft",
		Photos:  []string{"https://cdn.example.com/pier.jpg"},
	})
	require.NoError(t, err)

	_, err = e.post.UpdatePost(ctx, other.ID, post.ID, "hijacked")
	requireCode(t, err, models.CodeUnauthorized)
	_, err = e.post.UpdatePost(ctx, author.ID, post.ID, "   ")
	requireCode(t, err, models.CodeValidation)
	_, err = e.post.UpdatePost(ctx, author.ID, post.ID, strings.Repeat("b", MaxPostLength+1))
	requireCode(t, err, models.CodeValidation)
	_, err = e.post.UpdatePost(ctx, author.ID, 9999, "anything")
	requireCode(t, err, models.CodeNotFound)

	updated, err := e.post.UpdatePost(ctx, author.ID, post.ID, "  pier at dawn  ")
	require.NoError(t, err)
	assert.Equal(t, "pier at dawn", updated.Content)
	assert.Equal(t, []string{"https://cdn.example.com/pier.jpg"}, updated.Photos)

	got, err := e.post.GetPost(ctx, post.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "pier at dawn", got.Content)

	require.NoError(t, e.post.DeletePost(ctx, author.ID, post.ID))
	_, err = e.post.UpdatePost(ctx, author.ID, post.ID, "ghost edit")
	requireCode(t, err, models.CodeNotFound)
}

func TestPostService_ExplorePosts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	viewer, author := e.user(t), e.user(t)

	empty, err := e.post.ExplorePosts(ctx, viewer.ID, 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	want := map[uint]bool{}
	for i := 0; i < 6; i++ {
		want[e.newPost(t, author.ID).ID] = true
	}
	liked := e.newPost(t, author.ID)
	want[liked.ID] = true
	_, err = e.social.Like(ctx, viewer.ID, models.PostTarget(liked.ID))
	require.NoError(t, err)

	sample, err := e.post.ExplorePosts(ctx, viewer.ID, 4)
	require.NoError(t, err)
	assert.Len(t, sample, 4)

	all, err := e.post.ExplorePosts(ctx, viewer.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 7)
	seen := map[uint]bool{}
	for _, p := range all {
		assert.True(t, want[p.ID])
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
		assert.Equal(t, p.ID == liked.ID, p.Liked)
		assert.Equal(t, author.Username, p.User.Username)
	}
}
