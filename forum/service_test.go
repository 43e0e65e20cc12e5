package forum_test

import (
	"context"
	"testing"
	"time"

	"github.com/havenforum/haven/cache"
	"github.com/havenforum/haven/forum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostRepo struct {
	posts     map[string]*forum.Post
	feedCalls int
}

var _ forum.PostRepository = (*fakePostRepo)(nil)

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*forum.Post)}
}

func (repo *fakePostRepo) Insert(_ context.Context, post *forum.Post) error {
	clone := *post
	repo.posts[post.ID] = &clone

	return nil
}

func (repo *fakePostRepo) Find(_ context.Context, postID string) (*forum.Post, error) {
	post, ok := repo.posts[postID]
	if !ok {
		return nil, forum.PostNotFoundError{ID: postID}
	}

	clone := *post

	return &clone, nil
}

func (repo *fakePostRepo) Update(_ context.Context, postID string, patch forum.PostPatch) error {
	post, ok := repo.posts[postID]
	if !ok {
		return forum.PostNotFoundError{ID: postID}
	}

	if patch.Content != nil {
		post.Content = *patch.Content
	}

	if patch.Anonymous != nil {
		post.Anonymous = *patch.Anonymous
	}

	if patch.SentimentScore != nil {
		post.SentimentScore = patch.SentimentScore
	}

	if patch.UrgencyLevel != nil {
		post.UrgencyLevel = *patch.UrgencyLevel
	}

	if patch.ExpertResponded != nil {
		post.ExpertResponded = *patch.ExpertResponded
	}

	if patch.Status != nil {
		post.Status = *patch.Status
	}

	return nil
}

func (repo *fakePostRepo) AddTags(_ context.Context, postID string, tags []string) error {
	post, ok := repo.posts[postID]
	if !ok {
		return forum.PostNotFoundError{ID: postID}
	}

	post.Tags = append(post.Tags, tags...)

	return nil
}

func (repo *fakePostRepo) Feed(_ context.Context, params forum.FeedParams) ([]*forum.Post, int, error) {
	repo.feedCalls++

	active := make([]*forum.Post, 0, len(repo.posts))

	for _, post := range repo.posts {
		if post.Status == forum.PostStatusActive {
			clone := *post
			active = append(active, &clone)
		}
	}

	total := len(active)

	offset := (params.Page - 1) * params.Limit
	if offset > total {
		offset = total
	}

	end := offset + params.Limit
	if end > total {
		end = total
	}

	return active[offset:end], total, nil
}

type recordingScreener struct {
	postIDs []string
}

func (s *recordingScreener) Submit(postID, _ string) {
	s.postIDs = append(s.postIDs, postID)
}

func TestCreatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("submits the new post for screening", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		screener := &recordingScreener{}
		svc := forum.NewService(repo, screener, nil)

		post, err := svc.CreatePost(ctx, forum.CreatePostRequest{
			AuthorID: "user-1",
			Content:  "having a rough week",
			Tags:     []string{"Work", "work", " stress "},
		})
		require.NoError(t, err)
		assert.Equal(t, forum.PostStatusActive, post.Status)
		assert.Equal(t, forum.UrgencyLow, post.UrgencyLevel)
		assert.Equal(t, []string{"work", "stress"}, post.Tags)
		assert.Equal(t, []string{post.ID}, screener.postIDs)
	})

	t.Run("rejects empty content", func(t *testing.T) {
		t.Parallel()

		svc := forum.NewService(newFakePostRepo(), nil, nil)

		_, err := svc.CreatePost(ctx, forum.CreatePostRequest{AuthorID: "user-1"})
		require.ErrorIs(t, err, forum.ErrEmptyContent)
	})
}

func TestUpdatePost(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("only the author may edit", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		svc := forum.NewService(repo, nil, nil)

		post, err := svc.CreatePost(ctx, forum.CreatePostRequest{AuthorID: "user-1", Content: "hello"})
		require.NoError(t, err)

		content := "edited"

		_, err = svc.UpdatePost(ctx, "user-2", post.ID, forum.UpdatePostRequest{Content: &content})

		var notAuthorErr forum.NotPostAuthorError
		require.ErrorAs(t, err, &notAuthorErr)
	})

	t.Run("deleted posts read as not found", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		svc := forum.NewService(repo, nil, nil)

		post, err := svc.CreatePost(ctx, forum.CreatePostRequest{AuthorID: "user-1", Content: "hello"})
		require.NoError(t, err)

		err = svc.DeletePost(ctx, "user-1", post.ID)
		require.NoError(t, err)

		_, err = svc.GetPost(ctx, post.ID)

		var notFoundErr forum.PostNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}

func TestFeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rounds total pages up", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		svc := forum.NewService(repo, nil, nil)

		for i := 0; i < 5; i++ {
			_, err := svc.CreatePost(ctx, forum.CreatePostRequest{AuthorID: "user-1", Content: "post"})
			require.NoError(t, err)
		}

		page, err := svc.Feed(ctx, forum.FeedParams{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Pagination.Total)
		assert.Equal(t, 3, page.Pagination.TotalPages)
		assert.Len(t, page.Posts, 2)
	})

	t.Run("serves repeat queries from the cache", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		svc := forum.NewService(repo, nil, cache.New[*forum.FeedPage](time.Minute))

		_, err := svc.CreatePost(ctx, forum.CreatePostRequest{AuthorID: "user-1", Content: "post"})
		require.NoError(t, err)

		first, err := svc.Feed(ctx, forum.FeedParams{})
		require.NoError(t, err)

		second, err := svc.Feed(ctx, forum.FeedParams{})
		require.NoError(t, err)

		assert.Equal(t, 1, repo.feedCalls)
		assert.Equal(t, first, second)
	})

	t.Run("out of range pages clamp to the first page", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		svc := forum.NewService(repo, nil, nil)

		page, err := svc.Feed(ctx, forum.FeedParams{Page: -3, Limit: 0})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Pagination.Page)
		assert.Equal(t, forum.DefaultPageLimit, page.Pagination.Limit)
		assert.Equal(t, 0, page.Pagination.TotalPages)
	})
}

func TestApplyScreening(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("records score, urgency, and suggested tags", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		svc := forum.NewService(repo, nil, nil)

		post, err := svc.CreatePost(ctx, forum.CreatePostRequest{AuthorID: "user-1", Content: "post"})
		require.NoError(t, err)

		err = svc.ApplyScreening(ctx, post.ID, -0.6, forum.UrgencyMedium, []string{"anxiety"}, false)
		require.NoError(t, err)

		found, err := svc.GetPost(ctx, post.ID)
		require.NoError(t, err)
		require.NotNil(t, found.SentimentScore)
		assert.InDelta(t, -0.6, *found.SentimentScore, 0.0001)
		assert.Equal(t, forum.UrgencyMedium, found.UrgencyLevel)
		assert.Equal(t, []string{"anxiety"}, found.Tags)
	})

	t.Run("flagged content is hidden from readers", func(t *testing.T) {
		t.Parallel()

		repo := newFakePostRepo()
		svc := forum.NewService(repo, nil, nil)

		post, err := svc.CreatePost(ctx, forum.CreatePostRequest{AuthorID: "user-1", Content: "post"})
		require.NoError(t, err)

		err = svc.ApplyScreening(ctx, post.ID, 0, forum.UrgencyLow, nil, true)
		require.NoError(t, err)

		found, err := repo.Find(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, forum.PostStatusModerated, found.Status)
	})
}
