package discuss_test

import (
	"context"
	"testing"

	"github.com/havenforum/haven/discuss"
	"github.com/havenforum/haven/forum"
	"github.com/havenforum/haven/notifications"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommentRepo struct {
	comments map[string]*discuss.Comment
}

var _ discuss.CommentRepository = (*fakeCommentRepo)(nil)

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]*discuss.Comment)}
}

func (repo *fakeCommentRepo) Insert(_ context.Context, comment *discuss.Comment) error {
	clone := *comment
	repo.comments[comment.ID] = &clone

	return nil
}

func (repo *fakeCommentRepo) Find(_ context.Context, commentID string) (*discuss.Comment, error) {
	comment, ok := repo.comments[commentID]
	if !ok {
		return nil, discuss.CommentNotFoundError{ID: commentID}
	}

	clone := *comment

	return &clone, nil
}

func (repo *fakeCommentRepo) Update(_ context.Context, commentID string, patch discuss.CommentPatch) error {
	comment, ok := repo.comments[commentID]
	if !ok {
		return discuss.CommentNotFoundError{ID: commentID}
	}

	if patch.Content != nil {
		comment.Content = *patch.Content
	}

	if patch.Status != nil {
		comment.Status = *patch.Status
	}

	return nil
}

func (repo *fakeCommentRepo) SoftDelete(_ context.Context, commentID string) error {
	comment, ok := repo.comments[commentID]
	if !ok {
		return discuss.CommentNotFoundError{ID: commentID}
	}

	comment.Status = discuss.CommentStatusDeleted

	return nil
}

func (repo *fakeCommentRepo) ListThread(_ context.Context, params discuss.ListThreadParams) ([]*discuss.Comment, int, error) {
	flat := make([]*discuss.Comment, 0, len(repo.comments))

	for _, comment := range repo.comments {
		if comment.PostID == params.PostID && comment.Status == discuss.CommentStatusActive {
			clone := *comment
			flat = append(flat, &clone)
		}
	}

	return flat, len(flat), nil
}

type fakePosts struct {
	posts           map[string]*forum.Post
	expertResponded []string
}

func newFakePosts(posts ...*forum.Post) *fakePosts {
	byID := make(map[string]*forum.Post, len(posts))

	for _, post := range posts {
		byID[post.ID] = post
	}

	return &fakePosts{posts: byID}
}

func (f *fakePosts) GetPost(_ context.Context, postID string) (*forum.Post, error) {
	post, ok := f.posts[postID]
	if !ok {
		return nil, forum.PostNotFoundError{ID: postID}
	}

	return post, nil
}

func (f *fakePosts) MarkExpertResponded(_ context.Context, postID string) error {
	f.expertResponded = append(f.expertResponded, postID)

	return nil
}

type fakeNotifier struct {
	requests []notifications.NotifyRequest
}

func (f *fakeNotifier) Notify(_ context.Context, req notifications.NotifyRequest) {
	f.requests = append(f.requests, req)
}

func TestCreateComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("notifies the post author", func(t *testing.T) {
		t.Parallel()

		repo := newFakeCommentRepo()
		notifier := &fakeNotifier{}
		svc := discuss.NewService(repo, newFakePosts(&forum.Post{ID: "post-1", AuthorID: "op"}), notifier)

		comment, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "commenter",
			Content:  "hang in there",
		})
		require.NoError(t, err)
		assert.Nil(t, comment.ParentID)

		require.Len(t, notifier.requests, 1)
		assert.Equal(t, "op", notifier.requests[0].RecipientID)
		assert.Equal(t, notifications.TypeComment, notifier.requests[0].Type)
	})

	t.Run("replies notify the parent author as well", func(t *testing.T) {
		t.Parallel()

		repo := newFakeCommentRepo()
		notifier := &fakeNotifier{}
		svc := discuss.NewService(repo, newFakePosts(&forum.Post{ID: "post-1", AuthorID: "op"}), notifier)

		parent, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "commenter",
			Content:  "hang in there",
		})
		require.NoError(t, err)

		notifier.requests = nil

		reply, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "replier",
			ParentID: parent.ID,
			Content:  "agreed",
		})
		require.NoError(t, err)
		require.NotNil(t, reply.ParentID)
		assert.Equal(t, parent.ID, *reply.ParentID)

		require.Len(t, notifier.requests, 2)
		assert.Equal(t, "op", notifier.requests[0].RecipientID)
		assert.Equal(t, "commenter", notifier.requests[1].RecipientID)
	})

	t.Run("expert responses mark the post and escalate the notification", func(t *testing.T) {
		t.Parallel()

		repo := newFakeCommentRepo()
		notifier := &fakeNotifier{}
		posts := newFakePosts(&forum.Post{ID: "post-1", AuthorID: "op"})
		svc := discuss.NewService(repo, posts, notifier)

		_, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:         "post-1",
			AuthorID:       "expert",
			Content:        "professional advice",
			ExpertResponse: true,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"post-1"}, posts.expertResponded)
		require.Len(t, notifier.requests, 1)
		assert.Equal(t, notifications.TypeExpertResponse, notifier.requests[0].Type)
		assert.Equal(t, notifications.PriorityHigh, notifier.requests[0].Priority)
	})

	t.Run("rejects a parent from another post", func(t *testing.T) {
		t.Parallel()

		repo := newFakeCommentRepo()
		svc := discuss.NewService(
			repo,
			newFakePosts(
				&forum.Post{ID: "post-1", AuthorID: "op"},
				&forum.Post{ID: "post-2", AuthorID: "op"},
			),
			&fakeNotifier{},
		)

		parent, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "commenter",
			Content:  "hello",
		})
		require.NoError(t, err)

		_, err = svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-2",
			AuthorID: "replier",
			ParentID: parent.ID,
			Content:  "cross-post reply",
		})

		var mismatchErr discuss.ParentMismatchError
		require.ErrorAs(t, err, &mismatchErr)
	})

	t.Run("rejects empty content before touching storage", func(t *testing.T) {
		t.Parallel()

		svc := discuss.NewService(newFakeCommentRepo(), newFakePosts(), &fakeNotifier{})

		_, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{PostID: "post-1", AuthorID: "x"})
		require.ErrorIs(t, err, discuss.ErrEmptyContent)
	})
}

func TestUpdateAndDeleteComment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("only the author may edit or delete", func(t *testing.T) {
		t.Parallel()

		repo := newFakeCommentRepo()
		svc := discuss.NewService(repo, newFakePosts(&forum.Post{ID: "post-1", AuthorID: "op"}), &fakeNotifier{})

		comment, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "commenter",
			Content:  "original",
		})
		require.NoError(t, err)

		_, err = svc.UpdateComment(ctx, "someone-else", comment.ID, "hijacked")

		var notAuthorErr discuss.NotCommentAuthorError
		require.ErrorAs(t, err, &notAuthorErr)

		err = svc.DeleteComment(ctx, "someone-else", comment.ID)
		require.ErrorAs(t, err, &notAuthorErr)
	})

	t.Run("deleted comments read as not found", func(t *testing.T) {
		t.Parallel()

		repo := newFakeCommentRepo()
		svc := discuss.NewService(repo, newFakePosts(&forum.Post{ID: "post-1", AuthorID: "op"}), &fakeNotifier{})

		comment, err := svc.CreateComment(ctx, discuss.CreateCommentRequest{
			PostID:   "post-1",
			AuthorID: "commenter",
			Content:  "going away",
		})
		require.NoError(t, err)

		err = svc.DeleteComment(ctx, "commenter", comment.ID)
		require.NoError(t, err)

		_, err = svc.GetComment(ctx, comment.ID)

		var notFoundErr discuss.CommentNotFoundError
		require.ErrorAs(t, err, &notFoundErr)
	})
}
