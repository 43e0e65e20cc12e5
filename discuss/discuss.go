package discuss

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/havenforum/haven/forum"
	"github.com/havenforum/haven/notifications"
)

// Posts is the slice of the forum service this package depends on.
type Posts interface {
	GetPost(ctx context.Context, postID string) (*forum.Post, error)
	MarkExpertResponded(ctx context.Context, postID string) error
}

// Notifier emits best-effort notifications; it never returns an error.
type Notifier interface {
	Notify(ctx context.Context, req notifications.NotifyRequest)
}

type Service struct {
	commentRepo CommentRepository
	posts       Posts
	notifier    Notifier
}

func NewService(commentRepo CommentRepository, posts Posts, notifier Notifier) *Service {
	return &Service{
		commentRepo: commentRepo,
		posts:       posts,
		notifier:    notifier,
	}
}

type CreateCommentRequest struct {
	PostID         string
	AuthorID       string
	ParentID       string
	Content        string
	Anonymous      bool
	ExpertResponse bool
}

var ErrEmptyContent = fmt.Errorf("content must not be empty")

func (svc *Service) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent
	}

	post, err := svc.posts.GetPost(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	var parent *Comment

	if req.ParentID != "" {
		parent, err = svc.commentRepo.Find(ctx, req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		}

		if parent.PostID != req.PostID {
			return nil, ParentMismatchError{ParentID: req.ParentID, PostID: req.PostID}
		}
	}

	timeNow := time.Now()

	comment := &Comment{
		ID:             uuid.NewString(),
		PostID:         req.PostID,
		AuthorID:       req.AuthorID,
		Content:        req.Content,
		Anonymous:      req.Anonymous,
		ExpertResponse: req.ExpertResponse,
		Status:         CommentStatusActive,
		CreatedAt:      timeNow,
		UpdatedAt:      timeNow,
	}

	if parent != nil {
		comment.ParentID = &parent.ID
	}

	err = svc.commentRepo.Insert(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	svc.emitCommentNotifications(ctx, post, parent, comment)

	if comment.ExpertResponse && !post.ExpertResponded {
		err = svc.posts.MarkExpertResponded(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to mark post expert responded: %w", err)
		}
	}

	return comment, nil
}

func (svc *Service) emitCommentNotifications(ctx context.Context, post *forum.Post, parent, comment *Comment) {
	notificationType := notifications.TypeComment
	priority := notifications.PriorityLow
	message := "Someone commented on your post"

	if comment.ExpertResponse {
		notificationType = notifications.TypeExpertResponse
		priority = notifications.PriorityHigh
		message = "An expert responded to your post"
	}

	svc.notifier.Notify(ctx, notifications.NotifyRequest{
		RecipientID: post.AuthorID,
		ActorID:     comment.AuthorID,
		Type:        notificationType,
		Message:     message,
		PostID:      &post.ID,
		CommentID:   &comment.ID,
		Priority:    priority,
	})

	if parent != nil && parent.AuthorID != post.AuthorID {
		svc.notifier.Notify(ctx, notifications.NotifyRequest{
			RecipientID: parent.AuthorID,
			ActorID:     comment.AuthorID,
			Type:        notifications.TypeComment,
			Message:     "Someone replied to your comment",
			PostID:      &post.ID,
			CommentID:   &comment.ID,
			Priority:    notifications.PriorityLow,
		})
	}
}

func (svc *Service) GetComment(ctx context.Context, commentID string) (*Comment, error) {
	comment, err := svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.Status == CommentStatusDeleted {
		return nil, CommentNotFoundError{ID: commentID}
	}

	return comment, nil
}

func (svc *Service) UpdateComment(ctx context.Context, userID, commentID, content string) (*Comment, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	comment, err := svc.GetComment(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	if comment.AuthorID != userID {
		return nil, NotCommentAuthorError{CommentID: commentID, UserID: userID}
	}

	err = svc.commentRepo.Update(ctx, commentID, CommentPatch{Content: &content})
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	comment, err = svc.commentRepo.Find(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}

	return comment, nil
}

func (svc *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := svc.GetComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to get comment: %w", err)
	}

	if comment.AuthorID != userID {
		return NotCommentAuthorError{CommentID: commentID, UserID: userID}
	}

	err = svc.commentRepo.SoftDelete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

const (
	defaultThreadLimit = 20
	maxThreadLimit     = 100
)

type ThreadPage struct {
	Comments   []*CommentNode
	Pagination forum.Pagination
}

func (svc *Service) ListThread(ctx context.Context, postID string, page, limit int) (*ThreadPage, error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = defaultThreadLimit
	}

	if limit > maxThreadLimit {
		limit = maxThreadLimit
	}

	_, err := svc.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	flat, total, err := svc.commentRepo.ListThread(ctx, ListThreadParams{
		PostID: postID,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return &ThreadPage{
		Comments: BuildThread(flat),
		Pagination: forum.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}
