package discuss

import (
	"context"
	"fmt"
	"time"
)

type CommentStatus string

const (
	CommentStatusActive    CommentStatus = "active"
	CommentStatusModerated CommentStatus = "moderated"
	CommentStatusDeleted   CommentStatus = "deleted"
)

type Comment struct {
	ID             string
	PostID         string
	AuthorID       string
	ParentID       *string
	Content        string
	Anonymous      bool
	ExpertResponse bool
	Upvotes        int
	Downvotes      int
	Status         CommentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CommentPatch describes a partial update; nil fields are left untouched.
type CommentPatch struct {
	Content *string
	Status  *CommentStatus
}

type ListThreadParams struct {
	PostID string
	Offset int
	Limit  int
}

type CommentRepository interface {
	// Insert stores the comment and increments the post's comment count in
	// the same transaction.
	Insert(ctx context.Context, comment *Comment) (err error)
	Find(ctx context.Context, commentID string) (comment *Comment, err error)
	Update(ctx context.Context, commentID string, patch CommentPatch) (err error)
	// SoftDelete marks the comment deleted and decrements the post's
	// comment count in the same transaction.
	SoftDelete(ctx context.Context, commentID string) (err error)
	// ListThread returns a page of a post's active comments ordered with
	// top-level comments first, then by creation time ascending, plus the
	// total count of active comments on the post.
	ListThread(ctx context.Context, params ListThreadParams) (comments []*Comment, total int, err error)
}

type CommentNotFoundError struct {
	ID string
}

func (err CommentNotFoundError) Error() string {
	return fmt.Sprintf("comment with id %q not found", err.ID)
}

type NotCommentAuthorError struct {
	CommentID string
	UserID    string
}

func (err NotCommentAuthorError) Error() string {
	return fmt.Sprintf("user %q is not the author of comment %q", err.UserID, err.CommentID)
}

type ParentMismatchError struct {
	ParentID string
	PostID   string
}

func (err ParentMismatchError) Error() string {
	return fmt.Sprintf("parent comment %q does not belong to post %q", err.ParentID, err.PostID)
}
