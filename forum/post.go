package forum

import (
	"context"
	"fmt"
	"time"
)

type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

func (level UrgencyLevel) IsValid() bool {
	switch level {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	default:
		return false
	}
}

type PostStatus string

const (
	PostStatusActive    PostStatus = "active"
	PostStatusModerated PostStatus = "moderated"
	PostStatusDeleted   PostStatus = "deleted"
)

func (status PostStatus) IsValid() bool {
	switch status {
	case PostStatusActive, PostStatusModerated, PostStatusDeleted:
		return true
	default:
		return false
	}
}

type Post struct {
	ID              string
	AuthorID        string
	Content         string
	Anonymous       bool
	Upvotes         int
	Downvotes       int
	CommentCount    int
	SentimentScore  *float64
	UrgencyLevel    UrgencyLevel
	ExpertResponded bool
	Status          PostStatus
	Tags            []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PostPatch describes a partial update. Only non-nil fields are written;
// the repository maps them to parameterized SET clauses.
type PostPatch struct {
	Content         *string
	Anonymous       *bool
	SentimentScore  *float64
	UrgencyLevel    *UrgencyLevel
	ExpertResponded *bool
	Status          *PostStatus
}

func (patch PostPatch) IsEmpty() bool {
	return patch.Content == nil &&
		patch.Anonymous == nil &&
		patch.SentimentScore == nil &&
		patch.UrgencyLevel == nil &&
		patch.ExpertResponded == nil &&
		patch.Status == nil
}

type PostRepository interface {
	Insert(ctx context.Context, post *Post) (err error)
	Find(ctx context.Context, postID string) (post *Post, err error)
	Update(ctx context.Context, postID string, patch PostPatch) (err error)
	AddTags(ctx context.Context, postID string, tags []string) (err error)
	Feed(ctx context.Context, params FeedParams) (posts []*Post, total int, err error)
}

type PostNotFoundError struct {
	ID string
}

func (err PostNotFoundError) Error() string {
	return fmt.Sprintf("post with id %q not found", err.ID)
}

type NotPostAuthorError struct {
	PostID string
	UserID string
}

func (err NotPostAuthorError) Error() string {
	return fmt.Sprintf("user %q is not the author of post %q", err.UserID, err.PostID)
}
