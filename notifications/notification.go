package notifications

import (
	"context"
	"fmt"
	"time"
)

type Type string

const (
	TypeComment        Type = "comment"
	TypeUpvote         Type = "upvote"
	TypeExpertResponse Type = "expertResponse"
	TypeMention        Type = "mention"
	TypeSystem         Type = "system"
	TypeAlert          Type = "alert"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeComment, TypeUpvote, TypeExpertResponse, TypeMention, TypeSystem, TypeAlert:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

type Notification struct {
	ID          string
	RecipientID string
	Type        Type
	Message     string
	PostID      *string
	CommentID   *string
	IsRead      bool
	Priority    Priority
	CreatedAt   time.Time
}

type ListParams struct {
	RecipientID string
	UnreadOnly  bool
	Page        int
	Limit       int
}

type Repository interface {
	Insert(ctx context.Context, notification *Notification) (err error)
	Find(ctx context.Context, id string) (notification *Notification, err error)
	List(ctx context.Context, params ListParams) (items []*Notification, total int, err error)
	MarkRead(ctx context.Context, id string) (err error)
	MarkAllRead(ctx context.Context, recipientID string) (err error)
	CountUnread(ctx context.Context, recipientID string) (count int, err error)
}

type NotificationNotFoundError struct {
	ID string
}

func (err NotificationNotFoundError) Error() string {
	return fmt.Sprintf("notification with id %q not found", err.ID)
}

type NotRecipientError struct {
	NotificationID string
	UserID         string
}

func (err NotRecipientError) Error() string {
	return fmt.Sprintf("user %q is not the recipient of notification %q", err.UserID, err.NotificationID)
}
