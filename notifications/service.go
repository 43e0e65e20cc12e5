package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type NotifyRequest struct {
	RecipientID string
	ActorID     string
	Type        Type
	Message     string
	PostID      *string
	CommentID   *string
	Priority    Priority
}

// Notify inserts a notification as a best-effort side effect. Failures are
// logged and swallowed so the triggering action never rolls back on them.
// Self-notifications (recipient == actor) are skipped.
func (svc *Service) Notify(ctx context.Context, req NotifyRequest) {
	if req.RecipientID == "" || req.RecipientID == req.ActorID {
		return
	}

	if !req.Type.IsValid() {
		slog.ErrorContext(ctx, "skipping notification with invalid type", "type", req.Type)
		return
	}

	priority := req.Priority
	if !priority.IsValid() {
		priority = PriorityLow
	}

	notification := &Notification{
		ID:          uuid.NewString(),
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Message:     req.Message,
		PostID:      req.PostID,
		CommentID:   req.CommentID,
		Priority:    priority,
		CreatedAt:   time.Now(),
	}

	err := svc.repo.Insert(ctx, notification)
	if err != nil {
		slog.ErrorContext(
			ctx,
			"failed to insert notification",
			"recipientId", req.RecipientID,
			"type", req.Type,
			"error", err,
		)
	}
}

type Page struct {
	Items      []*Notification
	Total      int
	TotalPages int
}

func (svc *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	if params.Page < 1 {
		params.Page = 1
	}

	if params.Limit < 1 {
		params.Limit = 20
	}

	items, total, err := svc.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return &Page{
		Items:      items,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
	}, nil
}

func (svc *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	notification, err := svc.repo.Find(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("failed to find notification: %w", err)
	}

	if notification.RecipientID != userID {
		return NotRecipientError{NotificationID: notificationID, UserID: userID}
	}

	err = svc.repo.MarkRead(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

func (svc *Service) MarkAllRead(ctx context.Context, userID string) error {
	err := svc.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	return nil
}

func (svc *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := svc.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}
