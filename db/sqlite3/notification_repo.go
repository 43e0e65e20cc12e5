package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/havenforum/haven/notifications"
)

const tableNotifications = "notifications"

type NotificationRepository struct {
	db *sql.DB
}

var _ notifications.Repository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const (
	notificationFieldID          = "id"
	notificationFieldRecipientID = "recipient_id"
	notificationFieldType        = "type"
	notificationFieldMessage     = "message"
	notificationFieldPostID      = "post_id"
	notificationFieldCommentID   = "comment_id"
	notificationFieldIsRead      = "is_read"
	notificationFieldPriority    = "priority"
	notificationFieldCreatedAt   = "created_at"
)

func notificationColumns() []string {
	return []string{
		notificationFieldID,
		notificationFieldRecipientID,
		notificationFieldType,
		notificationFieldMessage,
		notificationFieldPostID,
		notificationFieldCommentID,
		notificationFieldIsRead,
		notificationFieldPriority,
		notificationFieldCreatedAt,
	}
}

func scanNotification(row sq.RowScanner) (*notifications.Notification, error) {
	var notification notifications.Notification

	err := row.Scan(
		&notification.ID,
		&notification.RecipientID,
		&notification.Type,
		&notification.Message,
		&notification.PostID,
		&notification.CommentID,
		&notification.IsRead,
		&notification.Priority,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &notification, nil
}

func (repo *NotificationRepository) Insert(ctx context.Context, notification *notifications.Notification) error {
	q := sq.Insert(tableNotifications).
		Columns(notificationColumns()...).
		Values(
			notification.ID,
			notification.RecipientID,
			notification.Type,
			notification.Message,
			notification.PostID,
			notification.CommentID,
			notification.IsRead,
			notification.Priority,
			notification.CreatedAt,
		).
		RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *NotificationRepository) Find(ctx context.Context, id string) (*notifications.Notification, error) {
	q := sq.Select(notificationColumns()...).
		From(tableNotifications).
		Where(sq.Eq{notificationFieldID: id}).
		RunWith(repo.db)

	notification, err := scanNotification(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notifications.NotificationNotFoundError{ID: id}
		}

		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	return notification, nil
}

func (repo *NotificationRepository) List(
	ctx context.Context,
	params notifications.ListParams,
) ([]*notifications.Notification, int, error) {
	where := sq.Eq{notificationFieldRecipientID: params.RecipientID}
	if params.UnreadOnly {
		where[notificationFieldIsRead] = false
	}

	var total int

	err := sq.Select("COUNT(*)").
		From(tableNotifications).
		Where(where).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	q := sq.Select(notificationColumns()...).
		From(tableNotifications).
		Where(where).
		OrderBy(notificationFieldCreatedAt + " DESC").
		Limit(uint64(params.Limit)).
		Offset(uint64((params.Page - 1) * params.Limit)).
		RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	items := make([]*notifications.Notification, 0)

	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}

		items = append(items, notification)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return items, total, nil
}

func (repo *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	q := sq.Update(tableNotifications).
		Set(notificationFieldIsRead, true).
		Where(sq.Eq{notificationFieldID: id}).
		RunWith(repo.db)

	res, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return notifications.NotificationNotFoundError{ID: id}
	}

	return nil
}

func (repo *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	q := sq.Update(tableNotifications).
		Set(notificationFieldIsRead, true).
		Where(sq.Eq{
			notificationFieldRecipientID: recipientID,
			notificationFieldIsRead:      false,
		}).
		RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	return nil
}

func (repo *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int

	err := sq.Select("COUNT(*)").
		From(tableNotifications).
		Where(sq.Eq{
			notificationFieldRecipientID: recipientID,
			notificationFieldIsRead:      false,
		}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}
