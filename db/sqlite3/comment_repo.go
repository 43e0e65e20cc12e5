package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/havenforum/haven/discuss"
)

const tableComments = "comments"

type CommentRepository struct {
	db *sql.DB
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const (
	commentFieldID             = "id"
	commentFieldPostID         = "post_id"
	commentFieldAuthorID       = "author_id"
	commentFieldParentID       = "parent_id"
	commentFieldContent        = "content"
	commentFieldAnonymous      = "anonymous"
	commentFieldExpertResponse = "expert_response"
	commentFieldUpvotes        = "upvotes"
	commentFieldDownvotes      = "downvotes"
	commentFieldStatus         = "status"
	commentFieldCreatedAt      = "created_at"
	commentFieldUpdatedAt      = "updated_at"
)

func commentColumns() []string {
	return []string{
		commentFieldID,
		commentFieldPostID,
		commentFieldAuthorID,
		commentFieldParentID,
		commentFieldContent,
		commentFieldAnonymous,
		commentFieldExpertResponse,
		commentFieldUpvotes,
		commentFieldDownvotes,
		commentFieldStatus,
		commentFieldCreatedAt,
		commentFieldUpdatedAt,
	}
}

func scanComment(row sq.RowScanner) (*discuss.Comment, error) {
	var comment discuss.Comment

	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.ParentID,
		&comment.Content,
		&comment.Anonymous,
		&comment.ExpertResponse,
		&comment.Upvotes,
		&comment.Downvotes,
		&comment.Status,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &comment, nil
}

// Insert stores the comment and bumps the post's active comment count in
// the same transaction so the pair never diverges.
func (repo *CommentRepository) Insert(ctx context.Context, comment *discuss.Comment) error {
	return runInTx(ctx, repo.db, func(tx *sql.Tx) error {
		_, err := sq.Insert(tableComments).
			Columns(commentColumns()...).
			Values(
				comment.ID,
				comment.PostID,
				comment.AuthorID,
				comment.ParentID,
				comment.Content,
				comment.Anonymous,
				comment.ExpertResponse,
				comment.Upvotes,
				comment.Downvotes,
				comment.Status,
				comment.CreatedAt,
				comment.UpdatedAt,
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec insert: %w", err)
		}

		err = bumpCounter(ctx, tx, tablePosts, comment.PostID, postFieldCommentCount, +1)
		if err != nil {
			return fmt.Errorf("failed to increment comment count: %w", err)
		}

		return nil
	})
}

func (repo *CommentRepository) Find(ctx context.Context, commentID string) (*discuss.Comment, error) {
	q := sq.Select(commentColumns()...).
		From(tableComments).
		Where(sq.Eq{commentFieldID: commentID}).
		RunWith(repo.db)

	comment, err := scanComment(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, discuss.CommentNotFoundError{ID: commentID}
		}

		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	return comment, nil
}

func (repo *CommentRepository) Update(ctx context.Context, commentID string, patch discuss.CommentPatch) error {
	q := sq.Update(tableComments).
		Set(commentFieldUpdatedAt, time.Now())

	if patch.Content != nil {
		q = q.Set(commentFieldContent, *patch.Content)
	}

	if patch.Status != nil {
		q = q.Set(commentFieldStatus, *patch.Status)
	}

	res, err := q.Where(sq.Eq{commentFieldID: commentID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec update: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return discuss.CommentNotFoundError{ID: commentID}
	}

	return nil
}

// SoftDelete marks the comment deleted and decrements the post's comment
// count in the same transaction. Deleting an already deleted comment is a
// no-op for the counter.
func (repo *CommentRepository) SoftDelete(ctx context.Context, commentID string) error {
	return runInTx(ctx, repo.db, func(tx *sql.Tx) error {
		var (
			postID string
			status discuss.CommentStatus
		)

		err := sq.Select(commentFieldPostID, commentFieldStatus).
			From(tableComments).
			Where(sq.Eq{commentFieldID: commentID}).
			RunWith(tx).
			QueryRowContext(ctx).
			Scan(&postID, &status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return discuss.CommentNotFoundError{ID: commentID}
			}

			return fmt.Errorf("failed to read comment: %w", err)
		}

		if status == discuss.CommentStatusDeleted {
			return nil
		}

		_, err = sq.Update(tableComments).
			Set(commentFieldStatus, discuss.CommentStatusDeleted).
			Set(commentFieldUpdatedAt, time.Now()).
			Where(sq.Eq{commentFieldID: commentID}).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark comment deleted: %w", err)
		}

		err = bumpCounter(ctx, tx, tablePosts, postID, postFieldCommentCount, -1)
		if err != nil {
			return fmt.Errorf("failed to decrement comment count: %w", err)
		}

		return nil
	})
}

// ListThread pages a post's active comments ordered with top-level comments
// first, then by creation time ascending. The tree assembler relies on this
// ordering.
func (repo *CommentRepository) ListThread(
	ctx context.Context,
	params discuss.ListThreadParams,
) ([]*discuss.Comment, int, error) {
	where := sq.Eq{
		commentFieldPostID: params.PostID,
		commentFieldStatus: discuss.CommentStatusActive,
	}

	var total int

	err := sq.Select("COUNT(*)").
		From(tableComments).
		Where(where).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	query := sq.Select(commentColumns()...).
		From(tableComments).
		Where(where).
		OrderBy("("+commentFieldParentID+" IS NOT NULL)", commentFieldCreatedAt+" ASC").
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset)).
		RunWith(repo.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	comments := make([]*discuss.Comment, 0)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan comment failed: %w", err)
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("rows iteration failed: %w", err)
	}

	return comments, total, nil
}
