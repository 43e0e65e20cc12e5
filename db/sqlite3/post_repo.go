package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/havenforum/haven/forum"
)

const (
	tablePosts    = "posts"
	tableTags     = "tags"
	tablePostTags = "post_tags"
)

type PostRepository struct {
	db *sql.DB
}

var _ forum.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const (
	postFieldID              = "id"
	postFieldAuthorID        = "author_id"
	postFieldContent         = "content"
	postFieldAnonymous       = "anonymous"
	postFieldUpvotes         = "upvotes"
	postFieldDownvotes       = "downvotes"
	postFieldCommentCount    = "comment_count"
	postFieldSentimentScore  = "sentiment_score"
	postFieldUrgencyLevel    = "urgency_level"
	postFieldExpertResponded = "expert_responded"
	postFieldStatus          = "status"
	postFieldCreatedAt       = "created_at"
	postFieldUpdatedAt       = "updated_at"
)

func postColumns() []string {
	return []string{
		postFieldID,
		postFieldAuthorID,
		postFieldContent,
		postFieldAnonymous,
		postFieldUpvotes,
		postFieldDownvotes,
		postFieldCommentCount,
		postFieldSentimentScore,
		postFieldUrgencyLevel,
		postFieldExpertResponded,
		postFieldStatus,
		postFieldCreatedAt,
		postFieldUpdatedAt,
	}
}

func scanPost(row sq.RowScanner) (*forum.Post, error) {
	var post forum.Post

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Content,
		&post.Anonymous,
		&post.Upvotes,
		&post.Downvotes,
		&post.CommentCount,
		&post.SentimentScore,
		&post.UrgencyLevel,
		&post.ExpertResponded,
		&post.Status,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &post, nil
}

func (repo *PostRepository) Insert(ctx context.Context, post *forum.Post) error {
	return runInTx(ctx, repo.db, func(tx *sql.Tx) error {
		_, err := sq.Insert(tablePosts).
			Columns(postColumns()...).
			Values(
				post.ID,
				post.AuthorID,
				post.Content,
				post.Anonymous,
				post.Upvotes,
				post.Downvotes,
				post.CommentCount,
				post.SentimentScore,
				post.UrgencyLevel,
				post.ExpertResponded,
				post.Status,
				post.CreatedAt,
				post.UpdatedAt,
			).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to exec insert: %w", err)
		}

		err = linkTags(ctx, tx, post.ID, post.Tags)
		if err != nil {
			return fmt.Errorf("failed to link tags: %w", err)
		}

		return nil
	})
}

// linkTags upserts tag rows by name and links them to the post, ignoring
// links that already exist.
func linkTags(ctx context.Context, tx *sql.Tx, postID string, tags []string) error {
	for _, name := range tags {
		upsertQuery := fmt.Sprintf(`
INSERT INTO %s (id, name)
VALUES (?, ?)
ON CONFLICT(name) DO NOTHING
`, tableTags)

		_, err := tx.ExecContext(ctx, upsertQuery, uuid.NewString(), name)
		if err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}

		linkQuery := fmt.Sprintf(`
INSERT INTO %s (post_id, tag_id)
SELECT ?, id FROM %s WHERE name = ?
ON CONFLICT(post_id, tag_id) DO NOTHING
`, tablePostTags, tableTags)

		_, err = tx.ExecContext(ctx, linkQuery, postID, name)
		if err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}

	return nil
}

func (repo *PostRepository) Find(ctx context.Context, postID string) (*forum.Post, error) {
	q := sq.Select(postColumns()...).
		From(tablePosts).
		Where(sq.Eq{postFieldID: postID}).
		RunWith(repo.db)

	post, err := scanPost(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, forum.PostNotFoundError{ID: postID}
		}

		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	tagsByPost, err := repo.tagsForPosts(ctx, []string{post.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	post.Tags = tagsByPost[post.ID]

	return post, nil
}

// Update writes only the fields present in the patch. Assignments are built
// as column/placeholder pairs; values are always bound, never interpolated.
func (repo *PostRepository) Update(ctx context.Context, postID string, patch forum.PostPatch) error {
	q := sq.Update(tablePosts).
		Set(postFieldUpdatedAt, time.Now())

	if patch.Content != nil {
		q = q.Set(postFieldContent, *patch.Content)
	}

	if patch.Anonymous != nil {
		q = q.Set(postFieldAnonymous, *patch.Anonymous)
	}

	if patch.SentimentScore != nil {
		q = q.Set(postFieldSentimentScore, *patch.SentimentScore)
	}

	if patch.UrgencyLevel != nil {
		q = q.Set(postFieldUrgencyLevel, *patch.UrgencyLevel)
	}

	if patch.ExpertResponded != nil {
		q = q.Set(postFieldExpertResponded, *patch.ExpertResponded)
	}

	if patch.Status != nil {
		q = q.Set(postFieldStatus, *patch.Status)
	}

	res, err := q.Where(sq.Eq{postFieldID: postID}).
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
		return forum.PostNotFoundError{ID: postID}
	}

	return nil
}

func (repo *PostRepository) AddTags(ctx context.Context, postID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	return runInTx(ctx, repo.db, func(tx *sql.Tx) error {
		return linkTags(ctx, tx, postID, tags)
	})
}

// Feed composes the WHERE clause from present filters only, counts matches
// before paginating, fetches the page, and batch-loads tags for the page's
// post ids in a single query.
func (repo *PostRepository) Feed(ctx context.Context, params forum.FeedParams) ([]*forum.Post, int, error) {
	where := feedConditions(params)

	var total int

	countQuery := sq.Select("COUNT(*)").From(tablePosts)
	for _, cond := range where {
		countQuery = countQuery.Where(cond)
	}

	err := countQuery.RunWith(repo.db).QueryRowContext(ctx).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count feed posts: %w", err)
	}

	pageQuery := sq.Select(postColumns()...).From(tablePosts)
	for _, cond := range where {
		pageQuery = pageQuery.Where(cond)
	}

	pageQuery = pageQuery.
		OrderBy(orderClause(params)).
		Limit(uint64(params.Limit)).
		Offset(uint64((params.Page - 1) * params.Limit)).
		RunWith(repo.db)

	rows, err := pageQuery.QueryContext(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query feed page: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	posts := make([]*forum.Post, 0, params.Limit)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan post: %w", err)
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to iterate rows: %w", err)
	}

	postIDs := make([]string, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	tagsByPost, err := repo.tagsForPosts(ctx, postIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load tags: %w", err)
	}

	for _, post := range posts {
		post.Tags = tagsByPost[post.ID]
	}

	return posts, total, nil
}

func feedConditions(params forum.FeedParams) []sq.Sqlizer {
	conditions := []sq.Sqlizer{
		sq.Eq{postFieldStatus: forum.PostStatusActive},
	}

	if params.UrgencyLevel != nil {
		conditions = append(conditions, sq.Eq{postFieldUrgencyLevel: *params.UrgencyLevel})
	}

	if params.WithExpertResponse != nil {
		conditions = append(conditions, sq.Eq{postFieldExpertResponded: *params.WithExpertResponse})
	}

	if len(params.Tags) > 0 {
		// OR semantics: a post matches when it carries any requested tag.
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(params.Tags)), ",")

		args := make([]any, 0, len(params.Tags))
		for _, tag := range params.Tags {
			args = append(args, tag)
		}

		subquery := fmt.Sprintf(
			"%s IN (SELECT pt.post_id FROM %s pt JOIN %s t ON t.id = pt.tag_id WHERE t.name IN (%s))",
			postFieldID, tablePostTags, tableTags, placeholders,
		)

		conditions = append(conditions, sq.Expr(subquery, args...))
	}

	return conditions
}

// orderClause builds ORDER BY from whitelisted values only; params are
// normalized before they reach the repository, and normalized again here so
// raw input can never enter the query text.
func orderClause(params forum.FeedParams) string {
	field := forum.NormalizeSortField(string(params.SortBy))

	direction := "DESC"
	if forum.NormalizeSortOrder(string(params.SortOrder)) == forum.SortAsc {
		direction = "ASC"
	}

	return string(field) + " " + direction
}

func (repo *PostRepository) tagsForPosts(ctx context.Context, postIDs []string) (map[string][]string, error) {
	tagsByPost := make(map[string][]string, len(postIDs))

	if len(postIDs) == 0 {
		return tagsByPost, nil
	}

	q := sq.Select("pt.post_id", "t.name").
		From(tablePostTags + " pt").
		Join(tableTags + " t ON t.id = pt.tag_id").
		Where(sq.Eq{"pt.post_id": postIDs}).
		OrderBy("t.name").
		RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query post tags: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var postID, name string

		err := rows.Scan(&postID, &name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post tag row: %w", err)
		}

		tagsByPost[postID] = append(tagsByPost[postID], name)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return tagsByPost, nil
}
