package sqlite3_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/havenforum/haven/auth"
	"github.com/havenforum/haven/db/sqlite3"
	"github.com/havenforum/haven/discuss"
	"github.com/havenforum/haven/forum"
	"github.com/stretchr/testify/require"
)

// newTestDB opens a migrated private in-memory database per test.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		err := db.Close()
		require.NoError(t, err)
	})

	err = sqlite3.MigrateUp(ctx, db)
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *sql.DB, username string) *auth.User {
	t.Helper()

	user := &auth.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
		RecoveryHash: "y",
		RegisteredAt: time.Now(),
	}

	err := sqlite3.NewUserRepository(db).Insert(context.Background(), user)
	require.NoError(t, err)

	return user
}

func seedPost(t *testing.T, db *sql.DB, authorID string, mutate ...func(*forum.Post)) *forum.Post {
	t.Helper()

	timeNow := time.Now()

	post := &forum.Post{
		ID:           uuid.NewString(),
		AuthorID:     authorID,
		Content:      "seed content",
		UrgencyLevel: forum.UrgencyLow,
		Status:       forum.PostStatusActive,
		CreatedAt:    timeNow,
		UpdatedAt:    timeNow,
	}

	for _, fn := range mutate {
		fn(post)
	}

	err := sqlite3.NewPostRepository(db).Insert(context.Background(), post)
	require.NoError(t, err)

	return post
}

func seedComment(t *testing.T, db *sql.DB, postID, authorID string, mutate ...func(*discuss.Comment)) *discuss.Comment {
	t.Helper()

	timeNow := time.Now()

	comment := &discuss.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   "seed comment",
		Status:    discuss.CommentStatusActive,
		CreatedAt: timeNow,
		UpdatedAt: timeNow,
	}

	for _, fn := range mutate {
		fn(comment)
	}

	err := sqlite3.NewCommentRepository(db).Insert(context.Background(), comment)
	require.NoError(t, err)

	return comment
}
