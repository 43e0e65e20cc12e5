package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/havenforum/haven/api"
	"github.com/havenforum/haven/auth"
	"github.com/havenforum/haven/cache"
	"github.com/havenforum/haven/db/sqlite3"
	"github.com/havenforum/haven/discuss"
	"github.com/havenforum/haven/forum"
	"github.com/havenforum/haven/notifications"
	"github.com/havenforum/haven/votes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
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

	authSvc := auth.NewService(sqlite3.NewUserRepository(db), sqlite3.NewSessionRepository(db))

	err = authSvc.LoadBloomFilter(ctx, 100, 0.01)
	require.NoError(t, err)

	notificationsSvc := notifications.NewService(sqlite3.NewNotificationRepository(db))
	forumSvc := forum.NewService(sqlite3.NewPostRepository(db), nil, cache.New[*forum.FeedPage](time.Second))
	discussSvc := discuss.NewService(sqlite3.NewCommentRepository(db), forumSvc, notificationsSvc)
	votesSvc := votes.NewService(sqlite3.NewVoteRepository(db), notificationsSvc)

	// The store's default cookie options are Secure, which the cookie jar
	// drops over the plain-HTTP httptest server.
	cookieStore := sessions.NewCookieStore([]byte("test-session-key"))
	cookieStore.Options.Secure = false
	cookieStore.Options.SameSite = http.SameSiteLaxMode

	handler := api.NewHandler(
		authSvc,
		forumSvc,
		discussSvc,
		votesSvc,
		notificationsSvc,
		cookieStore,
		"haven-test",
	)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return server
}

// newClient returns an HTTP client with its own cookie jar, standing in for
// one browser session.
func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		require.NoError(t, err)
	}()

	var payload map[string]any

	if resp.StatusCode != http.StatusNoContent {
		err = json.NewDecoder(resp.Body).Decode(&payload)
		require.NoError(t, err)
	}

	return resp.StatusCode, payload
}

func signUp(t *testing.T, client *http.Client, baseURL, username string) string {
	t.Helper()

	status, payload := doJSON(t, client, http.MethodPost, baseURL+"/register", map[string]any{
		"username": username,
		"password": "longenoughpass",
	})
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, payload["recoveryPassphrase"])

	status, _ = doJSON(t, client, http.MethodPost, baseURL+"/login", map[string]any{
		"username": username,
		"password": "longenoughpass",
	})
	require.Equal(t, http.StatusOK, status)

	userID, _ := payload["userId"].(string)
	require.NotEmpty(t, userID)

	return userID
}

func TestPostLifecycle(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := newClient(t)

	signUp(t, client, server.URL, "author")

	status, payload := doJSON(t, client, http.MethodPost, server.URL+"/posts", map[string]any{
		"content": "first post",
		"tags":    []string{"anxiety"},
	})
	require.Equal(t, http.StatusCreated, status)

	post, _ := payload["post"].(map[string]any)
	require.NotNil(t, post)

	postID, _ := post["id"].(string)
	require.NotEmpty(t, postID)
	assert.Equal(t, []any{"anxiety"}, post["tags"])

	status, payload = doJSON(t, client, http.MethodPatch, server.URL+"/posts/"+postID, map[string]any{
		"content": "edited post",
	})
	require.Equal(t, http.StatusOK, status)

	post, _ = payload["post"].(map[string]any)
	assert.Equal(t, "edited post", post["content"])

	status, _ = doJSON(t, client, http.MethodDelete, server.URL+"/posts/"+postID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = doJSON(t, client, http.MethodGet, server.URL+"/posts/"+postID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAnonymousPostsHideTheAuthor(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	authorClient := newClient(t)
	authorID := signUp(t, authorClient, server.URL, "author")

	status, payload := doJSON(t, authorClient, http.MethodPost, server.URL+"/posts", map[string]any{
		"content":   "sharing anonymously",
		"anonymous": true,
	})
	require.Equal(t, http.StatusCreated, status)

	post, _ := payload["post"].(map[string]any)
	postID, _ := post["id"].(string)
	require.NotEmpty(t, postID)

	// The author still sees themselves.
	assert.Equal(t, authorID, post["authorId"])

	readerClient := newClient(t)
	signUp(t, readerClient, server.URL, "reader")

	status, payload = doJSON(t, readerClient, http.MethodGet, server.URL+"/posts/"+postID, nil)
	require.Equal(t, http.StatusOK, status)

	post, _ = payload["post"].(map[string]any)
	_, hasAuthor := post["authorId"]
	assert.False(t, hasAuthor)
}

func TestVoting(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	authorClient := newClient(t)
	signUp(t, authorClient, server.URL, "author")

	status, payload := doJSON(t, authorClient, http.MethodPost, server.URL+"/posts", map[string]any{
		"content": "vote on me",
	})
	require.Equal(t, http.StatusCreated, status)

	post, _ := payload["post"].(map[string]any)
	postID, _ := post["id"].(string)

	voterClient := newClient(t)
	signUp(t, voterClient, server.URL, "voter")

	status, payload = doJSON(t, voterClient, http.MethodPost, server.URL+"/posts/"+postID+"/vote", map[string]any{
		"voteType": "up",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", payload["userVote"])

	post, _ = payload["post"].(map[string]any)
	assert.Equal(t, float64(1), post["upvotes"])

	// Same vote again toggles it off.
	status, payload = doJSON(t, voterClient, http.MethodPost, server.URL+"/posts/"+postID+"/vote", map[string]any{
		"voteType": "up",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, payload["userVote"])

	post, _ = payload["post"].(map[string]any)
	assert.Equal(t, float64(0), post["upvotes"])

	// The author got notified about the first upvote only.
	status, payload = doJSON(t, authorClient, http.MethodGet, server.URL+"/notifications", nil)
	require.Equal(t, http.StatusOK, status)

	items, _ := payload["notifications"].([]any)
	require.Len(t, items, 1)

	notification, _ := items[0].(map[string]any)
	assert.Equal(t, "upvote", notification["type"])

	status, payload = doJSON(t, voterClient, http.MethodPost, server.URL+"/posts/"+postID+"/vote", map[string]any{
		"voteType": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCommentThread(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	client := newClient(t)
	signUp(t, client, server.URL, "author")

	status, payload := doJSON(t, client, http.MethodPost, server.URL+"/posts", map[string]any{
		"content": "talk to me",
	})
	require.Equal(t, http.StatusCreated, status)

	post, _ := payload["post"].(map[string]any)
	postID, _ := post["id"].(string)

	status, payload = doJSON(t, client, http.MethodPost, server.URL+"/posts/"+postID+"/comments", map[string]any{
		"content": "top level",
	})
	require.Equal(t, http.StatusCreated, status)

	comment, _ := payload["comment"].(map[string]any)
	commentID, _ := comment["id"].(string)
	require.NotEmpty(t, commentID)

	status, payload = doJSON(t, client, http.MethodPost, server.URL+"/posts/"+postID+"/comments", map[string]any{
		"content":  "a reply",
		"parentId": commentID,
	})
	require.Equal(t, http.StatusCreated, status)

	status, payload = doJSON(t, client, http.MethodGet, server.URL+"/comments/post/"+postID, nil)
	require.Equal(t, http.StatusOK, status)

	comments, _ := payload["comments"].([]any)
	require.Len(t, comments, 1)

	root, _ := comments[0].(map[string]any)
	replies, _ := root["replies"].([]any)
	require.Len(t, replies, 1)

	reply, _ := replies[0].(map[string]any)
	assert.Equal(t, "a reply", reply["content"])
}

func TestAuthenticationRequired(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	client := newClient(t)

	status, _ := doJSON(t, client, http.MethodPost, server.URL+"/posts", map[string]any{
		"content": "drive-by post",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, client, http.MethodGet, server.URL+"/notifications", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
