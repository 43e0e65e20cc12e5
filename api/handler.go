package api

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/havenforum/haven/auth"
	"github.com/havenforum/haven/discuss"
	"github.com/havenforum/haven/forum"
	"github.com/havenforum/haven/notifications"
	"github.com/havenforum/haven/votes"
)

type Handler struct {
	mux              *http.ServeMux
	handler          http.Handler
	authSvc          *auth.Service
	forumSvc         *forum.Service
	discussSvc       *discuss.Service
	votesSvc         *votes.Service
	notificationsSvc *notifications.Service
	cookieStore      *sessions.CookieStore
	sessionName      string
}

var _ http.Handler = (*Handler)(nil)

func NewHandler(
	authSvc *auth.Service,
	forumSvc *forum.Service,
	discussSvc *discuss.Service,
	votesSvc *votes.Service,
	notificationsSvc *notifications.Service,
	cookieStore *sessions.CookieStore,
	sessionName string,
) *Handler {
	h := &Handler{
		mux:              &http.ServeMux{},
		handler:          nil,
		authSvc:          authSvc,
		forumSvc:         forumSvc,
		discussSvc:       discussSvc,
		votesSvc:         votesSvc,
		notificationsSvc: notificationsSvc,
		cookieStore:      cookieStore,
		sessionName:      sessionName,
	}

	h.registerRoutes()

	h.handler = h.mux
	h.handler = h.authMiddleware(h.handler)
	h.handler = recoverMiddleware(h.handler)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /register", h.HandleRegister)
	h.mux.HandleFunc("POST /login", h.HandleLogin)
	h.mux.HandleFunc("POST /logout", h.HandleLogout)
	h.mux.HandleFunc("POST /recover", h.HandleRecover)

	h.mux.HandleFunc("GET /posts/feed", h.HandleFeed)
	h.mux.HandleFunc("POST /posts", h.HandleCreatePost)
	h.mux.HandleFunc("GET /posts/{postID}", h.HandleGetPost)
	h.mux.HandleFunc("PATCH /posts/{postID}", h.HandleUpdatePost)
	h.mux.HandleFunc("DELETE /posts/{postID}", h.HandleDeletePost)
	h.mux.HandleFunc("POST /posts/{postID}/vote", h.HandleVotePost)

	h.mux.HandleFunc("POST /posts/{postID}/comments", h.HandleCreateComment)
	h.mux.HandleFunc("GET /comments/post/{postID}", h.HandleListThread)
	h.mux.HandleFunc("PATCH /comments/{commentID}", h.HandleUpdateComment)
	h.mux.HandleFunc("DELETE /comments/{commentID}", h.HandleDeleteComment)
	h.mux.HandleFunc("POST /comments/{commentID}/vote", h.HandleVoteComment)

	h.mux.HandleFunc("GET /notifications", h.HandleListNotifications)
	h.mux.HandleFunc("POST /notifications/{notificationID}/read", h.HandleMarkNotificationRead)
	h.mux.HandleFunc("POST /notifications/read-all", h.HandleMarkAllNotificationsRead)
}
