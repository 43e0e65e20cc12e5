package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	authcontext "github.com/havenforum/haven/auth/context"
	"github.com/havenforum/haven/forum"
)

type postResponse struct {
	ID              string    `json:"id"`
	AuthorID        string    `json:"authorId,omitempty"`
	Content         string    `json:"content"`
	Anonymous       bool      `json:"anonymous"`
	Upvotes         int       `json:"upvotes"`
	Downvotes       int       `json:"downvotes"`
	CommentCount    int       `json:"commentCount"`
	SentimentScore  *float64  `json:"sentimentScore"`
	UrgencyLevel    string    `json:"urgencyLevel"`
	ExpertResponded bool      `json:"expertResponded"`
	Status          string    `json:"status"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// renderPost hides the author of anonymous posts from everyone except the
// author themselves.
func renderPost(post *forum.Post, viewerID string) postResponse {
	resp := postResponse{
		ID:              post.ID,
		AuthorID:        post.AuthorID,
		Content:         post.Content,
		Anonymous:       post.Anonymous,
		Upvotes:         post.Upvotes,
		Downvotes:       post.Downvotes,
		CommentCount:    post.CommentCount,
		SentimentScore:  post.SentimentScore,
		UrgencyLevel:    string(post.UrgencyLevel),
		ExpertResponded: post.ExpertResponded,
		Status:          string(post.Status),
		Tags:            post.Tags,
		CreatedAt:       post.CreatedAt,
		UpdatedAt:       post.UpdatedAt,
	}

	if post.Anonymous && post.AuthorID != viewerID {
		resp.AuthorID = ""
	}

	if resp.Tags == nil {
		resp.Tags = []string{}
	}

	return resp
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type createPostRequest struct {
	Content   string   `json:"content"`
	Anonymous bool     `json:"anonymous"`
	Tags      []string `json:"tags"`
}

func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createPostRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	post, err := h.forumSvc.CreatePost(r.Context(), forum.CreatePostRequest{
		AuthorID:  userID,
		Content:   req.Content,
		Anonymous: req.Anonymous,
		Tags:      req.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{"post": renderPost(post, userID)})
}

func (h *Handler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.forumSvc.GetPost(r.Context(), r.PathValue("postID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"post": renderPost(post, authcontext.GetSubject(r.Context())),
	})
}

type updatePostRequest struct {
	Content   *string  `json:"content"`
	Anonymous *bool    `json:"anonymous"`
	Tags      []string `json:"tags"`
}

func (h *Handler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updatePostRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	post, err := h.forumSvc.UpdatePost(r.Context(), userID, r.PathValue("postID"), forum.UpdatePostRequest{
		Content:   req.Content,
		Anonymous: req.Anonymous,
		Tags:      req.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"post": renderPost(post, userID)})
}

func (h *Handler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.forumSvc.DeletePost(r.Context(), userID, r.PathValue("postID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := forum.FeedParams{
		SortBy:    forum.SortField(query.Get("sortBy")),
		SortOrder: forum.SortOrder(query.Get("sortOrder")),
		Page:      intQueryParam(query.Get("page"), 1),
		Limit:     intQueryParam(query.Get("limit"), forum.DefaultPageLimit),
	}

	if tags := query.Get("tags"); tags != "" {
		params.Tags = strings.Split(tags, ",")
	}

	if rawLevel := query.Get("urgencyLevel"); rawLevel != "" {
		level := forum.UrgencyLevel(rawLevel)
		if !level.IsValid() {
			writeError(w, r, BadRequestError{Reason: "invalid urgencyLevel"})
			return
		}

		params.UrgencyLevel = &level
	}

	if rawExpert := query.Get("withExpertResponse"); rawExpert != "" {
		expert, err := strconv.ParseBool(rawExpert)
		if err != nil {
			writeError(w, r, BadRequestError{Reason: "invalid withExpertResponse"})
			return
		}

		params.WithExpertResponse = &expert
	}

	page, err := h.forumSvc.Feed(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	viewerID := authcontext.GetSubject(r.Context())

	posts := make([]postResponse, 0, len(page.Posts))
	for _, post := range page.Posts {
		posts = append(posts, renderPost(post, viewerID))
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"posts": posts,
		"pagination": paginationResponse{
			Page:       page.Pagination.Page,
			Limit:      page.Pagination.Limit,
			Total:      page.Pagination.Total,
			TotalPages: page.Pagination.TotalPages,
		},
	})
}

func intQueryParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
