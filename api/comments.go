package api

import (
	"net/http"
	"time"

	authcontext "github.com/havenforum/haven/auth/context"
	"github.com/havenforum/haven/discuss"
)

type commentResponse struct {
	ID             string            `json:"id"`
	PostID         string            `json:"postId"`
	AuthorID       string            `json:"authorId,omitempty"`
	ParentID       *string           `json:"parentId"`
	Content        string            `json:"content"`
	Anonymous      bool              `json:"anonymous"`
	ExpertResponse bool              `json:"expertResponse"`
	Upvotes        int               `json:"upvotes"`
	Downvotes      int               `json:"downvotes"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	Replies        []commentResponse `json:"replies,omitempty"`
}

func renderComment(comment *discuss.Comment, viewerID string) commentResponse {
	resp := commentResponse{
		ID:             comment.ID,
		PostID:         comment.PostID,
		AuthorID:       comment.AuthorID,
		ParentID:       comment.ParentID,
		Content:        comment.Content,
		Anonymous:      comment.Anonymous,
		ExpertResponse: comment.ExpertResponse,
		Upvotes:        comment.Upvotes,
		Downvotes:      comment.Downvotes,
		Status:         string(comment.Status),
		CreatedAt:      comment.CreatedAt,
		UpdatedAt:      comment.UpdatedAt,
	}

	if comment.Anonymous && comment.AuthorID != viewerID {
		resp.AuthorID = ""
	}

	return resp
}

func renderThread(nodes []*discuss.CommentNode, viewerID string) []commentResponse {
	rendered := make([]commentResponse, 0, len(nodes))

	for _, node := range nodes {
		resp := renderComment(node.Comment, viewerID)
		resp.Replies = renderThread(node.Replies, viewerID)
		rendered = append(rendered, resp)
	}

	return rendered
}

type createCommentRequest struct {
	Content        string `json:"content"`
	ParentID       string `json:"parentId"`
	Anonymous      bool   `json:"anonymous"`
	ExpertResponse bool   `json:"expertResponse"`
}

func (h *Handler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createCommentRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.discussSvc.CreateComment(r.Context(), discuss.CreateCommentRequest{
		PostID:         r.PathValue("postID"),
		AuthorID:       userID,
		ParentID:       req.ParentID,
		Content:        req.Content,
		Anonymous:      req.Anonymous,
		ExpertResponse: req.ExpertResponse,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{"comment": renderComment(comment, userID)})
}

func (h *Handler) HandleListThread(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	thread, err := h.discussSvc.ListThread(
		r.Context(),
		r.PathValue("postID"),
		intQueryParam(query.Get("page"), 1),
		intQueryParam(query.Get("limit"), 0),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"comments": renderThread(thread.Comments, authcontext.GetSubject(r.Context())),
		"pagination": paginationResponse{
			Page:       thread.Pagination.Page,
			Limit:      thread.Pagination.Limit,
			Total:      thread.Pagination.Total,
			TotalPages: thread.Pagination.TotalPages,
		},
	})
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req updateCommentRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	comment, err := h.discussSvc.UpdateComment(r.Context(), userID, r.PathValue("commentID"), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"comment": renderComment(comment, userID)})
}

func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.discussSvc.DeleteComment(r.Context(), userID, r.PathValue("commentID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
