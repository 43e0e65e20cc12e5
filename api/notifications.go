package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/havenforum/haven/notifications"
)

type notificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	PostID    *string   `json:"postId"`
	CommentID *string   `json:"commentId"`
	IsRead    bool      `json:"isRead"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

func renderNotification(notification *notifications.Notification) notificationResponse {
	return notificationResponse{
		ID:        notification.ID,
		Type:      string(notification.Type),
		Message:   notification.Message,
		PostID:    notification.PostID,
		CommentID: notification.CommentID,
		IsRead:    notification.IsRead,
		Priority:  string(notification.Priority),
		CreatedAt: notification.CreatedAt,
	}
}

func (h *Handler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	unreadOnly := false
	if raw := query.Get("unread"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, BadRequestError{Reason: "invalid unread"})
			return
		}

		unreadOnly = parsed
	}

	page, err := h.notificationsSvc.List(r.Context(), notifications.ListParams{
		RecipientID: userID,
		UnreadOnly:  unreadOnly,
		Page:        intQueryParam(query.Get("page"), 1),
		Limit:       intQueryParam(query.Get("limit"), 20),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	unreadCount, err := h.notificationsSvc.CountUnread(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]notificationResponse, 0, len(page.Items))
	for _, notification := range page.Items {
		items = append(items, renderNotification(notification))
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"notifications": items,
		"unreadCount":   unreadCount,
		"total":         page.Total,
		"totalPages":    page.TotalPages,
	})
}

func (h *Handler) HandleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.notificationsSvc.MarkRead(r.Context(), userID, r.PathValue("notificationID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.notificationsSvc.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
