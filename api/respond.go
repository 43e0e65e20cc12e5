package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/havenforum/haven/auth"
	"github.com/havenforum/haven/discuss"
	"github.com/havenforum/haven/forum"
	"github.com/havenforum/haven/notifications"
	"github.com/havenforum/haven/votes"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// BadRequestError marks request decoding and validation failures.
type BadRequestError struct {
	Reason string
}

func (err BadRequestError) Error() string {
	return fmt.Sprintf("bad request: %s", err.Reason)
}

// writeError maps the domain error taxonomy onto HTTP status codes.
// Anything unrecognized is a 500 with the detail kept out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		badRequestErr       BadRequestError
		invalidVoteTypeErr  votes.InvalidVoteTypeError
		invalidSubjectErr   votes.InvalidSubjectKindError
		parentMismatchErr   discuss.ParentMismatchError
		userExistsErr       *auth.UserAlreadyExistsError
		postNotFoundErr     forum.PostNotFoundError
		commentNotFoundErr  discuss.CommentNotFoundError
		subjectNotFoundErr  votes.SubjectNotFoundError
		notifNotFoundErr    notifications.NotificationNotFoundError
		notPostAuthorErr    forum.NotPostAuthorError
		notCommentAuthorErr discuss.NotCommentAuthorError
		notRecipientErr     notifications.NotRecipientError
		sessionNotFoundErr  *auth.SessionNotFoundError
		sessionExpiredErr   *auth.SessionExpiredError
	)

	switch {
	case errors.As(err, &badRequestErr),
		errors.As(err, &invalidVoteTypeErr),
		errors.As(err, &invalidSubjectErr),
		errors.As(err, &parentMismatchErr),
		errors.Is(err, forum.ErrEmptyContent),
		errors.Is(err, discuss.ErrEmptyContent):
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &userExistsErr):
		writeJSON(w, r, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.As(err, &sessionNotFoundErr),
		errors.As(err, &sessionExpiredErr):
		writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.As(err, &notPostAuthorErr),
		errors.As(err, &notCommentAuthorErr),
		errors.As(err, &notRecipientErr):
		writeJSON(w, r, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.As(err, &postNotFoundErr),
		errors.As(err, &commentNotFoundErr),
		errors.As(err, &subjectNotFoundErr),
		errors.As(err, &notifNotFoundErr):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "internal error", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err != nil {
		return BadRequestError{Reason: "invalid JSON body"}
	}

	return nil
}
