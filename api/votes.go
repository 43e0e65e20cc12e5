package api

import (
	"net/http"

	"github.com/havenforum/haven/votes"
)

type voteRequest struct {
	VoteType string `json:"voteType"`
}

func (h *Handler) HandleVotePost(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, votes.SubjectPost, r.PathValue("postID"))
}

func (h *Handler) HandleVoteComment(w http.ResponseWriter, r *http.Request) {
	h.handleVote(w, r, votes.SubjectComment, r.PathValue("commentID"))
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request, kind votes.SubjectKind, subjectID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req voteRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.votesSvc.Apply(r.Context(), kind, subjectID, userID, votes.VoteType(req.VoteType))
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload := map[string]any{
		"userVote": result.UserVote,
	}

	switch kind {
	case votes.SubjectPost:
		post, err := h.forumSvc.GetPost(r.Context(), subjectID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		payload["post"] = renderPost(post, userID)
	case votes.SubjectComment:
		comment, err := h.discussSvc.GetComment(r.Context(), subjectID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		payload["comment"] = renderComment(comment, userID)
	}

	writeJSON(w, r, http.StatusOK, payload)
}
