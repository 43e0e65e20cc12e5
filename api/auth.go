package api

import (
	"fmt"
	"net/http"

	authcontext "github.com/havenforum/haven/auth/context"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

const minPasswordLength = 8

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if req.Username == "" {
		writeError(w, r, BadRequestError{Reason: "username is required"})
		return
	}

	if len(req.Password) < minPasswordLength {
		writeError(w, r, BadRequestError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)})
		return
	}

	user, passphrase, err := h.authSvc.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		// Shown once; only a hash is stored.
		"recoveryPassphrase": passphrase,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.setSessionID(w, r, session.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"userId":    session.UserID,
		"expiresAt": session.ExpiresAt,
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := authcontext.SessionIDFromContext(r.Context())
	if ok {
		err := h.authSvc.Logout(r.Context(), sessionID)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}

	err := h.deleteSessionID(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type recoverRequest struct {
	Username    string `json:"username"`
	Passphrase  string `json:"passphrase"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) HandleRecover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest

	err := decodeBody(r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if len(req.NewPassword) < minPasswordLength {
		writeError(w, r, BadRequestError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)})
		return
	}

	newPassphrase, err := h.authSvc.RecoverPassword(r.Context(), req.Username, req.Passphrase, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"recoveryPassphrase": newPassphrase,
	})
}

func (h *Handler) setSessionID(w http.ResponseWriter, r *http.Request, sessionID string) error {
	session, _ := h.cookieStore.Get(r, h.sessionName)
	session.Values[sessionIDKey] = sessionID

	err := session.Save(r, w)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (h *Handler) deleteSessionID(w http.ResponseWriter, r *http.Request) error {
	session, _ := h.cookieStore.Get(r, h.sessionName)
	delete(session.Values, sessionIDKey)

	session.Options.MaxAge = -1

	err := session.Save(r, w)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}
