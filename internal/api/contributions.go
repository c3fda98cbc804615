package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primetimelines/shonacoin/internal/contribution"
	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/negotiation"
	"github.com/primetimelines/shonacoin/internal/server"
)

// ContributionHandler exposes contribution lifecycle routes.
type ContributionHandler struct {
	contributions *contribution.Service
	negotiations  *negotiation.Service
}

// NewContributionHandler creates the contribution handler.
func NewContributionHandler(contributions *contribution.Service, negotiations *negotiation.Service) *ContributionHandler {
	return &ContributionHandler{contributions: contributions, negotiations: negotiations}
}

type createContributionRequest struct {
	Title string `json:"title"`
}

// HandleCreate starts a new contribution in draft for the caller.
func (h *ContributionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createContributionRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	c, err := h.contributions.Create(r.Context(), server.UserID(r.Context()), req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}

	server.AddLogField(r.Context(), "contribution_id", c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// HandleGet returns one contribution.
func (h *ContributionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.contributions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type updateStatusRequest struct {
	Status domain.Status `json:"status"`
}

// HandleUpdateStatus moves a contribution along the lifecycle table.
func (h *ContributionHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.contributions.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

type createSessionRequest struct {
	ReceiverUserID string             `json:"receiver_user_id"`
	Mode           domain.SessionMode `json:"mode"`
}

// HandleCreateSession opens a negotiation on a contribution with the caller
// as the giver.
func (h *ContributionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.negotiations.CreateSession(r.Context(), chi.URLParam(r, "id"),
		server.UserID(r.Context()), req.ReceiverUserID, req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}

	server.AddLogField(r.Context(), "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

// HandleListSessions returns a contribution's sessions, newest first.
func (h *ContributionHandler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.negotiations.ListSessions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
