package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primetimelines/shonacoin/internal/domain"
	"github.com/primetimelines/shonacoin/internal/negotiation"
	"github.com/primetimelines/shonacoin/internal/server"
)

// NegotiationHandler exposes session-scoped proposal and message routes.
type NegotiationHandler struct {
	negotiations *negotiation.Service
}

// NewNegotiationHandler creates the negotiation handler.
func NewNegotiationHandler(negotiations *negotiation.Service) *NegotiationHandler {
	return &NegotiationHandler{negotiations: negotiations}
}

// HandleCancelSession terminates a session without agreement.
func (h *NegotiationHandler) HandleCancelSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.negotiations.CancelSession(r.Context(), server.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type submitProposalRequest struct {
	ProposalData json.RawMessage `json:"proposal_data"`
	Message      string          `json:"message"`
}

// HandleSubmitProposal appends a proposal to the session ledger.
func (h *NegotiationHandler) HandleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	var req submitProposalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := h.negotiations.SubmitProposal(r.Context(), chi.URLParam(r, "id"),
		server.UserID(r.Context()), req.ProposalData, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	server.AddLogField(r.Context(), "proposal_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// HandleListProposals returns the ledger, newest first.
func (h *NegotiationHandler) HandleListProposals(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.negotiations.ListProposals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proposals)
}

type acceptProposalResponse struct {
	Proposal *domain.NegotiationProposal `json:"proposal"`
	Session  *domain.NegotiationSession  `json:"session"`
}

// HandleAcceptProposal accepts a proposal and closes the session as agreed.
func (h *NegotiationHandler) HandleAcceptProposal(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	p, err := h.negotiations.AcceptProposal(r.Context(), server.UserID(r.Context()), sessionID, chi.URLParam(r, "proposalID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := h.negotiations.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, acceptProposalResponse{Proposal: p, Session: sess})
}

// HandleRejectProposal rejects a single proposal; the session stays open.
func (h *NegotiationHandler) HandleRejectProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.negotiations.RejectProposal(r.Context(), server.UserID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "proposalID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleSupersedeProposal explicitly retires a pending proposal.
func (h *NegotiationHandler) HandleSupersedeProposal(w http.ResponseWriter, r *http.Request) {
	p, err := h.negotiations.SupersedeProposal(r.Context(), server.UserID(r.Context()),
		chi.URLParam(r, "id"), chi.URLParam(r, "proposalID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type sendMessageRequest struct {
	Type     domain.MessageType `json:"message_type"`
	Content  string             `json:"content"`
	FileURL  string             `json:"file_url"`
	Metadata json.RawMessage    `json:"metadata"`
}

// HandleSendMessage appends to the session's coordination log.
func (h *NegotiationHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.negotiations.SendMessage(r.Context(), chi.URLParam(r, "id"),
		server.UserID(r.Context()), req.Type, req.Content, req.FileURL, req.Metadata)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// HandleListMessages returns the message log in insertion order.
func (h *NegotiationHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.negotiations.ListMessages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}
