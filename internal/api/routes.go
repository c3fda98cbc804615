package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/primetimelines/shonacoin/internal/auth"
	"github.com/primetimelines/shonacoin/internal/server"
)

// Mount registers all routes on the router. The OTP endpoints are public;
// everything else requires a bearer token.
func Mount(r chi.Router, tokens *auth.TokenManager, authH *AuthHandler, contribH *ContributionHandler, negH *NegotiationHandler) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/otp/send", authH.HandleSendOTP)
		r.Post("/auth/otp/verify", authH.HandleVerifyOTP)

		r.Group(func(r chi.Router) {
			r.Use(server.AuthMiddleware(tokens))

			r.Post("/contributions", contribH.HandleCreate)
			r.Get("/contributions/{id}", contribH.HandleGet)
			r.Post("/contributions/{id}/status", contribH.HandleUpdateStatus)
			r.Post("/contributions/{id}/sessions", contribH.HandleCreateSession)
			r.Get("/contributions/{id}/sessions", contribH.HandleListSessions)

			r.Post("/sessions/{id}/cancel", negH.HandleCancelSession)
			r.Post("/sessions/{id}/proposals", negH.HandleSubmitProposal)
			r.Get("/sessions/{id}/proposals", negH.HandleListProposals)
			r.Post("/sessions/{id}/proposals/{proposalID}/accept", negH.HandleAcceptProposal)
			r.Post("/sessions/{id}/proposals/{proposalID}/reject", negH.HandleRejectProposal)
			r.Post("/sessions/{id}/proposals/{proposalID}/supersede", negH.HandleSupersedeProposal)
			r.Post("/sessions/{id}/messages", negH.HandleSendMessage)
			r.Get("/sessions/{id}/messages", negH.HandleListMessages)
		})
	})
}
