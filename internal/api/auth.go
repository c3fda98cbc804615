package api

import (
	"net/http"

	"github.com/primetimelines/shonacoin/internal/auth"
)

// AuthHandler exposes the email one-time-password login flow.
type AuthHandler struct {
	otp *auth.OTPService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(otp *auth.OTPService) *AuthHandler {
	return &AuthHandler{otp: otp}
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

// HandleSendOTP issues a one-time code to the given email.
func (h *AuthHandler) HandleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.otp.SendCode(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code_sent"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type verifyOTPResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// HandleVerifyOTP exchanges a code for a session token.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, userID, err := h.otp.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyOTPResponse{Token: token, UserID: userID})
}
