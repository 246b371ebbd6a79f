package handler

import (
	"net/http"

	"github.com/go-todo-nosql/internal/application/auth"
	"github.com/go-todo-nosql/internal/domain"
)

// AuthHandler handles the /api/auth endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Register(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered. Please verify your email with the OTP sent.")
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.VerifyOTP(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully. Please sign in.")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Token: token})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP has been sent to your email for password reset")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset successfully")
}
