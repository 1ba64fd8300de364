package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apierrors "github.com/pribylovaa/go-crm/internal/errors"
	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/service"
)

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login — POST /token, форма username/password.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		apierrors.WriteError(w, r, apierrors.BadRequest("Missing username or password"))
		return
	}

	tp, err := h.svc.LoginUser(r.Context(), username, password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:  tp.AccessToken,
		RefreshToken: tp.RefreshToken,
		TokenType:    models.TokenTypeBearer,
	})
}

// Refresh — POST /token/refresh, JSON {"refresh_token": "..."}.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	limitBody(w, r)

	var in refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
		apierrors.WriteError(w, r, apierrors.BadRequest("Refresh token missing"))
		return
	}

	tp, err := h.svc.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingSubject):
			apierrors.WriteError(w, r, apierrors.Unauthorized("Invalid token payload"))
		case errors.Is(err, service.ErrInvalidToken),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenKindMismatch):
			apierrors.WriteError(w, r, apierrors.Unauthorized("Invalid or expired refresh token"))
		default:
			apierrors.WriteError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: tp.AccessToken,
		TokenType:   models.TokenTypeBearer,
	})
}
