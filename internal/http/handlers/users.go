package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	apierrors "github.com/pribylovaa/go-crm/internal/errors"
	"github.com/pribylovaa/go-crm/internal/models"
)

// profileUpdateRequest — тело PUT /users/me.
// _id, id и email принимаются, но игнорируются.
type profileUpdateRequest struct {
	MongoID    json.RawMessage `json:"_id"`
	ID         json.RawMessage `json:"id"`
	Email      json.RawMessage `json:"email"`
	FirstName  *string         `json:"firstname"`
	LastName   *string         `json:"lastname"`
	Phone      *string         `json:"phone"`
	JobTitle   *string         `json:"job_title"`
	Company    *string         `json:"company"`
	Department *string         `json:"department"`
}

func (p profileUpdateRequest) toModel() models.ProfileUpdate {
	return models.ProfileUpdate{
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Phone:      p.Phone,
		JobTitle:   p.JobTitle,
		Company:    p.Company,
		Department: p.Department,
	}
}

// GetMe — GET /users/me.
func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request, claims *models.Claims) {
	p, err := h.svc.Profile(r.Context(), claims.Subject)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// UpdateMe — PUT /users/me.
func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request, claims *models.Claims) {
	limitBody(w, r)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		apierrors.WriteError(w, r, apierrors.BadRequest("Invalid request body"))
		return
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		apierrors.WriteError(w, r, apierrors.BadRequest("No data provided"))
		return
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		apierrors.WriteError(w, r, apierrors.BadRequest("Invalid request body"))
		return
	}
	if len(probe) == 0 {
		apierrors.WriteError(w, r, apierrors.BadRequest("No data provided"))
		return
	}

	var in profileUpdateRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		apierrors.WriteError(w, r, apierrors.BadRequest("Invalid request body"))
		return
	}

	p, err := h.svc.UpdateProfile(r.Context(), claims.Subject, in.toModel())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
