package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-crm/internal/errors"
	"github.com/pribylovaa/go-crm/internal/models"
)

// ListContacts — GET /contacts.
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request, _ *models.Claims) {
	items, err := h.svc.ListContacts(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// CreateContact — POST /contacts.
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request, _ *models.Claims) {
	limitBody(w, r)

	var in models.Contact
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.BadRequest("Invalid request body"))
		return
	}

	out, err := h.svc.CreateContact(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, out)
}
