// Package handlers содержит REST-обработчики CRM-сервиса.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/go-crm/internal/models"
)

// maxBodyBytes ограничивает размер тела запроса.
const maxBodyBytes = 1 << 20

// Service — бизнес-операции, которые нужны обработчикам.
// Реализуется *service.Service.
type Service interface {
	LoginUser(ctx context.Context, email, password string) (*models.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Profile(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, email string, upd models.ProfileUpdate) (*models.Profile, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
	CreateContact(ctx context.Context, c models.Contact) (*models.Contact, error)
}

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc Service
}

func New(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

func limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
}
