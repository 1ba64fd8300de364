package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-crm/internal/errors"
	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/pkg/log"
	"github.com/pribylovaa/go-crm/internal/pkg/redact"
)

// TokenVerifier проверяет access-токен. Реализуется service.Service.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, token string) (*models.Claims, error)
}

// AuthedHandler — обработчик защищённого маршрута; claims передаются явно.
type AuthedHandler func(w http.ResponseWriter, r *http.Request, claims *models.Claims)

const bearerPrefix = "Bearer "

// Authenticated оборачивает обработчик проверкой Authorization: Bearer <token>.
// Отказ происходит до любого обращения к хранилищу:
//   - нет заголовка или префикс не "Bearer " — 401 "Token is missing";
//   - токен не прошёл проверку — 401 "Token is invalid or expired".
func Authenticated(v TokenVerifier, h AuthedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			apierrors.WriteError(w, r, apierrors.Unauthorized("Token is missing"))
			return
		}

		claims, err := v.ValidateToken(r.Context(), auth[len(bearerPrefix):])
		if err != nil {
			log.From(r.Context()).Info("auth_rejected",
				slog.String("path", r.URL.Path),
				slog.String("err", err.Error()),
			)
			apierrors.WriteError(w, r, apierrors.Unauthorized("Token is invalid or expired"))
			return
		}

		ctx := log.With(r.Context(), redact.EmailAttr(claims.Subject))
		h(w, r.WithContext(ctx), claims)
	}
}
