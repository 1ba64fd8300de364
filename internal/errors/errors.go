// errors стандартизирует ответы об ошибках HTTP-слоя CRM-сервиса.
// На вход принимается ошибка сервиса (сентинел или *APIError),
// на выход даётся HTTP-статус и тело {"detail","code","request_id"}
// без утечки внутренних деталей.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-crm/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// Стабильные машиночитаемые коды.
const (
	CodeInvalidArgument  = "invalid_argument"
	CodeUnauthenticated  = "unauthenticated"
	CodeNotFound         = "not_found"
	CodeAlreadyExists    = "already_exists"
	CodeCanceled         = "canceled"
	CodeDeadlineExceeded = "deadline_exceeded"
	CodeInternal         = "internal"
)

// APIError — единый формат ошибки для фронта.
// Status в тело не попадает; Detail — безопасное человекочитаемое описание.
type APIError struct {
	Status    int    `json:"-"`
	Detail    string `json:"detail"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string { return e.Detail }

// New создаёт ошибку с явным статусом и текстом.
// Обработчики используют её там, где текст зависит от эндпоинта.
func New(status int, code, detail string) *APIError {
	return &APIError{Status: status, Code: code, Detail: detail}
}

// BadRequest — 400 с заданным текстом.
func BadRequest(detail string) *APIError {
	return New(http.StatusBadRequest, CodeInvalidArgument, detail)
}

// Unauthorized — 401 с заданным текстом.
func Unauthorized(detail string) *APIError {
	return New(http.StatusUnauthorized, CodeUnauthenticated, detail)
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - *APIError в цепочке — отдаётся как есть;
//   - сентинелы service — по таблице в fromService;
//   - отмена/дедлайн контекста — 499/504;
//   - прочее — 500 "Internal server error".
func ToHTTP(err error) (int, APIError) {
	if err == nil {
		return internal()
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, *apiErr
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, APIError{Code: CodeInvalidArgument, Detail: verr.Error()}
	}

	if status, body, ok := fromService(err); ok {
		return status, body
	}

	switch {
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, APIError{Code: CodeCanceled, Detail: "Request canceled"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, APIError{Code: CodeDeadlineExceeded, Detail: "Request timed out"}
	}

	return internal()
}

// fromService — маппинг сентинелов service на HTTP.
// Ошибки токенов схлопываются в один 401 без уточнения причины.
func fromService(err error) (int, APIError, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, APIError{Code: CodeUnauthenticated, Detail: "Incorrect email or password"}, true
	case errors.Is(err, service.ErrMissingSubject):
		return http.StatusUnauthorized, APIError{Code: CodeUnauthenticated, Detail: "Invalid token payload"}, true
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenKindMismatch):
		return http.StatusUnauthorized, APIError{Code: CodeUnauthenticated, Detail: "Token is invalid or expired"}, true
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, APIError{Code: CodeNotFound, Detail: "User not found"}, true
	case errors.Is(err, service.ErrContactExists):
		return http.StatusBadRequest, APIError{Code: CodeAlreadyExists, Detail: "Contact already exists"}, true
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest, APIError{Code: CodeAlreadyExists, Detail: "Email already registered"}, true
	case errors.Is(err, service.ErrInvalidContact),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrInvalidUser),
		errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest, APIError{Code: CodeInvalidArgument, Detail: "Invalid request body"}, true
	}

	return 0, APIError{}, false
}

func internal() (int, APIError) {
	return http.StatusInternalServerError, APIError{Code: CodeInternal, Detail: "Internal server error"}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет статус и тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		body.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
