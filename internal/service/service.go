// service содержит бизнес-логику CRM-сервиса:
// аутентификацию пользователей, выпуск/проверку токенов,
// работу с профилями и контактами через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасном storage.Storage.
//   - Ошибки возвращаются сентинелами ниже и далее маппятся
//     транспортом на HTTP-коды (см. internal/errors).
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/go-crm/internal/cache"
	"github.com/pribylovaa/go-crm/internal/config"
	"github.com/pribylovaa/go-crm/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Транспорт: HTTP 401 без уточнения, какая часть неверна.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен некорректен по формату, подписи, алгоритму,
	// издателю или аудитории. Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenKindMismatch — предъявлен токен не того вида
	// (access вместо refresh и наоборот). Транспорт: HTTP 401.
	ErrTokenKindMismatch = errors.New("token kind mismatch")

	// ErrMissingSubject — подпись верна, но в токене нет sub. Транспорт: HTTP 401.
	ErrMissingSubject = errors.New("token subject is missing")

	// ErrUserNotFound — пользователь из токена отсутствует в хранилище.
	// Транспорт: HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	ErrEmailTaken = errors.New("email already taken")

	// ErrInvalidEmail — e-mail имеет некорректный формат.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrInvalidUser — не заполнены обязательные поля пользователя.
	ErrInvalidUser = errors.New("first and last name are required")

	// ErrInvalidRole — роль вне набора admin/user.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidContact — контакт не прошёл проверку схемы. Транспорт: HTTP 400.
	// Подробности по полям несёт *ValidationError.
	ErrInvalidContact = errors.New("invalid contact")

	// ErrContactExists — контакт с таким email уже есть. Транспорт: HTTP 400.
	ErrContactExists = errors.New("contact already exists")
)

// Service описывает бизнес-логику CRM-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	pcache  cache.ProfileCache // может быть nil, если кэш не сконфигурирован
	now     func() time.Time
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetProfileCache устанавливает кэш профилей (опционально).
func (s *Service) SetProfileCache(c cache.ProfileCache) {
	s.pcache = c
}
