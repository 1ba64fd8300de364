package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-crm/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникального индекса (email пользователя/контакта).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт пользователя и проставляет user.ID.
	// При дубликате email — ErrAlreadyExists.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email. Нет записи — ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUser применяет частичное обновление ($set) к пользователю с данным email.
	// Если пользователь не найден — ErrNotFound.
	UpdateUser(ctx context.Context, email string, upd models.ProfileUpdate) error
}

// ContactStorage выполняет операции над контактами.
type ContactStorage interface {
	// ListContacts возвращает все контакты без фильтрации и пагинации.
	ListContacts(ctx context.Context) ([]models.Contact, error)
	// SaveContact вставляет контакт и проставляет contact.ID.
	// При нарушении уникального индекса — ErrAlreadyExists.
	SaveContact(ctx context.Context, contact *models.Contact) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	ContactStorage
	Close(ctx context.Context) error
}
