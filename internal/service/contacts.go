package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/storage"
)

// ValidationError — ошибка схемы контакта с подробностями по полям.
// errors.Is(err, ErrInvalidContact) == true.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string { return e.Fields.Error() }

func (e *ValidationError) Unwrap() error { return ErrInvalidContact }

// timestampLayouts — принимаемые форматы lastContact/createdAt.
var timestampLayouts = []string{time.RFC3339, "2006-01-02"}

// ListContacts возвращает все контакты. Пустая коллекция — пустой срез, не nil.
func (s *Service) ListContacts(ctx context.Context) ([]models.Contact, error) {
	const op = "service.contacts.ListContacts"

	items, err := s.storage.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if items == nil {
		items = []models.Contact{}
	}

	return items, nil
}

// CreateContact проверяет схему, проставляет createdAt и сохраняет контакт.
func (s *Service) CreateContact(ctx context.Context, c models.Contact) (*models.Contact, error) {
	const op = "service.contacts.CreateContact"

	if err := validateContact(c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.ID = ""
	if c.CreatedAt == nil {
		now := s.now().Format(time.RFC3339)
		c.CreatedAt = &now
	}

	if err := s.storage.SaveContact(ctx, &c); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrContactExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

func validateContact(c models.Contact) error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Phone, validation.Required, validation.Length(1, 50)),
		validation.Field(&c.Company, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Position, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Status,
			validation.Required,
			validation.In(models.ContactActive, models.ContactInactive, models.ContactProspect),
		),
		validation.Field(&c.LastContact, validation.By(validTimestamp)),
		validation.Field(&c.CreatedAt, validation.By(validTimestamp)),
	)
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}

	return err
}

// validTimestamp принимает RFC3339 или YYYY-MM-DD; nil пропускается.
func validTimestamp(value interface{}) error {
	s, _ := value.(*string)
	if s == nil {
		return nil
	}

	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, *s); err == nil {
			return nil
		}
	}

	return errors.New("must be an RFC3339 timestamp or YYYY-MM-DD date")
}
