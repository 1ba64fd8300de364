package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/storage"
	"github.com/stretchr/testify/require"
)

func validContact() models.Contact {
	return models.Contact{
		Name:     "Bob Smith",
		Email:    "bob@acme.io",
		Phone:    "+1 555 0100",
		Company:  "Acme",
		Position: "CEO",
		Status:   models.ContactActive,
		Tags:     []string{"vip"},
	}
}

func TestListContacts_EmptyIsNotNil(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	st.EXPECT().ListContacts(gomock.Any()).Return(nil, nil)

	items, err := svc.ListContacts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Len(t, items, 0)
}

func TestListContacts_StorageError(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	st.EXPECT().ListContacts(gomock.Any()).Return(nil, errors.New("db down"))

	_, err := svc.ListContacts(context.Background())
	require.Error(t, err)
}

func TestCreateContact_OK_DefaultsCreatedAt(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	st.EXPECT().SaveContact(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *models.Contact) error {
		c.ID = "65e0a0c9fd2f0000000000bb"
		return nil
	})

	in := validContact()
	in.ID = "client-supplied"

	out, err := svc.CreateContact(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "65e0a0c9fd2f0000000000bb", out.ID)
	require.NotNil(t, out.CreatedAt)
	require.Equal(t, "2024-05-01T12:00:00Z", *out.CreatedAt)
}

func TestCreateContact_KeepsProvidedTimestamps(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	st.EXPECT().SaveContact(gomock.Any(), gomock.Any()).Return(nil)

	in := validContact()
	in.CreatedAt = strPtr("2024-01-02")
	in.LastContact = strPtr("2024-02-03T10:00:00Z")

	out, err := svc.CreateContact(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, "2024-01-02", *out.CreatedAt)
}

func TestCreateContact_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newSvc(t)

	tests := []struct {
		name  string
		mod   func(c *models.Contact)
		field string
	}{
		{"missing_name", func(c *models.Contact) { c.Name = "" }, "name"},
		{"bad_email", func(c *models.Contact) { c.Email = "not-an-email" }, "email"},
		{"missing_phone", func(c *models.Contact) { c.Phone = "" }, "phone"},
		{"missing_company", func(c *models.Contact) { c.Company = "" }, "company"},
		{"missing_position", func(c *models.Contact) { c.Position = "" }, "position"},
		{"missing_status", func(c *models.Contact) { c.Status = "" }, "status"},
		{"unknown_status", func(c *models.Contact) { c.Status = "lost" }, "status"},
		{"bad_last_contact", func(c *models.Contact) { c.LastContact = strPtr("yesterday") }, "lastContact"},
		{"bad_created_at", func(c *models.Contact) { c.CreatedAt = strPtr("01/02/2024") }, "createdAt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := validContact()
			tt.mod(&c)

			_, err := svc.CreateContact(context.Background(), c)
			require.ErrorIs(t, err, ErrInvalidContact)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCreateContact_Duplicate(t *testing.T) {
	t.Parallel()

	svc, st := newSvc(t)
	st.EXPECT().SaveContact(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := svc.CreateContact(context.Background(), validContact())
	require.ErrorIs(t, err, ErrContactExists)
}

func TestCreateContact_MissingEmailTwice_NeverReachesStorage(t *testing.T) {
	t.Parallel()

	// Ожиданий у хранилища нет: любое сохранение провалит тест.
	svc, _ := newSvc(t)

	c := validContact()
	c.Email = ""

	for i := 0; i < 2; i++ {
		_, err := svc.CreateContact(context.Background(), c)
		require.ErrorIs(t, err, ErrInvalidContact)
		require.NotErrorIs(t, err, ErrContactExists)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Contains(t, verr.Fields, "email")
	}
}
