package mongo

import (
	"context"
	"fmt"

	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// contactDoc — представление контакта в коллекции contacts.
type contactDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	Phone       string             `bson:"phone"`
	Company     string             `bson:"company"`
	Position    string             `bson:"position"`
	Avatar      *string            `bson:"avatar,omitempty"`
	Status      string             `bson:"status"`
	LastContact *string            `bson:"lastContact,omitempty"`
	Tags        []string           `bson:"tags,omitempty"`
	Notes       *string            `bson:"notes,omitempty"`
	CreatedAt   *string            `bson:"createdAt,omitempty"`
}

func contactToDoc(c *models.Contact) contactDoc {
	return contactDoc{
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Company:     c.Company,
		Position:    c.Position,
		Avatar:      c.Avatar,
		Status:      string(c.Status),
		LastContact: c.LastContact,
		Tags:        c.Tags,
		Notes:       c.Notes,
		CreatedAt:   c.CreatedAt,
	}
}

func (d contactDoc) toModel() models.Contact {
	return models.Contact{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		Company:     d.Company,
		Position:    d.Position,
		Avatar:      d.Avatar,
		Status:      models.ContactStatus(d.Status),
		LastContact: d.LastContact,
		Tags:        d.Tags,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt,
	}
}

// ListContacts возвращает все контакты коллекции.
func (m *Mongo) ListContacts(ctx context.Context) ([]models.Contact, error) {
	const op = "storage/mongo/ListContacts"

	cur, err := m.contacts.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	items := make([]models.Contact, 0)
	for cur.Next(ctx) {
		var doc contactDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// SaveContact вставляет контакт. Если ID пустой — драйвер сгенерирует новый ObjectID.
func (m *Mongo) SaveContact(ctx context.Context, contact *models.Contact) error {
	const op = "storage/mongo/SaveContact"

	res, err := m.contacts.InsertOne(ctx, contactToDoc(contact))
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		// Mongo всегда возвращает ObjectID.
		return fmt.Errorf("%s: inserted id type", op)
	}

	contact.ID = oid.Hex()
	return nil
}
