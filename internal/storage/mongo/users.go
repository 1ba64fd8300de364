package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-crm/internal/models"
	"github.com/pribylovaa/go-crm/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// userDoc — представление пользователя в коллекции users.
// Имена полей совпадают с уже существующими документами.
type userDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	FirstName      string             `bson:"firstname"`
	LastName       string             `bson:"lastname"`
	Email          string             `bson:"email"`
	Phone          *string            `bson:"phone"`
	JobTitle       *string            `bson:"job_title"`
	Company        *string            `bson:"company"`
	Department     *string            `bson:"department"`
	HashedPassword string             `bson:"hashed_password"`
	Role           string             `bson:"role"`
}

func (d userDoc) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Email:        d.Email,
		Phone:        d.Phone,
		JobTitle:     d.JobTitle,
		Company:      d.Company,
		Department:   d.Department,
		PasswordHash: d.HashedPassword,
		Role:         models.Role(d.Role),
	}
}

// SaveUser создаёт пользователя. ID генерирует драйвер.
func (m *Mongo) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage/mongo/SaveUser"

	doc := userDoc{
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Phone:          user.Phone,
		JobTitle:       user.JobTitle,
		Company:        user.Company,
		Department:     user.Department,
		HashedPassword: user.PasswordHash,
		Role:           string(user.Role),
	}

	res, err := m.users.InsertOne(ctx, doc)
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("%s: inserted id type", op)
	}

	user.ID = oid.Hex()
	return nil
}

// UserByEmail находит пользователя по email.
func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage/mongo/UserByEmail"

	var doc userDoc
	if err := m.users.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// UpdateUser применяет $set только к переданным полям.
// Пустое обновление лишь проверяет существование пользователя.
func (m *Mongo) UpdateUser(ctx context.Context, email string, upd models.ProfileUpdate) error {
	const op = "storage/mongo/UpdateUser"

	filter := bson.D{{Key: "email", Value: email}}

	set := profileSet(upd)
	if len(set) == 0 {
		n, err := m.users.CountDocuments(ctx, filter)
		if err != nil {
			return fmt.Errorf("%s: count: %w", op, err)
		}

		if n == 0 {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil
	}

	res, err := m.users.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// profileSet собирает документ для $set из непустых полей обновления.
func profileSet(upd models.ProfileUpdate) bson.D {
	fields := []struct {
		key string
		val *string
	}{
		{"firstname", upd.FirstName},
		{"lastname", upd.LastName},
		{"phone", upd.Phone},
		{"job_title", upd.JobTitle},
		{"company", upd.Company},
		{"department", upd.Department},
	}

	set := bson.D{}
	for _, f := range fields {
		if f.val != nil {
			set = append(set, bson.E{Key: f.key, Value: *f.val})
		}
	}

	return set
}
