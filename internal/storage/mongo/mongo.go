package mongo

import (
	"context"
	"fmt"
	"strings"

	"github.com/pribylovaa/go-crm/internal/config"
	"github.com/pribylovaa/go-crm/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	contactsCollection = "contacts"
	defaultDBName      = "crms_db"
)

// Mongo — тонкий адаптер над коллекциями users и contacts.
// Клиент драйвера потокобезопасен, поэтому один экземпляр Mongo
// разделяется всеми запросами.
type Mongo struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	users    *mongodriver.Collection
	contacts *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение и создаёт уникальные индексы.
func New(ctx context.Context, cfg config.DBConfig) (*Mongo, error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, fmt.Errorf("mongo: empty db uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(databaseName(cfg.Name))

	m := &Mongo{
		client:   cli,
		db:       db,
		users:    db.Collection(usersCollection),
		contacts: db.Collection(contactsCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

// Close отключает клиента.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт уникальные индексы:
//   - users.email — логин и subject токенов;
//   - contacts.email — источник ошибки «Contact already exists».
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	if _, err := m.users.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("users_email_unique").SetUnique(true),
	}); err != nil {
		return fmt.Errorf("mongo ensure users indexes: %w", err)
	}

	if _, err := m.contacts.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("contacts_email_unique").SetUnique(true),
	}); err != nil {
		return fmt.Errorf("mongo ensure contacts indexes: %w", err)
	}

	return nil
}

// databaseName возвращает имя логической БД или значение по умолчанию.
func databaseName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}

	return defaultDBName
}

// Проверка на соответствие интерфейсу Storage.
var _ storage.Storage = (*Mongo)(nil)
