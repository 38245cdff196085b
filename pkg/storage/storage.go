package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/observability"
)

// Collection names.
const (
	CollectionBooks       = "books"
	CollectionRecords     = "records"
	CollectionUsers       = "users"
	CollectionOrders      = "orders"
	CollectionCredentials = "credentials"
)

// Entity is a document with a string identifier.
type Entity interface {
	GetID() string
	SetID(id string)
}

// Filter selects documents whose JSON fields equal the given values.
// An empty filter matches every document.
type Filter map[string]any

// Repository persists documents of one collection.
type Repository[T Entity] interface {
	// FindByID returns ErrNotFound when no document has the ID.
	FindByID(ctx context.Context, id string) (T, error)

	// FindMany returns matching documents in insertion order, possibly none.
	FindMany(ctx context.Context, filter Filter) ([]T, error)

	// Create returns ErrConflict when the ID is taken.
	Create(ctx context.Context, item T) error

	// Update replaces a stored document; ErrNotFound when absent.
	Update(ctx context.Context, item T) error

	// Delete removes a document; ErrNotFound when absent.
	Delete(ctx context.Context, id string) error
}

// Repositories bundles the repositories of every collection.
type Repositories struct {
	Books       Repository[*api.Book]
	Records     Repository[*api.Record]
	Users       Repository[*api.User]
	Orders      Repository[*api.Order]
	Credentials Repository[*api.Credential]
}

// Store is a storage backend.
type Store interface {
	Repositories() Repositories
	HealthCheck(ctx context.Context) error
	Close() error
}

func newBook() *api.Book             { return &api.Book{} }
func newRecord() *api.Record         { return &api.Record{} }
func newUser() *api.User             { return &api.User{} }
func newOrder() *api.Order           { return &api.Order{} }
func newCredential() *api.Credential { return &api.Credential{} }

// Backend is implemented by adapters able to serve raw JSON documents.
// NewRepositories builds typed repositories on top of it.
type Backend interface {
	Name() string
	Get(ctx context.Context, collection, id string) ([]byte, error)
	List(ctx context.Context, collection string, filter []byte) ([][]byte, error)
	Insert(ctx context.Context, collection, id string, doc []byte) error
	Replace(ctx context.Context, collection, id string, doc []byte) error
	Remove(ctx context.Context, collection, id string) error
}

// NewRepositories builds typed repositories for every collection.
func NewRepositories(b Backend) Repositories {
	return Repositories{
		Books:       NewRepository(b, CollectionBooks, newBook),
		Records:     NewRepository(b, CollectionRecords, newRecord),
		Users:       NewRepository(b, CollectionUsers, newUser),
		Orders:      NewRepository(b, CollectionOrders, newOrder),
		Credentials: NewRepository(b, CollectionCredentials, newCredential),
	}
}

// DocumentRepository implements Repository for any entity on a Backend.
type DocumentRepository[T Entity] struct {
	backend    Backend
	collection string
	newItem    func() T
}

// NewRepository creates a repository for collection. newItem allocates the
// value documents are decoded into.
func NewRepository[T Entity](b Backend, collection string, newItem func() T) *DocumentRepository[T] {
	return &DocumentRepository[T]{backend: b, collection: collection, newItem: newItem}
}

// FindByID implements Repository.
func (r *DocumentRepository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := r.backend.Get(ctx, r.collection, id)
	r.observe("find", err)
	if err != nil {
		return zero, err
	}
	return r.decode(doc)
}

// FindMany implements Repository. A nil filter matches every document.
func (r *DocumentRepository[T]) FindMany(ctx context.Context, filter Filter) ([]T, error) {
	filterDoc, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encoding filter: %w", err)
	}
	if filter == nil {
		filterDoc = []byte("{}")
	}
	docs, err := r.backend.List(ctx, r.collection, filterDoc)
	r.observe("list", err)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := r.decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Create implements Repository. An empty ID is replaced with a new one.
func (r *DocumentRepository[T]) Create(ctx context.Context, item T) error {
	if item.GetID() == "" {
		item.SetID(api.NewID())
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", r.collection, err)
	}
	err = r.backend.Insert(ctx, r.collection, item.GetID(), doc)
	r.observe("create", err)
	return err
}

// Update implements Repository.
func (r *DocumentRepository[T]) Update(ctx context.Context, item T) error {
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", r.collection, err)
	}
	err = r.backend.Replace(ctx, r.collection, item.GetID(), doc)
	r.observe("update", err)
	return err
}

// Delete implements Repository.
func (r *DocumentRepository[T]) Delete(ctx context.Context, id string) error {
	err := r.backend.Remove(ctx, r.collection, id)
	r.observe("delete", err)
	return err
}

func (r *DocumentRepository[T]) decode(doc []byte) (T, error) {
	item := r.newItem()
	if err := json.Unmarshal(doc, item); err != nil {
		var zero T
		return zero, fmt.Errorf("decoding %s document: %w", r.collection, err)
	}
	return item, nil
}

func (r *DocumentRepository[T]) observe(op string, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrConflict):
		outcome = "conflict"
	case err != nil:
		outcome = "error"
	}
	observability.StoreOperationsTotal.WithLabelValues(r.backend.Name(), op, outcome).Inc()
}

// Matches reports whether the JSON document contains every field of the
// JSON filter with an equal value. It mirrors the @> containment used by
// the postgres backend for flat filters.
func Matches(doc, filter []byte) (bool, error) {
	var want map[string]any
	if err := json.Unmarshal(filter, &want); err != nil {
		return false, fmt.Errorf("decoding filter: %w", err)
	}
	if len(want) == 0 {
		return true, nil
	}
	var got map[string]any
	if err := json.Unmarshal(doc, &got); err != nil {
		return false, fmt.Errorf("decoding document: %w", err)
	}
	for k, v := range want {
		if !reflect.DeepEqual(got[k], v) {
			return false, nil
		}
	}
	return true, nil
}
