package http

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/transport"
)

// validatable is implemented by request bodies checked before use.
type validatable interface {
	Validate() error
}

// patch is a partial update for T.
type patch[T any] interface {
	validatable
	Apply(T)
}

// entity is a stored resource that validates itself on creation.
type entity interface {
	storage.Entity
	validatable
}

// queryFilter maps a query parameter onto a document field.
type queryFilter struct {
	param  string
	field  string
	isBool bool
}

// collection serves list, get, create, update and delete for one resource.
type collection[T entity, P patch[T]] struct {
	resource    string
	repo        storage.Repository[T]
	newItem     func() T
	newPatch    func() P
	filters     []queryFilter
	maxBodySize int64

	// Response bodies; nil means the entity itself.
	createdBody func(T) any
	updatedBody func(T) any
	deletedBody func(id string) any
}

// collectionHandlers are the bound handlers of a collection.
type collectionHandlers struct {
	list, get, create, update, delete transport.Handler
}

func (c *collection[T, P]) handlers() collectionHandlers {
	return collectionHandlers{
		list:   c.list,
		get:    c.get,
		create: c.create,
		update: c.update,
		delete: c.delete,
	}
}

// filter builds a storage filter from the query string. Boolean
// parameters must parse; anything else is a validation error.
func (c *collection[T, P]) filter(q url.Values) (storage.Filter, error) {
	filter := storage.Filter{}
	for _, f := range c.filters {
		v := q.Get(f.param)
		if v == "" {
			continue
		}
		if !f.isBool {
			filter[f.field] = v
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, api.NewValidationError("Query parameter "+f.param+" must be true or false!", err)
		}
		filter[f.field] = b
	}
	return filter, nil
}

func (c *collection[T, P]) list(x *transport.Exchange) (*transport.Response, error) {
	filter, err := c.filter(x.Request.URL.Query())
	if err != nil {
		return nil, err
	}
	items, err := c.repo.FindMany(x.Context(), filter)
	if err != nil {
		return nil, storeError(c.resource, "", err)
	}
	return ok(items)
}

func (c *collection[T, P]) get(x *transport.Exchange) (*transport.Response, error) {
	id := x.PathValue("id")
	if !api.ValidateID(id) {
		return nil, api.NewNotFoundError(c.resource, id)
	}
	item, err := c.repo.FindByID(x.Context(), id)
	if err != nil {
		return nil, storeError(c.resource, id, err)
	}
	return ok(item)
}

func (c *collection[T, P]) create(x *transport.Exchange) (*transport.Response, error) {
	item := c.newItem()
	if err := decodeJSON(x, c.maxBodySize, item); err != nil {
		return nil, err
	}
	item.SetID("")
	if err := item.Validate(); err != nil {
		return nil, api.ValidationFailed(err)
	}
	if err := c.repo.Create(x.Context(), item); err != nil {
		return nil, storeError(c.resource, item.GetID(), err)
	}

	var body any = item
	if c.createdBody != nil {
		body = c.createdBody(item)
	}
	return &transport.Response{Status: http.StatusCreated, Body: body}, nil
}

func (c *collection[T, P]) update(x *transport.Exchange) (*transport.Response, error) {
	id := x.PathValue("id")
	if !api.ValidateID(id) {
		return nil, api.NewNotFoundError(c.resource, id)
	}
	p := c.newPatch()
	if err := decodeJSON(x, c.maxBodySize, p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, api.ValidationFailed(err)
	}

	item, err := c.repo.FindByID(x.Context(), id)
	if err != nil {
		return nil, storeError(c.resource, id, err)
	}
	p.Apply(item)
	item.SetID(id)
	if err := c.repo.Update(x.Context(), item); err != nil {
		return nil, storeError(c.resource, id, err)
	}

	var body any = item
	if c.updatedBody != nil {
		body = c.updatedBody(item)
	}
	return ok(body)
}

func (c *collection[T, P]) delete(x *transport.Exchange) (*transport.Response, error) {
	id := x.PathValue("id")
	if !api.ValidateID(id) {
		return nil, api.NewNotFoundError(c.resource, id)
	}
	if err := c.repo.Delete(x.Context(), id); err != nil {
		return nil, storeError(c.resource, id, err)
	}
	return ok(c.deletedBody(id))
}
