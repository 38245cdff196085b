// Package memory provides an in-memory storage backend for tests and
// lightweight deployments. Documents are lost when the process restarts.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
)

// collection holds the documents of one collection in insertion order.
type collection struct {
	docs  map[string][]byte
	order []string
}

// Store is an in-memory storage.Backend. Documents are kept as encoded JSON
// so callers never share memory with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// Ensure Store implements the storage interfaces at compile time.
var (
	_ storage.Backend = (*Store)(nil)
	_ storage.Store   = (*Store)(nil)
)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

// Name implements storage.Backend.
func (s *Store) Name() string { return "memory" }

// Repositories returns typed repositories backed by this store.
func (s *Store) Repositories() storage.Repositories {
	return storage.NewRepositories(s)
}

// Get implements storage.Backend.
func (s *Store) Get(_ context.Context, name, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(doc), nil
}

// List implements storage.Backend.
func (s *Store) List(_ context.Context, name string, filter []byte) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	var out [][]byte
	for _, id := range c.order {
		doc := c.docs[id]
		match, err := storage.Matches(doc, filter)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, slices.Clone(doc))
		}
	}
	return out, nil
}

// Insert implements storage.Backend.
func (s *Store) Insert(_ context.Context, name, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string][]byte)}
		s.collections[name] = c
	}
	if _, exists := c.docs[id]; exists {
		return storage.ErrConflict
	}
	c.docs[id] = slices.Clone(doc)
	c.order = append(c.order, id)
	return nil
}

// Replace implements storage.Backend.
func (s *Store) Replace(_ context.Context, name, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return storage.ErrNotFound
	}
	if _, exists := c.docs[id]; !exists {
		return storage.ErrNotFound
	}
	c.docs[id] = slices.Clone(doc)
	return nil
}

// Remove implements storage.Backend.
func (s *Store) Remove(_ context.Context, name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return storage.ErrNotFound
	}
	if _, exists := c.docs[id]; !exists {
		return storage.ErrNotFound
	}
	delete(c.docs, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
	return nil
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
