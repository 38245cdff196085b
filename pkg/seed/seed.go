// Package seed loads the initial catalogue, users and orders into a store.
//
// Seeding is idempotent: documents whose id already exists are left as they
// are, so a seed file can be applied to a store that has been running.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/auth/login"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
)

// User is a seeded user. A non-empty Password also creates the login
// credential for the user.
type User struct {
	api.User
	Password string   `json:"password,omitempty"`
	Scopes   []string `json:"scopes,omitempty"`
}

// Data is the content of a seed file.
type Data struct {
	Books   []*api.Book   `json:"books"`
	Records []*api.Record `json:"records"`
	Users   []*User       `json:"users"`
	Orders  []*api.Order  `json:"orders"`
}

// Result counts what Apply wrote.
type Result struct {
	Created int
	Skipped int
}

// Load reads a seed file.
func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes seed data and validates every book and record.
func Parse(r io.Reader) (*Data, error) {
	var data Data
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding seed data: %w", err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// Validate checks every entry, naming the offending one.
func (d *Data) Validate() error {
	var errs []error
	for i, b := range d.Books {
		if b.ID == "" {
			errs = append(errs, fmt.Errorf("books[%d]: id is required", i))
		}
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("books[%d]: %w", i, err))
		}
	}
	for i, r := range d.Records {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("records[%d]: id is required", i))
		}
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("records[%d]: %w", i, err))
		}
	}
	for i, u := range d.Users {
		if u.ID == "" || u.Username == "" {
			errs = append(errs, fmt.Errorf("users[%d]: id and username are required", i))
		}
	}
	for i, o := range d.Orders {
		if o.ID == "" || o.UserID == "" {
			errs = append(errs, fmt.Errorf("orders[%d]: id and userId are required", i))
		}
	}
	return errors.Join(errs...)
}

// Apply writes data into repos. Existing documents are skipped.
func Apply(ctx context.Context, repos storage.Repositories, data *Data, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var total Result

	steps := []struct {
		name string
		run  func() (Result, error)
	}{
		{storage.CollectionBooks, func() (Result, error) { return insertAll(ctx, repos.Books, data.Books) }},
		{storage.CollectionRecords, func() (Result, error) { return insertAll(ctx, repos.Records, data.Records) }},
		{storage.CollectionUsers, func() (Result, error) { return insertUsers(ctx, repos, data.Users) }},
		{storage.CollectionOrders, func() (Result, error) { return insertAll(ctx, repos.Orders, data.Orders) }},
	}
	for _, step := range steps {
		res, err := step.run()
		total.Created += res.Created
		total.Skipped += res.Skipped
		if err != nil {
			return total, fmt.Errorf("seeding %s: %w", step.name, err)
		}
		logger.Info("seeded collection", "collection", step.name, "created", res.Created, "skipped", res.Skipped)
	}
	return total, nil
}

func insertAll[T storage.Entity](ctx context.Context, repo storage.Repository[T], items []T) (Result, error) {
	var res Result
	for _, item := range items {
		created, err := insertOne(ctx, repo, item)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// insertOne creates item unless a document with its id exists.
func insertOne[T storage.Entity](ctx context.Context, repo storage.Repository[T], item T) (bool, error) {
	err := repo.Create(ctx, item)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrConflict):
		return false, nil
	default:
		return false, fmt.Errorf("creating %s: %w", item.GetID(), err)
	}
}

// insertUsers creates each user and, for users with a password, the
// matching credential. Passwords are only ever stored as bcrypt hashes.
func insertUsers(ctx context.Context, repos storage.Repositories, users []*User) (Result, error) {
	var res Result
	for _, u := range users {
		user := u.User
		created, err := insertOne(ctx, repos.Users, &user)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}

		if u.Password == "" {
			continue
		}
		hash, err := login.HashPassword(u.Password)
		if err != nil {
			return res, err
		}
		cred := &api.Credential{ID: u.ID, Username: u.Username, PasswordHash: hash, Scopes: u.Scopes}
		if _, err := insertOne(ctx, repos.Credentials, cred); err != nil {
			return res, err
		}
	}
	return res, nil
}
