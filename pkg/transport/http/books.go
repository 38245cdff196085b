package http

import (
	"fmt"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
)

func newBookCollection(repo storage.Repository[*api.Book], maxBodySize int64) *collection[*api.Book, *api.BookPatch] {
	return &collection[*api.Book, *api.BookPatch]{
		resource: "Book",
		repo:     repo,
		newItem:  func() *api.Book { return &api.Book{} },
		newPatch: func() *api.BookPatch { return &api.BookPatch{} },
		filters: []queryFilter{
			{param: "genre", field: "genre"},
			{param: "available", field: "available", isBool: true},
		},
		maxBodySize: maxBodySize,
		createdBody: func(b *api.Book) any {
			return api.BookResponse{Message: "Book added successfully!", Book: b}
		},
		updatedBody: func(b *api.Book) any {
			return api.BookResponse{Message: fmt.Sprintf("Book with id %s was updated successfully!", b.ID), Book: b}
		},
		deletedBody: func(id string) any {
			return api.MessageResponse{Message: fmt.Sprintf("Book with id %s was deleted!", id)}
		},
	}
}
