package http

import (
	"fmt"

	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
)

// Records answer writes with the record itself rather than a wrapper.
func newRecordCollection(repo storage.Repository[*api.Record], maxBodySize int64) *collection[*api.Record, *api.RecordPatch] {
	return &collection[*api.Record, *api.RecordPatch]{
		resource: "Record",
		repo:     repo,
		newItem:  func() *api.Record { return &api.Record{} },
		newPatch: func() *api.RecordPatch { return &api.RecordPatch{} },
		filters: []queryFilter{
			{param: "artist", field: "artist"},
			{param: "genre", field: "genre"},
			{param: "available", field: "available", isBool: true},
		},
		maxBodySize: maxBodySize,
		deletedBody: func(id string) any {
			return api.MessageResponse{Message: fmt.Sprintf("Record with id %s was deleted!", id)}
		},
	}
}
