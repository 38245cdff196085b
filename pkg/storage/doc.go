// Package storage defines the persistence contract used by route handlers
// together with shared sentinel errors.
//
// Adapters (memory, postgres) store every resource as a JSON document keyed
// by collection and ID. Absence is reported with [ErrNotFound]; it is never
// a classified API error here. Handlers translate it at the route boundary.
package storage
