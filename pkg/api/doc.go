// Package api defines the resource types served by the bookstore API and the
// closed error taxonomy every request failure is classified into.
//
// The package performs no I/O. Resource types marshal to the JSON shapes used
// on the wire; [Error] carries a [Kind] that maps one-to-one onto an HTTP
// status code.
//
// Core types:
//   - [Book], [Record], [User], [Order]: the served resources
//   - [Credential]: a stored login record, never rendered to clients
//   - [Error]: a classified error with kind, client message and cause
//   - [ExchangeState]: lifecycle states of a request inside the pipeline
package api
