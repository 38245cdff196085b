// Package transport implements the request pipeline: an ordered chain of
// stages executed per route, a lifecycle state machine for every request,
// and the terminal handlers that turn failures into responses.
//
// # Pipeline
//
// Each route is served by an [Executor]. A request enters as an [Exchange]
// in state pending, passes through the route's stages (recovery, then
// authentication unless the route is public, then any scope or
// service-token stages) and reaches the route [Handler]. The stages form a
// [Chain]: Chain(a, b, c) runs a, then b, then c, then the handler.
//
// # Termination
//
// Every request ends in exactly one terminal outcome. A success writes the
// handler's [Response]. A failure is classified into the api error
// taxonomy, reported once through the configured [Reporter], and handed to
// exactly one terminal handler from the [Terminals] registry. The registry
// always holds a catch-all that answers 500 without detail.
package transport
