package http

import (
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/api"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/storage"
	"github.com/JunbolWincAcademyBackend/bookstore/pkg/transport"
)

// handleListUsers handles GET /users.
func (a *Adapter) handleListUsers(x *transport.Exchange) (*transport.Response, error) {
	filter := storage.Filter{}
	if username := x.Request.URL.Query().Get("username"); username != "" {
		filter["username"] = username
	}
	users, err := a.config.Repositories.Users.FindMany(x.Context(), filter)
	if err != nil {
		return nil, storeError("User", "", err)
	}
	return ok(users)
}

// handleUserOrders handles GET /users/{id}/orders.
func (a *Adapter) handleUserOrders(x *transport.Exchange) (*transport.Response, error) {
	id := x.PathValue("id")
	if !api.ValidateID(id) {
		return nil, api.NewNotFoundError("User", id)
	}
	user, err := a.config.Repositories.Users.FindByID(x.Context(), id)
	if err != nil {
		return nil, storeError("User", id, err)
	}
	orders, err := a.config.Repositories.Orders.FindMany(x.Context(), storage.Filter{"userId": id})
	if err != nil {
		return nil, storeError("Order", "", err)
	}
	return ok(api.UserWithOrders{User: *user, Orders: orders})
}
