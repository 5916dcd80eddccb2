// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package portal

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/memberportal/internal/backend"
	requestutil "github.com/taibuivan/memberportal/internal/platform/request"
	"github.com/taibuivan/memberportal/internal/platform/respond"
)

// # Route Groups

// adminRoutes registers the /admin-dashboard pages.
//
// # Endpoints
//   - GET  /                                   : current admin profile
//   - POST /members                            : register a member
//   - GET  /memberships                        : membership tiers
//   - GET|POST /products, GET|PUT|DELETE /products/{itemID}
//   - GET|POST /events,   GET|PUT|DELETE /events/{eventID}
func (handler *Handler) adminRoutes(router chi.Router) {
	router.Get("/", read(handler, (*backend.Client).Profile))
	router.Post("/members", create(handler, (*backend.Client).Register))
	router.Get("/memberships", read(handler, (*backend.Client).ListMemberships))

	router.Get("/products", read(handler, (*backend.Client).ListProducts))
	router.Post("/products", create(handler, (*backend.Client).CreateProduct))
	router.Get("/products/{itemID}", readByID(handler, "itemID", (*backend.Client).GetProduct))
	router.Put("/products/{itemID}", update(handler, "itemID", (*backend.Client).UpdateProduct))
	router.Delete("/products/{itemID}", remove(handler, "itemID", (*backend.Client).DeleteProduct))

	router.Get("/events", read(handler, (*backend.Client).ListEvents))
	router.Post("/events", create(handler, (*backend.Client).CreateEvent))
	router.Get("/events/{eventID}", readByID(handler, "eventID", (*backend.Client).GetEvent))
	router.Put("/events/{eventID}", update(handler, "eventID", (*backend.Client).UpdateEvent))
	router.Delete("/events/{eventID}", remove(handler, "eventID", (*backend.Client).DeleteEvent))
}

// userRoutes registers the /user-dashboard pages.
//
// # Endpoints
//   - GET /, /profile                          : member profile
//   - GET /memberships                         : membership tiers
//   - GET /products, /products/{itemID}
//   - GET|POST /cart, DELETE /cart/{cartID}, POST /cart/checkout
//   - GET /events, /events/{eventID}
func (handler *Handler) userRoutes(router chi.Router) {
	router.Get("/", read(handler, (*backend.Client).Profile))
	router.Get("/profile", read(handler, (*backend.Client).Profile))
	router.Get("/memberships", read(handler, (*backend.Client).ListMemberships))

	router.Get("/products", read(handler, (*backend.Client).ListProducts))
	router.Get("/products/{itemID}", readByID(handler, "itemID", (*backend.Client).GetProduct))

	router.Get("/cart", read(handler, (*backend.Client).ViewCart))
	router.Post("/cart", handler.addToCart)
	router.Delete("/cart/{cartID}", handler.removeFromCart)
	router.Post("/cart/checkout", handler.checkout)

	router.Get("/events", read(handler, (*backend.Client).ListEvents))
	router.Get("/events/{eventID}", readByID(handler, "eventID", (*backend.Client).GetEvent))
}

// # Cart

func (handler *Handler) addToCart(writer http.ResponseWriter, request *http.Request) {
	var input backend.AddToCart
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		handler.fail(writer, request, err)
		return
	}

	// The backend defaults a missing quantity to one unit
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	message, err := handler.client(request).AddToCart(request.Context(), input.ItemID, input.Quantity)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	respond.OK(writer, backend.Message{Message: message})
}

func (handler *Handler) removeFromCart(writer http.ResponseWriter, request *http.Request) {
	cartID, err := requestutil.IntParam(request, "cartID")
	if err != nil {
		handler.fail(writer, request, err)
		return
	}

	message, err := handler.client(request).RemoveFromCart(request.Context(), cartID)
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	respond.OK(writer, backend.Message{Message: message})
}

func (handler *Handler) checkout(writer http.ResponseWriter, request *http.Request) {
	message, err := handler.client(request).Checkout(request.Context())
	if err != nil {
		handler.fail(writer, request, err)
		return
	}
	respond.OK(writer, backend.Message{Message: message})
}

// # Handler Adapters
//
// Each adapter turns a backend client method into a handler bound to the
// visitor's session.

func read[T any](handler *Handler, call func(*backend.Client, context.Context) (T, error)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		result, err := call(handler.client(request), request.Context())
		if err != nil {
			handler.fail(writer, request, err)
			return
		}
		respond.OK(writer, result)
	}
}

func readByID[T any](handler *Handler, param string, call func(*backend.Client, context.Context, int) (T, error)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := requestutil.IntParam(request, param)
		if err != nil {
			handler.fail(writer, request, err)
			return
		}

		result, err := call(handler.client(request), request.Context(), id)
		if err != nil {
			handler.fail(writer, request, err)
			return
		}
		respond.OK(writer, result)
	}
}

func create[In, Out any](handler *Handler, call func(*backend.Client, context.Context, In) (Out, error)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		var input In
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			handler.fail(writer, request, err)
			return
		}

		result, err := call(handler.client(request), request.Context(), input)
		if err != nil {
			handler.fail(writer, request, err)
			return
		}
		respond.Created(writer, result)
	}
}

func update[In, Out any](handler *Handler, param string, call func(*backend.Client, context.Context, int, In) (Out, error)) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := requestutil.IntParam(request, param)
		if err != nil {
			handler.fail(writer, request, err)
			return
		}

		var input In
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			handler.fail(writer, request, err)
			return
		}

		result, err := call(handler.client(request), request.Context(), id, input)
		if err != nil {
			handler.fail(writer, request, err)
			return
		}
		respond.OK(writer, result)
	}
}

func remove(handler *Handler, param string, call func(*backend.Client, context.Context, int) error) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		id, err := requestutil.IntParam(request, param)
		if err != nil {
			handler.fail(writer, request, err)
			return
		}

		if err := call(handler.client(request), request.Context(), id); err != nil {
			handler.fail(writer, request, err)
			return
		}
		respond.NoContent(writer)
	}
}
