// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package devbackend is an in-memory stand-in for the membership REST API.

It serves the same paths, payloads and error shapes as the production backend
so the portal can be run and tested end to end without it. Tokens are real
HS256 JWTs with expiry, which makes the refresh path observable.

Architecture:

  - Store: mutex-guarded maps seeded with two accounts and sample data.
  - Handler: chi routes under /api, protected by bearer authentication.
  - Errors follow the backend conventions: {"detail"} for auth failures,
    {"message"} for business rules and {"field": ["..."]} for validation.
*/
package devbackend

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/memberportal/internal/backend"
	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/middleware"
	requestutil "github.com/taibuivan/memberportal/internal/platform/request"
	"github.com/taibuivan/memberportal/internal/platform/respond"
	"github.com/taibuivan/memberportal/internal/platform/sec"
)

// Handler implements the development backend endpoints.
type Handler struct {
	store      *Store
	tokens     *sec.TokenService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewHandler constructs a [Handler].
func NewHandler(store *Store, tokens *sec.TokenService, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{
		store:      store,
		tokens:     tokens,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// NewRouter mounts the handler under /api behind the standard middleware.
func NewRouter(handler *Handler, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.PanicRecovery(logger))

	router.Mount("/api", handler.Routes())
	router.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		writeDetail(writer, http.StatusNotFound, "Not found.", "not_found")
	})

	return router
}

// Routes returns the /api router.
//
// # Endpoints
//   - POST /token/, /token/refresh/, /admin/register/ : open
//   - everything else                                 : bearer access token
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/token/", handler.obtainToken)
	router.Post("/token/refresh/", handler.refreshToken)
	router.Post("/admin/register/", handler.register)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticate(handler.tokens))
		protected.Use(middleware.RequireAuth)

		protected.Get("/profile/", handler.profile)
		protected.Get("/membership/", handler.listMemberships)

		protected.Get("/products/", handler.listProducts)
		protected.Post("/products/create/", handler.createProduct)
		protected.Get("/products/retrieve/{itemID}/", handler.getProduct)
		protected.Put("/products/edit/{itemID}/", handler.updateProduct)
		protected.Patch("/products/edit/{itemID}/", handler.updateProduct)
		protected.Delete("/products/delete/{itemID}/", handler.deleteProduct)

		protected.Post("/cart/add/", handler.addToCart)
		protected.Get("/cart/view/", handler.viewCart)
		protected.Post("/cart/remove/", handler.removeFromCart)
		protected.Post("/cart/checkout/", handler.checkout)

		protected.Get("/events/", handler.listEvents)
		protected.Post("/events/create/", handler.createEvent)
		protected.Get("/events/retrieve/{eventID}/", handler.getEvent)
		protected.Put("/events/edit/{eventID}/", handler.updateEvent)
		protected.Patch("/events/edit/{eventID}/", handler.updateEvent)
		protected.Delete("/events/delete/{eventID}/", handler.deleteEvent)
	})

	return router
}

// # Members

func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	memberID, err := currentMemberID(request)
	if err != nil {
		writeError(writer, err)
		return
	}

	profile, err := handler.store.Member(memberID)
	if err != nil {
		writeDetail(writer, http.StatusUnauthorized, "User not found", "user_not_found")
		return
	}

	respond.JSON(writer, http.StatusOK, profile)
}

func (handler *Handler) listMemberships(writer http.ResponseWriter, request *http.Request) {
	respond.JSON(writer, http.StatusOK, handler.store.Memberships())
}

// # Products

func (handler *Handler) listProducts(writer http.ResponseWriter, request *http.Request) {
	respond.JSON(writer, http.StatusOK, handler.store.Products())
}

func (handler *Handler) getProduct(writer http.ResponseWriter, request *http.Request) {
	itemID, err := requestutil.IntParam(request, "itemID")
	if err != nil {
		writeError(writer, err)
		return
	}

	product, err := handler.store.Product(itemID)
	if err != nil {
		writeDetail(writer, http.StatusNotFound, "No Store matches the given query.", "not_found")
		return
	}

	respond.JSON(writer, http.StatusOK, product)
}

func (handler *Handler) createProduct(writer http.ResponseWriter, request *http.Request) {
	var product backend.Product
	if err := requestutil.DecodeJSON(request, &product); err != nil {
		writeError(writer, err)
		return
	}

	if err := product.Validate(); err != nil {
		writeError(writer, err)
		return
	}

	respond.JSON(writer, http.StatusCreated, handler.store.CreateProduct(product))
}

func (handler *Handler) updateProduct(writer http.ResponseWriter, request *http.Request) {
	itemID, err := requestutil.IntParam(request, "itemID")
	if err != nil {
		writeError(writer, err)
		return
	}

	var product backend.Product
	if err := requestutil.DecodeJSON(request, &product); err != nil {
		writeError(writer, err)
		return
	}

	if err := product.Validate(); err != nil {
		writeError(writer, err)
		return
	}

	updated, err := handler.store.UpdateProduct(itemID, product)
	if err != nil {
		writeDetail(writer, http.StatusNotFound, "No Store matches the given query.", "not_found")
		return
	}

	respond.JSON(writer, http.StatusOK, updated)
}

func (handler *Handler) deleteProduct(writer http.ResponseWriter, request *http.Request) {
	itemID, err := requestutil.IntParam(request, "itemID")
	if err != nil {
		writeError(writer, err)
		return
	}

	if err := handler.store.DeleteProduct(itemID); err != nil {
		writeDetail(writer, http.StatusNotFound, "No Store matches the given query.", "not_found")
		return
	}

	respond.NoContent(writer)
}

// # Cart

func (handler *Handler) addToCart(writer http.ResponseWriter, request *http.Request) {
	memberID, err := currentMemberID(request)
	if err != nil {
		writeError(writer, err)
		return
	}

	var input backend.AddToCart
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		writeError(writer, err)
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	product, err := handler.store.AddToCart(memberID, input.ItemID, input.Quantity)

	var stockError *StockError
	switch {
	case errors.Is(err, ErrNotFound):
		writeMessage(writer, http.StatusNotFound, "Item does not exist.")
	case errors.As(err, &stockError):
		writeMessage(writer, http.StatusBadRequest, stockError.Message)
	case err != nil:
		writeError(writer, err)
	default:
		writeMessage(writer, http.StatusOK, strconv.Itoa(input.Quantity)+"x '"+product.ItemName+"' added to your cart.")
	}
}

func (handler *Handler) viewCart(writer http.ResponseWriter, request *http.Request) {
	memberID, err := currentMemberID(request)
	if err != nil {
		writeError(writer, err)
		return
	}

	lines := handler.store.Cart(memberID)
	if len(lines) == 0 {
		writeMessage(writer, http.StatusOK, "Your cart is empty.")
		return
	}

	respond.JSON(writer, http.StatusOK, lines)
}

func (handler *Handler) removeFromCart(writer http.ResponseWriter, request *http.Request) {
	memberID, err := currentMemberID(request)
	if err != nil {
		writeError(writer, err)
		return
	}

	var input backend.RemoveFromCart
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		writeError(writer, err)
		return
	}

	product, err := handler.store.RemoveFromCart(memberID, input.CartID)
	if err != nil {
		writeMessage(writer, http.StatusNotFound, "Item not found in your cart.")
		return
	}

	writeMessage(writer, http.StatusOK, "Item '"+product.ItemName+"' removed from your cart.")
}

func (handler *Handler) checkout(writer http.ResponseWriter, request *http.Request) {
	memberID, err := currentMemberID(request)
	if err != nil {
		writeError(writer, err)
		return
	}

	total, cashback, err := handler.store.Checkout(memberID)
	if errors.Is(err, ErrCartEmpty) {
		writeMessage(writer, http.StatusBadRequest, "Your cart is empty.")
		return
	}
	if err != nil {
		writeError(writer, err)
		return
	}

	writeMessage(writer, http.StatusOK,
		"Checkout successful. Total: $"+strconv.FormatFloat(total, 'f', 2, 64)+
			", Cashback: $"+strconv.FormatFloat(cashback, 'f', 2, 64))
}

// # Events

func (handler *Handler) listEvents(writer http.ResponseWriter, request *http.Request) {
	respond.JSON(writer, http.StatusOK, handler.store.Events())
}

func (handler *Handler) getEvent(writer http.ResponseWriter, request *http.Request) {
	eventID, err := requestutil.IntParam(request, "eventID")
	if err != nil {
		writeError(writer, err)
		return
	}

	event, err := handler.store.Event(eventID)
	if err != nil {
		writeDetail(writer, http.StatusNotFound, "No Event matches the given query.", "not_found")
		return
	}

	respond.JSON(writer, http.StatusOK, event)
}

func (handler *Handler) createEvent(writer http.ResponseWriter, request *http.Request) {
	var event backend.Event
	if err := requestutil.DecodeJSON(request, &event); err != nil {
		writeError(writer, err)
		return
	}

	if err := event.Validate(); err != nil {
		writeError(writer, err)
		return
	}

	respond.JSON(writer, http.StatusCreated, handler.store.CreateEvent(event))
}

func (handler *Handler) updateEvent(writer http.ResponseWriter, request *http.Request) {
	eventID, err := requestutil.IntParam(request, "eventID")
	if err != nil {
		writeError(writer, err)
		return
	}

	var event backend.Event
	if err := requestutil.DecodeJSON(request, &event); err != nil {
		writeError(writer, err)
		return
	}

	if err := event.Validate(); err != nil {
		writeError(writer, err)
		return
	}

	updated, err := handler.store.UpdateEvent(eventID, event)
	if err != nil {
		writeDetail(writer, http.StatusNotFound, "No Event matches the given query.", "not_found")
		return
	}

	respond.JSON(writer, http.StatusOK, updated)
}

func (handler *Handler) deleteEvent(writer http.ResponseWriter, request *http.Request) {
	eventID, err := requestutil.IntParam(request, "eventID")
	if err != nil {
		writeError(writer, err)
		return
	}

	if err := handler.store.DeleteEvent(eventID); err != nil {
		writeDetail(writer, http.StatusNotFound, "No Event matches the given query.", "not_found")
		return
	}

	respond.NoContent(writer)
}

// # Helpers

// currentMemberID reads the member ID from the verified access token.
func currentMemberID(request *http.Request) (int, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return 0, err
	}

	memberID, err := strconv.Atoi(claims.UserID)
	if err != nil {
		return 0, apperr.Unauthorized("Token contained no recognizable user identification")
	}

	return memberID, nil
}

// writeDetail writes a {"detail", "code"} error body.
func writeDetail(writer http.ResponseWriter, status int, detail, code string) {
	respond.JSON(writer, status, map[string]string{"detail": detail, "code": code})
}

// writeMessage writes a {"message"} body.
func writeMessage(writer http.ResponseWriter, status int, message string) {
	respond.JSON(writer, status, backend.Message{Message: message})
}

// writeError renders an error the way the backend does: field lists for
// validation failures, {"detail"} for everything else.
func writeError(writer http.ResponseWriter, err error) {
	appError := apperr.As(err)
	if appError == nil {
		appError = apperr.Internal(err)
	}

	if len(appError.Details) > 0 {
		fields := make(map[string][]string, len(appError.Details))
		for _, detail := range appError.Details {
			fields[detail.Field] = append(fields[detail.Field], detail.Message)
		}
		respond.JSON(writer, appError.HTTPStatus, fields)
		return
	}

	writeDetail(writer, appError.HTTPStatus, appError.Message, appError.Code)
}
