// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backend is the typed client of the membership REST API.

Every call goes through the [gateway.Gateway] with the visitor's
[session.Manager] as credentials, so bearer tokens, refresh-and-replay and
error classification are handled in exactly one place. Login and
registration are the only unauthenticated calls.

Architecture:

  - One Client per visitor session. Construction is cheap.
  - Methods return domain structs and [apperr.AppError] values; they never
    expose HTTP details to the portal handlers.
*/
package backend

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/taibuivan/memberportal/internal/gateway"
	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/session"
)

// Client calls the backend on behalf of one session.
type Client struct {
	gateway *gateway.Gateway
	session *session.Manager
}

// New creates a Client bound to manager.
func New(gw *gateway.Gateway, manager *session.Manager) *Client {
	return &Client{gateway: gw, session: manager}
}

// Session returns the session this client acts for.
func (client *Client) Session() *session.Manager { return client.session }

// send issues an authenticated request and decodes a 2xx body into T.
func send[T any](ctx context.Context, client *Client, request gateway.Request) (T, error) {
	var result T

	response, err := client.gateway.Send(ctx, client.session, request)
	if err != nil {
		return result, err
	}

	if err := response.Decode(&result); err != nil {
		return result, apperr.Internal(err)
	}

	return result, nil
}

// # Authentication

/*
Login exchanges credentials for a token pair and stores the new session.

Description: The call is sent without a bearer token. The returned role is
normalised with [sec.ParseRole]; an account without a portal role cannot log
in and no session is stored.

Returns:
  - *TokenPair: The backend response
  - error: VALIDATION_ERROR, UNAUTHORIZED (bad credentials), FORBIDDEN (no role)
*/
func (client *Client) Login(ctx context.Context, credentials Credentials) (*TokenPair, error) {
	if err := credentials.Validate(); err != nil {
		return nil, err
	}

	response, err := client.gateway.Send(ctx, nil, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.EndpointToken,
		Body:   credentials,
	})
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := response.Decode(&pair); err != nil {
		return nil, apperr.Internal(err)
	}

	role, err := sec.ParseRole(pair.Role)
	if err != nil {
		return nil, apperr.Forbidden("This account has no portal role")
	}
	pair.Role = role.String()

	if err := client.session.Save(ctx, pair.Access, pair.Refresh, role); err != nil {
		return nil, apperr.Internal(err)
	}

	return &pair, nil
}

// Logout clears the session. The backend keeps no server-side session to revoke.
func (client *Client) Logout(ctx context.Context) error {
	return client.session.Clear(ctx)
}

// Register creates a member account. The call is sent without a bearer token.
func (client *Client) Register(ctx context.Context, registration Registration) (*Profile, error) {
	if err := registration.Validate(); err != nil {
		return nil, err
	}

	response, err := client.gateway.Send(ctx, nil, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.EndpointRegister,
		Body:   registration,
	})
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := response.Decode(&profile); err != nil {
		return nil, apperr.Internal(err)
	}

	return &profile, nil
}

// # Members

// Profile returns the authenticated member.
func (client *Client) Profile(ctx context.Context) (*Profile, error) {
	profile, err := send[Profile](ctx, client, gateway.Request{Path: constants.EndpointProfile})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListMemberships returns every membership tier.
func (client *Client) ListMemberships(ctx context.Context) ([]Membership, error) {
	return send[[]Membership](ctx, client, gateway.Request{Path: constants.EndpointMembership})
}

// # Products

// ListProducts returns the store catalogue.
func (client *Client) ListProducts(ctx context.Context) ([]Product, error) {
	return send[[]Product](ctx, client, gateway.Request{Path: constants.EndpointProducts})
}

// GetProduct returns one product.
func (client *Client) GetProduct(ctx context.Context, itemID int) (*Product, error) {
	product, err := send[Product](ctx, client, gateway.Request{Path: fmt.Sprintf(constants.EndpointProductRetrieve, itemID)})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct adds a product to the catalogue.
func (client *Client) CreateProduct(ctx context.Context, product Product) (*Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	created, err := send[Product](ctx, client, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.EndpointProductCreate,
		Body:   product,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces a product.
func (client *Client) UpdateProduct(ctx context.Context, itemID int, product Product) (*Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	updated, err := send[Product](ctx, client, gateway.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf(constants.EndpointProductEdit, itemID),
		Body:   product,
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes a product.
func (client *Client) DeleteProduct(ctx context.Context, itemID int) error {
	_, err := client.gateway.Send(ctx, client.session, gateway.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf(constants.EndpointProductDelete, itemID),
	})
	return err
}

// # Cart

/*
ViewCart returns the member's cart lines.

Description: The backend answers an empty cart with a message object instead
of a list; that case yields an empty slice.
*/
func (client *Client) ViewCart(ctx context.Context) ([]CartLine, error) {
	response, err := client.gateway.Send(ctx, client.session, gateway.Request{Path: constants.EndpointCartView})
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(bytes.TrimSpace(response.Body), []byte("[")) {
		return []CartLine{}, nil
	}

	var lines []CartLine
	if err := response.Decode(&lines); err != nil {
		return nil, apperr.Internal(err)
	}
	return lines, nil
}

// AddToCart puts quantity units of an item into the cart.
func (client *Client) AddToCart(ctx context.Context, itemID, quantity int) (string, error) {
	if quantity < 1 {
		return "", apperr.ValidationError("Validation failed", apperr.FieldError{Field: "quantity", Message: "Must be at least 1"})
	}

	message, err := send[Message](ctx, client, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.EndpointCartAdd,
		Body:   AddToCart{ItemID: itemID, Quantity: quantity},
	})
	return message.Message, err
}

// RemoveFromCart deletes one cart line.
func (client *Client) RemoveFromCart(ctx context.Context, cartID int) (string, error) {
	message, err := send[Message](ctx, client, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.EndpointCartRemove,
		Body:   RemoveFromCart{CartID: cartID},
	})
	return message.Message, err
}

// Checkout settles and empties the cart.
func (client *Client) Checkout(ctx context.Context) (string, error) {
	message, err := send[Message](ctx, client, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.EndpointCartCheckout,
	})
	return message.Message, err
}

// # Events

// ListEvents returns the event schedule.
func (client *Client) ListEvents(ctx context.Context) ([]Event, error) {
	return send[[]Event](ctx, client, gateway.Request{Path: constants.EndpointEvents})
}

// GetEvent returns one event.
func (client *Client) GetEvent(ctx context.Context, eventID int) (*Event, error) {
	event, err := send[Event](ctx, client, gateway.Request{Path: fmt.Sprintf(constants.EndpointEventRetrieve, eventID)})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent schedules an event.
func (client *Client) CreateEvent(ctx context.Context, event Event) (*Event, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	created, err := send[Event](ctx, client, gateway.Request{
		Method: http.MethodPost,
		Path:   constants.EndpointEventCreate,
		Body:   event,
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent replaces an event.
func (client *Client) UpdateEvent(ctx context.Context, eventID int, event Event) (*Event, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	updated, err := send[Event](ctx, client, gateway.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf(constants.EndpointEventEdit, eventID),
		Body:   event,
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent removes an event.
func (client *Client) DeleteEvent(ctx context.Context, eventID int) error {
	_, err := client.gateway.Send(ctx, client.session, gateway.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf(constants.EndpointEventDelete, eventID),
	})
	return err
}
