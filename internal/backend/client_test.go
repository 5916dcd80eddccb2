// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/memberportal/internal/backend"
	"github.com/taibuivan/memberportal/internal/devbackend"
	"github.com/taibuivan/memberportal/internal/gateway"
	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/session"
)

const visitor = "visitor-1"

type harness struct {
	client *backend.Client
	store  *session.MemoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	data, err := devbackend.NewStore(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := sec.NewTokenService("client-test-secret", "test")
	require.NoError(t, err)

	server := httptest.NewServer(devbackend.NewRouter(devbackend.NewHandler(data, tokens, time.Minute, time.Hour), logger))
	t.Cleanup(server.Close)

	store := session.NewMemoryStore()
	refresher, err := session.NewHTTPRefresher(server.URL+"/", server.Client())
	require.NoError(t, err)

	gw, err := gateway.New(server.URL+"/", gateway.WithHTTPClient(server.Client()), gateway.WithLogger(logger))
	require.NoError(t, err)

	manager := session.NewFactory(store, refresher, logger).For(visitor)
	return &harness{client: backend.New(gw, manager), store: store}
}

func (h *harness) login(t *testing.T, username, password string) {
	t.Helper()
	_, err := h.client.Login(context.Background(), backend.Credentials{Username: username, Password: password})
	require.NoError(t, err)
}

/*
TestClient_Login verifies that a successful login stores the whole session.
*/
func TestClient_Login(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pair, err := h.client.Login(ctx, backend.Credentials{Username: "TestUser1", Password: "pw1234"})
	require.NoError(t, err)
	assert.Equal(t, "User", pair.Role)

	stored, err := h.client.Session().Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, pair.Access, stored.AccessToken)
	assert.Equal(t, pair.Refresh, stored.RefreshToken)
	assert.Equal(t, sec.RoleUser, stored.Role)

	expiry, ok := sec.PeekExpiry(stored.AccessToken)
	require.True(t, ok)
	assert.True(t, expiry.After(time.Now()))

	require.NoError(t, h.client.Logout(ctx))
	authenticated, err := h.client.Session().IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authenticated)
}

/*
TestClient_LoginRejected verifies that failures leave no session behind.
*/
func TestClient_LoginRejected(t *testing.T) {
	tests := []struct {
		name        string
		credentials backend.Credentials
		wantCode    string
	}{
		{"wrong_password", backend.Credentials{Username: "TestUser1", Password: "nope"}, apperr.CodeUnauthorized},
		{"missing_username", backend.Credentials{Password: "pw1234"}, apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.client.Login(context.Background(), tt.credentials)
			assert.True(t, apperr.HasCode(err, tt.wantCode), "got %v", err)
			assert.Zero(t, h.store.Len())
		})
	}
}

/*
TestClient_Cart verifies the cart round trip including the empty-cart shape.
*/
func TestClient_Cart(t *testing.T) {
	h := newHarness(t)
	h.login(t, "TestUser1", "pw1234")
	ctx := context.Background()

	lines, err := h.client.ViewCart(ctx)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)

	_, err = h.client.AddToCart(ctx, 3, 0)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	message, err := h.client.AddToCart(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, "1x 'Home Jersey' added to your cart.", message)

	lines, err = h.client.ViewCart(ctx)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	message, err = h.client.RemoveFromCart(ctx, lines[0].CartID)
	require.NoError(t, err)
	assert.Equal(t, "Item 'Home Jersey' removed from your cart.", message)

	_, err = h.client.Checkout(ctx)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "Your cart is empty.", appError.Message)
}

/*
TestClient_Products verifies the administrator product operations.
*/
func TestClient_Products(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin", "admin1234")
	ctx := context.Background()

	created, err := h.client.CreateProduct(ctx, backend.Product{ItemName: "Scarf", ItemQty: 30, ItemPrice: 12.5, IsAvailable: true})
	require.NoError(t, err)
	require.NotZero(t, created.ItemID)

	created.ItemPrice = 10
	updated, err := h.client.UpdateProduct(ctx, created.ItemID, *created)
	require.NoError(t, err)
	assert.InDelta(t, 10, updated.ItemPrice.Float(), 1e-9)

	fetched, err := h.client.GetProduct(ctx, created.ItemID)
	require.NoError(t, err)
	assert.Equal(t, "Scarf", fetched.ItemName)

	require.NoError(t, h.client.DeleteProduct(ctx, created.ItemID))

	_, err = h.client.GetProduct(ctx, created.ItemID)
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusNotFound, appError.HTTPStatus)

	_, err = h.client.CreateProduct(ctx, backend.Product{ItemName: "Bad", DiscountRates: 1.5})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestClient_Events verifies listing and local validation of events.
*/
func TestClient_Events(t *testing.T) {
	h := newHarness(t)
	h.login(t, "TestUser1", "pw1234")
	ctx := context.Background()

	events, err := h.client.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)

	event, err := h.client.GetEvent(ctx, events[0].EventID)
	require.NoError(t, err)
	assert.Equal(t, events[0].EventName, event.EventName)

	start := time.Date(2026, time.December, 1, 10, 0, 0, 0, time.UTC)
	_, err = h.client.CreateEvent(ctx, backend.Event{
		EventName:      "Trials",
		EventTypes:     backend.EventTrialSelection,
		EventDateStart: start,
		EventDateEnd:   start.Add(-time.Hour),
	})
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "event_date_end", appError.Details[0].Field)

	tiers, err := h.client.ListMemberships(ctx)
	require.NoError(t, err)
	assert.Len(t, tiers, 3)
}

/*
TestClient_RefreshesExpiredAccessToken verifies that the client recovers from
a rejected access token without caller involvement.
*/
func TestClient_RefreshesExpiredAccessToken(t *testing.T) {
	h := newHarness(t)
	h.login(t, "TestUser1", "pw1234")
	ctx := context.Background()

	stored, err := h.store.Load(ctx, visitor)
	require.NoError(t, err)
	stored.AccessToken = "stale"
	require.NoError(t, h.store.Save(ctx, visitor, stored))

	profile, err := h.client.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "TestUser1", profile.Username)

	renewed, err := h.store.Load(ctx, visitor)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", renewed.AccessToken)
	assert.Equal(t, stored.RefreshToken, renewed.RefreshToken)
}

/*
TestDecimal_UnmarshalJSON verifies both decimal encodings.
*/
func TestDecimal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{`45.5`, 45.5, false},
		{`"45.50"`, 45.5, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var value backend.Decimal
			err := json.Unmarshal([]byte(tt.raw), &value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, value.Float(), 1e-9)
		})
	}
}
