// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package devbackend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/memberportal/internal/backend"
	"github.com/taibuivan/memberportal/internal/devbackend"
)

// Seeded identifiers share one counter: members 1-2, products 3-5, events 6-7.
const (
	adminID       = 1
	userID        = 2
	homeJerseyID  = 3
	trainingCapID = 4
	signedBallID  = 5
)

func newStore(t *testing.T) *devbackend.Store {
	t.Helper()
	store, err := devbackend.NewStore(bcrypt.MinCost)
	require.NoError(t, err)
	return store
}

/*
TestStore_Authenticate verifies the seeded accounts.
*/
func TestStore_Authenticate(t *testing.T) {
	store := newStore(t)

	tests := []struct {
		name     string
		username string
		password string
		wantRole string
		wantErr  error
	}{
		{"admin", "admin", "admin1234", "Admin", nil},
		{"member", "TestUser1", "pw1234", "User", nil},
		{"wrong_password", "TestUser1", "pw12345", "", devbackend.ErrInvalidCredentials},
		{"unknown_user", "ghost", "pw1234", "", devbackend.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := store.Authenticate(tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, profile.Role)
		})
	}
}

/*
TestStore_CreateMember verifies that usernames are unique.
*/
func TestStore_CreateMember(t *testing.T) {
	store := newStore(t)
	registration := backend.Registration{Username: "newbie", MemberName: "New Bie", Email: "newbie@club.example", Password: "secret1", Role: "User"}

	profile, err := store.CreateMember(registration)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.Membership, "defaults to the first tier")

	_, err = store.CreateMember(registration)
	assert.ErrorIs(t, err, devbackend.ErrUsernameTaken)

	_, err = store.Authenticate("newbie", "secret1")
	assert.NoError(t, err)
}

/*
TestStore_AddToCart verifies stock checks and discount pricing.
*/
func TestStore_AddToCart(t *testing.T) {
	store := newStore(t)

	t.Run("unknown_item", func(t *testing.T) {
		_, err := store.AddToCart(userID, 999, 1)
		assert.ErrorIs(t, err, devbackend.ErrNotFound)
	})

	t.Run("unavailable_item", func(t *testing.T) {
		_, err := store.AddToCart(userID, signedBallID, 1)
		var stockError *devbackend.StockError
		require.ErrorAs(t, err, &stockError)
		assert.Equal(t, "Item 'Signed Ball' is not available.", stockError.Message)
	})

	t.Run("insufficient_stock", func(t *testing.T) {
		_, err := store.AddToCart(userID, trainingCapID, 6)
		var stockError *devbackend.StockError
		require.ErrorAs(t, err, &stockError)
		assert.Equal(t, "Only 5 units of 'Training Cap' are available.", stockError.Message)
	})

	t.Run("discounts_stack", func(t *testing.T) {
		product, err := store.AddToCart(userID, homeJerseyID, 2)
		require.NoError(t, err)
		assert.Equal(t, 18, product.ItemQty)

		lines := store.Cart(userID)
		require.Len(t, lines, 1)
		assert.InDelta(t, 0.15, lines[0].DiscountApplied.Float(), 1e-9)
		assert.InDelta(t, 76.50, lines[0].TotalPrice.Float(), 1e-9)
		assert.Empty(t, store.Cart(adminID), "carts are per member")
	})
}

/*
TestStore_RemoveFromCart verifies that removal restores stock.
*/
func TestStore_RemoveFromCart(t *testing.T) {
	store := newStore(t)

	_, err := store.AddToCart(userID, trainingCapID, 3)
	require.NoError(t, err)
	lines := store.Cart(userID)
	require.Len(t, lines, 1)

	_, err = store.RemoveFromCart(adminID, lines[0].CartID)
	assert.ErrorIs(t, err, devbackend.ErrNotFound, "other members cannot remove the line")

	product, err := store.RemoveFromCart(userID, lines[0].CartID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.ItemQty)
	assert.Empty(t, store.Cart(userID))
}

/*
TestStore_Checkout verifies totals, cashback and the empty-cart rule.
*/
func TestStore_Checkout(t *testing.T) {
	store := newStore(t)

	_, _, err := store.Checkout(userID)
	assert.ErrorIs(t, err, devbackend.ErrCartEmpty)

	_, err = store.AddToCart(userID, homeJerseyID, 2)
	require.NoError(t, err)
	_, err = store.AddToCart(adminID, trainingCapID, 1)
	require.NoError(t, err)

	total, cashback, err := store.Checkout(userID)
	require.NoError(t, err)
	assert.InDelta(t, 76.50, total, 1e-9)
	assert.InDelta(t, 1.53, cashback, 1e-9)

	assert.Empty(t, store.Cart(userID))
	assert.Len(t, store.Cart(adminID), 1, "other carts are untouched")
}

/*
TestStore_Events verifies ordering and CRUD of the schedule.
*/
func TestStore_Events(t *testing.T) {
	store := newStore(t)

	events := store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Season Opener", events[0].EventName)

	updated := events[1]
	updated.Location = "Town Hall"
	result, err := store.UpdateEvent(updated.EventID, updated)
	require.NoError(t, err)
	assert.Equal(t, "Town Hall", result.Location)

	require.NoError(t, store.DeleteEvent(updated.EventID))
	_, err = store.Event(updated.EventID)
	assert.ErrorIs(t, err, devbackend.ErrNotFound)
}
