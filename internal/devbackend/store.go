// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package devbackend

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/memberportal/internal/backend"
	"github.com/taibuivan/memberportal/internal/platform/sec"
)

// Store errors. Handlers map them onto backend-style messages.
var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrUsernameTaken      = errors.New("a member with that username already exists")
	ErrNotFound           = errors.New("not found")
	ErrCartEmpty          = errors.New("your cart is empty")
)

// StockError reports that an item cannot be added in the requested quantity.
type StockError struct {
	Message string
}

func (e *StockError) Error() string { return e.Message }

// member is an account of the development backend.
type member struct {
	profile      backend.Profile
	passwordHash string
}

// cartEntry is one line of a member's cart.
type cartEntry struct {
	id       int
	memberID int
	itemID   int
	quantity int
	discount float64
	total    float64
}

// Store is the in-memory state of the development backend.
//
// # Concurrency
//
// All methods are safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	hashCost    int
	members     map[string]*member
	memberships []backend.Membership
	products    map[int]backend.Product
	events      map[int]backend.Event
	cart        []cartEntry
	nextID      int
}

// NewStore creates a Store seeded with membership tiers, an admin, a regular
// member, a few products and events.
//
// Seeded accounts: admin / admin1234 (Admin) and TestUser1 / pw1234 (User).
func NewStore(hashCost int) (*Store, error) {
	store := &Store{
		hashCost: hashCost,
		members:  make(map[string]*member),
		products: make(map[int]backend.Product),
		events:   make(map[int]backend.Event),
		nextID:   1,
		memberships: []backend.Membership{
			{MembershipID: 1, Name: "Bronze", CashbackRates: 0.01, DiscountRates: 0, Tier: 1},
			{MembershipID: 2, Name: "Silver", CashbackRates: 0.02, DiscountRates: 0.05, Tier: 2},
			{MembershipID: 3, Name: "Gold", CashbackRates: 0.05, DiscountRates: 0.10, Tier: 3},
		},
	}

	seedMembers := []backend.Registration{
		{Username: "admin", MemberName: "Club Administrator", Email: "admin@club.example", Password: "admin1234", Membership: 3, Role: "Admin"},
		{Username: "TestUser1", MemberName: "Test User", Email: "testuser1@club.example", Password: "pw1234", Membership: 2, Role: "User"},
	}
	for _, registration := range seedMembers {
		if _, err := store.CreateMember(registration); err != nil {
			return nil, fmt.Errorf("devbackend: seed member %q: %w", registration.Username, err)
		}
	}

	store.CreateProduct(backend.Product{ItemName: "Home Jersey", Size: "M", ItemDesc: "Season home jersey", ItemQty: 20, ItemPrice: 45, DiscountRates: 0.1, IsAvailable: true})
	store.CreateProduct(backend.Product{ItemName: "Training Cap", Size: "One size", ItemDesc: "Cotton cap", ItemQty: 5, ItemPrice: 15, IsAvailable: true})
	store.CreateProduct(backend.Product{ItemName: "Signed Ball", ItemDesc: "Limited edition", ItemQty: 0, ItemPrice: 120, IsAvailable: false})

	start := time.Date(2026, time.November, 7, 15, 0, 0, 0, time.UTC)
	store.CreateEvent(backend.Event{EventName: "Season Opener", EventTypes: backend.EventClubMatches, EventDateStart: start, EventDateEnd: start.Add(2 * time.Hour), Location: "Main Ground", IsActive: true})
	store.CreateEvent(backend.Event{EventName: "Annual General Meeting", EventTypes: backend.EventAGM, EventDateStart: start.AddDate(0, 1, 0), EventDateEnd: start.AddDate(0, 1, 0).Add(3 * time.Hour), Location: "Clubhouse", IsActive: true})

	return store, nil
}

// allocateID returns the next identifier. Callers hold the lock.
func (store *Store) allocateID() int {
	id := store.nextID
	store.nextID++
	return id
}

// # Members

// Authenticate checks a username and password.
func (store *Store) Authenticate(username, password string) (backend.Profile, error) {
	store.mu.Lock()
	account, found := store.members[username]
	store.mu.Unlock()

	if !found || !sec.CheckPasswordHash(password, account.passwordHash) {
		return backend.Profile{}, ErrInvalidCredentials
	}

	return account.profile, nil
}

// CreateMember registers a new account.
func (store *Store) CreateMember(registration backend.Registration) (backend.Profile, error) {
	hash, err := sec.HashPassword(registration.Password, store.hashCost)
	if err != nil {
		return backend.Profile{}, err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if _, taken := store.members[registration.Username]; taken {
		return backend.Profile{}, ErrUsernameTaken
	}

	membership := registration.Membership
	if membership == 0 {
		membership = 1
	}

	profile := backend.Profile{
		MemberID:   store.allocateID(),
		Username:   registration.Username,
		MemberName: registration.MemberName,
		Email:      registration.Email,
		Membership: membership,
		Role:       registration.Role,
	}
	store.members[registration.Username] = &member{profile: profile, passwordHash: hash}

	return profile, nil
}

// Member returns the account with the given ID.
func (store *Store) Member(memberID int) (backend.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, account := range store.members {
		if account.profile.MemberID == memberID {
			return account.profile, nil
		}
	}
	return backend.Profile{}, ErrNotFound
}

// Memberships returns every tier ordered by tier.
func (store *Store) Memberships() []backend.Membership {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]backend.Membership(nil), store.memberships...)
}

// membershipOf returns the tier of a member. Callers hold the lock.
func (store *Store) membershipOf(memberID int) backend.Membership {
	for _, account := range store.members {
		if account.profile.MemberID != memberID {
			continue
		}
		for _, membership := range store.memberships {
			if membership.MembershipID == account.profile.Membership {
				return membership
			}
		}
	}
	return backend.Membership{}
}

// # Products

// Products returns the catalogue ordered by ID.
func (store *Store) Products() []backend.Product {
	store.mu.Lock()
	defer store.mu.Unlock()

	products := make([]backend.Product, 0, len(store.products))
	for _, product := range store.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ItemID < products[j].ItemID })
	return products
}

// Product returns one product.
func (store *Store) Product(itemID int) (backend.Product, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	product, found := store.products[itemID]
	if !found {
		return backend.Product{}, ErrNotFound
	}
	return product, nil
}

// CreateProduct adds a product and returns it with its new ID.
func (store *Store) CreateProduct(product backend.Product) backend.Product {
	store.mu.Lock()
	defer store.mu.Unlock()

	product.ItemID = store.allocateID()
	store.products[product.ItemID] = product
	return product
}

// UpdateProduct replaces a product.
func (store *Store) UpdateProduct(itemID int, product backend.Product) (backend.Product, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, found := store.products[itemID]; !found {
		return backend.Product{}, ErrNotFound
	}
	product.ItemID = itemID
	store.products[itemID] = product
	return product, nil
}

// DeleteProduct removes a product.
func (store *Store) DeleteProduct(itemID int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, found := store.products[itemID]; !found {
		return ErrNotFound
	}
	delete(store.products, itemID)
	return nil
}

// # Cart

/*
AddToCart reserves quantity units of an item for a member.

Description: The unit price is reduced by the item discount plus the member's
tier discount, both fractions. Stock is decremented immediately.
*/
func (store *Store) AddToCart(memberID, itemID, quantity int) (backend.Product, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	product, found := store.products[itemID]
	if !found {
		return backend.Product{}, ErrNotFound
	}

	if !product.IsAvailable {
		return product, &StockError{Message: fmt.Sprintf("Item '%s' is not available.", product.ItemName)}
	}
	if product.ItemQty < quantity {
		return product, &StockError{Message: fmt.Sprintf("Only %d units of '%s' are available.", product.ItemQty, product.ItemName)}
	}

	discount := math.Min(1, product.DiscountRates.Float()+store.membershipOf(memberID).DiscountRates.Float())
	unitPrice := product.ItemPrice.Float() * (1 - discount)

	store.cart = append(store.cart, cartEntry{
		id:       store.allocateID(),
		memberID: memberID,
		itemID:   itemID,
		quantity: quantity,
		discount: discount,
		total:    roundCents(unitPrice * float64(quantity)),
	})

	product.ItemQty -= quantity
	store.products[itemID] = product

	return product, nil
}

// Cart returns the lines of a member's cart.
func (store *Store) Cart(memberID int) []backend.CartLine {
	store.mu.Lock()
	defer store.mu.Unlock()

	var lines []backend.CartLine
	for _, entry := range store.cart {
		if entry.memberID != memberID {
			continue
		}
		product := store.products[entry.itemID]
		lines = append(lines, backend.CartLine{
			CartID:          entry.id,
			ItemName:        product.ItemName,
			Quantity:        entry.quantity,
			PricePerItem:    product.ItemPrice,
			DiscountApplied: backend.Decimal(entry.discount),
			TotalPrice:      backend.Decimal(entry.total),
		})
	}
	return lines
}

// RemoveFromCart deletes a cart line and restores the stock it held.
func (store *Store) RemoveFromCart(memberID, cartID int) (backend.Product, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for index, entry := range store.cart {
		if entry.id != cartID || entry.memberID != memberID {
			continue
		}

		product, found := store.products[entry.itemID]
		if found {
			product.ItemQty += entry.quantity
			store.products[entry.itemID] = product
		}

		store.cart = append(store.cart[:index], store.cart[index+1:]...)
		return product, nil
	}

	return backend.Product{}, ErrNotFound
}

// Checkout empties a member's cart and returns the total and earned cashback.
func (store *Store) Checkout(memberID int) (total, cashback float64, err error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var remaining []cartEntry
	settled := 0
	for _, entry := range store.cart {
		if entry.memberID == memberID {
			total += entry.total
			settled++
			continue
		}
		remaining = append(remaining, entry)
	}

	if settled == 0 {
		return 0, 0, ErrCartEmpty
	}
	store.cart = remaining

	cashback = roundCents(total * store.membershipOf(memberID).CashbackRates.Float())
	return roundCents(total), cashback, nil
}

// # Events

// Events returns the schedule ordered by start date.
func (store *Store) Events() []backend.Event {
	store.mu.Lock()
	defer store.mu.Unlock()

	events := make([]backend.Event, 0, len(store.events))
	for _, event := range store.events {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventDateStart.Before(events[j].EventDateStart) })
	return events
}

// Event returns one event.
func (store *Store) Event(eventID int) (backend.Event, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	event, found := store.events[eventID]
	if !found {
		return backend.Event{}, ErrNotFound
	}
	return event, nil
}

// CreateEvent schedules an event and returns it with its new ID.
func (store *Store) CreateEvent(event backend.Event) backend.Event {
	store.mu.Lock()
	defer store.mu.Unlock()

	event.EventID = store.allocateID()
	store.events[event.EventID] = event
	return event
}

// UpdateEvent replaces an event.
func (store *Store) UpdateEvent(eventID int, event backend.Event) (backend.Event, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, found := store.events[eventID]; !found {
		return backend.Event{}, ErrNotFound
	}
	event.EventID = eventID
	store.events[eventID] = event
	return event, nil
}

// DeleteEvent removes an event.
func (store *Store) DeleteEvent(eventID int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, found := store.events[eventID]; !found {
		return ErrNotFound
	}
	delete(store.events, eventID)
	return nil
}

func roundCents(value float64) float64 {
	return math.Round(value*100) / 100
}
