// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/taibuivan/memberportal/internal/platform/validate"
)

// # Wire Types

// Decimal is a monetary or rate value. The backend may encode decimals either
// as JSON numbers or as quoted strings ("45.00"); both are accepted.
type Decimal float64

// UnmarshalJSON implements [json.Unmarshaler].
func (d *Decimal) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*d = 0
		return nil
	}

	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("backend: invalid decimal %q", text)
	}

	*d = Decimal(value)
	return nil
}

// Float returns the value as a float64.
func (d Decimal) Float() float64 { return float64(d) }

// # Authentication

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// Validate checks the login payload before it leaves the portal.
func (c Credentials) Validate() error {
	return (&validate.Validator{}).
		Required("username", c.Username).
		Required("password", c.Password).
		Err()
}

// TokenPair is the login response.
type TokenPair struct {
	Access     string `json:"access"`
	Refresh    string `json:"refresh"`
	MemberID   int    `json:"member_id"`
	Username   string `json:"username"`
	MemberName string `json:"member_name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// # Members

// Registration is the payload of the admin member-registration endpoint.
type Registration struct {
	Username   string `json:"username"`
	MemberName string `json:"member_name"`
	Email      string `json:"member_email"`
	Password   string `json:"password"`
	Membership int    `json:"membership,omitempty"`
	Role       string `json:"role"`
}

// Validate checks a registration before it is sent.
func (r Registration) Validate() error {
	return (&validate.Validator{}).
		Required("username", r.Username).
		MinLen("username", r.Username, 3).
		MaxLen("username", r.Username, 150).
		Required("member_name", r.MemberName).
		Email("member_email", r.Email).
		MinLen("password", r.Password, 6).
		OneOf("role", r.Role, "Admin", "User").
		Err()
}

// Profile is the authenticated member as returned by the profile endpoint.
type Profile struct {
	MemberID   int    `json:"member_id"`
	Username   string `json:"username"`
	MemberName string `json:"member_name"`
	Email      string `json:"member_email"`
	Membership int    `json:"membership"`
	Role       string `json:"role"`
}

// Membership is one tier of the membership programme.
type Membership struct {
	MembershipID  int     `json:"membership_id"`
	Name          string  `json:"membership_name"`
	CashbackRates Decimal `json:"cashback_rates"`
	DiscountRates Decimal `json:"discount_rates"`
	Tier          int     `json:"tier"`
}

// # Store

// Product is an item of the club store.
type Product struct {
	ItemID        int     `json:"item_id,omitempty"`
	ProductGroup  *int    `json:"product_group,omitempty"`
	ItemName      string  `json:"item_name"`
	Size          string  `json:"size,omitempty"`
	ItemDesc      string  `json:"item_desc,omitempty"`
	ItemQty       int     `json:"item_qty"`
	ItemPrice     Decimal `json:"item_price"`
	DiscountRates Decimal `json:"discount_rates"`
	IsAvailable   bool    `json:"is_available"`
	ItemImg       string  `json:"item_img,omitempty"`
}

// Validate checks a product before it is created or updated.
func (p Product) Validate() error {
	return (&validate.Validator{}).
		Required("item_name", p.ItemName).
		MaxLen("item_name", p.ItemName, 100).
		Custom("item_qty", p.ItemQty < 0, "Must not be negative").
		Custom("item_price", p.ItemPrice < 0, "Must not be negative").
		Custom("discount_rates", p.DiscountRates < 0 || p.DiscountRates > 1, "Must be between 0 and 1").
		Err()
}

// CartLine is one entry of the member's cart.
type CartLine struct {
	CartID          int     `json:"cart_id,omitempty"`
	ItemName        string  `json:"item_name"`
	Quantity        int     `json:"quantity"`
	PricePerItem    Decimal `json:"price_per_item"`
	DiscountApplied Decimal `json:"discount_applied"`
	TotalPrice      Decimal `json:"total_price"`
}

// AddToCart is the payload of the add-to-cart endpoint.
type AddToCart struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

// RemoveFromCart is the payload of the remove-from-cart endpoint.
type RemoveFromCart struct {
	CartID int `json:"cart_id"`
}

// Message is the plain acknowledgement body most write endpoints return.
type Message struct {
	Message string `json:"message"`
}

// # Events

// Event types accepted by the backend.
const (
	EventClubMatches    = "club_matches"
	EventClubTraining   = "club_training"
	EventAGM            = "agm"
	EventTrialSelection = "trial_selection"
	EventPromotion      = "promotion"
)

// EventTypes lists every accepted event type.
var EventTypes = []string{EventClubMatches, EventClubTraining, EventAGM, EventTrialSelection, EventPromotion}

// Event is a scheduled club event.
type Event struct {
	EventID        int       `json:"event_id,omitempty"`
	EventName      string    `json:"event_name"`
	EventDesc      string    `json:"event_desc,omitempty"`
	EventTypes     string    `json:"event_types"`
	EventDateStart time.Time `json:"event_date_start"`
	EventDateEnd   time.Time `json:"event_date_end"`
	Location       string    `json:"location,omitempty"`
	IsActive       bool      `json:"is_active"`
	EventImg       string    `json:"event_img,omitempty"`
}

// Validate checks an event before it is created or updated.
func (e Event) Validate() error {
	return (&validate.Validator{}).
		Required("event_name", e.EventName).
		OneOf("event_types", e.EventTypes, EventTypes...).
		Custom("event_date_start", e.EventDateStart.IsZero(), "This field is required").
		Custom("event_date_end", !e.EventDateEnd.After(e.EventDateStart), "End date must be after the start date.").
		Err()
}
