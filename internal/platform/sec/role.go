// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// # User Roles

// Role is the coarse permission tag the backend attaches to a member.
// It decides which dashboard a visitor may reach.
type Role string

const (
	// Staff members managing users, stores and events
	RoleAdmin Role = "Admin"

	// Default role for registered members
	RoleUser Role = "User"
)

// folder compares role names without regard to case ("admin", "ADMIN", "Admin").
var folder = cases.Fold()

// # Parsing

// ParseRole maps a backend role string onto a known [Role].
//
// The backend stores role types as free text, so matching is case-insensitive
// and ignores surrounding whitespace.
func ParseRole(raw string) (Role, error) {
	folded := folder.String(strings.TrimSpace(raw))

	for _, role := range []Role{RoleAdmin, RoleUser} {
		if folded == folder.String(string(role)) {
			return role, nil
		}
	}

	return "", fmt.Errorf("sec: unknown role %q", raw)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// String implements [fmt.Stringer].
func (r Role) String() string { return string(r) }
