// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard decides whether a visitor may enter a role-restricted area.

Evaluate is a pure function of the session and the roles a route requires.
It must be called on every navigation; a decision is never cached because the
session can change between two requests (e.g. after a logout elsewhere).
*/
package guard

import (
	"slices"

	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/session"
)

// # Decision

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	// Allow renders the guarded view.
	Allow Decision = iota

	// RedirectToLogin sends the visitor to the login page.
	RedirectToLogin

	// RedirectToUnauthorized is reserved for a dedicated forbidden page.
	// [Evaluate] does not produce it: a wrong role is sent to login instead.
	RedirectToUnauthorized
)

// String returns the log-friendly name of the decision.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToUnauthorized:
		return "redirect_to_unauthorized"
	default:
		return "unknown"
	}
}

// # Required Roles

// RoleSet is the set of roles allowed into a route. An empty set admits any
// authenticated visitor.
type RoleSet []sec.Role

// Roles builds a RoleSet.
func Roles(roles ...sec.Role) RoleSet {
	return RoleSet(roles)
}

// Contains reports whether role is in the set.
func (set RoleSet) Contains(role sec.Role) bool {
	return slices.Contains(set, role)
}

// # Evaluation

/*
Evaluate decides whether the holder of s may enter a route requiring required.

Rules, in order:
  - No access token: RedirectToLogin.
  - Non-empty required and role not in it: RedirectToLogin.
  - Otherwise: Allow.
*/
func Evaluate(required RoleSet, s session.Session) Decision {
	if s.AccessToken == "" {
		return RedirectToLogin
	}

	if len(required) > 0 && !required.Contains(s.Role) {
		return RedirectToLogin
	}

	return Allow
}
