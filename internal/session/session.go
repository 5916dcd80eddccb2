// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the authenticated state of a portal visitor.

A [Session] is the access/refresh token pair plus the member's role. It is
created by login, has its access token replaced by a successful refresh, and is
removed entirely on logout or when the refresh fails.

Architecture:

  - Manager: the only component allowed to read or write a session.
  - Store: a pluggable key-value persistence layer (memory, file, Redis, Postgres).
  - Refresher: the backend call that exchanges a refresh token for a new access token.

Every other package (gateway, guard, portal handlers) reads the session through
a [*Manager] handed to it explicitly, never through the store.
*/
package session

import (
	"errors"
	"time"

	"github.com/taibuivan/memberportal/internal/platform/sec"
)

// # Errors

var (
	// ErrNoSession is returned by a [Store] when nothing is persisted under a key.
	ErrNoSession = errors.New("session: no session")

	// ErrSessionExpired is returned by [Manager.Refresh] when the refresh token
	// is missing, rejected, or unreachable. The session it belonged to is gone.
	ErrSessionExpired = errors.New("session: expired")

	// ErrSessionChanged is returned by a conditional [Store] write when the
	// stored record no longer holds the expected refresh token.
	ErrSessionChanged = errors.New("session: changed concurrently")

	// ErrIncompleteSession rejects a save with any field missing.
	ErrIncompleteSession = errors.New("session: access token, refresh token and role are all required")
)

// # Session Model

// Session is the authenticated state of one visitor.
//
// # Invariant
//
// Either all three fields are set or none is. Partial sessions are never
// handed out by a [Manager].
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Role         sec.Role  `json:"role"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsZero reports whether s carries no authentication state at all.
func (s Session) IsZero() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.Role == ""
}

// Complete reports whether all three fields are present and the role is known.
func (s Session) Complete() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.Role.Valid()
}

// Authenticated reports whether the session carries an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}
