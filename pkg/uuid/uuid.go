// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers for the portal.

It wraps the google/uuid library to generate Version 7 values. They are used
for request IDs, token IDs and the visitor IDs that key server-side sessions.

Properties:

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Unguessable: 74 random bits per identifier, enough for a cookie value.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// Create a new version 7 UUID (time-sortable)
	id, err := uuid.NewV7()

	// Entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// Valid reports whether value parses as a UUID of any version.
// It is used to reject forged visitor cookies before they reach a store.
func Valid(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
