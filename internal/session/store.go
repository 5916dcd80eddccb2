// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"
)

// # Persistence Contract

// Store persists one structured [Session] record per key.
//
// Save replaces the whole record in a single write so readers never observe a
// half-updated session. Delete must not fail for a key that does not exist.
//
// Replace and DeleteIf are compare-and-swap writes keyed on the refresh token.
// They let a refresh that started before a logout or a new login finish
// without touching the record that replaced its own.
type Store interface {
	// Load returns the record stored under key, or [ErrNoSession].
	Load(ctx context.Context, key string) (Session, error)

	// Save overwrites the record stored under key.
	Save(ctx context.Context, key string, record Session) error

	// Delete removes the record stored under key.
	Delete(ctx context.Context, key string) error

	// Replace overwrites the record under key only while it still holds
	// refreshToken. Otherwise nothing is written and [ErrSessionChanged] is returned.
	Replace(ctx context.Context, key, refreshToken string, record Session) error

	// DeleteIf removes the record under key only while it still holds
	// refreshToken. A missing or different record returns [ErrSessionChanged].
	DeleteIf(ctx context.Context, key, refreshToken string) error
}

// # In-Memory Store

// MemoryStore keeps sessions in process memory. Sessions are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Session
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Session)}
}

// Load implements [Store].
func (store *MemoryStore) Load(_ context.Context, key string) (Session, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	record, found := store.records[key]
	if !found {
		return Session{}, ErrNoSession
	}
	return record, nil
}

// Save implements [Store].
func (store *MemoryStore) Save(_ context.Context, key string, record Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.records[key] = record
	return nil
}

// Delete implements [Store].
func (store *MemoryStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.records, key)
	return nil
}

// Replace implements [Store].
func (store *MemoryStore) Replace(_ context.Context, key, refreshToken string, record Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, found := store.records[key]
	if !found || current.RefreshToken != refreshToken {
		return ErrSessionChanged
	}

	store.records[key] = record
	return nil
}

// DeleteIf implements [Store].
func (store *MemoryStore) DeleteIf(_ context.Context, key, refreshToken string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	current, found := store.records[key]
	if !found || current.RefreshToken != refreshToken {
		return ErrSessionChanged
	}

	delete(store.records, key)
	return nil
}

// Len returns the number of stored sessions.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.records)
}
