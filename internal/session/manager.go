// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/memberportal/internal/platform/constants"
	"github.com/taibuivan/memberportal/internal/platform/sec"
)

// # Manager

// Manager is the exclusive owner of one session record.
//
// # Concurrency
//
// A Manager is safe for concurrent use. Concurrent [Manager.Refresh] calls for
// the same key (also across Managers built by one [Factory]) are coalesced into
// a single backend call whose outcome every caller shares.
type Manager struct {
	key       string
	store     Store
	refresher Refresher
	flight    *singleflight.Group
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a Manager for a single session stored under
// [constants.DefaultSessionKey].
func NewManager(store Store, refresher Refresher, logger *slog.Logger) *Manager {
	return NewFactory(store, refresher, logger).For(constants.DefaultSessionKey)
}

// Key returns the store key this Manager owns.
func (manager *Manager) Key() string { return manager.key }

// # Lifecycle

/*
Save persists a complete session, overwriting any prior one.

Description: The three values are written as one record so a reader can never
observe a mix of old and new fields.

Returns:
  - error: ErrIncompleteSession if any value is missing, or storage failures
*/
func (manager *Manager) Save(ctx context.Context, accessToken, refreshToken string, role sec.Role) error {
	record := Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         role,
		UpdatedAt:    manager.now().UTC(),
	}

	if !record.Complete() {
		return ErrIncompleteSession
	}

	if err := manager.store.Save(ctx, manager.key, record); err != nil {
		return fmt.Errorf("session_save_failed: %w", err)
	}

	return nil
}

/*
Current returns the stored session, or the zero [Session] when there is none.

Description: A persisted record that violates the all-or-nothing invariant
(e.g. written by an older build or edited by hand) is deleted and reported as
no session.
*/
func (manager *Manager) Current(ctx context.Context) (Session, error) {
	record, err := manager.store.Load(ctx, manager.key)
	if errors.Is(err, ErrNoSession) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("session_load_failed: %w", err)
	}

	if !record.Complete() {
		manager.logger.WarnContext(ctx, "session_partial_record_discarded", slog.String("session_key", manager.key))
		if err := manager.store.Delete(ctx, manager.key); err != nil {
			return Session{}, fmt.Errorf("session_discard_failed: %w", err)
		}
		return Session{}, nil
	}

	return record, nil
}

// AccessToken returns the current access token, or "" when there is no session.
func (manager *Manager) AccessToken(ctx context.Context) (string, error) {
	record, err := manager.Current(ctx)
	return record.AccessToken, err
}

// Role returns the current role, or "" when there is no session.
func (manager *Manager) Role(ctx context.Context) (sec.Role, error) {
	record, err := manager.Current(ctx)
	return record.Role, err
}

// IsAuthenticated reports whether an access token is held.
func (manager *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	record, err := manager.Current(ctx)
	return record.Authenticated(), err
}

// Clear removes all session state. Clearing an empty session is a no-op.
func (manager *Manager) Clear(ctx context.Context) error {
	if err := manager.store.Delete(ctx, manager.key); err != nil {
		return fmt.Errorf("session_clear_failed: %w", err)
	}
	return nil
}

// # Refresh

/*
Refresh exchanges the stored refresh token for a new access token.

Description: On success only the access token is replaced; the refresh token
and role stay as they were. On any failure (no refresh token, rejected token,
unreachable backend) the session is cleared and the returned error wraps
[ErrSessionExpired]. The refresh itself is never retried.

The backend call runs detached from the caller's cancellation: once started it
completes for every caller waiting on it. Both the write and the clear are
conditional on the refresh token read at the start, so a logout or a new login
that lands while the backend call is in flight is never overwritten. In that
case the result is dropped and the error wraps both [ErrSessionExpired] and
[ErrSessionChanged].

Returns:
  - string: The new access token
  - error: ErrSessionExpired, or storage failures
*/
func (manager *Manager) Refresh(ctx context.Context) (string, error) {
	detached := context.WithoutCancel(ctx)

	result, err, shared := manager.flight.Do(manager.key, func() (interface{}, error) {
		return manager.refresh(detached)
	})

	if shared {
		manager.logger.DebugContext(ctx, "session_refresh_coalesced", slog.String("session_key", manager.key))
	}

	if err != nil {
		return "", err
	}

	return result.(string), nil
}

// refresh performs one backend refresh and updates or clears the record.
func (manager *Manager) refresh(ctx context.Context) (string, error) {
	record, err := manager.Current(ctx)
	if err != nil {
		return "", err
	}

	// ── 1. No Refresh Token ───────────────────────────────────────────────
	if record.RefreshToken == "" {
		manager.logger.WarnContext(ctx, "session_expired",
			slog.String("session_key", manager.key),
			slog.String("reason", "no refresh token available"),
		)
		return "", fmt.Errorf("%w: no refresh token available", ErrSessionExpired)
	}

	// ── 2. Backend Exchange ───────────────────────────────────────────────
	accessToken, err := manager.refresher.RefreshAccessToken(ctx, record.RefreshToken)
	if err != nil {
		return "", manager.expire(ctx, record.RefreshToken, err)
	}

	// ── 3. Replace Access Token Only ──────────────────────────────────────
	renewed := record
	renewed.AccessToken = accessToken
	renewed.UpdatedAt = manager.now().UTC()

	err = manager.store.Replace(ctx, manager.key, record.RefreshToken, renewed)
	if errors.Is(err, ErrSessionChanged) {
		return "", manager.superseded(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("session_refresh_save_failed: %w", err)
	}

	attributes := []any{slog.String("session_key", manager.key)}
	if expiry, ok := sec.PeekExpiry(accessToken); ok {
		attributes = append(attributes, slog.Time("access_expires_at", expiry))
	}
	manager.logger.InfoContext(ctx, "session_refreshed", attributes...)

	return accessToken, nil
}

// expire clears the session that held refreshToken after a failed refresh
// and builds the terminal error.
func (manager *Manager) expire(ctx context.Context, refreshToken string, cause error) error {
	manager.logger.WarnContext(ctx, "session_expired",
		slog.String("session_key", manager.key),
		slog.String("reason", cause.Error()),
	)

	err := manager.store.DeleteIf(ctx, manager.key, refreshToken)
	if errors.Is(err, ErrSessionChanged) {
		return manager.superseded(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: %v (clear failed: %v)", ErrSessionExpired, cause, err)
	}

	return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
}

// superseded reports a refresh whose session was logged out or replaced mid-flight.
func (manager *Manager) superseded(ctx context.Context) error {
	manager.logger.InfoContext(ctx, "session_refresh_superseded", slog.String("session_key", manager.key))
	return fmt.Errorf("%w: %w", ErrSessionExpired, ErrSessionChanged)
}

// # Factory

// Factory builds Managers that share a store, a refresher and one
// refresh-coalescing group. The portal uses one Factory and asks it for a
// Manager per visitor.
type Factory struct {
	store     Store
	refresher Refresher
	flight    *singleflight.Group
	logger    *slog.Logger
}

// NewFactory creates a [Factory]. A nil logger falls back to [slog.Default].
func NewFactory(store Store, refresher Refresher, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}

	return &Factory{
		store:     store,
		refresher: refresher,
		flight:    &singleflight.Group{},
		logger:    logger,
	}
}

// For returns the Manager owning the session stored under key.
func (factory *Factory) For(key string) *Manager {
	return &Manager{
		key:       key,
		store:     factory.store,
		refresher: factory.refresher,
		flight:    factory.flight,
		logger:    factory.logger,
		now:       time.Now,
	}
}
