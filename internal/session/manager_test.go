// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/memberportal/internal/platform/apperr"
	"github.com/taibuivan/memberportal/internal/platform/sec"
	"github.com/taibuivan/memberportal/internal/session"
)

// fakeRefresher records refresh calls and answers with a fixed outcome.
type fakeRefresher struct {
	mu       sync.Mutex
	calls    int
	received []string
	access   string
	err      error

	// started and release, when set, hold the call open until released.
	started chan struct{}
	release chan struct{}
}

func (refresher *fakeRefresher) RefreshAccessToken(_ context.Context, refreshToken string) (string, error) {
	refresher.mu.Lock()
	refresher.calls++
	refresher.received = append(refresher.received, refreshToken)
	refresher.mu.Unlock()

	if refresher.started != nil {
		close(refresher.started)
		<-refresher.release
	}

	return refresher.access, refresher.err
}

func (refresher *fakeRefresher) callCount() int {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	return refresher.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

/*
TestManager_SaveAndRead verifies that a saved session is readable through every accessor.
*/
func TestManager_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(session.NewMemoryStore(), &fakeRefresher{}, quietLogger())

	// 1. Initially empty
	token, err := manager.AccessToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	authenticated, err := manager.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authenticated)

	// 2. Save and read back
	require.NoError(t, manager.Save(ctx, "A1", "R1", sec.RoleUser))

	current, err := manager.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A1", current.AccessToken)
	assert.Equal(t, "R1", current.RefreshToken)
	assert.Equal(t, sec.RoleUser, current.Role)

	role, err := manager.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleUser, role)

	// 3. A second save overwrites the first entirely
	require.NoError(t, manager.Save(ctx, "A9", "R9", sec.RoleAdmin))
	current, err = manager.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A9", current.AccessToken)
	assert.Equal(t, "R9", current.RefreshToken)
	assert.Equal(t, sec.RoleAdmin, current.Role)
}

/*
TestManager_SaveRejectsPartial verifies the all-or-nothing invariant on write.
*/
func TestManager_SaveRejectsPartial(t *testing.T) {
	tests := []struct {
		name    string
		access  string
		refresh string
		role    sec.Role
	}{
		{"missing_access", "", "R1", sec.RoleUser},
		{"missing_refresh", "A1", "", sec.RoleUser},
		{"missing_role", "A1", "R1", ""},
		{"unknown_role", "A1", "R1", sec.Role("Staff")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewMemoryStore()
			manager := session.NewManager(store, &fakeRefresher{}, quietLogger())

			err := manager.Save(context.Background(), tt.access, tt.refresh, tt.role)
			assert.ErrorIs(t, err, session.ErrIncompleteSession)
			assert.Equal(t, 0, store.Len())
		})
	}
}

/*
TestManager_PartialRecordDiscarded verifies that a partial persisted record reads as no session.
*/
func TestManager_PartialRecordDiscarded(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	manager := session.NewManager(store, &fakeRefresher{}, quietLogger())

	require.NoError(t, store.Save(ctx, manager.Key(), session.Session{AccessToken: "A1"}))

	current, err := manager.Current(ctx)
	require.NoError(t, err)
	assert.True(t, current.IsZero())
	assert.Equal(t, 0, store.Len())
}

/*
TestManager_ClearIdempotent verifies that clearing twice equals clearing once.
*/
func TestManager_ClearIdempotent(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	manager := session.NewManager(store, &fakeRefresher{}, quietLogger())
	require.NoError(t, manager.Save(ctx, "A1", "R1", sec.RoleUser))

	require.NoError(t, manager.Clear(ctx))
	first, err := manager.Current(ctx)
	require.NoError(t, err)

	require.NoError(t, manager.Clear(ctx))
	second, err := manager.Current(ctx)
	require.NoError(t, err)

	assert.True(t, first.IsZero())
	assert.Equal(t, first, second)
	assert.Equal(t, 0, store.Len())
}

/*
TestManager_RefreshSuccess verifies that only the access token changes on refresh.
*/
func TestManager_RefreshSuccess(t *testing.T) {
	ctx := context.Background()
	refresher := &fakeRefresher{access: "A2"}
	manager := session.NewManager(session.NewMemoryStore(), refresher, quietLogger())
	require.NoError(t, manager.Save(ctx, "A1", "R1", sec.RoleUser))

	token, err := manager.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", token)

	current, err := manager.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", current.AccessToken)
	assert.Equal(t, "R1", current.RefreshToken)
	assert.Equal(t, sec.RoleUser, current.Role)

	assert.Equal(t, []string{"R1"}, refresher.received)
}

/*
TestManager_RefreshFailureClears verifies that a rejected refresh clears everything.
*/
func TestManager_RefreshFailureClears(t *testing.T) {
	ctx := context.Background()
	refresher := &fakeRefresher{err: apperr.FromStatus(401, "Token is invalid or expired")}
	store := session.NewMemoryStore()
	manager := session.NewManager(store, refresher, quietLogger())
	require.NoError(t, manager.Save(ctx, "A1", "R1", sec.RoleAdmin))

	token, err := manager.Refresh(ctx)
	assert.Empty(t, token)
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.Equal(t, 1, refresher.callCount())

	current, err := manager.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, current.AccessToken)
	assert.Empty(t, current.RefreshToken)
	assert.Empty(t, current.Role)
	assert.Equal(t, 0, store.Len())
}

/*
TestManager_RefreshWithoutSession verifies that no backend call is made without a refresh token.
*/
func TestManager_RefreshWithoutSession(t *testing.T) {
	refresher := &fakeRefresher{access: "A2"}
	manager := session.NewManager(session.NewMemoryStore(), refresher, quietLogger())

	_, err := manager.Refresh(context.Background())
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.Equal(t, 0, refresher.callCount())
}

/*
TestManager_RefreshCoalesced verifies that concurrent refreshes share one backend call.
*/
func TestManager_RefreshCoalesced(t *testing.T) {
	ctx := context.Background()
	refresher := &fakeRefresher{
		access:  "A2",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	factory := session.NewFactory(session.NewMemoryStore(), refresher, quietLogger())
	require.NoError(t, factory.For("visitor-1").Save(ctx, "A1", "R1", sec.RoleUser))

	const callers = 5
	results := make(chan string, callers)
	var wg sync.WaitGroup

	refreshOnce := func() {
		defer wg.Done()
		token, err := factory.For("visitor-1").Refresh(ctx)
		if err != nil {
			results <- "error: " + err.Error()
			return
		}
		results <- token
	}

	// 1. First caller enters the backend call and blocks there
	wg.Add(1)
	go refreshOnce()
	<-refresher.started

	// 2. The others join while it is in flight
	wg.Add(callers - 1)
	for i := 1; i < callers; i++ {
		go refreshOnce()
	}
	time.Sleep(100 * time.Millisecond)

	// 3. Release and collect
	close(refresher.release)
	wg.Wait()
	close(results)

	for token := range results {
		assert.Equal(t, "A2", token)
	}
	assert.Equal(t, 1, refresher.callCount())
}

/*
TestManager_RefreshIgnoresCallerCancellation verifies that a cancelled caller does not wipe the session.
*/
func TestManager_RefreshIgnoresCallerCancellation(t *testing.T) {
	store := session.NewMemoryStore()
	manager := session.NewManager(store, &fakeRefresher{access: "A2"}, quietLogger())
	require.NoError(t, manager.Save(context.Background(), "A1", "R1", sec.RoleUser))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	token, err := manager.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
	assert.False(t, errors.Is(err, session.ErrSessionExpired))
}

/*
TestManager_RefreshNeverOverwritesNewerState verifies that a logout or a new login
landing while the backend refresh is in flight survives the refresh outcome.
*/
func TestManager_RefreshNeverOverwritesNewerState(t *testing.T) {
	tests := []struct {
		name       string
		refreshErr error
		meanwhile  func(ctx context.Context, manager *session.Manager) error
		want       session.Session
	}{
		{
			name: "logout_during_successful_refresh",
			meanwhile: func(ctx context.Context, manager *session.Manager) error {
				return manager.Clear(ctx)
			},
		},
		{
			name:       "logout_during_failed_refresh",
			refreshErr: apperr.FromStatus(401, "Token is invalid or expired"),
			meanwhile: func(ctx context.Context, manager *session.Manager) error {
				return manager.Clear(ctx)
			},
		},
		{
			name: "login_during_successful_refresh",
			meanwhile: func(ctx context.Context, manager *session.Manager) error {
				return manager.Save(ctx, "B1", "RB1", sec.RoleAdmin)
			},
			want: session.Session{AccessToken: "B1", RefreshToken: "RB1", Role: sec.RoleAdmin},
		},
		{
			name:       "login_during_failed_refresh",
			refreshErr: apperr.FromStatus(401, "Token is invalid or expired"),
			meanwhile: func(ctx context.Context, manager *session.Manager) error {
				return manager.Save(ctx, "B1", "RB1", sec.RoleAdmin)
			},
			want: session.Session{AccessToken: "B1", RefreshToken: "RB1", Role: sec.RoleAdmin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			refresher := &fakeRefresher{
				access:  "A2",
				err:     tt.refreshErr,
				started: make(chan struct{}),
				release: make(chan struct{}),
			}
			manager := session.NewManager(session.NewMemoryStore(), refresher, quietLogger())
			require.NoError(t, manager.Save(ctx, "A1", "R1", sec.RoleUser))

			// 1. Refresh blocks inside the backend call
			type outcome struct {
				token string
				err   error
			}
			done := make(chan outcome, 1)
			go func() {
				token, err := manager.Refresh(ctx)
				done <- outcome{token, err}
			}()
			<-refresher.started

			// 2. The visitor logs out or logs in again meanwhile
			require.NoError(t, tt.meanwhile(ctx, manager))

			// 3. The stale refresh completes without touching the newer state
			close(refresher.release)
			result := <-done

			assert.Empty(t, result.token)
			assert.ErrorIs(t, result.err, session.ErrSessionExpired)
			assert.ErrorIs(t, result.err, session.ErrSessionChanged)

			current, err := manager.Current(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want.AccessToken, current.AccessToken)
			assert.Equal(t, tt.want.RefreshToken, current.RefreshToken)
			assert.Equal(t, tt.want.Role, current.Role)
		})
	}
}
