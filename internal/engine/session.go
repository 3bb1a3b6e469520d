// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package engine

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// AuthState is the session's view of the identity provider.
type AuthState string

const (
	// StateLoading holds until the first auth report arrives. No data
	// operations run while loading.
	StateLoading AuthState = "loading"

	StateUnauthenticated AuthState = "unauthenticated"
	StateAuthenticated   AuthState = "authenticated"
)

// RemoteFactory builds per-user remote stores. It exists so session
// tests can substitute an in-memory remote.
type RemoteFactory interface {
	Backend(userID string) store.Backend
	Subscribe(ctx context.Context, userID string, h store.SnapshotHandler) func()
}

// FirestoreFactory builds remote stores over a Firestore client.
type FirestoreFactory struct {
	Client *firestore.Client
}

func (f *FirestoreFactory) Backend(userID string) store.Backend {
	return store.NewRemote(f.Client, userID)
}

func (f *FirestoreFactory) Subscribe(ctx context.Context, userID string, h store.SnapshotHandler) func() {
	return store.NewRemote(f.Client, userID).Subscribe(ctx, h)
}

// Session tracks the authenticated user in realtime mode and binds the
// engine to that user's remote namespace. While unauthenticated the
// engine has no backend and every data operation fails with an auth
// error.
type Session struct {
	engine  *Engine
	factory RemoteFactory

	mu    sync.Mutex
	state AuthState
	user  *kitchendb.User
	stop  func()
}

// NewSession creates a session in StateLoading.
func NewSession(e *Engine, f RemoteFactory) *Session {
	return &Session{engine: e, factory: f, state: StateLoading}
}

// State returns the current auth state.
func (s *Session) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the signed-in user, or nil.
func (s *Session) User() *kitchendb.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// LastError returns the most recent subscription error, or nil.
func (s *Session) LastError() error {
	return s.engine.LastError()
}

// HandleAuthChange processes an identity report. A nil user means
// signed out: the subscription stops, in-memory data is dropped, and
// the engine detaches from the remote store. A repeated report for the
// same user is a no-op, and a different user tears down the previous
// binding first.
func (s *Session) HandleAuthChange(ctx context.Context, user *kitchendb.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		s.teardownLocked()
		s.state = StateUnauthenticated
		return
	}
	if s.state == StateAuthenticated && s.user != nil && s.user.UID == user.UID {
		return
	}
	s.teardownLocked()

	u := *user
	s.user = &u
	s.state = StateAuthenticated
	s.engine.setBackend(s.factory.Backend(user.UID))
	// The subscription outlives whatever request reported the sign-in.
	ctx = context.WithoutCancel(ctx)
	s.stop = s.factory.Subscribe(ctx, user.UID, store.SnapshotHandler{
		Ingredients: s.engine.replaceIngredients,
		Recipes:     s.engine.replaceRecipes,
		MenuPlans:   s.engine.replaceMenuPlans,
		Error:       s.engine.setLastError,
	})
}

// Close tears down the session without changing auth state, for
// server shutdown.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

func (s *Session) teardownLocked() {
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.user = nil
	s.engine.setBackend(nil)
	s.engine.clearMemory()
}
