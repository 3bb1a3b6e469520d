// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

const accessHint = "check that the Firestore security rules allow this user to read and write their own documents"

// Remote is a Firestore-backed Backend scoped to a single user's
// namespace. Collections live under users/{uid}, with menu plans keyed
// by their date string for natural upsert-by-date. In this variant the
// remote store is authoritative and the in-memory state is a read
// projection maintained through Subscribe.
type Remote struct {
	client *firestore.Client
	userID string
}

// NewRemote creates a Remote for the given user's namespace.
func NewRemote(client *firestore.Client, userID string) *Remote {
	return &Remote{
		client: client,
		userID: userID,
	}
}

func (r *Remote) col(name Collection) *firestore.CollectionRef {
	return r.client.Collection("users").Doc(r.userID).Collection(string(name))
}

func (r *Remote) Load(ctx context.Context) (*Collections, error) {
	var cols Collections
	var grp errgroup.Group
	grp.Go(func() error {
		items, err := readAll[kitchendb.Ingredient](ctx, r.col(CollectionIngredients))
		cols.Ingredients = items
		return err
	})
	grp.Go(func() error {
		items, err := readAll[kitchendb.Recipe](ctx, r.col(CollectionRecipes))
		cols.Recipes = items
		return err
	})
	grp.Go(func() error {
		items, err := readAll[kitchendb.MenuPlan](ctx, r.col(CollectionMenuPlans))
		for i, p := range items {
			items[i] = kitchendb.NormalizeMenuPlan(p)
		}
		cols.MenuPlans = items
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return &cols, nil
}

func readAll[T any](ctx context.Context, col *firestore.CollectionRef) ([]T, error) {
	docs, err := col.Documents(ctx).GetAll()
	if err != nil {
		return nil, remoteError(fmt.Sprintf("fetching %s", col.ID), err)
	}
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := doc.DataTo(&item); err != nil {
			return nil, fmt.Errorf("store: decoding %s document %s: %w", col.ID, doc.Ref.ID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Remote) SaveIngredients(ctx context.Context, items []kitchendb.Ingredient) error {
	return replaceCollection(ctx, r.col(CollectionIngredients), items, func(i kitchendb.Ingredient) string { return i.ID })
}

func (r *Remote) SaveRecipes(ctx context.Context, items []kitchendb.Recipe) error {
	return replaceCollection(ctx, r.col(CollectionRecipes), items, func(rec kitchendb.Recipe) string { return rec.ID })
}

func (r *Remote) SaveMenuPlans(ctx context.Context, items []kitchendb.MenuPlan) error {
	return replaceCollection(ctx, r.col(CollectionMenuPlans), items, func(p kitchendb.MenuPlan) string { return p.Date })
}

// replaceCollection makes the remote collection exactly match items:
// every item is set at its key and documents no longer present are
// deleted. Saves are whole-collection to mirror the Backend contract.
func replaceCollection[T any](ctx context.Context, col *firestore.CollectionRef, items []T, key func(T) string) error {
	wanted := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := key(item)
		wanted[id] = struct{}{}
		if _, err := col.Doc(id).Set(ctx, item); err != nil {
			return remoteError(fmt.Sprintf("saving %s document %s", col.ID, id), err)
		}
	}

	refs := col.DocumentRefs(ctx)
	for {
		ref, err := refs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return remoteError(fmt.Sprintf("listing %s documents", col.ID), err)
		}
		if _, ok := wanted[ref.ID]; !ok {
			if _, err := ref.Delete(ctx); err != nil {
				return remoteError(fmt.Sprintf("deleting %s document %s", col.ID, ref.ID), err)
			}
		}
	}
	return nil
}

func (r *Remote) Clear(ctx context.Context) error {
	if err := r.SaveIngredients(ctx, nil); err != nil {
		return err
	}
	if err := r.SaveRecipes(ctx, nil); err != nil {
		return err
	}
	return r.SaveMenuPlans(ctx, nil)
}

// SnapshotHandler receives whole-collection snapshots from a
// subscription. Each callback replaces the corresponding in-memory
// collection wholesale; snapshots are never diffs.
type SnapshotHandler struct {
	Ingredients func([]kitchendb.Ingredient)
	Recipes     func([]kitchendb.Recipe)
	MenuPlans   func([]kitchendb.MenuPlan)
	Error       func(error)
}

// Subscribe establishes live feeds for the three collections and
// returns a stop function. Stop is idempotent, and once it returns no
// further callback fires, even for snapshots already in flight.
func (r *Remote) Subscribe(ctx context.Context, h SnapshotHandler) func() {
	ctx, cancel := context.WithCancel(ctx)
	g := &subscriptionGuard{}

	go watchCollection(ctx, r.col(CollectionIngredients), g, h.Error, func(items []kitchendb.Ingredient) {
		h.Ingredients(items)
	})
	go watchCollection(ctx, r.col(CollectionRecipes), g, h.Error, func(items []kitchendb.Recipe) {
		h.Recipes(items)
	})
	go watchCollection(ctx, r.col(CollectionMenuPlans), g, h.Error, func(items []kitchendb.MenuPlan) {
		for i, p := range items {
			items[i] = kitchendb.NormalizeMenuPlan(p)
		}
		h.MenuPlans(items)
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			g.stop()
			cancel()
		})
	}
}

// subscriptionGuard serializes snapshot delivery and blocks callbacks
// that race with teardown. Delivery happens under the mutex so a
// snapshot decoded just before stop cannot mutate state after it.
type subscriptionGuard struct {
	mu      sync.Mutex
	stopped bool
}

func (g *subscriptionGuard) stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
}

func (g *subscriptionGuard) deliver(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	fn()
}

func watchCollection[T any](ctx context.Context, col *firestore.CollectionRef, g *subscriptionGuard, onError func(error), onChange func([]T)) {
	snaps := col.Snapshots(ctx)
	defer snaps.Stop()
	for {
		snap, err := snaps.Next()
		if err != nil {
			if status.Code(err) == codes.Canceled || ctx.Err() != nil {
				return
			}
			g.deliver(func() { onError(remoteError(fmt.Sprintf("watching %s", col.ID), err)) })
			return
		}
		items := make([]T, 0)
		decodeFailed := false
		for {
			doc, err := snap.Documents.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				g.deliver(func() { onError(remoteError(fmt.Sprintf("reading %s snapshot", col.ID), err)) })
				decodeFailed = true
				break
			}
			var item T
			if err := doc.DataTo(&item); err != nil {
				g.deliver(func() {
					onError(fmt.Errorf("store: decoding %s document %s: %w", col.ID, doc.Ref.ID, err))
				})
				decodeFailed = true
				break
			}
			items = append(items, item)
		}
		if !decodeFailed {
			g.deliver(func() { onChange(items) })
		}
	}
}

// remoteError maps Firestore failures into the typed taxonomy. A
// permission denial carries a remediation hint so it is
// distinguishable from a generic failure.
func remoteError(action string, err error) error {
	switch status.Code(err) {
	case codes.PermissionDenied:
		return &AccessError{
			Message: fmt.Sprintf("store: %s: permission denied", action),
			Hint:    accessHint,
		}
	case codes.NotFound:
		return &NotFoundError{Resource: action}
	default:
		return fmt.Errorf("store: %s: %w", action, err)
	}
}
