// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package engine owns the in-memory kitchen collections and the policy
// for reconciling them with persisted and remote state. All mutation
// goes through the engine; adapters only report raw data and events,
// and consumers only ever receive copies.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// Mode selects the persistence variant the engine runs on.
type Mode string

const (
	// ModeLocal persists to the local file store only. The device owns
	// the single source of truth.
	ModeLocal Mode = "local"

	// ModeJSONBin persists locally and mirrors to a remote bin through
	// explicit push/pull operations.
	ModeJSONBin Mode = "jsonbin"

	// ModeRealtime mirrors an authoritative Firestore namespace; local
	// state is a read projection kept current by subscription.
	ModeRealtime Mode = "realtime"
)

var (
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	ErrDateRequired     = errors.New("menu plan date is required")
	ErrNoSyncConfig     = errors.New("remote sync is not configured")
	ErrSyncUnsupported  = errors.New("remote bin sync is not available in this mode")
)

// Change notifies observers that a collection was republished.
type Change struct {
	Collection store.Collection
}

// Engine is the state owner for the kitchen collections.
type Engine struct {
	mode Mode
	bin  *store.JSONBin

	mu          sync.Mutex
	backend     store.Backend
	ingredients []kitchendb.Ingredient
	recipes     []kitchendb.Recipe
	menuPlans   []kitchendb.MenuPlan
	syncCfg     *kitchendb.SyncConfig
	observers   map[int]func(Change)
	nextObs     int
	lastErr     error

	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithBin supplies the remote bin client used by the push/pull
// operations in ModeJSONBin.
func WithBin(bin *store.JSONBin) Option {
	return func(e *Engine) { e.bin = bin }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the ID source, for tests.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an Engine over the given backend. In ModeRealtime the
// backend is nil until a session attaches an authenticated user.
func New(mode Mode, backend store.Backend, opts ...Option) *Engine {
	e := &Engine{
		mode:      mode,
		backend:   backend,
		observers: map[int]func(Change){},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the persistence variant the engine runs on.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Start loads the persisted collections into memory. In ModeRealtime
// there is nothing to load until a user signs in.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.backend == nil {
		return nil
	}

	cols, err := e.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("engine: loading collections: %w", err)
	}
	e.ingredients = cols.Ingredients
	e.recipes = cols.Recipes
	e.menuPlans = cols.MenuPlans

	if cfgStore, ok := e.backend.(store.SyncConfigStore); ok {
		cfg, err := cfgStore.LoadSyncConfig(ctx)
		if err != nil {
			return fmt.Errorf("engine: loading sync config: %w", err)
		}
		e.syncCfg = cfg
	}
	return nil
}

// Subscribe registers an observer notified after every collection
// change. Observers are invoked outside the engine lock and may call
// back into the engine. The returned function cancels the
// subscription.
func (e *Engine) Subscribe(fn func(Change)) func() {
	e.mu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.observers, id)
		e.mu.Unlock()
	}
}

// pending collects notifications made under the engine lock for
// delivery after it is released.
type pending struct {
	fns []func()
}

func (p *pending) flush() {
	for _, fn := range p.fns {
		fn()
	}
}

// notifyLocked snapshots the current observers for the change and
// queues delivery on p.
func (e *Engine) notifyLocked(p *pending, c Change) {
	fns := make([]func(Change), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	p.fns = append(p.fns, func() {
		for _, fn := range fns {
			fn(c)
		}
	})
}

// LastError returns the most recent subscription or read error, kept
// for passive display since those paths have no synchronous caller.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) setLastError(err error) {
	slog.Error("engine: background error", "error", err)
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

// Ingredients returns a copy of the pantry catalog.
func (e *Engine) Ingredients() []kitchendb.Ingredient {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]kitchendb.Ingredient, len(e.ingredients))
	copy(out, e.ingredients)
	return out
}

// Recipes returns a copy of the recipe catalog.
func (e *Engine) Recipes() []kitchendb.Recipe {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]kitchendb.Recipe, len(e.recipes))
	copy(out, e.recipes)
	return out
}

// MenuPlans returns a copy of the menu plan collection.
func (e *Engine) MenuPlans() []kitchendb.MenuPlan {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]kitchendb.MenuPlan, len(e.menuPlans))
	copy(out, e.menuPlans)
	return out
}

// GetRecipeByID looks up a recipe by its ID.
func (e *Engine) GetRecipeByID(id string) (kitchendb.Recipe, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.recipes {
		if r.ID == id {
			return r, true
		}
	}
	return kitchendb.Recipe{}, false
}

func (e *Engine) backendLocked() (store.Backend, error) {
	if e.backend == nil {
		return nil, &store.AuthError{Message: "sign in to use the kitchen"}
	}
	return e.backend, nil
}

// AddIngredient adds a pantry item, assigning an ID when absent.
func (e *Engine) AddIngredient(ctx context.Context, ing kitchendb.Ingredient) (kitchendb.Ingredient, error) {
	if ing.Quantity < 0 || ing.LowStockThreshold < 0 {
		return kitchendb.Ingredient{}, ErrNegativeQuantity
	}

	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return kitchendb.Ingredient{}, err
	}

	if ing.ID == "" {
		ing.ID = e.newID()
	}
	if ing.Unit == "" {
		ing.Unit = kitchendb.UnitPiece
	}
	if ing.Category == "" {
		ing.Category = kitchendb.CategoryOther
	}
	ing.UpdatedAt = e.now()

	e.ingredients = append(e.ingredients, ing)
	if err := backend.SaveIngredients(ctx, e.ingredients); err != nil {
		return kitchendb.Ingredient{}, err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionIngredients})
	return ing, nil
}

// IngredientUpdate is a partial ingredient mutation. Nil fields are
// left unchanged.
type IngredientUpdate struct {
	Name              *string
	Quantity          *float64
	Unit              *kitchendb.Unit
	Category          *kitchendb.Category
	LowStockThreshold *float64
	ShowInRestockList *bool
}

// UpdateIngredient applies a partial update and stamps UpdatedAt.
func (e *Engine) UpdateIngredient(ctx context.Context, id string, up IngredientUpdate) (kitchendb.Ingredient, error) {
	if up.Quantity != nil && *up.Quantity < 0 {
		return kitchendb.Ingredient{}, ErrNegativeQuantity
	}
	if up.LowStockThreshold != nil && *up.LowStockThreshold < 0 {
		return kitchendb.Ingredient{}, ErrNegativeQuantity
	}

	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return kitchendb.Ingredient{}, err
	}

	idx := -1
	for i := range e.ingredients {
		if e.ingredients[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return kitchendb.Ingredient{}, &store.NotFoundError{Resource: "ingredient " + id}
	}

	ing := e.ingredients[idx]
	if up.Name != nil {
		ing.Name = *up.Name
	}
	if up.Quantity != nil {
		ing.Quantity = *up.Quantity
	}
	if up.Unit != nil {
		ing.Unit = *up.Unit
	}
	if up.Category != nil {
		ing.Category = *up.Category
	}
	if up.LowStockThreshold != nil {
		ing.LowStockThreshold = *up.LowStockThreshold
	}
	if up.ShowInRestockList != nil {
		ing.ShowInRestockList = up.ShowInRestockList
	}
	ing.UpdatedAt = e.now()
	e.ingredients[idx] = ing

	if err := backend.SaveIngredients(ctx, e.ingredients); err != nil {
		return kitchendb.Ingredient{}, err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionIngredients})
	return ing, nil
}

// DeleteIngredient removes a pantry item. Recipes referencing the name
// are untouched; recipe lines reference by name, not ID.
func (e *Engine) DeleteIngredient(ctx context.Context, id string) error {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return err
	}

	kept := e.ingredients[:0:0]
	found := false
	for _, ing := range e.ingredients {
		if ing.ID == id {
			found = true
			continue
		}
		kept = append(kept, ing)
	}
	if !found {
		return &store.NotFoundError{Resource: "ingredient " + id}
	}
	e.ingredients = kept

	if err := backend.SaveIngredients(ctx, e.ingredients); err != nil {
		return err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionIngredients})
	return nil
}

// AddRecipe adds a recipe, auto-provisioning pantry entries for any
// ingredient line whose name is not yet in the catalog.
func (e *Engine) AddRecipe(ctx context.Context, r kitchendb.Recipe) (kitchendb.Recipe, error) {
	r.EnsureDefaults()

	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return kitchendb.Recipe{}, err
	}

	if r.ID == "" {
		r.ID = e.newID()
	}
	if err := e.provisionLocked(ctx, backend, &p, r.Ingredients); err != nil {
		return kitchendb.Recipe{}, err
	}

	e.recipes = append(e.recipes, r)
	if err := backend.SaveRecipes(ctx, e.recipes); err != nil {
		return kitchendb.Recipe{}, err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionRecipes})
	return r, nil
}

// RecipeUpdate is a partial recipe mutation. Nil fields are left
// unchanged.
type RecipeUpdate struct {
	Name        *string
	Ingredients *[]kitchendb.RecipeIngredient
	Steps       *[]string
	Tags        *[]string
	PrepTime    *string
	Description *string
	Image       *string
}

// UpdateRecipe applies a partial update. Changed ingredient lines go
// through the same auto-provisioning as a new recipe.
func (e *Engine) UpdateRecipe(ctx context.Context, id string, up RecipeUpdate) (kitchendb.Recipe, error) {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return kitchendb.Recipe{}, err
	}

	idx := -1
	for i := range e.recipes {
		if e.recipes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return kitchendb.Recipe{}, &store.NotFoundError{Resource: "recipe " + id}
	}

	r := e.recipes[idx]
	if up.Name != nil {
		r.Name = *up.Name
	}
	if up.Ingredients != nil {
		r.Ingredients = *up.Ingredients
		if err := e.provisionLocked(ctx, backend, &p, r.Ingredients); err != nil {
			return kitchendb.Recipe{}, err
		}
	}
	if up.Steps != nil {
		r.Steps = *up.Steps
	}
	if up.Tags != nil {
		r.Tags = *up.Tags
	}
	if up.PrepTime != nil {
		r.PrepTime = *up.PrepTime
	}
	if up.Description != nil {
		r.Description = *up.Description
	}
	if up.Image != nil {
		r.Image = *up.Image
	}
	r.EnsureDefaults()
	e.recipes[idx] = r

	if err := backend.SaveRecipes(ctx, e.recipes); err != nil {
		return kitchendb.Recipe{}, err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionRecipes})
	return r, nil
}

// DeleteRecipe removes a recipe from the catalog. Menu plans keep the
// dangling ID; consumers skip IDs they cannot resolve.
func (e *Engine) DeleteRecipe(ctx context.Context, id string) error {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return err
	}

	kept := e.recipes[:0:0]
	found := false
	for _, r := range e.recipes {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return &store.NotFoundError{Resource: "recipe " + id}
	}
	e.recipes = kept

	if err := backend.SaveRecipes(ctx, e.recipes); err != nil {
		return err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionRecipes})
	return nil
}

// provisionLocked creates a zero-stock pantry entry for every
// ingredient line whose name has no case-insensitive match in the
// catalog. Creations are sequential and each persists before the next
// line is evaluated, since every check runs against the then-current
// catalog. Dedup is keyed by folded name and atomic under the engine
// lock.
func (e *Engine) provisionLocked(ctx context.Context, backend store.Backend, p *pending, lines []kitchendb.RecipeIngredient) error {
	for _, line := range lines {
		name := strings.TrimSpace(line.Name)
		if name == "" {
			continue
		}
		exists := false
		for _, ing := range e.ingredients {
			if strings.EqualFold(ing.Name, name) {
				exists = true
				break
			}
		}
		if exists {
			continue
		}

		show := true
		e.ingredients = append(e.ingredients, kitchendb.Ingredient{
			ID:                e.newID(),
			Name:              capitalize(name),
			Quantity:          0,
			Unit:              kitchendb.UnitPiece,
			Category:          kitchendb.CategoryOther,
			LowStockThreshold: 1,
			ShowInRestockList: &show,
			UpdatedAt:         e.now(),
		})
		if err := backend.SaveIngredients(ctx, e.ingredients); err != nil {
			return err
		}
		e.notifyLocked(p, Change{Collection: store.CollectionIngredients})
	}
	return nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// UpsertMenuPlan stores the plan for its date, replacing any existing
// plan for that date. The date is the key, looked up on every upsert,
// so at most one plan per date exists. Recipe ID lists are
// deduplicated on insert.
func (e *Engine) UpsertMenuPlan(ctx context.Context, plan kitchendb.MenuPlan) (kitchendb.MenuPlan, error) {
	if plan.Date == "" {
		return kitchendb.MenuPlan{}, ErrDateRequired
	}
	plan = kitchendb.NormalizeMenuPlan(plan)
	plan.LunchRecipeIDs = dedup(plan.LunchRecipeIDs)
	plan.DinnerRecipeIDs = dedup(plan.DinnerRecipeIDs)

	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return kitchendb.MenuPlan{}, err
	}

	replaced := false
	for i := range e.menuPlans {
		if e.menuPlans[i].Date == plan.Date {
			e.menuPlans[i] = plan
			replaced = true
			break
		}
	}
	if !replaced {
		e.menuPlans = append(e.menuPlans, plan)
	}

	if err := backend.SaveMenuPlans(ctx, e.menuPlans); err != nil {
		return kitchendb.MenuPlan{}, err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionMenuPlans})
	return plan, nil
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CheckLowStock returns ingredients with positive quantity at or below
// their threshold. Zero-quantity items are out of stock, a distinct
// bucket, and never counted here.
func (e *Engine) CheckLowStock() []kitchendb.Ingredient {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []kitchendb.Ingredient
	for _, ing := range e.ingredients {
		if ing.Quantity > 0 && ing.Quantity <= ing.LowStockThreshold {
			out = append(out, ing)
		}
	}
	return out
}

// OutOfStock returns ingredients with zero quantity.
func (e *Engine) OutOfStock() []kitchendb.Ingredient {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []kitchendb.Ingredient
	for _, ing := range e.ingredients {
		if ing.Quantity == 0 {
			out = append(out, ing)
		}
	}
	return out
}

// RestockList returns the low-stock and out-of-stock ingredients that
// opted into restock surfacing.
func (e *Engine) RestockList() []kitchendb.Ingredient {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []kitchendb.Ingredient
	for _, ing := range e.ingredients {
		if ing.InRestockList() && ing.Quantity <= ing.LowStockThreshold {
			out = append(out, ing)
		}
	}
	return out
}

// ClearAll removes every collection, in memory and persisted.
func (e *Engine) ClearAll(ctx context.Context) error {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	backend, err := e.backendLocked()
	if err != nil {
		return err
	}

	e.ingredients = nil
	e.recipes = nil
	e.menuPlans = nil
	if err := backend.Clear(ctx); err != nil {
		return err
	}
	e.notifyLocked(&p, Change{Collection: store.CollectionIngredients})
	e.notifyLocked(&p, Change{Collection: store.CollectionRecipes})
	e.notifyLocked(&p, Change{Collection: store.CollectionMenuPlans})
	return nil
}

// The replace* methods apply whole-collection snapshots from a realtime
// subscription. The remote store is the arbiter of final state, so each
// snapshot overwrites the in-memory collection without merging and is
// not re-persisted.

func (e *Engine) replaceIngredients(items []kitchendb.Ingredient) {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ingredients = items
	e.notifyLocked(&p, Change{Collection: store.CollectionIngredients})
}

func (e *Engine) replaceRecipes(items []kitchendb.Recipe) {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recipes = items
	e.notifyLocked(&p, Change{Collection: store.CollectionRecipes})
}

func (e *Engine) replaceMenuPlans(items []kitchendb.MenuPlan) {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.menuPlans = items
	e.notifyLocked(&p, Change{Collection: store.CollectionMenuPlans})
}

func (e *Engine) setBackend(b store.Backend) {
	e.mu.Lock()
	e.backend = b
	e.mu.Unlock()
}

func (e *Engine) clearMemory() {
	var p pending
	defer p.flush()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ingredients = nil
	e.recipes = nil
	e.menuPlans = nil
	e.notifyLocked(&p, Change{Collection: store.CollectionIngredients})
	e.notifyLocked(&p, Change{Collection: store.CollectionRecipes})
	e.notifyLocked(&p, Change{Collection: store.CollectionMenuPlans})
}
