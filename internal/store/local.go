// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

const syncConfigKey = "syncConfig"

// Local is a file-backed Backend. Each collection lives in its own JSON
// file under the data directory and every save rewrites the whole file.
type Local struct {
	mu  sync.Mutex
	dir string
}

// NewLocal creates a Local store rooted at dir, creating the directory
// if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: creating data directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.dir, key+".json")
}

// readKey unmarshals the file for key into out. A missing file leaves
// out untouched and returns false. Malformed JSON surfaces as a
// StorageCorruptionError rather than an empty collection, so data loss
// stays an explicit caller decision.
func (l *Local) readKey(key string, out any) (bool, error) {
	data, err := os.ReadFile(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, &StorageCorruptionError{Key: key, Err: err}
	}
	return true, nil
}

func (l *Local) writeKey(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encoding %s: %w", key, err)
	}
	if err := os.WriteFile(l.path(key), data, 0o644); err != nil {
		return fmt.Errorf("store: writing %s: %w", key, err)
	}
	return nil
}

func (l *Local) Load(_ context.Context) (*Collections, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var cols Collections
	if _, err := l.readKey(string(CollectionIngredients), &cols.Ingredients); err != nil {
		return nil, err
	}
	if _, err := l.readKey(string(CollectionRecipes), &cols.Recipes); err != nil {
		return nil, err
	}
	var plans []kitchendb.MenuPlan
	if _, err := l.readKey(string(CollectionMenuPlans), &plans); err != nil {
		return nil, err
	}
	for _, p := range plans {
		cols.MenuPlans = append(cols.MenuPlans, kitchendb.NormalizeMenuPlan(p))
	}
	return &cols, nil
}

func (l *Local) SaveIngredients(_ context.Context, items []kitchendb.Ingredient) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeKey(string(CollectionIngredients), items)
}

func (l *Local) SaveRecipes(_ context.Context, items []kitchendb.Recipe) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeKey(string(CollectionRecipes), items)
}

func (l *Local) SaveMenuPlans(_ context.Context, items []kitchendb.MenuPlan) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeKey(string(CollectionMenuPlans), items)
}

func (l *Local) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range []Collection{CollectionIngredients, CollectionRecipes, CollectionMenuPlans} {
		if err := os.Remove(l.path(string(key))); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("store: removing %s: %w", key, err)
		}
	}
	return nil
}

func (l *Local) LoadSyncConfig(_ context.Context) (*kitchendb.SyncConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var cfg kitchendb.SyncConfig
	ok, err := l.readKey(syncConfigKey, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (l *Local) SaveSyncConfig(_ context.Context, cfg *kitchendb.SyncConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeKey(syncConfigKey, cfg)
}

func (l *Local) ClearSyncConfig(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.path(syncConfigKey)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: removing %s: %w", syncConfigKey, err)
	}
	return nil
}
