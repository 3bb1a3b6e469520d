// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package engine

import (
	"context"
	"encoding/json"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// SyncConfig returns the stored bin link, or nil when no remote has
// been linked.
func (e *Engine) SyncConfig() *kitchendb.SyncConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.syncCfg == nil {
		return nil
	}
	cfg := *e.syncCfg
	return &cfg
}

// binLocked returns the bin client and the sync config persistence
// hook, or the reason sync is unavailable.
func (e *Engine) binLocked() (*store.JSONBin, store.SyncConfigStore, error) {
	if e.mode != ModeJSONBin || e.bin == nil {
		return nil, nil, ErrSyncUnsupported
	}
	cfgStore, ok := e.backend.(store.SyncConfigStore)
	if !ok {
		return nil, nil, ErrSyncUnsupported
	}
	return e.bin, cfgStore, nil
}

// LinkRemote attaches an existing bin to this kitchen. The link is
// verified with a read before it is stored.
func (e *Engine) LinkRemote(ctx context.Context, apiKey, binID string) error {
	e.mu.Lock()
	bin, cfgStore, err := e.binLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}

	var probe json.RawMessage
	if err := bin.Read(ctx, binID, apiKey, &probe); err != nil {
		return err
	}

	cfg := &kitchendb.SyncConfig{APIKey: apiKey, BinID: binID}
	if err := cfgStore.SaveSyncConfig(ctx, cfg); err != nil {
		return err
	}
	e.mu.Lock()
	e.syncCfg = cfg
	e.mu.Unlock()
	return nil
}

// CreateRemoteFromLocal provisions a new bin seeded with the current
// snapshot and links it.
func (e *Engine) CreateRemoteFromLocal(ctx context.Context, apiKey string) (*kitchendb.SyncConfig, error) {
	e.mu.Lock()
	bin, cfgStore, err := e.binLocked()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	doc := e.exportLocked()
	e.mu.Unlock()

	binID, err := bin.Create(ctx, apiKey, doc)
	if err != nil {
		return nil, err
	}

	now := e.now()
	cfg := &kitchendb.SyncConfig{APIKey: apiKey, BinID: binID, LastSynced: &now}
	if err := cfgStore.SaveSyncConfig(ctx, cfg); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.syncCfg = cfg
	e.mu.Unlock()
	out := *cfg
	return &out, nil
}

// PushToRemote replaces the linked bin's contents with the current
// snapshot and stamps LastSynced.
func (e *Engine) PushToRemote(ctx context.Context) (*kitchendb.SyncConfig, error) {
	e.mu.Lock()
	bin, cfgStore, err := e.binLocked()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.syncCfg == nil {
		e.mu.Unlock()
		return nil, ErrNoSyncConfig
	}
	cfg := *e.syncCfg
	doc := e.exportLocked()
	e.mu.Unlock()

	if err := bin.Replace(ctx, cfg.BinID, cfg.APIKey, doc); err != nil {
		return nil, err
	}

	now := e.now()
	cfg.LastSynced = &now
	if err := cfgStore.SaveSyncConfig(ctx, &cfg); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.syncCfg = &cfg
	e.mu.Unlock()
	out := cfg
	return &out, nil
}

// PullFromRemote reads the linked bin and imports its contents with
// the usual quantity-preserving merge, then stamps LastSynced.
func (e *Engine) PullFromRemote(ctx context.Context) (*kitchendb.SyncConfig, error) {
	e.mu.Lock()
	bin, cfgStore, err := e.binLocked()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if e.syncCfg == nil {
		e.mu.Unlock()
		return nil, ErrNoSyncConfig
	}
	cfg := *e.syncCfg
	e.mu.Unlock()

	var doc json.RawMessage
	if err := bin.Read(ctx, cfg.BinID, cfg.APIKey, &doc); err != nil {
		return nil, err
	}
	if err := e.ImportSnapshot(ctx, doc); err != nil {
		return nil, err
	}

	now := e.now()
	cfg.LastSynced = &now
	if err := cfgStore.SaveSyncConfig(ctx, &cfg); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.syncCfg = &cfg
	e.mu.Unlock()
	out := cfg
	return &out, nil
}

// UnlinkRemote forgets the bin link. The bin itself is left intact.
func (e *Engine) UnlinkRemote(ctx context.Context) error {
	e.mu.Lock()
	_, cfgStore, err := e.binLocked()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if err := cfgStore.ClearSyncConfig(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.syncCfg = nil
	e.mu.Unlock()
	return nil
}
