// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// binServer is a minimal in-memory bin service.
type binServer struct {
	key  string
	bins map[string]json.RawMessage
}

func (s *binServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Master-Key") != s.key {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "invalid key"}`))
			return
		}
		switch {
		case r.Method == http.MethodPost:
			body, _ := io.ReadAll(r.Body)
			s.bins["bin-1"] = body
			_, _ = w.Write([]byte(`{"metadata": {"id": "bin-1"}}`))
		case r.Method == http.MethodPut:
			id := strings.TrimPrefix(r.URL.Path, "/")
			if _, ok := s.bins[id]; !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message": "bin not found"}`))
				return
			}
			body, _ := io.ReadAll(r.Body)
			s.bins[id] = body
			_, _ = w.Write([]byte(`{}`))
		default:
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/latest")
			doc, ok := s.bins[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"message": "bin not found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"record": json.RawMessage(doc)})
		}
	})
}

func newSyncEngine(t *testing.T, srvURL string) (*Engine, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	e := newTestEngine(t, ModeJSONBin, backend, WithBin(store.NewJSONBin(srvURL)))
	return e, backend
}

func TestCreateRemoteFromLocal(t *testing.T) {
	bins := &binServer{key: "secret", bins: map[string]json.RawMessage{}}
	srv := httptest.NewServer(bins.handler())
	defer srv.Close()

	e, backend := newSyncEngine(t, srv.URL)
	if _, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Flour", Quantity: 3}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}

	cfg, err := e.CreateRemoteFromLocal(context.Background(), "secret")
	if err != nil {
		t.Fatalf("CreateRemoteFromLocal: %v", err)
	}
	if cfg.BinID != "bin-1" {
		t.Errorf("bin ID = %q", cfg.BinID)
	}
	if cfg.LastSynced == nil {
		t.Error("expected LastSynced stamp")
	}
	if backend.syncCfg == nil || backend.syncCfg.BinID != "bin-1" {
		t.Errorf("sync config not persisted: %+v", backend.syncCfg)
	}

	var doc ExportDocument
	if err := json.Unmarshal(bins.bins["bin-1"], &doc); err != nil {
		t.Fatalf("decoding seeded bin: %v", err)
	}
	if len(doc.Ingredients) != 1 || doc.Ingredients[0].Quantity != 0 {
		t.Errorf("seeded bin = %+v, want zeroed export", doc.Ingredients)
	}
}

func TestLinkRemoteVerifiesBin(t *testing.T) {
	bins := &binServer{key: "secret", bins: map[string]json.RawMessage{
		"bin-9": json.RawMessage(`{"ingredients": [], "recipes": []}`),
	}}
	srv := httptest.NewServer(bins.handler())
	defer srv.Close()

	e, _ := newSyncEngine(t, srv.URL)
	if err := e.LinkRemote(context.Background(), "secret", "bin-9"); err != nil {
		t.Fatalf("LinkRemote: %v", err)
	}
	if cfg := e.SyncConfig(); cfg == nil || cfg.BinID != "bin-9" {
		t.Errorf("sync config = %+v", cfg)
	}

	if err := e.LinkRemote(context.Background(), "secret", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("linking missing bin err = %v, want ErrNotFound", err)
	}
	if err := e.LinkRemote(context.Background(), "wrong", "bin-9"); !errors.Is(err, store.ErrUnauthorized) {
		t.Errorf("linking with wrong key err = %v, want ErrUnauthorized", err)
	}
}

func TestPushPullRoundTrip(t *testing.T) {
	bins := &binServer{key: "secret", bins: map[string]json.RawMessage{}}
	srv := httptest.NewServer(bins.handler())
	defer srv.Close()

	e, _ := newSyncEngine(t, srv.URL)
	if _, err := e.AddIngredient(context.Background(), kitchendb.Ingredient{
		ID:       "flour",
		Name:     "Flour",
		Quantity: 3,
	}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}
	if _, err := e.CreateRemoteFromLocal(context.Background(), "secret"); err != nil {
		t.Fatalf("CreateRemoteFromLocal: %v", err)
	}
	if _, err := e.PushToRemote(context.Background()); err != nil {
		t.Fatalf("PushToRemote: %v", err)
	}

	// A second device links the same bin and pulls.
	other, _ := newSyncEngine(t, srv.URL)
	if err := other.LinkRemote(context.Background(), "secret", "bin-1"); err != nil {
		t.Fatalf("LinkRemote: %v", err)
	}
	cfg, err := other.PullFromRemote(context.Background())
	if err != nil {
		t.Fatalf("PullFromRemote: %v", err)
	}
	if cfg.LastSynced == nil {
		t.Error("expected LastSynced stamp after pull")
	}

	ings := other.Ingredients()
	if len(ings) != 1 || ings[0].Name != "Flour" {
		t.Fatalf("pulled catalog = %+v", ings)
	}
	if ings[0].Quantity != 0 {
		t.Errorf("pulled quantity = %v, want 0 on a fresh device", ings[0].Quantity)
	}
}

func TestPushWithoutConfig(t *testing.T) {
	srv := httptest.NewServer((&binServer{key: "k", bins: map[string]json.RawMessage{}}).handler())
	defer srv.Close()

	e, _ := newSyncEngine(t, srv.URL)
	if _, err := e.PushToRemote(context.Background()); !errors.Is(err, ErrNoSyncConfig) {
		t.Errorf("err = %v, want ErrNoSyncConfig", err)
	}
	if _, err := e.PullFromRemote(context.Background()); !errors.Is(err, ErrNoSyncConfig) {
		t.Errorf("err = %v, want ErrNoSyncConfig", err)
	}
}

func TestSyncUnsupportedInLocalMode(t *testing.T) {
	e := newTestEngine(t, ModeLocal, &fakeBackend{})

	if err := e.LinkRemote(context.Background(), "k", "b"); !errors.Is(err, ErrSyncUnsupported) {
		t.Errorf("err = %v, want ErrSyncUnsupported", err)
	}
	if _, err := e.CreateRemoteFromLocal(context.Background(), "k"); !errors.Is(err, ErrSyncUnsupported) {
		t.Errorf("err = %v, want ErrSyncUnsupported", err)
	}
}

func TestUnlinkRemote(t *testing.T) {
	bins := &binServer{key: "secret", bins: map[string]json.RawMessage{}}
	srv := httptest.NewServer(bins.handler())
	defer srv.Close()

	e, backend := newSyncEngine(t, srv.URL)
	if _, err := e.CreateRemoteFromLocal(context.Background(), "secret"); err != nil {
		t.Fatalf("CreateRemoteFromLocal: %v", err)
	}
	if err := e.UnlinkRemote(context.Background()); err != nil {
		t.Fatalf("UnlinkRemote: %v", err)
	}
	if e.SyncConfig() != nil {
		t.Error("sync config still present after unlink")
	}
	if backend.syncCfg != nil {
		t.Error("persisted sync config still present after unlink")
	}
	if _, ok := bins.bins["bin-1"]; !ok {
		t.Error("unlink should not delete the bin")
	}
}
