// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package backup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

func newServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	local, err := store.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	eng := engine.New(engine.ModeLocal, local)
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mux := chi.NewRouter()
	NewHandler(eng).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, eng
}

func TestExportAttachment(t *testing.T) {
	srv, eng := newServer(t)

	if _, err := eng.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Flour", Quantity: 2}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}

	res, err := http.Get(srv.URL + "/api/backup/export")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()

	cd := res.Header.Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="kitchen_backup_`) || !strings.HasSuffix(cd, `.json"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	var doc engine.ExportDocument
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if doc.Version != 1 {
		t.Errorf("version = %d", doc.Version)
	}
	if len(doc.Ingredients) != 1 || doc.Ingredients[0].Quantity != 0 {
		t.Errorf("exported ingredients = %+v", doc.Ingredients)
	}
}

func TestImportRoundTrip(t *testing.T) {
	srv, eng := newServer(t)

	body := `{"ingredients": [{"id": "i1", "name": "Salt", "quantity": 5}], "recipes": []}`
	res, err := http.Post(srv.URL+"/api/backup/import", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", res.StatusCode)
	}

	ings := eng.Ingredients()
	if len(ings) != 1 || ings[0].Name != "Salt" {
		t.Errorf("ingredients = %+v", ings)
	}
	if ings[0].Quantity != 0 {
		t.Errorf("imported quantity = %v, want 0 for unmatched ID", ings[0].Quantity)
	}
}

func TestImportRejectsMissingArrays(t *testing.T) {
	srv, _ := newServer(t)

	res, err := http.Post(srv.URL+"/api/backup/import", "application/json",
		strings.NewReader(`{"recipes": []}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestClear(t *testing.T) {
	srv, eng := newServer(t)

	if _, err := eng.AddIngredient(context.Background(), kitchendb.Ingredient{Name: "Flour", Quantity: 2}); err != nil {
		t.Fatalf("AddIngredient: %v", err)
	}

	res, err := http.Post(srv.URL+"/api/backup/clear", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", res.StatusCode)
	}
	if len(eng.Ingredients()) != 0 {
		t.Error("ingredients remain after clear")
	}
}
