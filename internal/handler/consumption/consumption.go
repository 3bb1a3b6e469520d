// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package consumption serves the consumption statistics endpoint.
package consumption

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/stats"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

// NewHandler returns a Handler.
func NewHandler(engine *engine.Engine) *Handler {
	return &Handler{engine: engine, now: time.Now}
}

// Handler serves consumption reports.
type Handler struct {
	engine *engine.Engine
	now    func() time.Time
}

// Register mounts the stats routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/stats/consumption", h.Consumption)
}

// Consumption reports the window given by start and end query
// parameters, defaulting to the last seven days.
func (h *Handler) Consumption(w http.ResponseWriter, r *http.Request) {
	end := r.URL.Query().Get("end")
	start := r.URL.Query().Get("start")
	if end == "" {
		end = h.now().Format("2006-01-02")
	}
	if start == "" {
		start = h.now().AddDate(0, 0, -6).Format("2006-01-02")
	}
	if !validDate(start) || !validDate(end) {
		httpjson.Error(w, r, &store.FormatError{Reason: "start and end must be YYYY-MM-DD dates"})
		return
	}

	httpjson.Write(w, stats.Consumption(h.engine.MenuPlans(), h.engine.Recipes(), start, end))
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
