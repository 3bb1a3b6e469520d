// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package account exposes the auth session in realtime mode.
package account

import (
	"net/http"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5"

	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/httpjson"
	"github.com/wisdyxxyy/KitchenOS/internal/kitchendb"
)

// NewHandler returns a Handler.
func NewHandler(session *engine.Session) *Handler {
	return &Handler{session: session}
}

// Handler reports and mutates the auth session.
type Handler struct {
	session *engine.Session
}

// Register mounts the session routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/session", h.Get)
	r.Post("/api/session/signout", h.SignOut)
}

// Middleware reports each verified identity to the session, binding
// the engine to that user's namespace on first sight.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := firebaseauth.TokenFromContext(r.Context()); tok != nil {
			user := &kitchendb.User{UID: tok.UID}
			if email, ok := tok.Claims["email"].(string); ok {
				user.Email = email
			}
			if name, ok := tok.Claims["name"].(string); ok {
				user.DisplayName = name
			}
			h.session.HandleAuthChange(r.Context(), user)
		}
		next.ServeHTTP(w, r)
	})
}

type sessionResponse struct {
	State engine.AuthState `json:"state"`
	User  *kitchendb.User  `json:"user,omitempty"`
	Error string           `json:"error,omitempty"`
}

func (h *Handler) Get(w http.ResponseWriter, _ *http.Request) {
	res := sessionResponse{
		State: h.session.State(),
		User:  h.session.User(),
	}
	if err := h.session.LastError(); err != nil {
		res.Error = err.Error()
	}
	httpjson.Write(w, res)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.session.HandleAuthChange(r.Context(), nil)
	w.WriteHeader(http.StatusNoContent)
}
