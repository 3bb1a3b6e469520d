// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/curioswitch/go-curiostack/server"
	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/wisdyxxyy/KitchenOS/internal/assist"
	"github.com/wisdyxxyy/KitchenOS/internal/config"
	"github.com/wisdyxxyy/KitchenOS/internal/engine"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/account"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/assistant"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/backup"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/consumption"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/inventory"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/plans"
	"github.com/wisdyxxyy/KitchenOS/internal/handler/recipes"
	syncapi "github.com/wisdyxxyy/KitchenOS/internal/handler/sync"
	"github.com/wisdyxxyy/KitchenOS/internal/images"
	"github.com/wisdyxxyy/KitchenOS/internal/store"
)

//go:embed conf/*.yaml
var confFiles embed.FS

func main() {
	conf, _ := fs.Sub(confFiles, "conf")
	os.Exit(server.Main(&config.Config{}, conf, setupServer))
}

func setupServer(ctx context.Context, conf *config.Config, s *server.Server) error {
	mux := server.Mux(s)

	var imageWriter *images.Writer
	if conf.Images.Bucket != "" {
		storageClient, err := storage.NewGRPCClient(ctx)
		if err != nil {
			return fmt.Errorf("main: create storage client: %w", err)
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				slog.ErrorContext(ctx, "main: close storage client", "error", err)
			}
		}()
		imageWriter = images.NewWriter(storageClient, conf.Images.Bucket)
	}

	var model assist.Model
	switch conf.Assist.Provider {
	case "", "gemini":
		genAI, err := genai.NewClient(ctx, &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			Project: conf.Google.Project,
		})
		if err != nil {
			return fmt.Errorf("main: create genai client: %w", err)
		}
		model = assist.NewGemini(genAI, conf.Assist.Model)
	case "openai":
		oai := openai.NewClient()
		model = assist.NewOpenAI(&oai, conf.Assist.Model)
	default:
		return fmt.Errorf("main: unsupported assist provider: %s", conf.Assist.Provider) //nolint:err113
	}

	var eng *engine.Engine
	switch conf.Storage.Backend {
	case "", "local":
		local, err := store.NewLocal(conf.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("main: create local store: %w", err)
		}
		eng = engine.New(engine.ModeLocal, local)
	case "jsonbin":
		local, err := store.NewLocal(conf.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("main: create local store: %w", err)
		}
		eng = engine.New(engine.ModeJSONBin, local,
			engine.WithBin(store.NewJSONBin(conf.JSONBin.Endpoint)))
	case "firestore":
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Google.Project})
		if err != nil {
			return fmt.Errorf("main: create firebase app: %w", err)
		}

		fbAuth, err := fbApp.Auth(ctx)
		if err != nil {
			return fmt.Errorf("main: create firebase auth client: %w", err)
		}

		firestore, err := fbApp.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("main: create firestore client: %w", err)
		}
		defer func() {
			if err := firestore.Close(); err != nil {
				slog.ErrorContext(ctx, "main: close firestore client", "error", err)
			}
		}()

		eng = engine.New(engine.ModeRealtime, nil)
		session := engine.NewSession(eng, &engine.FirestoreFactory{Client: firestore})
		defer session.Close()

		accountHandler := account.NewHandler(session)
		fbMW := firebaseauth.NewMiddleware(fbAuth)
		mux.Use(middleware.Maybe(func(h http.Handler) http.Handler {
			return fbMW(accountHandler.Middleware(h))
		}, func(r *http.Request) bool {
			return strings.HasPrefix(r.URL.Path, "/api/")
		}))
		accountHandler.Register(mux)
	default:
		return fmt.Errorf("main: unsupported storage backend: %s", conf.Storage.Backend) //nolint:err113
	}

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("main: loading collections: %w", err)
	}

	inventory.NewHandler(eng).Register(mux)
	recipes.NewHandler(eng, imageWriter).Register(mux)
	plans.NewHandler(eng, imageWriter).Register(mux)
	backup.NewHandler(eng).Register(mux)
	syncapi.NewHandler(eng).Register(mux)
	consumption.NewHandler(eng).Register(mux)
	assistant.NewHandler(eng, model).Register(mux)

	if err := server.Start(ctx, s); err != nil {
		return fmt.Errorf("main: starting server: %w", err)
	}
	return nil
}
