package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/understory-go/spatial/internal/auth"
	"github.com/understory-go/spatial/internal/collab"
	"github.com/understory-go/spatial/internal/config"
	mw "github.com/understory-go/spatial/internal/middleware"
	"github.com/understory-go/spatial/internal/storage"
	"github.com/understory-go/spatial/internal/workspace"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := storage.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := storage.New(pool)

	authService := auth.NewService(store, cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	workspaceService := workspace.New(store, cfg.RTreeLeafCapacity)
	workspaceHandler := workspace.NewHandler(workspaceService)

	hub := collab.NewHub()
	go hub.Run()

	r := mux.NewRouter()

	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.NewCORS(cfg.AllowedOrigins))

	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/workspaces", workspaceHandler.ListWorkspaces).Methods("GET")
	api.HandleFunc("/workspaces", workspaceHandler.CreateWorkspace).Methods("POST")
	api.HandleFunc("/workspaces/{workspaceID}", workspaceHandler.GetWorkspace).Methods("GET")
	api.HandleFunc("/workspaces/{workspaceID}/scenes", workspaceHandler.ListScenes).Methods("GET")
	api.HandleFunc("/workspaces/{workspaceID}/scenes", workspaceHandler.CreateScene).Methods("POST")
	api.HandleFunc("/scenes/{sceneID}/hit-test", workspaceHandler.HitTest).Methods("POST")

	r.HandleFunc("/ws/scene/{sceneID}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-gCtx.Done():
		}

		slog.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service) {
	vars := mux.Vars(r)
	sceneID := vars["sceneID"]

	const playgroundSceneID = "scene_playground"

	var userID, displayName string
	if sceneID == playgroundSceneID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		var err error
		userID, err = authSvc.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		user, err := authSvc.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusInternalServerError)
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:5173", "localhost:3000"},
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, userID, displayName, sceneID, clientID)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
