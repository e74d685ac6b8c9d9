package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keep-gateway/internal/config"
	"keep-gateway/internal/handler"
	"keep-gateway/internal/keep"
	"keep-gateway/internal/middleware"
	"keep-gateway/internal/service"
	"keep-gateway/internal/snapshot"
	"keep-gateway/internal/websocket"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store := snapshot.NewStore(cfg.Keep.StateFile)
	client := keep.NewClient()

	hub := websocket.NewHub()
	go hub.Run()

	sessions := service.NewSessionManager(client, store, service.Credentials{
		Email:       cfg.Keep.Email,
		MasterToken: cfg.Keep.MasterToken,
	})
	syncService := service.NewSyncService(sessions, store, hub)
	noteService := service.NewNoteService(sessions, syncService)

	noteHandler := handler.NewNoteHandler(noteService)
	wsHandler := handler.NewWebSocketHandler(hub)

	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthHandler).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes", noteHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/notes/sync", noteHandler.Sync).Methods("POST", "OPTIONS")

	r.HandleFunc("/ws", wsHandler.HandleConnection)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Keep Gateway on %s (env: %s)", addr, cfg.Server.Env)
		log.Printf("Snapshot path: %s", cfg.Keep.StateFile)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
