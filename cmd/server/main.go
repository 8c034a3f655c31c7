package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"leaflog/internal/assist"
	"leaflog/internal/config"
	"leaflog/internal/database"
	"leaflog/internal/engine"
	"leaflog/internal/engine/actors"
	"leaflog/internal/handlers"
	"leaflog/internal/identity"
	"leaflog/internal/middleware"
	"leaflog/internal/models"
	"leaflog/internal/utils"
	"leaflog/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	metrics := utils.NewMetricsCollector()

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	// Initialize actor system
	system := actor.NewActorSystem()
	session := identity.NewSession()
	appEngine := engine.NewEngine(system, store, metrics, session)

	// The hub fans comment snapshots out to websocket watchers; the
	// engine feeds it through the comment fanout callback.
	hub := websocket.NewHub()
	appEngine.SetCommentFanout(func(postID string, comments []*models.Comment) {
		payload, err := json.Marshal(map[string]interface{}{
			"postId":   postID,
			"comments": comments,
		})
		if err != nil {
			log.Printf("Failed to marshal comment snapshot for post %s: %v", postID, err)
			return
		}
		hub.SendToPost(postID, payload)
	})
	hub.OnFirstSubscriber = func(postID string) {
		go func() {
			future := system.Root.RequestFuture(appEngine.CommentStreamFor(postID), &actors.ExpandMsg{}, 5*time.Second)
			if _, err := future.Result(); err != nil {
				log.Printf("Failed to expand comment stream for post %s: %v", postID, err)
			}
		}()
	}
	hub.OnLastSubscriber = func(postID string) {
		system.Root.Send(appEngine.CommentStreamFor(postID), &actors.CollapseMsg{})
	}
	go hub.Run()

	verifier := identity.NewTokenVerifier(cfg.Auth.ProviderSecret, cfg.Auth.ProviderIssuer)
	assistClient := assist.NewClient(cfg.Assist)

	server := handlers.NewServer(system, appEngine, metrics, store, hub, assistClient, verifier, session, cfg.Auth.JWTSecret)

	mux := http.NewServeMux()
	secret := cfg.Auth.JWTSecret

	// Session
	mux.HandleFunc("/auth/login", server.HandleLogin())
	mux.HandleFunc("/auth/logout", middleware.RequireAuth(secret, server.HandleLogout()))

	// Feed
	mux.HandleFunc("/feed", middleware.OptionalAuth(secret, server.HandleFeed()))
	mux.HandleFunc("/feed/more", middleware.OptionalAuth(secret, server.HandleFeedMore()))
	mux.HandleFunc("/feed/like", middleware.RequireAuth(secret, server.HandleLike()))
	mux.HandleFunc("/feed/locations", server.HandleMapLocations())
	mux.HandleFunc("/feed/trending", server.HandleTrending())

	// Posts and comments
	mux.HandleFunc("/post", middleware.OptionalAuth(secret, server.HandlePost()))
	mux.HandleFunc("/comment", middleware.RequireAuth(secret, server.HandleComment()))
	mux.HandleFunc("/comments", server.HandleGetPostComments())
	mux.HandleFunc("/ws/comments", server.HandleCommentsWebSocket())

	// Profiles
	mux.HandleFunc("/profile", middleware.OptionalAuth(secret, server.HandleProfile()))
	mux.HandleFunc("/profile/follow", middleware.RequireAuth(secret, server.HandleFollow()))

	// Misc
	mux.HandleFunc("/assist", middleware.RequireAuth(secret, server.HandleAssist()))
	mux.HandleFunc("/health", server.HandleHealth())
	if cfg.Server.MetricsEnabled {
		mux.HandleFunc("/metrics", server.HandleMetrics())
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            cfg.Debug,
	}).Handler(mux)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting server on %s (store: %s)", serverAddr, cfg.Database.Type)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// openStore selects the document store backend. The in-memory store
// exists for local development and tests; everything else runs Mongo.
func openStore(cfg *config.Config) (database.Store, error) {
	if cfg.Database.Type == "memory" {
		log.Println("Using in-memory store")
		return database.NewMemStore(), nil
	}

	db, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.EnsurePostIndexes(ctx); err != nil {
		return nil, err
	}
	if err := db.EnsureCommentIndexes(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
