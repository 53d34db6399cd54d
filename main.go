package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"cinepick/api"
	"cinepick/config"
	"cinepick/handlers"
	"cinepick/internal/carousel"
	"cinepick/internal/database"
	"cinepick/services/chat"
	"cinepick/services/metadata"
	"cinepick/services/recommender"
	"cinepick/services/sessions"
	"cinepick/services/trailer"
	"cinepick/utils"
)

func main() {
	configPath := os.Getenv("CINEPICK_CONFIG")
	if configPath == "" {
		configPath = "./data/settings.json"
	}
	settings, err := config.NewManager(configPath).Load()
	if err != nil {
		log.Fatalf("[main] load settings: %v", err)
	}

	if settings.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   settings.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}

	if err := os.MkdirAll(settings.StorageDir, 0o755); err != nil {
		log.Fatalf("[main] create storage dir: %v", err)
	}

	sessionsSvc, err := sessions.NewService(settings.StorageDir, sessions.DefaultSessionDuration)
	if err != nil {
		log.Fatalf("[main] sessions service: %v", err)
	}
	log.Printf("[main] sessions loaded: %d live", sessionsSvc.Count())

	db, err := database.NewDB(database.Config{
		DatabasePath: filepath.Join(settings.StorageDir, "cinepick.db"),
	})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()
	chatRepo := database.NewChatRepository(db.Connection())

	recClient := recommender.NewClient(settings.Recommender.BaseURL)
	metadataSvc := metadata.NewService(
		settings.TMDB.APIKey, settings.TMDB.Language,
		nil, afero.NewOsFs(), settings.StorageDir, settings.TMDB.CacheTTLHours,
	)
	trailerClient := trailer.NewClient(settings.YouTube.APIKey)
	chatClient := chat.NewClient(settings.Recommender.BaseURL)
	registry := carousel.NewRegistry()

	authHandler := handlers.NewAuthHandler(recClient, sessionsSvc, registry)
	homeHandler := handlers.NewHomeHandler(recClient, metadataSvc, sessionsSvc)
	resultsHandler := handlers.NewResultsHandler(recClient, metadataSvc)
	watchHandler := handlers.NewWatchHandler(trailerClient, metadataSvc)
	chatHandler := handlers.NewChatHandler(chatClient, chatRepo, recClient)
	carouselHandler := handlers.NewCarouselHandler(registry, trailerClient.Find)

	router := utils.NewRouter()

	// Login is the only unauthenticated write; 5 attempts per minute per IP.
	loginLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5, 10*time.Minute)
	router.HandleFunc("/api/auth/login",
		api.RateLimitHandlerFunc(loginLimiter, authHandler.Login)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodOptions)

	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(api.SessionAuthMiddleware(sessionsSvc))
	protected.HandleFunc("/home", homeHandler.Home).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/home/filter", homeHandler.Filter).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/home/filter/options", homeHandler.FilterOptions).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/results", resultsHandler.Results).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/watch/{movieName}", watchHandler.Watch).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/chat", chatHandler.Send).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/chat/history", chatHandler.History).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/chat/history", chatHandler.Clear).Methods(http.MethodDelete)
	protected.HandleFunc("/carousel", carouselHandler.Create).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/carousel/{id}", carouselHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/carousel/{id}", carouselHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/carousel/{id}/next", carouselHandler.Next).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/carousel/{id}/prev", carouselHandler.Prev).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/carousel/{id}/jump", carouselHandler.Jump).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/carousel/{id}/modal", carouselHandler.OpenModal).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/carousel/{id}/modal", carouselHandler.GetModal).Methods(http.MethodGet)
	protected.HandleFunc("/carousel/{id}/modal", carouselHandler.CloseModal).Methods(http.MethodDelete)

	server := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", settings.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Printf("[main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}
