package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mlukic/duet/internal/ai"
	"github.com/mlukic/duet/internal/config"
	"github.com/mlukic/duet/internal/database"
	postgresrepo "github.com/mlukic/duet/internal/repository/postgres"
	"github.com/mlukic/duet/internal/service"
	"github.com/mlukic/duet/internal/storage"
	"github.com/mlukic/duet/internal/transport/http/handlers"
	"github.com/mlukic/duet/internal/transport/http/middleware"
	"github.com/mlukic/duet/internal/transport/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrating database", zap.Error(err))
	}
	logger.Info("connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	chatRepo := postgresrepo.NewChatRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, chatRepo, cfg.JWTSecret, cfg.BotUsername, logger)
	chatService := service.NewChatService(chatRepo, userRepo, messageRepo, cfg.BotUsername)
	messageService := service.NewMessageService(messageRepo, chatService, logger)

	if _, err := authService.EnsureBotUser(ctx); err != nil {
		logger.Fatal("ensuring bot user", zap.Error(err))
	}

	// Real-time hub
	hub := ws.NewHub(logger)
	messageService.SetNotifier(ws.NewHubNotifier(hub, logger))

	// Auto-responder
	if cfg.GeminiAPIKey != "" {
		generator, err := ai.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal("creating gemini client", zap.Error(err))
		}
		messageService.SetResponder(service.NewResponder(generator, messageService, cfg.BotUsername, logger))
	} else {
		logger.Warn("GEMINI_API_KEY not set, auto-responder disabled")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	chatHandler := handlers.NewChatHandler(chatService, messageService, logger)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Protected - Chats
	mux.Handle("POST /api/v1/chats", auth(http.HandlerFunc(chatHandler.Create)))
	mux.Handle("GET /api/v1/chats", auth(http.HandlerFunc(chatHandler.List)))
	mux.Handle("DELETE /api/v1/chats/{id}", auth(http.HandlerFunc(chatHandler.Delete)))
	mux.Handle("GET /api/v1/chats/{id}/messages", auth(http.HandlerFunc(chatHandler.History)))

	// Protected - File uploads
	if cfg.CloudinaryCloud != "" {
		blobStore, err := storage.NewCloudinary(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret)
		if err != nil {
			logger.Fatal("creating cloudinary client", zap.Error(err))
		}
		uploadHandler := handlers.NewUploadHandler(service.NewUploadService(blobStore), logger)
		mux.Handle("POST /api/v1/files/upload", auth(http.HandlerFunc(uploadHandler.Upload)))
	} else {
		logger.Warn("CLOUDINARY_CLOUD_NAME not set, file uploads disabled")
	}

	// Real-time
	mux.HandleFunc("GET /ws/chats/{id}", ws.ServeWS(hub, messageService, chatService, cfg.JWTSecret, logger))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	logger.Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
