package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/collab-editor/backend/api/handlers"
	"github.com/collab-editor/backend/internal/db"
	"github.com/collab-editor/backend/internal/repository"
	"github.com/collab-editor/backend/internal/session"
	"github.com/collab-editor/backend/internal/snapshot"
	"github.com/collab-editor/backend/internal/ws"
)

func main() {
	// Get configuration from environment
	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", "data/collab.db")
	logDir := getEnv("LOG_DIR", "data/logs")

	// Ensure data directories exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize repositories
	sessionRepo := repository.NewSessionRepository(database)
	fileRepo := repository.NewFileRepository(database)
	snapshotRepo := repository.NewSnapshotRepository(database)
	commentRepo := repository.NewCommentRepository(database)

	// Initialize session manager
	sessionManager := session.NewManager(sessionRepo, session.Config{
		LogDir: logDir,
	})
	defer sessionManager.Close()

	// Initialize snapshot capture service
	captureService := snapshot.NewService(snapshotRepo)

	// Initialize WebSocket service; session events go to the event log
	wsService := ws.NewService()
	defer wsService.Close()
	wsService.SetEventSink(func(sessionID string, kind ws.Kind, data []byte) {
		sessionManager.Record(sessionID, string(kind), data)
	})

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessionManager, fileRepo)
	snapshotHandler := handlers.NewSnapshotHandler(sessionManager, captureService, snapshotRepo, commentRepo, fileRepo, wsService)
	wsHandler := handlers.NewWebSocketHandler(wsService.Handler())

	// Initialize Gin router
	r := gin.Default()

	// Enable CORS for development
	r.Use(corsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		sessionHandler.RegisterRoutes(api)
		snapshotHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		wsService.Close()
		sessionManager.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// corsMiddleware returns a CORS middleware for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
