package main

import (
	"coachdesk/internal/api"
	"coachdesk/internal/cache"
	"coachdesk/internal/config"
	"coachdesk/internal/live"
	"coachdesk/internal/repository/mongo"
	"coachdesk/internal/service"
	"coachdesk/internal/storage"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title CoachDesk API
// @version 1.0
// @description API for the coaching dashboard: users, instructors, goals, reminders, chat, and the learning feed.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting CoachDesk Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureChatIndexes(ctx, appDB.Collection("chats"))
		mongo.EnsureMessageIndexes(ctx, appDB.Collection("messages"))
		mongo.EnsureRelationshipIndexes(ctx, appDB.Collection("relationships"))
		mongo.EnsureGoalIndexes(ctx, appDB.Collection("goals"))
		mongo.EnsureReminderIndexes(ctx, appDB.Collection("reminders"))
		mongo.EnsureAssignmentIndexes(ctx, appDB.Collection("pending_assignments"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Profile Cache ---
	log.Println("Initializing profile cache...")
	profileCache := cache.NewProfileCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.TTL)
	defer func() {
		if err := profileCache.Close(); err != nil {
			log.Printf("ERROR: Failed to close Redis connection: %v", err)
		}
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	chatRepo := mongo.NewMongoChatRepository(appDB)
	messageRepo := mongo.NewMongoMessageRepository(appDB)
	relationshipRepo := mongo.NewMongoRelationshipRepository(appDB)
	goalRepo := mongo.NewMongoGoalRepository(appDB)
	reminderRepo := mongo.NewMongoReminderRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	txRunner := mongo.NewMongoTxRunner(dbClient)

	// --- Live Update Hub ---
	hub := live.NewHub()

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	profileService := service.NewProfileService(userRepo, fileStorage, profileCache, hub)
	relationshipService := service.NewRelationshipService(userRepo, relationshipRepo, assignmentRepo, txRunner, hub)
	chatService := service.NewChatService(chatRepo, messageRepo, relationshipRepo, userRepo, profileCache, txRunner, hub)
	assignmentService := service.NewAssignmentService(userRepo, relationshipRepo, assignmentRepo, goalRepo, reminderRepo, relationshipService, txRunner, hub)
	goalService := service.NewGoalService(goalRepo, hub)
	reminderService := service.NewReminderService(reminderRepo, hub)
	instructorService := service.NewInstructorService(userRepo, relationshipRepo, profileCache)
	contentService := service.NewContentService(service.ContentConfig{
		NewsAPIKey:        cfg.Content.NewsAPIKey,
		SpoonacularAPIKey: cfg.Content.SpoonacularAPIKey,
		NewsBaseURL:       cfg.Content.NewsBaseURL,
		RecipesBaseURL:    cfg.Content.RecipesBaseURL,
	})

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, hub, api.Services{
		Auth:         authService,
		Profile:      profileService,
		Chat:         chatService,
		Relationship: relationshipService,
		Assignment:   assignmentService,
		Goal:         goalService,
		Reminder:     reminderService,
		Instructor:   instructorService,
		Content:      contentService,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
