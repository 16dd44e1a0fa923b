package api

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/live"
	"coachdesk/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles everything SetupRoutes wires into handlers.
type Services struct {
	Auth         service.AuthService
	Profile      service.ProfileService
	Chat         service.ChatService
	Relationship service.RelationshipService
	Assignment   service.AssignmentService
	Goal         service.GoalService
	Reminder     service.ReminderService
	Instructor   service.InstructorService
	Content      service.ContentService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, hub *live.Hub, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	profileHandler := NewProfileHandler(svc.Profile)
	chatHandler := NewChatHandler(svc.Chat)
	relationshipHandler := NewRelationshipHandler(svc.Relationship)
	inboxHandler := NewInboxHandler(svc.Assignment)
	goalHandler := NewGoalHandler(svc.Goal)
	reminderHandler := NewReminderHandler(svc.Reminder)
	instructorHandler := NewInstructorHandler(svc.Instructor)
	contentHandler := NewContentHandler(svc.Content)
	wsHandler := NewWSHandler(hub, svc.Chat)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Own profile ---
		meGroup := protected.Group("/me")
		{
			meGroup.GET("/profile", profileHandler.Get)
			meGroup.PUT("/profile", profileHandler.Update)
			meGroup.POST("/profile/icon/upload-url", profileHandler.RequestIconUpload)
			meGroup.PUT("/profile/icon", profileHandler.ConfirmIconUpload)
		}

		// --- User directory ---
		protected.GET("/users/search", instructorHandler.Search)
		protected.GET("/users/:userId/icon", profileHandler.IconURL)

		// --- Chats ---
		chatGroup := protected.Group("/chats")
		{
			chatGroup.POST("", chatHandler.StartChat)
			chatGroup.GET("", chatHandler.ListChats)
			chatGroup.GET("/:chatId", chatHandler.GetChat)
			chatGroup.GET("/:chatId/messages", chatHandler.ListMessages)
			chatGroup.POST("/:chatId/messages", chatHandler.SendMessage)
		}

		// --- Relationship workflow (client side) ---
		relGroup := protected.Group("/relationships")
		{
			relGroup.GET("/:userId", relationshipHandler.Status)
			relGroup.POST("/:userId/accept", relationshipHandler.Accept)
			relGroup.POST("/:userId/decline", relationshipHandler.Decline)
		}

		// --- Inbox ---
		inboxGroup := protected.Group("/inbox")
		{
			inboxGroup.GET("", inboxHandler.List)
			inboxGroup.POST("/:id/accept", inboxHandler.Accept)
			inboxGroup.POST("/:id/decline", inboxHandler.Decline)
		}

		// --- Goals ---
		goalGroup := protected.Group("/goals")
		{
			goalGroup.POST("", goalHandler.Create)
			goalGroup.GET("", goalHandler.List)
			goalGroup.GET("/:id", goalHandler.Get)
			goalGroup.POST("/:id/complete", goalHandler.CompleteToday)
			goalGroup.DELETE("/:id", goalHandler.Delete)
		}

		// --- Reminders ---
		reminderGroup := protected.Group("/reminders")
		{
			reminderGroup.POST("", reminderHandler.Create)
			reminderGroup.GET("", reminderHandler.List)
			reminderGroup.PATCH("/:id", reminderHandler.SetCompleted)
			reminderGroup.DELETE("/:id", reminderHandler.Delete)
		}

		// --- Content feed ---
		contentGroup := protected.Group("/content")
		{
			contentGroup.GET("/news", contentHandler.News)
			contentGroup.GET("/recipes", contentHandler.Recipes)
			contentGroup.GET("/feed", contentHandler.Feed)
		}

		// --- Instructor-only routes ---
		instructorGroup := protected.Group("/instructor")
		instructorGroup.Use(RoleMiddleware(domain.RoleInstructor))
		{
			instructorGroup.GET("/roster", instructorHandler.Roster)
			instructorGroup.GET("/suggestions", instructorHandler.Suggestions)
			instructorGroup.POST("/offers", relationshipHandler.Offer)
			instructorGroup.DELETE("/clients/:clientId", relationshipHandler.Remove)
			instructorGroup.POST("/clients/:clientId/reminders", inboxHandler.PushReminder)
			instructorGroup.POST("/clients/:clientId/goals", inboxHandler.PushGoal)
		}

		// --- Live updates ---
		protected.GET("/ws", wsHandler.WatchUser)
		protected.GET("/ws/chats/:chatId", wsHandler.WatchChat)
	}
}
