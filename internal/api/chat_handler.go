package api

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler holds the chat service dependency.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// --- Request/Response Structs ---

type StartChatRequest struct {
	OtherID string `json:"otherId" binding:"required"`
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type MessageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// --- Handler Methods ---

// StartChat godoc
// @Summary Open (or create) the chat with another user
// @Tags Chats
// @Accept json
// @Produce json
// @Param body body StartChatRequest true "Counterpart user ID"
// @Success 200 {object} service.ChatView
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Counterpart not found"
// @Router /chats [post]
func (h *ChatHandler) StartChat(c *gin.Context) {
	selfID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	otherID, err := primitive.ObjectIDFromHex(req.OtherID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid otherId format")
		return
	}

	view, err := h.chatService.StartChat(c.Request.Context(), selfID, otherID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCannotChatSelf):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTargetNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to open chat")
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListChats godoc
// @Summary List the caller's chats, most recently updated first
// @Tags Chats
// @Produce json
// @Success 200 {array} service.ChatView
// @Router /chats [get]
func (h *ChatHandler) ListChats(c *gin.Context) {
	selfID, ok := currentUserID(c)
	if !ok {
		return
	}
	views, err := h.chatService.ListChats(c.Request.Context(), selfID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list chats")
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetChat godoc
// @Summary Fetch one chat with its banner state
// @Tags Chats
// @Produce json
// @Param chatId path string true "Chat ID"
// @Success 200 {object} service.ChatView
// @Failure 403 {object} gin.H "Not a participant"
// @Failure 404 {object} gin.H "Chat not found"
// @Router /chats/{chatId} [get]
func (h *ChatHandler) GetChat(c *gin.Context) {
	selfID, ok := currentUserID(c)
	if !ok {
		return
	}
	view, err := h.chatService.GetChat(c.Request.Context(), selfID, c.Param("chatId"))
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListMessages godoc
// @Summary List a chat's messages, oldest first
// @Tags Chats
// @Produce json
// @Param chatId path string true "Chat ID"
// @Success 200 {array} MessageResponse
// @Failure 403 {object} gin.H "Not a participant"
// @Failure 404 {object} gin.H "Chat not found"
// @Router /chats/{chatId}/messages [get]
func (h *ChatHandler) ListMessages(c *gin.Context) {
	selfID, ok := currentUserID(c)
	if !ok {
		return
	}
	messages, err := h.chatService.ListMessages(c.Request.Context(), selfID, c.Param("chatId"))
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	resp := make([]MessageResponse, len(messages))
	for i := range messages {
		resp[i] = mapMessageToResponse(&messages[i])
	}
	c.JSON(http.StatusOK, resp)
}

// SendMessage godoc
// @Summary Append a message to a chat
// @Tags Chats
// @Accept json
// @Produce json
// @Param chatId path string true "Chat ID"
// @Param body body SendMessageRequest true "Message text"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} gin.H "Empty message"
// @Failure 403 {object} gin.H "Not a participant"
// @Failure 404 {object} gin.H "Chat not found"
// @Router /chats/{chatId}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	selfID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), selfID, c.Param("chatId"), req.Text)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapMessageToResponse(message))
}

func (h *ChatHandler) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotParticipant):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Chat operation failed")
	}
}

func mapMessageToResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID.Hex(),
		ChatID:    m.ChatID,
		SenderID:  m.SenderID.Hex(),
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
