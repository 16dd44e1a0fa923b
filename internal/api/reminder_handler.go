package api

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReminderHandler holds the reminder service dependency.
type ReminderHandler struct {
	reminderService service.ReminderService
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(reminderService service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService}
}

// --- Request/Response Structs ---

type CreateReminderRequest struct {
	Text string `json:"text" binding:"required"`
}

type SetCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type ReminderResponse struct {
	ID        string              `json:"id"`
	Text      string              `json:"text"`
	Completed bool                `json:"completed"`
	CreatedBy *AssignedByResponse `json:"createdBy,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// --- Handler Methods ---

// Create godoc
// @Summary Create a reminder for the caller
// @Tags Reminders
// @Accept json
// @Produce json
// @Param body body CreateReminderRequest true "Reminder text"
// @Success 201 {object} ReminderResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /reminders [post]
func (h *ReminderHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	reminder, err := h.reminderService.Create(c.Request.Context(), userID, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrEmptyReminder) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create reminder")
		}
		return
	}
	c.JSON(http.StatusCreated, mapReminderToResponse(reminder))
}

// List godoc
// @Summary List the caller's reminders, newest first
// @Tags Reminders
// @Produce json
// @Success 200 {array} ReminderResponse
// @Router /reminders [get]
func (h *ReminderHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reminders, err := h.reminderService.List(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list reminders")
		return
	}

	resp := make([]ReminderResponse, len(reminders))
	for i := range reminders {
		resp[i] = mapReminderToResponse(&reminders[i])
	}
	c.JSON(http.StatusOK, resp)
}

// SetCompleted godoc
// @Summary Toggle a reminder's completed flag
// @Tags Reminders
// @Accept json
// @Produce json
// @Param id path string true "Reminder ID"
// @Param body body SetCompletedRequest true "Completed flag"
// @Success 204 "Reminder updated"
// @Failure 404 {object} gin.H "Reminder not found"
// @Router /reminders/{id} [patch]
func (h *ReminderHandler) SetCompleted(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reminderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req SetCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.reminderService.SetCompleted(c.Request.Context(), userID, reminderID, *req.Completed); err != nil {
		h.respondReminderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete one of the caller's reminders
// @Tags Reminders
// @Produce json
// @Param id path string true "Reminder ID"
// @Success 204 "Reminder deleted"
// @Failure 404 {object} gin.H "Reminder not found"
// @Router /reminders/{id} [delete]
func (h *ReminderHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reminderID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.reminderService.Delete(c.Request.Context(), userID, reminderID); err != nil {
		h.respondReminderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReminderHandler) respondReminderError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrReminderNotFound) {
		abortWithError(c, http.StatusNotFound, err.Error())
	} else {
		abortWithError(c, http.StatusInternalServerError, "Reminder operation failed")
	}
}

func mapReminderToResponse(r *domain.Reminder) ReminderResponse {
	resp := ReminderResponse{
		ID:        r.ID.Hex(),
		Text:      r.Text,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
	}
	if r.CreatedBy != nil {
		resp.CreatedBy = &AssignedByResponse{
			UID:         r.CreatedBy.UID.Hex(),
			Name:        r.CreatedBy.Name,
			ProfileIcon: r.CreatedBy.ProfileIcon,
		}
	}
	return resp
}
