package api

import (
	"coachdesk/internal/domain"
	"coachdesk/internal/service"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InboxHandler serves the pending-assignment inbox plus the instructor-side
// push endpoints.
type InboxHandler struct {
	assignmentService service.AssignmentService
}

// NewInboxHandler creates a new InboxHandler.
func NewInboxHandler(assignmentService service.AssignmentService) *InboxHandler {
	return &InboxHandler{assignmentService: assignmentService}
}

// --- Request/Response Structs ---

type PushReminderRequest struct {
	Text string `json:"text" binding:"required"`
}

type PushGoalRequest struct {
	Title    string           `json:"title" binding:"required"`
	Type     domain.GoalType  `json:"type" binding:"required,oneof=workout diet"`
	Days     []string         `json:"days" binding:"required,min=1"`
	Duration int              `json:"duration" binding:"required,gte=1"`
	SubTasks []domain.SubTask `json:"subTasks"`
}

type AssignedByResponse struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	ProfileIcon string `json:"profileIcon,omitempty"`
}

type AssignmentResponse struct {
	ID         string                    `json:"id"`
	Type       domain.AssignmentType     `json:"type"`
	AssignedBy AssignedByResponse        `json:"assignedBy"`
	Payload    *domain.AssignmentPayload `json:"payload,omitempty"`
	AssignedAt time.Time                 `json:"assignedAt"`
}

// --- Handler Methods ---

// List godoc
// @Summary List the caller's pending assignments, newest first
// @Tags Inbox
// @Produce json
// @Success 200 {array} AssignmentResponse
// @Router /inbox [get]
func (h *InboxHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignments, err := h.assignmentService.Inbox(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list inbox")
		return
	}

	resp := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		resp[i] = mapAssignmentToResponse(&assignments[i])
	}
	c.JSON(http.StatusOK, resp)
}

// Accept godoc
// @Summary Accept a pending assignment
// @Description Materializes the payload (reminder, goal, or coaching offer) and removes the inbox entry.
// @Tags Inbox
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204 "Assignment accepted"
// @Failure 404 {object} gin.H "Assignment not found"
// @Router /inbox/{id}/accept [post]
func (h *InboxHandler) Accept(c *gin.Context) {
	h.respond(c, h.assignmentService.Accept)
}

// Decline godoc
// @Summary Decline a pending assignment
// @Tags Inbox
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204 "Assignment declined"
// @Failure 404 {object} gin.H "Assignment not found"
// @Router /inbox/{id}/decline [post]
func (h *InboxHandler) Decline(c *gin.Context) {
	h.respond(c, h.assignmentService.Decline)
}

// PushReminder godoc
// @Summary Push a reminder to a client's inbox (instructor only)
// @Tags Inbox
// @Accept json
// @Produce json
// @Param clientId path string true "Client ID"
// @Param body body PushReminderRequest true "Reminder text"
// @Success 201 {object} AssignmentResponse
// @Failure 404 {object} gin.H "Not an accepted client"
// @Router /instructor/clients/{clientId}/reminders [post]
func (h *InboxHandler) PushReminder(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	var req PushReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	assignment, err := h.assignmentService.PushReminder(c.Request.Context(), instructorID, clientID, req.Text)
	if err != nil {
		h.respondPushError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapAssignmentToResponse(assignment))
}

// PushGoal godoc
// @Summary Push a goal template to a client's inbox (instructor only)
// @Tags Inbox
// @Accept json
// @Produce json
// @Param clientId path string true "Client ID"
// @Param body body PushGoalRequest true "Goal template"
// @Success 201 {object} AssignmentResponse
// @Failure 404 {object} gin.H "Not an accepted client"
// @Router /instructor/clients/{clientId}/goals [post]
func (h *InboxHandler) PushGoal(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}
	var req PushGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	assignment, err := h.assignmentService.PushGoal(c.Request.Context(), instructorID, clientID, domain.GoalTemplate{
		Title:    req.Title,
		Type:     req.Type,
		Days:     req.Days,
		Duration: req.Duration,
		SubTasks: req.SubTasks,
	})
	if err != nil {
		h.respondPushError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapAssignmentToResponse(assignment))
}

func (h *InboxHandler) respond(c *gin.Context, op func(ctx context.Context, clientID, assignmentID primitive.ObjectID) error) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := op(c.Request.Context(), userID, assignmentID); err != nil {
		switch {
		case errors.Is(err, service.ErrAssignmentNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		// A client-offer card can outlive its relationship record (offer
		// withdrawn or already resolved from the chat banner).
		case errors.Is(err, service.ErrNoPendingOffer), errors.Is(err, service.ErrOfferNotForUser):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidPayload):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve assignment")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *InboxHandler) respondPushError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotYourClient):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotInstructor):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusBadRequest, err.Error())
	}
}

func mapAssignmentToResponse(a *domain.PendingAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:   a.ID.Hex(),
		Type: a.Type,
		AssignedBy: AssignedByResponse{
			UID:         a.AssignedBy.UID.Hex(),
			Name:        a.AssignedBy.Name,
			ProfileIcon: a.AssignedBy.ProfileIcon,
		},
		Payload:    a.Payload,
		AssignedAt: a.AssignedAt,
	}
}
