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

// GoalHandler holds the goal service dependency.
type GoalHandler struct {
	goalService service.GoalService
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// --- Request/Response Structs ---

type CreateGoalRequest struct {
	Title    string           `json:"title" binding:"required"`
	Type     domain.GoalType  `json:"type" binding:"required,oneof=workout diet"`
	Days     []string         `json:"days" binding:"required,min=1"`
	Duration int              `json:"duration" binding:"required,gte=1"`
	SubTasks []domain.SubTask `json:"subTasks"`
}

type GoalResponse struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Type            domain.GoalType     `json:"type"`
	Days            []string            `json:"days"`
	Duration        int                 `json:"duration"`
	SubTasks        []domain.SubTask    `json:"subTasks,omitempty"`
	StartDate       time.Time           `json:"startDate"`
	WeeklyProgress  map[string]bool     `json:"weeklyProgress,omitempty"`
	ProgressPercent int                 `json:"progressPercent"`
	CurrentWeek     int                 `json:"currentWeek"`
	CreatedBy       *AssignedByResponse `json:"createdBy,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// --- Handler Methods ---

// Create godoc
// @Summary Create a goal for the caller
// @Tags Goals
// @Accept json
// @Produce json
// @Param body body CreateGoalRequest true "Goal definition"
// @Success 201 {object} GoalResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal, err := h.goalService.Create(c.Request.Context(), userID, domain.GoalTemplate{
		Title:    req.Title,
		Type:     req.Type,
		Days:     req.Days,
		Duration: req.Duration,
		SubTasks: req.SubTasks,
	})
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, mapGoalToResponse(goal))
}

// List godoc
// @Summary List the caller's goals, newest first
// @Tags Goals
// @Produce json
// @Success 200 {array} GoalResponse
// @Router /goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	goals, err := h.goalService.List(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list goals")
		return
	}

	resp := make([]GoalResponse, len(goals))
	for i := range goals {
		resp[i] = mapGoalToResponse(&goals[i])
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Fetch one of the caller's goals
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} GoalResponse
// @Failure 404 {object} gin.H "Goal not found"
// @Router /goals/{id} [get]
func (h *GoalHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	goalID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	goal, err := h.goalService.Get(c.Request.Context(), userID, goalID)
	if err != nil {
		h.respondGoalError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapGoalToResponse(goal))
}

// CompleteToday godoc
// @Summary Mark today's session of a goal as complete
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} GoalResponse
// @Failure 404 {object} gin.H "Goal not found"
// @Failure 409 {object} gin.H "Not scheduled today, already complete, or goal finished"
// @Router /goals/{id}/complete [post]
func (h *GoalHandler) CompleteToday(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	goalID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	goal, err := h.goalService.CompleteToday(c.Request.Context(), userID, goalID)
	if err != nil {
		h.respondGoalError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapGoalToResponse(goal))
}

// Delete godoc
// @Summary Delete one of the caller's goals
// @Tags Goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 204 "Goal deleted"
// @Failure 404 {object} gin.H "Goal not found"
// @Router /goals/{id} [delete]
func (h *GoalHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	goalID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	if err := h.goalService.Delete(c.Request.Context(), userID, goalID); err != nil {
		h.respondGoalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GoalHandler) respondGoalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGoalNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDayNotScheduled),
		errors.Is(err, service.ErrGoalFinished),
		errors.Is(err, service.ErrAlreadyCompleted):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Goal operation failed")
	}
}

func mapGoalToResponse(goal *domain.Goal) GoalResponse {
	resp := GoalResponse{
		ID:              goal.ID.Hex(),
		Title:           goal.Title,
		Type:            goal.Type,
		Days:            goal.Days,
		Duration:        goal.Duration,
		SubTasks:        goal.SubTasks,
		StartDate:       goal.StartDate,
		WeeklyProgress:  goal.WeeklyProgress,
		ProgressPercent: goal.ProgressPercent(),
		CurrentWeek:     goal.CurrentWeek(time.Now()),
		CreatedAt:       goal.CreatedAt,
	}
	if goal.CreatedBy != nil {
		resp.CreatedBy = &AssignedByResponse{
			UID:         goal.CreatedBy.UID.Hex(),
			Name:        goal.CreatedBy.Name,
			ProfileIcon: goal.CreatedBy.ProfileIcon,
		}
	}
	return resp
}
