package api

import (
	"coachdesk/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InstructorHandler serves the instructor dashboard lists and the user
// directory search.
type InstructorHandler struct {
	instructorService service.InstructorService
}

// NewInstructorHandler creates a new InstructorHandler.
func NewInstructorHandler(instructorService service.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructorService: instructorService}
}

// Roster godoc
// @Summary List the instructor's clients, pending offers included
// @Tags Instructor
// @Produce json
// @Success 200 {array} service.RosterEntry
// @Router /instructor/roster [get]
func (h *InstructorHandler) Roster(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	entries, err := h.instructorService.Roster(c.Request.Context(), instructorID)
	if err != nil {
		if errors.Is(err, service.ErrNotInstructor) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load roster")
		}
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Suggestions godoc
// @Summary List users the instructor has no relationship with yet
// @Tags Instructor
// @Produce json
// @Success 200 {array} service.ParticipantView
// @Router /instructor/suggestions [get]
func (h *InstructorHandler) Suggestions(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	suggestions, err := h.instructorService.SuggestedClients(c.Request.Context(), instructorID)
	if err != nil {
		if errors.Is(err, service.ErrNotInstructor) {
			abortWithError(c, http.StatusForbidden, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load suggestions")
		}
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// Search godoc
// @Summary Look a user up by exact username
// @Tags Users
// @Produce json
// @Param username query string true "Username to search for"
// @Success 200 {object} service.ParticipantView
// @Failure 404 {object} gin.H "No user with that username"
// @Router /users/search [get]
func (h *InstructorHandler) Search(c *gin.Context) {
	view, err := h.instructorService.SearchByUsername(c.Request.Context(), c.Query("username"))
	if err != nil {
		if errors.Is(err, service.ErrTargetNotFound) {
			abortWithError(c, http.StatusNotFound, "No user with that username")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Search failed")
		}
		return
	}
	c.JSON(http.StatusOK, view)
}
