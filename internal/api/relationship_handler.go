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

// RelationshipHandler holds the relationship service dependency.
type RelationshipHandler struct {
	relService service.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(relService service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relService: relService}
}

// --- Request/Response Structs ---

type OfferRequest struct {
	ClientID string `json:"clientId" binding:"required"`
}

type RelationshipResponse struct {
	ID           string                `json:"id"`
	InstructorID string                `json:"instructorId"`
	ClientID     string                `json:"clientId"`
	Status       domain.RelationStatus `json:"status"`
	OfferedBy    string                `json:"offeredBy"`
	CreatedAt    time.Time             `json:"createdAt"`
}

type RelationStatusResponse struct {
	Status      domain.RelationStatus `json:"status"`
	OfferSentBy string                `json:"offerSentBy,omitempty"`
}

// --- Handler Methods ---

// Offer godoc
// @Summary Offer coaching to a user (instructor only)
// @Description Creates a pending relationship and drops an offer card into the user's inbox.
// @Tags Relationships
// @Accept json
// @Produce json
// @Param body body OfferRequest true "Target user ID"
// @Success 201 {object} RelationshipResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Target not found"
// @Failure 409 {object} gin.H "Offer already pending or user already a client"
// @Router /instructor/offers [post]
func (h *RelationshipHandler) Offer(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId format")
		return
	}

	rel, err := h.relService.Offer(c.Request.Context(), instructorID, clientID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotInstructor), errors.Is(err, service.ErrTargetNotUser):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrTargetNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrOfferPending), errors.Is(err, service.ErrAlreadyClient):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to send offer")
		}
		return
	}
	c.JSON(http.StatusCreated, mapRelationshipToResponse(rel))
}

// Accept godoc
// @Summary Accept a pending coaching offer
// @Tags Relationships
// @Produce json
// @Param userId path string true "Offering instructor ID"
// @Success 200 {object} RelationshipResponse
// @Failure 404 {object} gin.H "No pending offer from this instructor"
// @Router /relationships/{userId}/accept [post]
func (h *RelationshipHandler) Accept(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	instructorID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}

	rel, err := h.relService.Accept(c.Request.Context(), clientID, instructorID)
	if err != nil {
		h.respondOfferError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapRelationshipToResponse(rel))
}

// Decline godoc
// @Summary Decline a pending coaching offer
// @Tags Relationships
// @Produce json
// @Param userId path string true "Offering instructor ID"
// @Success 204 "Offer declined"
// @Failure 404 {object} gin.H "No pending offer from this instructor"
// @Router /relationships/{userId}/decline [post]
func (h *RelationshipHandler) Decline(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	instructorID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}

	if err := h.relService.Decline(c.Request.Context(), clientID, instructorID); err != nil {
		h.respondOfferError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove godoc
// @Summary Remove an accepted client from the roster (instructor only)
// @Tags Relationships
// @Produce json
// @Param clientId path string true "Client ID"
// @Success 204 "Client removed"
// @Failure 404 {object} gin.H "Not an accepted client of this instructor"
// @Router /instructor/clients/{clientId} [delete]
func (h *RelationshipHandler) Remove(c *gin.Context) {
	instructorID, ok := currentUserID(c)
	if !ok {
		return
	}
	clientID, ok := pathObjectID(c, "clientId")
	if !ok {
		return
	}

	if err := h.relService.Remove(c.Request.Context(), instructorID, clientID); err != nil {
		if errors.Is(err, service.ErrNotYourClient) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to remove client")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Status godoc
// @Summary Relationship status between the caller and another user
// @Tags Relationships
// @Produce json
// @Param userId path string true "Other user ID"
// @Success 200 {object} RelationStatusResponse
// @Router /relationships/{userId} [get]
func (h *RelationshipHandler) Status(c *gin.Context) {
	selfID, ok := currentUserID(c)
	if !ok {
		return
	}
	otherID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}

	status, rel, err := h.relService.StatusFor(c.Request.Context(), selfID, otherID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve relationship status")
		return
	}

	resp := RelationStatusResponse{Status: status}
	if rel != nil && status == domain.RelationPending {
		resp.OfferSentBy = rel.OfferedBy.Hex()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RelationshipHandler) respondOfferError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoPendingOffer), errors.Is(err, service.ErrOfferNotForUser):
		abortWithError(c, http.StatusNotFound, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve offer")
	}
}

func mapRelationshipToResponse(rel *domain.Relationship) RelationshipResponse {
	return RelationshipResponse{
		ID:           rel.ID,
		InstructorID: rel.InstructorID.Hex(),
		ClientID:     rel.ClientID.Hex(),
		Status:       rel.Status,
		OfferedBy:    rel.OfferedBy.Hex(),
		CreatedAt:    rel.CreatedAt,
	}
}
