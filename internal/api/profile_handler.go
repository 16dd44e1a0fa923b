package api

import (
	"coachdesk/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProfileHandler holds the profile service dependency.
type ProfileHandler struct {
	profileService service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// --- Request/Response Structs ---

type UpdateProfileRequest struct {
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	Age          *int    `json:"age" binding:"omitempty,gte=13,lte=120"`
	Gender       *string `json:"gender"`
	HealthStatus *string `json:"healthStatus"`
	Goals        *string `json:"goals"`
	Biography    *string `json:"biography"`
}

type IconUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type IconConfirmRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type IconURLResponse struct {
	URL string `json:"url"`
}

// --- Handler Methods ---

// Get godoc
// @Summary Fetch the caller's own profile
// @Tags Profile
// @Produce json
// @Success 200 {object} UserResponse
// @Router /me/profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// Update godoc
// @Summary Update the caller's profile fields
// @Description Only fields present in the body change; omitted fields keep their value.
// @Tags Profile
// @Accept json
// @Produce json
// @Param body body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /me/profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.profileService.Update(c.Request.Context(), userID, service.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Age:          req.Age,
		Gender:       req.Gender,
		HealthStatus: req.HealthStatus,
		Goals:        req.Goals,
		Biography:    req.Biography,
	})
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// RequestIconUpload godoc
// @Summary Request a presigned upload URL for a new profile icon
// @Tags Profile
// @Accept json
// @Produce json
// @Param body body IconUploadRequest true "Image content type"
// @Success 200 {object} service.IconUploadResult
// @Failure 400 {object} gin.H "Not an image content type"
// @Router /me/profile/icon/upload-url [post]
func (h *ProfileHandler) RequestIconUpload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req IconUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	result, err := h.profileService.RequestIconUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrBadContentType) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmIconUpload godoc
// @Summary Record an uploaded profile icon on the caller's profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param body body IconConfirmRequest true "Object key reported by the upload"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Key does not belong to the caller"
// @Router /me/profile/icon [put]
func (h *ProfileHandler) ConfirmIconUpload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req IconConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.profileService.ConfirmIconUpload(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// IconURL godoc
// @Summary Resolve a short-lived download URL for a user's profile icon
// @Tags Profile
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} IconURLResponse
// @Failure 404 {object} gin.H "User has no profile icon"
// @Router /users/{userId}/icon [get]
func (h *ProfileHandler) IconURL(c *gin.Context) {
	userID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}
	url, err := h.profileService.IconURL(c.Request.Context(), userID)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, IconURLResponse{URL: url})
}

func (h *ProfileHandler) respondProfileError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrProfileNotFound) {
		abortWithError(c, http.StatusNotFound, err.Error())
	} else {
		abortWithError(c, http.StatusInternalServerError, "Profile operation failed")
	}
}
