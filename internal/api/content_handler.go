package api

import (
	"coachdesk/internal/service"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContentHandler serves the read-only learning feed.
type ContentHandler struct {
	contentService service.ContentService
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// News godoc
// @Summary Health news headlines
// @Tags Content
// @Produce json
// @Success 200 {array} service.ContentItem
// @Failure 502 {object} gin.H "Upstream request failed"
// @Router /content/news [get]
func (h *ContentHandler) News(c *gin.Context) {
	h.respond(c, h.contentService.News)
}

// Recipes godoc
// @Summary Random vegetarian recipes
// @Tags Content
// @Produce json
// @Success 200 {array} service.ContentItem
// @Failure 502 {object} gin.H "Upstream request failed"
// @Router /content/recipes [get]
func (h *ContentHandler) Recipes(c *gin.Context) {
	h.respond(c, h.contentService.Recipes)
}

// Feed godoc
// @Summary Combined learning feed, newest first
// @Tags Content
// @Produce json
// @Success 200 {array} service.ContentItem
// @Failure 502 {object} gin.H "Upstream request failed"
// @Router /content/feed [get]
func (h *ContentHandler) Feed(c *gin.Context) {
	h.respond(c, h.contentService.Feed)
}

func (h *ContentHandler) respond(c *gin.Context, fetch func(ctx context.Context) ([]service.ContentItem, error)) {
	items, err := fetch(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrContentNotConfigured) {
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
		} else {
			abortWithError(c, http.StatusBadGateway, "Upstream content request failed")
		}
		return
	}
	c.JSON(http.StatusOK, items)
}
