package handlers

import (
	"fmt"
	"net/http"
	"time"

	"featboard/internal/middleware"
	"featboard/internal/services"
	"featboard/internal/utils"

	"github.com/gin-gonic/gin"
)

type FeatureHandler struct{}

func NewFeatureHandler() *FeatureHandler {
	return &FeatureHandler{}
}

type CreateFeatureInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateFeatureInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// List handles GET /api/features. Public; user_vote is filled in when a
// session exists.
func (h *FeatureHandler) List(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", services.SortRecent)
	page := utils.StringToInt(c.Query("page"))
	if page < 1 {
		page = 1
	}

	var viewerID uint
	if user := middleware.CurrentUser(c); user != nil {
		viewerID = user.ID
	}

	// Anonymous page-1 listings are hot and identical for everyone, cache them.
	cacheKey := fmt.Sprintf("features:%s:page:%d", sortBy, page)
	cacheable := viewerID == 0 && page == 1 &&
		(sortBy == services.SortRecent || sortBy == services.SortScore)
	if cacheable {
		if cached := utils.GetCache().Get(cacheKey); cached != nil {
			if data, ok := cached.(gin.H); ok {
				c.JSON(http.StatusOK, data)
				return
			}
		}
	}

	features, err := services.ListFeatures(sortBy, page, viewerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	data := gin.H{"features": features, "page": page, "sort": sortBy}
	if cacheable {
		utils.GetCache().Set(cacheKey, data, 1*time.Minute)
	}
	c.JSON(http.StatusOK, data)
}

// Create handles POST /api/feature. The author's own upvote is recorded as
// part of creation, so the feature comes back with upvote_count already 1.
func (h *FeatureHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input CreateFeatureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	feature, err := services.CreateFeature(user.ID, input.Title, input.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	invalidateListCaches()
	c.JSON(http.StatusCreated, gin.H{"feature": feature})
}

// Detail handles GET /api/feature/:fid. 404 covers deleted features too.
func (h *FeatureHandler) Detail(c *gin.Context) {
	var viewerID uint
	if user := middleware.CurrentUser(c); user != nil {
		viewerID = user.ID
	}

	feature, err := services.GetFeature(c.Param("fid"), viewerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feature": feature})
}

// Update handles PUT/PATCH /api/feature/:fid. Author only.
func (h *FeatureHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input UpdateFeatureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	feature, err := services.UpdateFeature(c.Param("fid"), user.ID, input.Title, input.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	invalidateListCaches()
	c.JSON(http.StatusOK, gin.H{"feature": feature})
}

// Delete handles DELETE /api/feature/:fid. Soft delete; the row and its
// votes survive.
func (h *FeatureHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if err := services.SoftDeleteFeature(c.Param("fid"), user.ID); err != nil {
		writeServiceError(c, err)
		return
	}

	invalidateListCaches()
	c.Status(http.StatusNoContent)
}

// Voters handles GET /api/feature/:fid/voters.
func (h *FeatureHandler) Voters(c *gin.Context) {
	result, err := services.FeatureVoters(c.Param("fid"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
