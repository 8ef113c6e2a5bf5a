package handlers

import (
	"net/http"

	"featboard/internal/middleware"
	"featboard/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct{}

func NewVoteHandler() *VoteHandler {
	return &VoteHandler{}
}

type VoteInput struct {
	VoteType string `json:"vote_type"`
}

// Submit handles POST /api/feature/:fid/vote. A fresh vote answers 201, a
// toggle-off or a change answers 200; the body always echoes what happened.
func (h *VoteHandler) Submit(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var input VoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := services.SubmitVote(user.ID, c.Param("fid"), input.VoteType)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	invalidateListCaches()
	status := http.StatusOK
	if result.Action == services.ActionAdded {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// Retract handles DELETE /api/feature/:fid/vote. 400 when the user has no
// vote there, matching the voting surface's contract.
func (h *VoteHandler) Retract(c *gin.Context) {
	user := middleware.CurrentUser(c)

	result, err := services.RetractVote(user.ID, c.Param("fid"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	invalidateListCaches()
	c.JSON(http.StatusOK, result)
}
