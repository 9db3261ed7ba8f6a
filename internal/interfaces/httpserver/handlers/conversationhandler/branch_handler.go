package conversationhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tangent-server/internal/interfaces/httpserver/responses"
	"tangent-server/internal/utils/apperrors"
)

type RenameBranchRequest struct {
	Title string `json:"title" binding:"required"`
}

// ListBranches returns a conversation's branches, oldest first. The root
// branch is always first.
func (h *ConversationHandler) ListBranches(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	branches, err := h.branchService.ListBranches(c.Request.Context(), conversationID)
	if err != nil {
		responses.HandleError(c, err, "failed to list branches")
		return
	}

	payloads := make([]BranchPayload, 0, len(branches))
	for _, b := range branches {
		payloads = append(payloads, newBranchPayload(b))
	}
	c.JSON(http.StatusOK, gin.H{"branches": payloads})
}

// ActivateBranch switches the caller's active branch and returns the branch's
// messages.
func (h *ConversationHandler) ActivateBranch(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	branchID, ok := parseIDParam(c, "bid")
	if !ok {
		return
	}

	epoch, err := state.ActivateBranch(c.Request.Context(), branchID)
	if err != nil {
		responses.HandleError(c, err, "failed to activate branch")
		return
	}

	snap := state.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"active_branch_id": snap.BranchID.String(),
		"messages":         newMessagePayloads(snap.Messages),
		"epoch":            epoch,
	})
}

// RenameBranch gives a branch a user-chosen title. Renaming the root branch
// also renames the conversation.
func (h *ConversationHandler) RenameBranch(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	branchID, ok := parseIDParam(c, "bid")
	if !ok {
		return
	}

	var req RenameBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "title is required")
		return
	}

	if err := h.branchService.RenameBranch(c.Request.Context(), branchID, req.Title); err != nil {
		responses.HandleError(c, err, "failed to rename branch")
		return
	}

	state.ApplyBranchRenamed(branchID, req.Title)
	c.JSON(http.StatusOK, gin.H{"id": branchID.String(), "title": req.Title})
}

// DeleteBranch deletes a forked branch and its messages. The root branch is
// permanent and cannot be deleted.
func (h *ConversationHandler) DeleteBranch(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	branchID, ok := parseIDParam(c, "bid")
	if !ok {
		return
	}

	if err := h.branchService.DeleteBranch(c.Request.Context(), branchID); err != nil {
		responses.HandleError(c, err, "failed to delete branch")
		return
	}

	if err := state.ApplyBranchDeleted(c.Request.Context(), branchID); err != nil {
		responses.HandleError(c, err, "branch deleted but state reload failed")
		return
	}

	snap := state.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"active_branch_id": snap.BranchID.String(),
		"messages":         newMessagePayloads(snap.Messages),
	})
}
