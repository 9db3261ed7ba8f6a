package conversationhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tangent-server/internal/interfaces/httpserver/responses"
	"tangent-server/internal/utils/apperrors"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// ListMessages returns a branch's messages in chronological order.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	branchID, ok := parseIDParam(c, "bid")
	if !ok {
		return
	}

	messages, err := h.messageService.ListMessages(c.Request.Context(), conversationID, branchID)
	if err != nil {
		responses.HandleError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": newMessagePayloads(messages)})
}

// SendMessage appends a user message to the branch and returns the completed
// exchange. The session epoch is captured before the responder call; if the
// caller switched conversation or branch while the responder was running, the
// exchange is persisted but not applied to the session.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	branchID, ok := parseIDParam(c, "bid")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "content is required")
		return
	}

	history, err := h.messageService.ListMessages(c.Request.Context(), conversationID, branchID)
	if err != nil {
		responses.HandleError(c, err, "failed to load message history")
		return
	}

	epoch := state.Snapshot().Epoch

	exchange, err := h.messageService.SendMessage(c.Request.Context(), conversationID, branchID, req.Content, history)
	if err != nil {
		responses.HandleError(c, err, "failed to send message")
		return
	}

	applied := state.ApplyExchange(epoch, exchange)

	c.JSON(http.StatusOK, gin.H{
		"user_message":      newMessagePayload(exchange.UserMessage),
		"assistant_message": newMessagePayload(exchange.AssistantMessage),
		"applied":           applied,
	})
}

// EditMessage forks a new branch seeded with an edited copy of the message
// and activates it for the caller.
func (h *ConversationHandler) EditMessage(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "mid")
	if !ok {
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "content is required")
		return
	}

	origin, err := h.messageService.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		responses.HandleError(c, err, "message not found")
		return
	}

	epoch := state.Snapshot().Epoch

	branch, exchange, err := h.messageService.EditMessageIntoNewBranch(c.Request.Context(), origin, req.Content)
	if err != nil {
		responses.HandleError(c, err, "failed to branch from edit")
		return
	}

	applied := state.ApplyBranchForked(epoch, branch, exchange)

	c.JSON(http.StatusCreated, gin.H{
		"branch":            newBranchPayload(branch),
		"user_message":      newMessagePayload(exchange.UserMessage),
		"assistant_message": newMessagePayload(exchange.AssistantMessage),
		"applied":           applied,
	})
}
