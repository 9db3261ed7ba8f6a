// Package chathandler exposes a stateless completion endpoint: the caller
// supplies the full message history and nothing is persisted.
package chathandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/interfaces/httpserver/responses"
	"tangent-server/internal/utils/apperrors"
)

// ChatHandler handles one-shot chat completion requests.
type ChatHandler struct {
	responder conversation.Responder
}

func NewChatHandler(responder conversation.Responder) *ChatHandler {
	return &ChatHandler{responder: responder}
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatTurn `json:"messages"`
}

type ChatResponse struct {
	Content string `json:"content"`
}

// Chat forwards the supplied history to the responder and returns the reply.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "messages are required")
		return
	}

	history := make([]conversation.Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Content == "" {
			responses.HandleNewError(c, apperrors.ErrorTypeValidation, "message content must not be empty")
			return
		}
		role := conversation.RoleUser
		if m.Role == string(conversation.RoleAssistant) {
			role = conversation.RoleAssistant
		}
		history = append(history, conversation.Turn{Role: role, Content: m.Content})
	}

	reply, err := h.responder.GenerateReply(c.Request.Context(), history)
	if err != nil {
		responses.HandleError(c, err, "failed to generate response")
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Content: reply})
}
