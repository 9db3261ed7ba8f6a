// Package conversationhandler exposes the conversation, branch, and message
// pipeline over HTTP. Handlers run the domain operation first, then apply the
// canonical result to the caller's session state.
package conversationhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/domain/session"
	"tangent-server/internal/interfaces/httpserver/middlewares"
	"tangent-server/internal/interfaces/httpserver/responses"
	"tangent-server/internal/utils/apperrors"
)

// ConversationHandler handles conversation-level HTTP requests.
type ConversationHandler struct {
	branchService  *conversation.BranchService
	messageService *conversation.MessageService
	sessions       *session.Manager
}

func NewConversationHandler(
	branchService *conversation.BranchService,
	messageService *conversation.MessageService,
	sessions *session.Manager,
) *ConversationHandler {
	return &ConversationHandler{
		branchService:  branchService,
		messageService: messageService,
		sessions:       sessions,
	}
}

// BranchPayload is the branch shape returned to clients.
type BranchPayload struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	ParentBranchID *string `json:"parent_branch_id,omitempty"`
	Title          string  `json:"title"`
	IsRoot         bool    `json:"is_root"`
	CreatedAt      int64   `json:"created_at"`
}

// ConversationPayload is the conversation shape returned to clients.
type ConversationPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// MessagePayload is the message shape returned to clients.
type MessagePayload struct {
	ID             string  `json:"id"`
	Content        string  `json:"content"`
	Role           string  `json:"role"`
	ParentID       *string `json:"parent_id,omitempty"`
	ConversationID string  `json:"conversation_id"`
	BranchID       string  `json:"branch_id"`
	CreatedAt      int64   `json:"created_at"`
}

func newBranchPayload(b *conversation.Branch) BranchPayload {
	var parent *string
	if b.ParentBranchID != nil {
		s := b.ParentBranchID.String()
		parent = &s
	}
	return BranchPayload{
		ID:             b.ID.String(),
		ConversationID: b.ConversationID.String(),
		ParentBranchID: parent,
		Title:          b.DisplayTitle(),
		IsRoot:         b.IsRoot(),
		CreatedAt:      b.CreatedAt.Unix(),
	}
}

func newConversationPayload(c *conversation.Conversation) ConversationPayload {
	return ConversationPayload{
		ID:        c.ID.String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt.Unix(),
		UpdatedAt: c.UpdatedAt.Unix(),
	}
}

func newMessagePayload(m *conversation.Message) MessagePayload {
	var parent *string
	if m.ParentID != nil {
		s := m.ParentID.String()
		parent = &s
	}
	return MessagePayload{
		ID:             m.ID.String(),
		Content:        m.Content,
		Role:           string(m.Role),
		ParentID:       parent,
		ConversationID: m.ConversationID.String(),
		BranchID:       m.BranchID.String(),
		CreatedAt:      m.CreatedAt.Unix(),
	}
}

func newMessagePayloads(messages []*conversation.Message) []MessagePayload {
	out := make([]MessagePayload, 0, len(messages))
	for _, m := range messages {
		out = append(out, newMessagePayload(m))
	}
	return out
}

// sessionState resolves the caller's session state, or aborts with 401.
func (h *ConversationHandler) sessionState(c *gin.Context) (*session.State, bool) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		responses.HandleNewError(c, apperrors.ErrorTypeUnauthorized, "authentication required")
		return nil, false
	}
	return h.sessions.ForUser(userID), true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		responses.HandleNewError(c, apperrors.ErrorTypeValidation, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// CreateConversation creates a conversation with its permanent root branch
// and makes it the caller's active conversation.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		responses.HandleNewError(c, apperrors.ErrorTypeUnauthorized, "authentication required")
		return
	}

	conv, root, err := h.branchService.CreateConversation(c.Request.Context(), userID)
	if err != nil {
		responses.HandleError(c, err, "failed to create conversation")
		return
	}

	epoch := h.sessions.ForUser(userID).ApplyConversationCreated(conv, root)

	c.JSON(http.StatusCreated, gin.H{
		"conversation": newConversationPayload(conv),
		"branch":       newBranchPayload(root),
		"epoch":        epoch,
	})
}

// ListConversations returns the caller's conversations, newest first.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(c)
	if !ok {
		responses.HandleNewError(c, apperrors.ErrorTypeUnauthorized, "authentication required")
		return
	}

	state := h.sessions.ForUser(userID)
	if err := state.LoadConversations(c.Request.Context(), userID); err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}

	snap := state.Snapshot()
	payloads := make([]ConversationPayload, 0, len(snap.Conversations))
	for _, conv := range snap.Conversations {
		payloads = append(payloads, newConversationPayload(conv))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": payloads})
}

// ActivateConversation switches the caller's active conversation. The root
// branch becomes active and its messages are returned.
func (h *ConversationHandler) ActivateConversation(c *gin.Context) {
	state, ok := h.sessionState(c)
	if !ok {
		return
	}
	conversationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	epoch, err := state.ActivateConversation(c.Request.Context(), conversationID)
	if err != nil {
		responses.HandleError(c, err, "failed to activate conversation")
		return
	}

	snap := state.Snapshot()
	branches := make([]BranchPayload, 0, len(snap.Branches))
	for _, b := range snap.Branches {
		branches = append(branches, newBranchPayload(b))
	}
	c.JSON(http.StatusOK, gin.H{
		"active_branch_id": snap.BranchID.String(),
		"branches":         branches,
		"messages":         newMessagePayloads(snap.Messages),
		"epoch":            epoch,
	})
}
