package conversation

import (
	"context"

	"github.com/google/uuid"

	"tangent-server/internal/infrastructure/logger"
	"tangent-server/internal/infrastructure/metrics"
	"tangent-server/internal/utils/apperrors"
	"tangent-server/internal/utils/stringutils"
)

// MessageService implements the message pipeline: appending user messages,
// invoking the responder, persisting the reply, and the branch-on-edit flow.
type MessageService struct {
	convRepo    ConversationRepository
	branchRepo  BranchRepository
	messageRepo MessageRepository
	responder   Responder
}

// NewMessageService creates a new message service
func NewMessageService(
	convRepo ConversationRepository,
	branchRepo BranchRepository,
	messageRepo MessageRepository,
	responder Responder,
) *MessageService {
	return &MessageService{
		convRepo:    convRepo,
		branchRepo:  branchRepo,
		messageRepo: messageRepo,
		responder:   responder,
	}
}

// Exchange is the result of a successful user/assistant round trip.
type Exchange struct {
	UserMessage      *Message
	AssistantMessage *Message
}

// SendMessage appends a user message to the branch, asks the responder for a
// reply with the loaded history as context, and persists both messages.
//
// The user message's parent is the last message of loadedHistory (nil for an
// empty branch). If persisting the user message fails, nothing else happens.
// If the responder or the assistant persist fails afterwards, the user
// message is retracted from the store so the persisted log never shows an
// unanswered question; the original failure is returned to the caller.
// On success the conversation and branch titles are rewritten from the user
// content; title write failures are logged and swallowed because the exchange
// itself already succeeded.
func (s *MessageService) SendMessage(
	ctx context.Context,
	conversationID, branchID uuid.UUID,
	content string,
	loadedHistory []*Message,
) (*Exchange, error) {
	if content == "" {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeValidation, "message content must not be empty", nil)
	}
	if conversationID == uuid.Nil || branchID == uuid.Nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeValidation, "no active conversation or branch", nil)
	}

	var parentID *uuid.UUID
	if len(loadedHistory) > 0 {
		last := loadedHistory[len(loadedHistory)-1].ID
		parentID = &last
	}

	userMsg := NewMessage(conversationID, branchID, RoleUser, content, parentID)
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypePersistence, "failed to persist user message", err)
	}

	history := HistoryFromMessages(loadedHistory)
	history = append(history, Turn{Role: RoleUser, Content: content})

	reply, err := s.responder.GenerateReply(ctx, history)
	if err != nil {
		s.retract(ctx, userMsg)
		metrics.ResponderFailuresTotal.WithLabelValues(string(apperrors.TypeOf(err))).Inc()
		return nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "responder failed")
	}

	assistantMsg := NewMessage(conversationID, branchID, RoleAssistant, reply, &userMsg.ID)
	if err := s.messageRepo.Create(ctx, assistantMsg); err != nil {
		s.retract(ctx, userMsg)
		return nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypePersistence, "failed to persist assistant message", err)
	}

	s.updateTitles(ctx, conversationID, branchID, content)

	metrics.MessagesExchangedTotal.Add(2)
	return &Exchange{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

// EditMessageIntoNewBranch forks a new branch off the edited message's branch
// and seeds it with an edited copy of that message. The responder is invoked
// with only the edited message: branching resets context instead of replaying
// the ancestor chain. Writes after branch creation are best-effort
// sequential; a failure leaves a partially populated branch and surfaces the
// error without rollback.
func (s *MessageService) EditMessageIntoNewBranch(
	ctx context.Context,
	origin *Message,
	editedContent string,
) (*Branch, *Exchange, error) {
	if origin == nil {
		return nil, nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeValidation, "origin message is required", nil)
	}
	if editedContent == "" {
		return nil, nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeValidation, "edited content must not be empty", nil)
	}

	branch := NewForkedBranch(origin.ConversationID, origin.BranchID, NewBranchTitle)
	if err := s.branchRepo.Create(ctx, branch); err != nil {
		return nil, nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypePersistence, "failed to create branch", err)
	}

	userMsg := NewMessage(origin.ConversationID, branch.ID, RoleUser, editedContent, &origin.ID)
	if err := s.messageRepo.Create(ctx, userMsg); err != nil {
		return nil, nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypePersistence, "failed to persist edited message", err)
	}

	reply, err := s.responder.GenerateReply(ctx, []Turn{{Role: RoleUser, Content: editedContent}})
	if err != nil {
		metrics.ResponderFailuresTotal.WithLabelValues(string(apperrors.TypeOf(err))).Inc()
		return nil, nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "responder failed")
	}

	assistantMsg := NewMessage(origin.ConversationID, branch.ID, RoleAssistant, reply, &userMsg.ID)
	if err := s.messageRepo.Create(ctx, assistantMsg); err != nil {
		return nil, nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypePersistence, "failed to persist assistant message", err)
	}

	title := stringutils.DeriveBranchTitle(editedContent)
	if err := s.branchRepo.UpdateTitle(ctx, branch.ID, title); err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).
			Str("branch_id", branch.ID.String()).
			Msg("failed to update branch title")
	} else {
		branch.Title = &title
	}

	metrics.BranchesForkedTotal.Inc()
	metrics.MessagesExchangedTotal.Add(2)
	return branch, &Exchange{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

// ListMessages returns the messages of a branch in chronological order.
func (s *MessageService) ListMessages(ctx context.Context, conversationID, branchID uuid.UUID) ([]*Message, error) {
	messages, err := s.messageRepo.FindByFilter(ctx, MessageFilter{
		ConversationID: &conversationID,
		BranchID:       &branchID,
	})
	if err != nil {
		return nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to load messages")
	}
	return messages, nil
}

// GetMessage fetches a single message by ID.
func (s *MessageService) GetMessage(ctx context.Context, id uuid.UUID) (*Message, error) {
	msg, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "message not found")
	}
	return msg, nil
}

// retract removes an already-persisted user message after a downstream
// failure. A retraction failure is logged; the original error still wins.
func (s *MessageService) retract(ctx context.Context, msg *Message) {
	if err := s.messageRepo.Delete(ctx, msg.ID); err != nil {
		log := logger.GetLogger()
		log.Error().Err(err).
			Str("message_id", msg.ID.String()).
			Msg("failed to retract user message")
	}
}

// updateTitles writes the derived title to the conversation and branch
// records independently; either failure is logged and swallowed.
func (s *MessageService) updateTitles(ctx context.Context, conversationID, branchID uuid.UUID, content string) {
	log := logger.GetLogger()
	title := stringutils.DeriveConversationTitle(content)

	if err := s.convRepo.UpdateTitle(ctx, conversationID, title); err != nil {
		log.Error().Err(err).
			Str("conversation_id", conversationID.String()).
			Msg("failed to update conversation title")
	}
	if err := s.branchRepo.UpdateTitle(ctx, branchID, title); err != nil {
		log.Error().Err(err).
			Str("branch_id", branchID.String()).
			Msg("failed to update branch title")
	}
}
