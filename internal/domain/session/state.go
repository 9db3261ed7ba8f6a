// Package session keeps a per-user cache of the active conversation, branch,
// and message list, kept consistent with the store after every mutating
// operation. Mutations return canonical results and callers apply them here
// explicitly; there is no implicit observation mechanism.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tangent-server/internal/domain/conversation"
	"tangent-server/internal/infrastructure/logger"
	"tangent-server/internal/utils/stringutils"
)

// State is the single source of truth the view layer reads. Activating a
// conversation or branch bumps an epoch; results computed against an older
// epoch are discarded on apply so a slow responder cannot clobber state that
// has since moved on.
type State struct {
	mu sync.Mutex

	branches *conversation.BranchService
	messages *conversation.MessageService

	epoch                uint64
	activeConversationID uuid.UUID
	activeBranchID       uuid.UUID
	conversationList     []*conversation.Conversation
	branchList           []*conversation.Branch
	messageList          []*conversation.Message
}

// Snapshot is an immutable copy of the state for readers.
type Snapshot struct {
	Epoch          uint64
	ConversationID uuid.UUID
	BranchID       uuid.UUID
	Conversations  []*conversation.Conversation
	Branches       []*conversation.Branch
	Messages       []*conversation.Message
}

func NewState(branches *conversation.BranchService, messages *conversation.MessageService) *State {
	return &State{
		branches: branches,
		messages: messages,
	}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Epoch:          s.epoch,
		ConversationID: s.activeConversationID,
		BranchID:       s.activeBranchID,
		Conversations:  append([]*conversation.Conversation(nil), s.conversationList...),
		Branches:       append([]*conversation.Branch(nil), s.branchList...),
		Messages:       append([]*conversation.Message(nil), s.messageList...),
	}
}

// LoadConversations refreshes the conversation list for the user. A load
// failure leaves the previous list in place.
func (s *State) LoadConversations(ctx context.Context, userID uuid.UUID) error {
	conversations, err := s.branches.ListConversations(ctx, userID)
	if err != nil {
		log := logger.GetLogger()
		log.Warn().Err(err).Msg("conversation reload failed, keeping prior state")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationList = conversations
	return nil
}

// ActivateConversation switches the active conversation: it reloads the
// branch list, resolves the root branch as the new active branch, and reloads
// that branch's messages. Reloads are idempotent; the last successful
// activation wins. Returns the new epoch.
func (s *State) ActivateConversation(ctx context.Context, conversationID uuid.UUID) (uint64, error) {
	branchList, err := s.branches.ListBranches(ctx, conversationID)
	if err != nil {
		return s.currentEpoch(), err
	}
	root, err := s.branches.SelectConversation(ctx, conversationID)
	if err != nil {
		return s.currentEpoch(), err
	}
	messageList, err := s.messages.ListMessages(ctx, conversationID, root.ID)
	if err != nil {
		return s.currentEpoch(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.activeConversationID = conversationID
	s.activeBranchID = root.ID
	s.branchList = branchList
	s.messageList = messageList
	return s.epoch, nil
}

// ActivateBranch switches the active branch within the active conversation
// and reloads its message list. Returns the new epoch.
func (s *State) ActivateBranch(ctx context.Context, branchID uuid.UUID) (uint64, error) {
	s.mu.Lock()
	conversationID := s.activeConversationID
	s.mu.Unlock()

	messageList, err := s.messages.ListMessages(ctx, conversationID, branchID)
	if err != nil {
		return s.currentEpoch(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.activeBranchID = branchID
	s.messageList = messageList
	return s.epoch, nil
}

// ApplyConversationCreated makes a freshly created conversation active with
// its root branch and an empty message list.
func (s *State) ApplyConversationCreated(conv *conversation.Conversation, root *conversation.Branch) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.conversationList = append([]*conversation.Conversation{conv}, s.conversationList...)
	s.activeConversationID = conv.ID
	s.activeBranchID = root.ID
	s.branchList = []*conversation.Branch{root}
	s.messageList = nil
	return s.epoch
}

// ApplyExchange appends a completed user/assistant exchange to the message
// list. The exchange is discarded when the epoch is stale or the active
// (conversation, branch) pair moved on while the responder was in flight;
// the store already holds the messages and a later reload will surface them.
func (s *State) ApplyExchange(epoch uint64, ex *conversation.Exchange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch ||
		ex.UserMessage.ConversationID != s.activeConversationID ||
		ex.UserMessage.BranchID != s.activeBranchID {
		log := logger.GetLogger()
		log.Debug().
			Uint64("epoch", epoch).
			Uint64("current_epoch", s.epoch).
			Msg("discarding stale exchange")
		return false
	}

	s.messageList = append(s.messageList, ex.UserMessage, ex.AssistantMessage)
	s.applyTitleLocked(ex.UserMessage.ConversationID, s.activeBranchID, ex.UserMessage.Content)
	return true
}

// ApplyBranchForked records a branch created by branch-on-edit and makes it
// active with its seed exchange. The fork is discarded when the epoch is
// stale or the user moved to another conversation while the responder was in
// flight; the store keeps the branch and the next activation surfaces it.
func (s *State) ApplyBranchForked(epoch uint64, branch *conversation.Branch, ex *conversation.Exchange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || branch.ConversationID != s.activeConversationID {
		log := logger.GetLogger()
		log.Debug().
			Uint64("epoch", epoch).
			Uint64("current_epoch", s.epoch).
			Msg("discarding stale branch fork")
		return false
	}

	s.epoch++
	s.branchList = append(s.branchList, branch)
	s.activeBranchID = branch.ID
	s.messageList = []*conversation.Message{ex.UserMessage, ex.AssistantMessage}
	return true
}

// ApplyBranchRenamed updates the cached branch title; a root rename mirrors
// into the conversation list.
func (s *State) ApplyBranchRenamed(branchID uuid.UUID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.branchList {
		if b.ID == branchID {
			t := title
			b.Title = &t
			if b.IsRoot() {
				for _, c := range s.conversationList {
					if c.ID == b.ConversationID {
						c.Title = title
					}
				}
			}
			return
		}
	}
}

// ApplyBranchDeleted removes a branch from the cache. When the deleted branch
// was active, the active branch falls back to the conversation's root and its
// messages are reloaded.
func (s *State) ApplyBranchDeleted(ctx context.Context, branchID uuid.UUID) error {
	s.mu.Lock()
	kept := s.branchList[:0]
	var root *conversation.Branch
	for _, b := range s.branchList {
		if b.ID != branchID {
			kept = append(kept, b)
		}
		if b.IsRoot() {
			root = b
		}
	}
	s.branchList = kept
	wasActive := s.activeBranchID == branchID
	s.mu.Unlock()

	if !wasActive || root == nil {
		return nil
	}
	_, err := s.ActivateBranch(ctx, root.ID)
	return err
}

func (s *State) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// applyTitleLocked mirrors a derived title into the cached lists.
func (s *State) applyTitleLocked(conversationID, branchID uuid.UUID, content string) {
	title := stringutils.DeriveConversationTitle(content)
	for _, c := range s.conversationList {
		if c.ID == conversationID {
			c.Title = title
		}
	}
	for _, b := range s.branchList {
		if b.ID == branchID {
			t := title
			b.Title = &t
		}
	}
}
