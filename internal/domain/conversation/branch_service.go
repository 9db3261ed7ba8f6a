package conversation

import (
	"context"

	"github.com/google/uuid"

	"tangent-server/internal/infrastructure/logger"
	"tangent-server/internal/utils/apperrors"
)

// BranchService creates, renames, selects, and deletes branches within a
// conversation, and owns conversation creation since every conversation
// starts life with its root branch.
type BranchService struct {
	convRepo   ConversationRepository
	branchRepo BranchRepository
}

// NewBranchService creates a new branch service
func NewBranchService(convRepo ConversationRepository, branchRepo BranchRepository) *BranchService {
	return &BranchService{
		convRepo:   convRepo,
		branchRepo: branchRepo,
	}
}

// CreateConversation inserts a new conversation titled "New Chat" together
// with its root branch. The two inserts are sequential and not transactional:
// when the branch insert fails after the conversation insert succeeded, the
// conversation is left orphaned and the failure surfaces as PARTIAL_CREATE so
// the caller can retry or discard. The janitor sweeps aged orphans.
func (s *BranchService) CreateConversation(ctx context.Context, userID uuid.UUID) (*Conversation, *Branch, error) {
	conv := NewConversation(userID)
	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to create conversation")
	}

	root := NewRootBranch(conv.ID)
	if err := s.branchRepo.Create(ctx, root); err != nil {
		return nil, nil, apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypePartialCreate,
			"conversation created but root branch insert failed", err)
	}

	return conv, root, nil
}

// ListConversations returns the user's conversations, newest first.
func (s *BranchService) ListConversations(ctx context.Context, userID uuid.UUID) ([]*Conversation, error) {
	conversations, err := s.convRepo.FindByFilter(ctx, ConversationFilter{UserID: &userID})
	if err != nil {
		return nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to list conversations")
	}
	return conversations, nil
}

// ListBranches returns the conversation's branches, oldest first.
func (s *BranchService) ListBranches(ctx context.Context, conversationID uuid.UUID) ([]*Branch, error) {
	branches, err := s.branchRepo.FindByFilter(ctx, BranchFilter{ConversationID: &conversationID})
	if err != nil {
		return nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to list branches")
	}
	return branches, nil
}

// SelectConversation resolves the conversation's root branch, which becomes
// the active branch when a conversation is selected. A conversation without a
// root branch is structurally corrupt and surfaces NOT_FOUND.
func (s *BranchService) SelectConversation(ctx context.Context, conversationID uuid.UUID) (*Branch, error) {
	root, err := s.branchRepo.FindRoot(ctx, conversationID)
	if err != nil {
		return nil, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "root branch not found")
	}
	return root, nil
}

// RenameBranch updates a branch title. Renaming the root branch also writes
// the conversation title so the root branch title always mirrors the
// conversation's display title.
func (s *BranchService) RenameBranch(ctx context.Context, branchID uuid.UUID, newTitle string) error {
	if newTitle == "" {
		return apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeValidation, "branch title must not be empty", nil)
	}

	branch, err := s.branchRepo.FindByID(ctx, branchID)
	if err != nil {
		return apperrors.Wrap(ctx, apperrors.LayerDomain, err, "branch not found")
	}

	if err := s.branchRepo.UpdateTitle(ctx, branchID, newTitle); err != nil {
		return apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to rename branch")
	}

	if branch.IsRoot() {
		if err := s.convRepo.UpdateTitle(ctx, branch.ConversationID, newTitle); err != nil {
			return apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to mirror title onto conversation")
		}
	}
	return nil
}

// DeleteBranch removes a branch. The root branch is permanent: deleting it
// fails with PROTECTED_BRANCH and leaves the store unchanged.
func (s *BranchService) DeleteBranch(ctx context.Context, branchID uuid.UUID) error {
	branch, err := s.branchRepo.FindByID(ctx, branchID)
	if err != nil {
		return apperrors.Wrap(ctx, apperrors.LayerDomain, err, "branch not found")
	}

	if branch.IsRoot() {
		return apperrors.New(ctx, apperrors.LayerDomain, apperrors.ErrorTypeProtectedBranch,
			"cannot delete the main branch", nil)
	}

	if err := s.branchRepo.Delete(ctx, branchID); err != nil {
		return apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to delete branch")
	}

	log := logger.GetLogger()
	log.Info().
		Str("branch_id", branchID.String()).
		Str("conversation_id", branch.ConversationID.String()).
		Msg("branch deleted")
	return nil
}
