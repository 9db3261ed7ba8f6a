package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangent-server/internal/utils/apperrors"
)

func TestCreateConversation(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	svc := NewBranchService(convRepo, branchRepo)

	userID := uuid.New()
	conv, root, err := svc.CreateConversation(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, DefaultConversationTitle, conv.Title)
	assert.Equal(t, userID, conv.UserID)
	assert.Equal(t, conv.ID, root.ConversationID)
	assert.True(t, root.IsRoot())
	assert.Equal(t, RootBranchTitle, root.DisplayTitle())

	stored, err := branchRepo.FindRoot(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, stored.ID)
}

func TestCreateConversation_BranchInsertFails(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	branchRepo.createErr = errors.New("insert failed")
	svc := NewBranchService(convRepo, branchRepo)

	_, _, err := svc.CreateConversation(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePartialCreate))

	// the orphaned conversation row stays behind for the janitor
	assert.Len(t, convRepo.conversations, 1)
}

func TestListConversations_NewestFirst(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	svc := NewBranchService(convRepo, branchRepo)

	userID := uuid.New()
	older := NewConversation(userID)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := NewConversation(userID)
	require.NoError(t, convRepo.Create(context.Background(), older))
	require.NoError(t, convRepo.Create(context.Background(), newer))

	// another user's conversation must not leak in
	other := NewConversation(uuid.New())
	require.NoError(t, convRepo.Create(context.Background(), other))

	list, err := svc.ListConversations(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestSelectConversation_ResolvesRoot(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	svc := NewBranchService(convRepo, branchRepo)

	conv, root, err := svc.CreateConversation(context.Background(), uuid.New())
	require.NoError(t, err)

	forked := NewForkedBranch(conv.ID, root.ID, NewBranchTitle)
	require.NoError(t, branchRepo.Create(context.Background(), forked))

	selected, err := svc.SelectConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, selected.ID)
}

func TestSelectConversation_MissingRoot(t *testing.T) {
	svc := NewBranchService(newMockConversationRepository(), newMockBranchRepository())

	_, err := svc.SelectConversation(context.Background(), uuid.New())
	require.Error(t, err)
}

func TestRenameBranch(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	svc := NewBranchService(convRepo, branchRepo)

	conv, root, err := svc.CreateConversation(context.Background(), uuid.New())
	require.NoError(t, err)
	forked := NewForkedBranch(conv.ID, root.ID, NewBranchTitle)
	require.NoError(t, branchRepo.Create(context.Background(), forked))

	require.NoError(t, svc.RenameBranch(context.Background(), forked.ID, "alternate take"))
	renamed, err := branchRepo.FindByID(context.Background(), forked.ID)
	require.NoError(t, err)
	assert.Equal(t, "alternate take", renamed.DisplayTitle())

	// conversation title untouched by a non-root rename
	stored, err := convRepo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultConversationTitle, stored.Title)
}

func TestRenameBranch_RootMirrorsConversation(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	svc := NewBranchService(convRepo, branchRepo)

	conv, root, err := svc.CreateConversation(context.Background(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.RenameBranch(context.Background(), root.ID, "travel plans"))

	stored, err := convRepo.FindByID(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "travel plans", stored.Title)
}

func TestRenameBranch_EmptyTitle(t *testing.T) {
	svc := NewBranchService(newMockConversationRepository(), newMockBranchRepository())

	err := svc.RenameBranch(context.Background(), uuid.New(), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDeleteBranch(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	svc := NewBranchService(convRepo, branchRepo)

	conv, root, err := svc.CreateConversation(context.Background(), uuid.New())
	require.NoError(t, err)
	forked := NewForkedBranch(conv.ID, root.ID, NewBranchTitle)
	require.NoError(t, branchRepo.Create(context.Background(), forked))

	require.NoError(t, svc.DeleteBranch(context.Background(), forked.ID))
	_, err = branchRepo.FindByID(context.Background(), forked.ID)
	require.Error(t, err)
}

func TestDeleteBranch_RootIsProtected(t *testing.T) {
	convRepo := newMockConversationRepository()
	branchRepo := newMockBranchRepository()
	svc := NewBranchService(convRepo, branchRepo)

	conv, root, err := svc.CreateConversation(context.Background(), uuid.New())
	require.NoError(t, err)

	err = svc.DeleteBranch(context.Background(), root.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProtectedBranch))

	// the root branch survives the attempt
	stored, err := branchRepo.FindRoot(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, root.ID, stored.ID)
}
